// Package bulkfetch drives paginated article fetches across several feeds and
// accumulates the pages a user has loaded so far.
package bulkfetch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"laune/reader/internal/metrics"
	"laune/reader/internal/models"
)

var (
	// ErrEmptySelection is returned by Submit when no feed is selected.
	ErrEmptySelection = errors.New("please select at least one feed")
	// ErrInvalidPageSize is returned by Submit for a non-positive page size.
	ErrInvalidPageSize = errors.New("page size must be positive")
	// ErrBusy is returned by LoadMore while a request is in flight.
	ErrBusy = errors.New("a request is already in flight")
	// ErrNotReady is returned by LoadMore before a query has completed.
	ErrNotReady = errors.New("no completed query to continue")
	// ErrNoMore is returned by LoadMore when every matching article is loaded.
	ErrNoMore = errors.New("no more articles to load")
	// ErrSuperseded is returned to the caller whose response arrived after a newer Submit.
	ErrSuperseded = errors.New("request superseded by a newer query")
	// ErrPageOverflow is returned when the backend sends more articles than requested.
	ErrPageOverflow = errors.New("backend returned more articles than the requested limit")
)

// Status is the coordinator's lifecycle state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Op names the operation that last changed the state.
type Op string

const (
	OpNone     Op = ""
	OpSubmit   Op = "submit"
	OpLoadMore Op = "load_more"
)

// Fetcher issues one bulk fetch request against the backend.
type Fetcher interface {
	BulkFetch(ctx context.Context, req models.BulkFetchRequest) (models.BulkFetchResponse, error)
}

// Query is what a user submits: the selected feeds, optional inclusive
// publication bounds (RFC 3339) and the page size.
type Query struct {
	FeedIDs   []string
	StartDate *string
	EndDate   *string
	PageSize  int
}

func (q Query) clone() Query {
	q.FeedIDs = slices.Clone(q.FeedIDs)
	return q
}

// State is a point-in-time copy of the coordinator.
type State struct {
	Status        Status
	LastOp        Op
	Query         Query
	Articles      []models.Article
	Offset        int
	TotalCount    int
	FeedSummaries []models.FeedSummary
	Err           error
}

// HasMore reports whether a LoadMore call would fetch another page.
func (s State) HasMore() bool {
	return s.Status == StatusReady && len(s.Articles) < s.TotalCount
}

// Remaining is the number of matching articles not loaded yet.
func (s State) Remaining() int {
	if n := s.TotalCount - len(s.Articles); n > 0 {
		return n
	}
	return 0
}

// Coordinator is the bulk fetch state machine. Its mutex is held only while
// switching state, never across the network call.
type Coordinator struct {
	fetcher Fetcher
	logger  zerolog.Logger

	mu    sync.Mutex
	state State
	epoch uint64
}

// New creates an idle coordinator.
func New(fetcher Fetcher, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "bulkfetch").Logger(),
		state: State{
			Status:        StatusIdle,
			Articles:      []models.Article{},
			FeedSummaries: []models.FeedSummary{},
		},
	}
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Query = s.Query.clone()
	s.Articles = slices.Clone(s.Articles)
	s.FeedSummaries = slices.Clone(s.FeedSummaries)
	return s
}

// Submit starts a fresh query from the first page. It may be called in any
// state; a request still in flight is superseded and its response dropped.
func (c *Coordinator) Submit(ctx context.Context, q Query) error {
	q = q.clone()

	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.state.Query = q
	c.state.LastOp = OpSubmit

	if err := validate(q); err != nil {
		c.setStatus(StatusError)
		c.state.Err = err
		c.mu.Unlock()
		c.logger.Debug().Err(err).Msg("Rejected bulk fetch query")
		return err
	}

	c.state.Articles = []models.Article{}
	c.state.Offset = 0
	c.state.Err = nil
	c.setStatus(StatusLoading)
	c.mu.Unlock()

	c.logger.Debug().
		Strs("feed_ids", q.FeedIDs).
		Int("page_size", q.PageSize).
		Uint64("epoch", epoch).
		Msg("Submitting bulk fetch")

	resp, err := c.fetch(ctx, q, 0)

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		c.logger.Debug().Uint64("epoch", epoch).Msg("Discarding superseded bulk fetch response")
		return ErrSuperseded
	}
	if err != nil {
		c.fail(err)
		return err
	}

	c.state.Articles = resp.Articles
	c.state.Offset = q.PageSize
	c.state.TotalCount = resp.TotalCount
	c.state.FeedSummaries = resp.FeedSummaries
	c.setStatus(StatusReady)
	return nil
}

// LoadMore fetches the next page of the current query and appends it.
func (c *Coordinator) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.state.Status == StatusLoading:
		c.mu.Unlock()
		return ErrBusy
	case c.state.Status != StatusReady:
		c.mu.Unlock()
		return ErrNotReady
	case len(c.state.Articles) >= c.state.TotalCount:
		c.mu.Unlock()
		return ErrNoMore
	}

	epoch := c.epoch
	q := c.state.Query.clone()
	offset := c.state.Offset
	c.state.LastOp = OpLoadMore
	c.setStatus(StatusLoading)
	c.mu.Unlock()

	c.logger.Debug().Int("offset", offset).Uint64("epoch", epoch).Msg("Loading more articles")

	resp, err := c.fetch(ctx, q, offset)

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		c.logger.Debug().Uint64("epoch", epoch).Msg("Discarding superseded load more response")
		return ErrSuperseded
	}
	if err != nil {
		c.fail(err)
		return err
	}

	c.state.Articles = append(c.state.Articles, resp.Articles...)
	c.state.Offset += q.PageSize
	c.state.TotalCount = resp.TotalCount
	c.state.FeedSummaries = resp.FeedSummaries
	c.setStatus(StatusReady)
	return nil
}

func (c *Coordinator) fetch(ctx context.Context, q Query, offset int) (models.BulkFetchResponse, error) {
	req := models.BulkFetchRequest{
		FeedIDs:   q.FeedIDs,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Limit:     q.PageSize,
		Offset:    offset,
	}

	resp, err := c.fetcher.BulkFetch(ctx, req)
	if err != nil {
		return models.BulkFetchResponse{}, err
	}
	if len(resp.Articles) > req.Limit {
		return models.BulkFetchResponse{}, fmt.Errorf("%w: got %d for limit %d", ErrPageOverflow, len(resp.Articles), req.Limit)
	}
	metrics.BulkFetchPageSize.Observe(float64(len(resp.Articles)))

	if resp.Articles == nil {
		resp.Articles = []models.Article{}
	}
	if resp.FeedSummaries == nil {
		resp.FeedSummaries = []models.FeedSummary{}
	}
	return resp, nil
}

// fail and setStatus must be called with mu held.
func (c *Coordinator) fail(err error) {
	c.state.Err = err
	c.setStatus(StatusError)
	c.logger.Warn().Err(err).Msg("Bulk fetch failed")
}

func (c *Coordinator) setStatus(s Status) {
	c.state.Status = s
	metrics.RecordTransition(string(s))
}

func validate(q Query) error {
	if len(q.FeedIDs) == 0 {
		return ErrEmptySelection
	}
	if q.PageSize <= 0 {
		return ErrInvalidPageSize
	}
	return nil
}
