package web

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"laune/reader/internal/bulkfetch"
	"laune/reader/internal/models"
	"laune/reader/internal/server/pagination"
	"laune/reader/internal/server/storage"
)

type feedOption struct {
	ID      string
	Title   string
	Checked bool
}

type pageSizeOption struct {
	Value    int
	Selected bool
}

type bulkResults struct {
	Total         int
	Showing       int
	FeedSummaries []models.FeedSummary
	Articles      []articleCard
	HasMore       bool
	Remaining     int
	Cursor        string
}

type bulkView struct {
	Feeds     []feedOption
	StartDate string
	EndDate   string
	PageSizes []pageSizeOption
	Loading   bool
	Results   *bulkResults
}

// bulkSelection is what the bulk fetch form is prefilled with.
type bulkSelection struct {
	FeedIDs   []string
	AllFeeds  bool
	StartDate *string
	EndDate   *string
	PageSize  int
}

// BulkFetch shows the bulk fetch form and the articles accumulated so far
// by the session's coordinator.
func (h *Handler) BulkFetch(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessions.ID(w, r)
	state := h.sessions.Coordinator(sessionID).Snapshot()

	sel := h.selection(r, sessionID, state)
	switch r.URL.Query().Get("select") {
	case "all":
		sel.AllFeeds = true
	case "none":
		sel.FeedIDs = nil
	}

	h.renderBulk(w, r, http.StatusOK, state, sel, bulkMessage(state))
}

// SubmitBulkFetch starts a fresh query from the submitted form and redirects
// back to the results.
func (h *Handler) SubmitBulkFetch(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	sessionID := h.sessions.ID(w, r)
	coordinator := h.sessions.Coordinator(sessionID)

	if err := r.ParseForm(); err != nil {
		log.Warn().Err(err).Msg("Invalid bulk fetch form")
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	form, err := pagination.ParseBulkForm(r.PostForm, h.defaultPageSize, h.loc)
	if err != nil {
		log.Debug().Err(err).Msg("Rejected bulk fetch form")
		sel := bulkSelection{FeedIDs: form.FeedIDs, StartDate: form.StartDate, EndDate: form.EndDate, PageSize: form.PageSize}
		if sel.PageSize == 0 {
			sel.PageSize = h.defaultPageSize
		}
		h.renderBulk(w, r, http.StatusBadRequest, coordinator.Snapshot(), sel, formMessage(err))
		return
	}

	if len(form.FeedIDs) > 0 {
		h.saveSelection(r.Context(), log, sessionID, form)
	}

	// The query keeps running if the browser goes away; its result is
	// picked up on the next page load.
	ctx := context.WithoutCancel(r.Context())
	err = coordinator.Submit(ctx, bulkfetch.Query{
		FeedIDs:   form.FeedIDs,
		StartDate: form.StartDate,
		EndDate:   form.EndDate,
		PageSize:  form.PageSize,
	})
	switch {
	case err == nil:
		log.Debug().Strs("feed_ids", form.FeedIDs).Msg("Bulk fetch completed")
	case errors.Is(err, bulkfetch.ErrSuperseded), errors.Is(err, bulkfetch.ErrEmptySelection):
		log.Debug().Err(err).Msg("Bulk fetch not applied")
	default:
		log.Error().Err(err).Msg("Bulk fetch failed")
	}

	redirect(w, r, "/bulk-fetch")
}

// LoadMore appends the next page. The cursor must match the coordinator's
// current position, so a resubmitted form does not load a page twice.
func (h *Handler) LoadMore(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	sessionID := h.sessions.ID(w, r)
	coordinator := h.sessions.Coordinator(sessionID)

	if err := r.ParseForm(); err != nil {
		log.Warn().Err(err).Msg("Invalid load more form")
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	cursor := r.PostFormValue("cursor")
	offset, total, err := pagination.DecodeCursor(cursor)
	if err != nil {
		log.Warn().Err(err).Str("cursor", cursor).Msg("Invalid 'cursor' parameter")
		http.Error(w, "Invalid 'cursor' parameter", http.StatusBadRequest)
		return
	}

	state := coordinator.Snapshot()
	if offset != state.Offset || total != state.TotalCount {
		log.Debug().
			Int("offset", offset).
			Int("current_offset", state.Offset).
			Msg("Ignoring stale load more request")
		redirect(w, r, "/bulk-fetch#load-more")
		return
	}

	err = coordinator.LoadMore(context.WithoutCancel(r.Context()))
	switch {
	case err == nil:
	case errors.Is(err, bulkfetch.ErrBusy),
		errors.Is(err, bulkfetch.ErrNoMore),
		errors.Is(err, bulkfetch.ErrNotReady),
		errors.Is(err, bulkfetch.ErrSuperseded):
		log.Debug().Err(err).Msg("Load more not applied")
	default:
		log.Error().Err(err).Msg("Load more failed")
	}

	redirect(w, r, "/bulk-fetch#load-more")
}

func (h *Handler) renderBulk(w http.ResponseWriter, r *http.Request, status int, state bulkfetch.State, sel bulkSelection, msg string) {
	log := hlog.FromRequest(r)

	feeds, err := h.api.ListFeeds(r.Context())
	p := page{Title: "Bulk Article Fetch", Nav: "bulk", Error: msg}.withFeeds(feeds, err)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load feeds")
		p.Error = "Failed to load feeds"
	}

	view := bulkView{
		Feeds:     feedOptions(feeds, sel.FeedIDs, sel.AllFeeds),
		StartDate: pagination.FormatDateBound(sel.StartDate, h.loc),
		EndDate:   pagination.FormatDateBound(sel.EndDate, h.loc),
		Loading:   state.Status == bulkfetch.StatusLoading,
	}
	for _, size := range pagination.PageSizes {
		view.PageSizes = append(view.PageSizes, pageSizeOption{Value: size, Selected: size == sel.PageSize})
	}

	if showResults(state) {
		view.Results = &bulkResults{
			Total:         state.TotalCount,
			Showing:       len(state.Articles),
			FeedSummaries: state.FeedSummaries,
			Articles:      h.text.cards(state.Articles, bulkPreviewLength, feedTitles(feeds)),
			HasMore:       state.HasMore(),
			Remaining:     state.Remaining(),
			Cursor:        pagination.EncodeCursor(state.Offset, state.TotalCount),
		}
	}

	p.Data = view
	h.render(w, r, status, "bulk", p)
}

// selection picks the form prefill: the coordinator's query once one was
// submitted in this process, otherwise the stored selection of the session.
func (h *Handler) selection(r *http.Request, sessionID string, state bulkfetch.State) bulkSelection {
	if state.Status != bulkfetch.StatusIdle {
		return bulkSelection{
			FeedIDs:   state.Query.FeedIDs,
			StartDate: state.Query.StartDate,
			EndDate:   state.Query.EndDate,
			PageSize:  state.Query.PageSize,
		}
	}

	def := bulkSelection{PageSize: h.defaultPageSize}
	if h.selections == nil {
		return def
	}
	stored, ok, err := h.selections.LoadSelection(r.Context(), sessionID)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("Failed to load saved selection")
		return def
	}
	if !ok {
		return def
	}
	return bulkSelection{
		FeedIDs:   stored.FeedIDs,
		StartDate: stored.StartDate,
		EndDate:   stored.EndDate,
		PageSize:  stored.PageSize,
	}
}

func (h *Handler) saveSelection(ctx context.Context, log *zerolog.Logger, sessionID string, form pagination.BulkForm) {
	if h.selections == nil {
		return
	}
	err := h.selections.SaveSelection(ctx, storage.Selection{
		SessionID: sessionID,
		FeedIDs:   form.FeedIDs,
		StartDate: form.StartDate,
		EndDate:   form.EndDate,
		PageSize:  form.PageSize,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to save selection")
	}
}

// showResults reports whether the state carries articles worth listing. A
// failed or pending load more keeps the pages loaded before it.
func showResults(s bulkfetch.State) bool {
	switch s.Status {
	case bulkfetch.StatusReady:
		return true
	case bulkfetch.StatusLoading, bulkfetch.StatusError:
		return s.LastOp == bulkfetch.OpLoadMore
	}
	return false
}

func bulkMessage(s bulkfetch.State) string {
	if s.Status != bulkfetch.StatusError {
		return ""
	}
	switch {
	case errors.Is(s.Err, bulkfetch.ErrEmptySelection):
		return "Please select at least one feed"
	case s.LastOp == bulkfetch.OpLoadMore:
		return "Failed to load more articles"
	default:
		return "Failed to fetch articles"
	}
}

func formMessage(err error) string {
	switch {
	case errors.Is(err, pagination.ErrInvalidPageSize):
		return "Please choose 25, 50, 100 or 200 articles per page"
	case errors.Is(err, pagination.ErrDateOrder):
		return "Start date must not be after end date"
	case errors.Is(err, pagination.ErrInvalidDate):
		return "Please enter valid dates"
	default:
		return "Invalid form"
	}
}

func feedOptions(feeds []models.Feed, selected []string, all bool) []feedOption {
	options := make([]feedOption, 0, len(feeds))
	for _, f := range feeds {
		options = append(options, feedOption{
			ID:      f.ID,
			Title:   f.Title,
			Checked: all || slices.Contains(selected, f.ID),
		})
	}
	return options
}
