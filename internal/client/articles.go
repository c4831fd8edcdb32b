package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"laune/reader/internal/models"
	"laune/reader/internal/transform"
)

var (
	// ErrNoFeeds is returned locally when a request needs at least one feed id.
	ErrNoFeeds = errors.New("at least one feed id is required")
	// ErrInvalidHours is returned for a digest window outside 1..168 hours.
	ErrInvalidHours = errors.New("hours back must be between 1 and 168")
)

// ArticleFilter narrows ListArticles. Zero values are not sent.
type ArticleFilter struct {
	FeedID string
	Limit  int
	Offset int
}

// ListArticles returns the articles of every feed, or of one feed when
// filter.FeedID is set.
func (c *Client) ListArticles(ctx context.Context, filter ArticleFilter) ([]models.Article, error) {
	path := "/articles"
	if filter.FeedID != "" {
		path = "/feeds/" + escape(filter.FeedID) + "/articles"
	}

	query := url.Values{}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		query.Set("offset", strconv.Itoa(filter.Offset))
	}

	body, err := c.do(ctx, call{op: "list_articles", method: http.MethodGet, path: path, query: query})
	if err != nil {
		return nil, err
	}
	articles, err := transform.DecodeArticles(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode articles: %w", err)
	}
	return articles, nil
}

// GetArticle returns one article. A missing article yields an error matching ErrNotFound.
func (c *Client) GetArticle(ctx context.Context, id string) (models.Article, error) {
	body, err := c.do(ctx, call{op: "get_article", method: http.MethodGet, path: "/articles/" + escape(id)})
	if err != nil {
		return models.Article{}, err
	}
	article, err := transform.DecodeArticle(body)
	if err != nil {
		return models.Article{}, fmt.Errorf("failed to decode article: %w", err)
	}
	return article, nil
}

// BulkFetch returns one page of articles across the selected feeds.
func (c *Client) BulkFetch(ctx context.Context, req models.BulkFetchRequest) (models.BulkFetchResponse, error) {
	if len(req.FeedIDs) == 0 {
		return models.BulkFetchResponse{}, ErrNoFeeds
	}

	wire, err := transform.EncodeBulkFetchRequest(req)
	if err != nil {
		return models.BulkFetchResponse{}, err
	}
	body, err := c.do(ctx, call{op: "bulk_fetch", method: http.MethodPost, path: "/articles/bulk-fetch", body: wire})
	if err != nil {
		return models.BulkFetchResponse{}, err
	}
	resp, err := transform.DecodeBulkFetchResponse(body)
	if err != nil {
		return models.BulkFetchResponse{}, fmt.Errorf("failed to decode bulk fetch response: %w", err)
	}
	return resp, nil
}

// GetSummary returns the stored summary of an article, or nil when none has
// been generated yet. A missing article yields an error matching ErrNotFound.
func (c *Client) GetSummary(ctx context.Context, articleID string) (*models.Summary, error) {
	body, err := c.do(ctx, call{op: "get_summary", method: http.MethodGet, path: "/articles/" + escape(articleID) + "/summary"})
	if err != nil {
		return nil, err
	}
	summary, err := transform.DecodeSummary(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	return summary, nil
}

// GenerateSummary asks the backend to summarize an article. Calls are spaced
// by the client's summary limiter and wait for a slot or ctx.
func (c *Client) GenerateSummary(ctx context.Context, articleID string) (models.Summary, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.Summary{}, fmt.Errorf("summary rate limit wait failed: %w", err)
	}

	body, err := c.do(ctx, call{op: "generate_summary", method: http.MethodPost, path: "/articles/" + escape(articleID) + "/summary"})
	if err != nil {
		return models.Summary{}, err
	}
	summary, err := transform.DecodeSummary(body)
	if err != nil {
		return models.Summary{}, fmt.Errorf("failed to decode generated summary: %w", err)
	}
	if summary == nil {
		return models.Summary{}, fmt.Errorf("backend returned no summary for article %s", articleID)
	}
	return *summary, nil
}
