package client

import (
	"context"
	"fmt"
	"net/http"

	"laune/reader/internal/models"
	"laune/reader/internal/transform"
)

// ListFeeds returns every feed known to the backend.
func (c *Client) ListFeeds(ctx context.Context) ([]models.Feed, error) {
	body, err := c.do(ctx, call{op: "list_feeds", method: http.MethodGet, path: "/feeds"})
	if err != nil {
		return nil, err
	}
	feeds, err := transform.DecodeFeeds(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode feeds: %w", err)
	}
	return feeds, nil
}

// CreateFeed registers a new feed and returns it as stored by the backend.
func (c *Client) CreateFeed(ctx context.Context, feed models.NewFeed) (models.Feed, error) {
	wire, err := transform.EncodeNewFeed(feed)
	if err != nil {
		return models.Feed{}, err
	}
	body, err := c.do(ctx, call{op: "create_feed", method: http.MethodPost, path: "/feeds", body: wire})
	if err != nil {
		return models.Feed{}, err
	}
	created, err := transform.DecodeFeed(body)
	if err != nil {
		return models.Feed{}, fmt.Errorf("failed to decode created feed: %w", err)
	}
	return created, nil
}

// UpdateFeed changes the title and/or URL of a feed.
func (c *Client) UpdateFeed(ctx context.Context, id string, update models.FeedUpdate) (models.Feed, error) {
	wire, err := transform.EncodeFeedUpdate(update)
	if err != nil {
		return models.Feed{}, err
	}
	body, err := c.do(ctx, call{op: "update_feed", method: http.MethodPut, path: "/feeds/" + escape(id), body: wire})
	if err != nil {
		return models.Feed{}, err
	}
	updated, err := transform.DecodeFeed(body)
	if err != nil {
		return models.Feed{}, fmt.Errorf("failed to decode updated feed: %w", err)
	}
	return updated, nil
}

// DeleteFeed removes a feed. The backend answers with an empty body or
// {"success":true}; the body is not inspected further.
func (c *Client) DeleteFeed(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{op: "delete_feed", method: http.MethodDelete, path: "/feeds/" + escape(id)})
	return err
}

// RefreshFeed asks the backend to crawl a feed now.
func (c *Client) RefreshFeed(ctx context.Context, id string) (models.RefreshResult, error) {
	body, err := c.do(ctx, call{op: "refresh_feed", method: http.MethodPost, path: "/feeds/" + escape(id) + "/refresh"})
	if err != nil {
		return models.RefreshResult{}, err
	}
	res, err := transform.DecodeRefreshResult(body)
	if err != nil {
		return models.RefreshResult{}, fmt.Errorf("failed to decode refresh result: %w", err)
	}
	return res, nil
}

// AggregateSummary requests one digest covering the selected feeds over the
// last HoursBack hours (zero means the backend default).
func (c *Client) AggregateSummary(ctx context.Context, req models.DigestRequest) (models.Digest, error) {
	if len(req.FeedIDs) == 0 {
		return models.Digest{}, ErrNoFeeds
	}
	if req.HoursBack < 0 || req.HoursBack > models.MaxDigestHours {
		return models.Digest{}, fmt.Errorf("%w: %d", ErrInvalidHours, req.HoursBack)
	}

	wire, err := transform.EncodeDigestRequest(req)
	if err != nil {
		return models.Digest{}, err
	}
	body, err := c.do(ctx, call{op: "aggregate_summary", method: http.MethodPost, path: "/feeds/aggregate-summary", body: wire})
	if err != nil {
		return models.Digest{}, err
	}
	digest, err := transform.DecodeDigest(body)
	if err != nil {
		return models.Digest{}, fmt.Errorf("failed to decode digest: %w", err)
	}
	return digest, nil
}
