package querycache

import (
	"context"

	"laune/reader/internal/client"
	"laune/reader/internal/models"
)

// Backend is the subset of the API client that CachedClient wraps.
type Backend interface {
	ListFeeds(ctx context.Context) ([]models.Feed, error)
	CreateFeed(ctx context.Context, feed models.NewFeed) (models.Feed, error)
	UpdateFeed(ctx context.Context, id string, update models.FeedUpdate) (models.Feed, error)
	DeleteFeed(ctx context.Context, id string) error
	RefreshFeed(ctx context.Context, id string) (models.RefreshResult, error)
	ListArticles(ctx context.Context, filter client.ArticleFilter) ([]models.Article, error)
	GetArticle(ctx context.Context, id string) (models.Article, error)
	BulkFetch(ctx context.Context, req models.BulkFetchRequest) (models.BulkFetchResponse, error)
	GetSummary(ctx context.Context, articleID string) (*models.Summary, error)
	GenerateSummary(ctx context.Context, articleID string) (models.Summary, error)
	AggregateSummary(ctx context.Context, req models.DigestRequest) (models.Digest, error)
}

var (
	_ Backend = (*client.Client)(nil)
	_ Backend = (*CachedClient)(nil)
)

// CachedClient serves reads from the cache and invalidates the affected
// queries after each successful mutation. Bulk fetches and digests are not
// cached; the bulk fetch coordinator owns its own results.
type CachedClient struct {
	backend Backend
	cache   *Cache
}

// NewCachedClient wraps backend with cache.
func NewCachedClient(backend Backend, cache *Cache) *CachedClient {
	return &CachedClient{backend: backend, cache: cache}
}

// Cache returns the underlying cache.
func (c *CachedClient) Cache() *Cache {
	return c.cache
}

func (c *CachedClient) ListFeeds(ctx context.Context) ([]models.Feed, error) {
	return Get(ctx, c.cache, FeedsKey, c.backend.ListFeeds)
}

func (c *CachedClient) CreateFeed(ctx context.Context, feed models.NewFeed) (models.Feed, error) {
	created, err := c.backend.CreateFeed(ctx, feed)
	if err != nil {
		return models.Feed{}, err
	}
	c.invalidateFeeds()
	return created, nil
}

func (c *CachedClient) UpdateFeed(ctx context.Context, id string, update models.FeedUpdate) (models.Feed, error) {
	updated, err := c.backend.UpdateFeed(ctx, id, update)
	if err != nil {
		return models.Feed{}, err
	}
	c.invalidateFeeds()
	return updated, nil
}

func (c *CachedClient) DeleteFeed(ctx context.Context, id string) error {
	if err := c.backend.DeleteFeed(ctx, id); err != nil {
		return err
	}
	c.invalidateFeeds()
	return nil
}

func (c *CachedClient) RefreshFeed(ctx context.Context, id string) (models.RefreshResult, error) {
	res, err := c.backend.RefreshFeed(ctx, id)
	if err != nil {
		return models.RefreshResult{}, err
	}
	c.cache.Invalidate(FeedsKey, ArticlesKey, FeedArticlesKey(id))
	return res, nil
}

// ListArticles caches the unpaged lists only.
func (c *CachedClient) ListArticles(ctx context.Context, filter client.ArticleFilter) ([]models.Article, error) {
	if filter.Limit > 0 || filter.Offset > 0 {
		return c.backend.ListArticles(ctx, filter)
	}

	key := ArticlesKey
	if filter.FeedID != "" {
		key = FeedArticlesKey(filter.FeedID)
	}
	return Get(ctx, c.cache, key, func(ctx context.Context) ([]models.Article, error) {
		return c.backend.ListArticles(ctx, filter)
	})
}

func (c *CachedClient) GetArticle(ctx context.Context, id string) (models.Article, error) {
	return Get(ctx, c.cache, ArticleKey(id), func(ctx context.Context) (models.Article, error) {
		return c.backend.GetArticle(ctx, id)
	})
}

func (c *CachedClient) BulkFetch(ctx context.Context, req models.BulkFetchRequest) (models.BulkFetchResponse, error) {
	return c.backend.BulkFetch(ctx, req)
}

func (c *CachedClient) GetSummary(ctx context.Context, articleID string) (*models.Summary, error) {
	return Get(ctx, c.cache, SummaryKey(articleID), func(ctx context.Context) (*models.Summary, error) {
		return c.backend.GetSummary(ctx, articleID)
	})
}

func (c *CachedClient) GenerateSummary(ctx context.Context, articleID string) (models.Summary, error) {
	summary, err := c.backend.GenerateSummary(ctx, articleID)
	if err != nil {
		return models.Summary{}, err
	}
	c.cache.Invalidate(SummaryKey(articleID))
	return summary, nil
}

func (c *CachedClient) AggregateSummary(ctx context.Context, req models.DigestRequest) (models.Digest, error) {
	return c.backend.AggregateSummary(ctx, req)
}

// invalidateFeeds drops the feed list and every article list: a feed change
// can add or remove articles from any of them.
func (c *CachedClient) invalidateFeeds() {
	c.cache.Invalidate(FeedsKey)
	c.cache.InvalidatePrefix(ArticlesKey)
}
