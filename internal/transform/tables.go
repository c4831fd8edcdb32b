package transform

// Field tables for every entity exchanged with the backend.
var (
	Feed = &Table{Entity: "Feed", Fields: []Field{
		{Wire: "id", Internal: "id"},
		{Wire: "title", Internal: "title"},
		{Wire: "url", Internal: "url"},
		{Wire: "last_fetched", Internal: "lastFetched", Optional: true},
		{Wire: "active", Internal: "active", Optional: true},
		{Wire: "created_at", Internal: "createdAt", Optional: true},
		{Wire: "updated_at", Internal: "updatedAt", Optional: true},
	}}

	NewFeed = &Table{Entity: "NewFeed", Fields: []Field{
		{Wire: "title", Internal: "title"},
		{Wire: "url", Internal: "url"},
	}}

	FeedUpdate = &Table{Entity: "FeedUpdate", Fields: []Field{
		{Wire: "title", Internal: "title", Optional: true},
		{Wire: "url", Internal: "url", Optional: true},
	}}

	RefreshResult = &Table{Entity: "RefreshResult", Fields: []Field{
		{Wire: "success", Internal: "success"},
		{Wire: "feed_id", Internal: "feedId"},
		{Wire: "articles_added", Internal: "articlesAdded"},
	}}

	Article = &Table{Entity: "Article", Fields: []Field{
		{Wire: "id", Internal: "id"},
		{Wire: "title", Internal: "title"},
		{Wire: "url", Internal: "url"},
		{Wire: "feed_id", Internal: "feedId"},
		{Wire: "content", Internal: "content"},
		{Wire: "published_at", Internal: "publishedAt", Optional: true},
		{Wire: "created_at", Internal: "createdAt", Optional: true},
		{Wire: "updated_at", Internal: "updatedAt", Optional: true},
	}}

	Summary = &Table{Entity: "Summary", Fields: []Field{
		{Wire: "id", Internal: "id"},
		{Wire: "article_id", Internal: "articleId"},
		{Wire: "content", Internal: "content"},
		{Wire: "created_at", Internal: "createdAt"},
		{Wire: "model", Internal: "model"},
		{Wire: "updated_at", Internal: "updatedAt", Optional: true},
	}}

	FeedSummary = &Table{Entity: "FeedSummary", Fields: []Field{
		{Wire: "feed_id", Internal: "feedId"},
		{Wire: "feed_title", Internal: "feedTitle"},
		{Wire: "article_count", Internal: "articleCount"},
	}}

	BulkFetchRequest = &Table{Entity: "BulkFetchRequest", Fields: []Field{
		{Wire: "feed_ids", Internal: "feedIds"},
		{Wire: "start_date", Internal: "startDate", Optional: true},
		{Wire: "end_date", Internal: "endDate", Optional: true},
		{Wire: "limit", Internal: "limit", Optional: true},
		{Wire: "offset", Internal: "offset", Optional: true},
	}}

	BulkFetchResponse = &Table{Entity: "BulkFetchResponse", Fields: []Field{
		{Wire: "articles", Internal: "articles", Shape: List, Elem: Article},
		{Wire: "total_count", Internal: "totalCount"},
		{Wire: "feed_summaries", Internal: "feedSummaries", Shape: List, Elem: FeedSummary},
	}}

	DigestRequest = &Table{Entity: "DigestRequest", Fields: []Field{
		{Wire: "feed_ids", Internal: "feedIds"},
		{Wire: "hours_back", Internal: "hoursBack", Optional: true},
	}}

	DigestArticle = &Table{Entity: "DigestArticle", Fields: []Field{
		{Wire: "id", Internal: "id"},
		{Wire: "title", Internal: "title"},
		{Wire: "url", Internal: "url"},
		{Wire: "published_at", Internal: "publishedAt"},
		{Wire: "summary", Internal: "summary", Optional: true},
	}}

	DigestFeed = &Table{Entity: "DigestFeed", Fields: []Field{
		{Wire: "feed_id", Internal: "feedId"},
		{Wire: "feed_title", Internal: "feedTitle"},
		{Wire: "article_count", Internal: "articleCount"},
		{Wire: "articles", Internal: "articles", Shape: List, Elem: DigestArticle},
	}}

	Digest = &Table{Entity: "Digest", Fields: []Field{
		{Wire: "summary", Internal: "summary"},
		{Wire: "feeds", Internal: "feeds", Shape: List, Elem: DigestFeed},
		{Wire: "total_articles", Internal: "totalArticles"},
		{Wire: "time_range_hours", Internal: "timeRangeHours"},
	}}
)
