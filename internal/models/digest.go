package models

// Digest limits accepted by the backend for the aggregated summary.
const (
	DefaultDigestHours = 24
	MaxDigestHours     = 168
)

// DigestRequest asks the backend for one summary across several feeds
// covering the last HoursBack hours.
type DigestRequest struct {
	FeedIDs   []string `json:"feedIds"`
	HoursBack int      `json:"hoursBack,omitempty"`
}

// Digest is the aggregated summary returned for a DigestRequest.
type Digest struct {
	Summary        string       `json:"summary"`
	Feeds          []DigestFeed `json:"feeds"`
	TotalArticles  int          `json:"totalArticles"`
	TimeRangeHours int          `json:"timeRangeHours"`
}

// DigestFeed lists the articles of one feed that went into a digest.
type DigestFeed struct {
	FeedID       string          `json:"feedId"`
	FeedTitle    string          `json:"feedTitle"`
	ArticleCount int             `json:"articleCount"`
	Articles     []DigestArticle `json:"articles"`
}

// DigestArticle is a digest entry; Summary is set when the article was already summarized.
type DigestArticle struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	PublishedAt string  `json:"publishedAt"`
	Summary     *string `json:"summary,omitempty"`
}
