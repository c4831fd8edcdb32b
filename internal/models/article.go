package models

import "time"

// Article represents a single entry of a feed. Content is HTML.
type Article struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	FeedID      string  `json:"feedId"`
	Content     string  `json:"content"`
	PublishedAt *string `json:"publishedAt,omitempty"`
	CreatedAt   *string `json:"createdAt,omitempty"`
	UpdatedAt   *string `json:"updatedAt,omitempty"`
}

// Published returns the parsed publication time. ok is false when the
// article has no date or the value is not ISO-8601.
func (a Article) Published() (t time.Time, ok bool) {
	return ParseTimestamp(a.PublishedAt)
}

// Summary is an AI-generated summary of an article.
type Summary struct {
	ID        string  `json:"id"`
	ArticleID string  `json:"articleId"`
	Content   string  `json:"content"`
	CreatedAt string  `json:"createdAt"`
	Model     string  `json:"model"`
	UpdatedAt *string `json:"updatedAt,omitempty"`
}

// ParseTimestamp parses an optional ISO-8601 timestamp.
func ParseTimestamp(s *string) (time.Time, bool) {
	if s == nil || *s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
