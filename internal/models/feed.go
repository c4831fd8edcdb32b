package models

// Feed represents an RSS/Atom source registered with the backend.
type Feed struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	LastFetched *string `json:"lastFetched,omitempty"` // ISO-8601, absent until the first refresh
	Active      *bool   `json:"active,omitempty"`
	CreatedAt   *string `json:"createdAt,omitempty"`
	UpdatedAt   *string `json:"updatedAt,omitempty"`
}

// NewFeed is the body of a create request: a Feed without identifier.
type NewFeed struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// FeedUpdate carries the fields to change on an existing feed. Nil fields are left untouched.
type FeedUpdate struct {
	Title *string `json:"title,omitempty"`
	URL   *string `json:"url,omitempty"`
}

// RefreshResult is returned by the backend after it re-crawled a feed.
type RefreshResult struct {
	Success       bool   `json:"success"`
	FeedID        string `json:"feedId"`
	ArticlesAdded int    `json:"articlesAdded"`
}

// FindFeed returns the feed with the given id from a loaded list.
func FindFeed(feeds []Feed, id string) (Feed, bool) {
	for _, f := range feeds {
		if f.ID == id {
			return f, true
		}
	}
	return Feed{}, false
}
