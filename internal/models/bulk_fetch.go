package models

// BulkFetchRequest selects articles across feeds. StartDate and EndDate are
// inclusive bounds on publication time and may be omitted independently.
type BulkFetchRequest struct {
	FeedIDs   []string `json:"feedIds"`
	StartDate *string  `json:"startDate,omitempty"`
	EndDate   *string  `json:"endDate,omitempty"`
	Limit     int      `json:"limit"`
	Offset    int      `json:"offset"`
}

// BulkFetchResponse is one page of a bulk fetch. TotalCount and FeedSummaries
// describe the whole matched set, not just this page.
type BulkFetchResponse struct {
	Articles      []Article     `json:"articles"`
	TotalCount    int           `json:"totalCount"`
	FeedSummaries []FeedSummary `json:"feedSummaries"`
}

// FeedSummary is the number of matching articles for one feed.
type FeedSummary struct {
	FeedID       string `json:"feedId"`
	FeedTitle    string `json:"feedTitle"`
	ArticleCount int    `json:"articleCount"`
}
