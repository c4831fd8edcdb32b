package transform

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laune/reader/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestDecodeFeeds(t *testing.T) {
	body := []byte(`[
		{"id":"f1","title":"Go Blog","url":"https://go.dev/blog/feed.atom","last_fetched":"2024-05-01T10:00:00Z","active":true,
		 "created_at":"2024-01-01T00:00:00Z","updated_at":"2024-05-01T10:00:00Z"},
		{"id":"f2","title":"New","url":"https://example.com/rss"}
	]`)

	feeds, err := DecodeFeeds(body)

	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, "Go Blog", feeds[0].Title)
	require.NotNil(t, feeds[0].LastFetched)
	assert.Equal(t, "2024-05-01T10:00:00Z", *feeds[0].LastFetched)
	assert.Equal(t, ptr(true), feeds[0].Active)
	assert.Nil(t, feeds[1].LastFetched)
}

func TestDecodeFeeds_EmptyList(t *testing.T) {
	feeds, err := DecodeFeeds([]byte(`[]`))

	require.NoError(t, err)
	assert.Empty(t, feeds)
}

func TestDecodeFeeds_RejectsUnknownField(t *testing.T) {
	_, err := DecodeFeeds([]byte(`[{"id":"f1","title":"t","url":"u","etag":"x"}]`))

	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestDecodeArticle_WithoutPublicationDate(t *testing.T) {
	article, err := DecodeArticle([]byte(`{"id":"a1","title":"t","url":"u","feed_id":"f1","content":"<p>x</p>","published_at":null}`))

	require.NoError(t, err)
	assert.Equal(t, "f1", article.FeedID)
	_, ok := article.Published()
	assert.False(t, ok)
}

func TestDecodeSummary_NullAndEmptyMeanNoSummary(t *testing.T) {
	for _, body := range []string{"null", "", "  \n"} {
		summary, err := DecodeSummary([]byte(body))
		require.NoError(t, err, "body %q", body)
		assert.Nil(t, summary, "body %q", body)
	}
}

func TestDecodeSummary(t *testing.T) {
	summary, err := DecodeSummary([]byte(`{"id":"s1","article_id":"a1","content":"short","created_at":"2024-05-01T10:00:00Z","model":"gpt-4o-mini","updated_at":"2024-05-01T10:00:00Z"}`))

	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "a1", summary.ArticleID)
	assert.Equal(t, "gpt-4o-mini", summary.Model)
}

func TestDecodeBulkFetchResponse_FreshFetchScenario(t *testing.T) {
	var articles []string
	for i := 0; i < 25; i++ {
		articles = append(articles, fmt.Sprintf(`{"id":"a%d","title":"t","url":"u","feed_id":"f1","content":"c","published_at":"2024-05-01T10:00:00Z"}`, i))
	}
	body := `{"articles":[` + strings.Join(articles, ",") + `],"total_count":25,"feed_summaries":[
		{"feed_id":"f1","feed_title":"A","article_count":15},
		{"feed_id":"f2","feed_title":"B","article_count":10}]}`

	resp, err := DecodeBulkFetchResponse([]byte(body))

	require.NoError(t, err)
	assert.Len(t, resp.Articles, 25)
	assert.Equal(t, 25, resp.TotalCount)
	assert.Equal(t, []models.FeedSummary{
		{FeedID: "f1", FeedTitle: "A", ArticleCount: 15},
		{FeedID: "f2", FeedTitle: "B", ArticleCount: 10},
	}, resp.FeedSummaries)
}

func TestDecodeBulkFetchResponse_NullCollections(t *testing.T) {
	resp, err := DecodeBulkFetchResponse([]byte(`{"articles":null,"total_count":0,"feed_summaries":null}`))

	require.NoError(t, err)
	assert.NotNil(t, resp.Articles)
	assert.NotNil(t, resp.FeedSummaries)
}

func TestEncodeBulkFetchRequest_SnakeCaseBody(t *testing.T) {
	wire, err := EncodeBulkFetchRequest(models.BulkFetchRequest{
		FeedIDs: []string{"f1", "f2"},
		Limit:   50,
		Offset:  0,
	})

	require.NoError(t, err)
	assert.Equal(t, Object{
		"feed_ids": []any{"f1", "f2"},
		"limit":    json.Number("50"),
		"offset":   json.Number("0"),
	}, wire)
}

func TestEncodeBulkFetchRequest_DateBounds(t *testing.T) {
	wire, err := EncodeBulkFetchRequest(models.BulkFetchRequest{
		FeedIDs:   []string{"f1"},
		StartDate: ptr("2024-01-01T00:00:00Z"),
		Limit:     25,
		Offset:    25,
	})

	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00Z", wire["start_date"])
	assert.NotContains(t, wire, "end_date")
}

func TestEncodeNewFeedAndUpdate(t *testing.T) {
	wire, err := EncodeNewFeed(models.NewFeed{Title: "A", URL: "https://a.example/rss"})
	require.NoError(t, err)
	assert.Equal(t, Object{"title": "A", "url": "https://a.example/rss"}, wire)

	wire, err = EncodeFeedUpdate(models.FeedUpdate{URL: ptr("https://b.example/rss")})
	require.NoError(t, err)
	assert.Equal(t, Object{"url": "https://b.example/rss"}, wire)
}

func TestDecodeDigest(t *testing.T) {
	body := []byte(`{"summary":"all quiet","feeds":[{"feed_id":"f1","feed_title":"A","article_count":1,
		"articles":[{"id":"a1","title":"t","url":"u","published_at":"2024-05-01T10:00:00Z","summary":"s"}]}],
		"total_articles":1,"time_range_hours":24}`)

	digest, err := DecodeDigest(body)

	require.NoError(t, err)
	assert.Equal(t, "all quiet", digest.Summary)
	require.Len(t, digest.Feeds, 1)
	require.Len(t, digest.Feeds[0].Articles, 1)
	assert.Equal(t, ptr("s"), digest.Feeds[0].Articles[0].Summary)
	assert.Equal(t, 24, digest.TimeRangeHours)
}

func TestDecodeRefreshResult(t *testing.T) {
	res, err := DecodeRefreshResult([]byte(`{"success":true,"feed_id":"f1","articles_added":4}`))

	require.NoError(t, err)
	assert.Equal(t, models.RefreshResult{Success: true, FeedID: "f1", ArticlesAdded: 4}, res)
}

func TestParse_RejectsWrongDocumentShape(t *testing.T) {
	_, err := DecodeFeeds([]byte(`{"id":"f1"}`))
	assert.ErrorIs(t, err, ErrShape)

	_, err = DecodeArticle([]byte(`[]`))
	assert.ErrorIs(t, err, ErrShape)

	_, err = DecodeArticle([]byte(`{`))
	assert.Error(t, err)
}
