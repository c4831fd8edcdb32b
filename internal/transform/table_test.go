package transform

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laune/reader/internal/models"
)

func wireArticle(id string) Object {
	return Object{
		"id":           id,
		"title":        "Title " + id,
		"url":          "https://example.com/" + id,
		"feed_id":      "f1",
		"content":      "<p>body</p>",
		"published_at": "2024-05-01T10:00:00Z",
	}
}

func roundTripSamples() map[string]struct {
	table *Table
	wire  Object
} {
	return map[string]struct {
		table *Table
		wire  Object
	}{
		"feed with all fields": {Feed, Object{
			"id": "f1", "title": "Go Blog", "url": "https://go.dev/blog/feed.atom",
			"last_fetched": "2024-05-01T10:00:00Z", "active": true,
			"created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-05-01T10:00:00Z",
		}},
		"feed without optional fields": {Feed, Object{
			"id": "f2", "title": "Empty", "url": "https://example.com/rss",
		}},
		"feed with null last_fetched": {Feed, Object{
			"id": "f3", "title": "Null", "url": "https://example.com/rss", "last_fetched": nil,
		}},
		"new feed":           {NewFeed, Object{"title": "A", "url": "https://a.example/rss"}},
		"feed update":        {FeedUpdate, Object{"title": "B"}},
		"empty feed update":  {FeedUpdate, Object{}},
		"refresh result":     {RefreshResult, Object{"success": true, "feed_id": "f1", "articles_added": json.Number("3")}},
		"article":            {Article, wireArticle("a1")},
		"article no date":    {Article, Object{"id": "a2", "title": "t", "url": "u", "feed_id": "f1", "content": ""}},
		"summary":            {Summary, Object{"id": "s1", "article_id": "a1", "content": "short", "created_at": "2024-05-01T10:00:00Z", "model": "gpt-4o-mini"}},
		"feed summary":       {FeedSummary, Object{"feed_id": "f1", "feed_title": "A", "article_count": json.Number("15")}},
		"bulk fetch request": {BulkFetchRequest, Object{"feed_ids": []any{"f1", "f2"}, "limit": json.Number("50"), "offset": json.Number("0")}},
		"bulk fetch request with range": {BulkFetchRequest, Object{
			"feed_ids": []any{"f1"}, "start_date": "2024-01-01T00:00:00Z", "end_date": "2024-02-01T00:00:00Z",
			"limit": json.Number("25"), "offset": json.Number("75"),
		}},
		"bulk fetch response": {BulkFetchResponse, Object{
			"articles":    []any{wireArticle("a1"), wireArticle("a2")},
			"total_count": json.Number("2"),
			"feed_summaries": []any{
				Object{"feed_id": "f1", "feed_title": "A", "article_count": json.Number("2")},
			},
		}},
		"empty bulk fetch response": {BulkFetchResponse, Object{
			"articles": []any{}, "total_count": json.Number("0"), "feed_summaries": []any{},
		}},
		"digest request": {DigestRequest, Object{"feed_ids": []any{"f1"}, "hours_back": json.Number("24")}},
		"digest": {Digest, Object{
			"summary": "things happened",
			"feeds": []any{Object{
				"feed_id": "f1", "feed_title": "A", "article_count": json.Number("1"),
				"articles": []any{Object{"id": "a1", "title": "t", "url": "u", "published_at": "2024-05-01T10:00:00Z", "summary": nil}},
			}},
			"total_articles":   json.Number("1"),
			"time_range_hours": json.Number("24"),
		}},
	}
}

func TestRoundTrip_WireInternalWire(t *testing.T) {
	for name, tc := range roundTripSamples() {
		t.Run(name, func(t *testing.T) {
			internal, err := tc.table.ToInternal(tc.wire)
			require.NoError(t, err)

			back, err := tc.table.ToWire(internal)
			require.NoError(t, err)
			assert.Equal(t, tc.wire, back)
		})
	}
}

func TestRoundTrip_InternalWireInternal(t *testing.T) {
	for name, tc := range roundTripSamples() {
		t.Run(name, func(t *testing.T) {
			internal, err := tc.table.ToInternal(tc.wire)
			require.NoError(t, err)

			wire, err := tc.table.ToWire(internal)
			require.NoError(t, err)
			again, err := tc.table.ToInternal(wire)
			require.NoError(t, err)
			assert.Equal(t, internal, again)
		})
	}
}

func TestToInternal_RenamesNestedCollections(t *testing.T) {
	wire := roundTripSamples()["bulk fetch response"].wire

	internal, err := BulkFetchResponse.ToInternal(wire)
	require.NoError(t, err)

	assert.Equal(t, json.Number("2"), internal["totalCount"])
	articles := internal["articles"].([]any)
	require.Len(t, articles, 2)
	assert.Equal(t, "f1", articles[0].(Object)["feedId"])
	assert.NotContains(t, articles[0].(Object), "feed_id")
	summaries := internal["feedSummaries"].([]any)
	assert.Equal(t, "A", summaries[0].(Object)["feedTitle"])
}

func TestToInternal_UnknownFieldIsRejected(t *testing.T) {
	wire := Object{"id": "f1", "title": "t", "url": "u", "favicon": "x.png"}

	_, err := Feed.ToInternal(wire)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownField)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "Feed", fieldErr.Entity)
	assert.Equal(t, "favicon", fieldErr.Field)
}

func TestToWire_InternalNameOnWireSideIsRejected(t *testing.T) {
	// a wire-cased key in an internal object is just as unknown
	_, err := Article.ToWire(Object{"id": "a", "title": "t", "url": "u", "feed_id": "f", "feedId": "f", "content": ""})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestToInternal_UnknownFieldInNestedList(t *testing.T) {
	article := wireArticle("a1")
	article["author"] = "someone"
	wire := Object{"articles": []any{article}, "total_count": json.Number("1"), "feed_summaries": []any{}}

	_, err := BulkFetchResponse.ToInternal(wire)

	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, err.Error(), "articles")
	assert.Contains(t, err.Error(), "author")
}

func TestToInternal_MissingRequiredField(t *testing.T) {
	_, err := Summary.ToInternal(Object{"id": "s1", "article_id": "a1", "content": "c", "created_at": "now"})

	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "model")
}

func TestToInternal_ShapeMismatch(t *testing.T) {
	_, err := BulkFetchResponse.ToInternal(Object{"articles": "nope", "total_count": json.Number("0"), "feed_summaries": []any{}})
	assert.ErrorIs(t, err, ErrShape)

	_, err = BulkFetchResponse.ToInternal(Object{"articles": []any{"nope"}, "total_count": json.Number("0"), "feed_summaries": []any{}})
	assert.ErrorIs(t, err, ErrShape)

	_, err = Feed.ToInternal(nil)
	assert.ErrorIs(t, err, ErrShape)
}

func TestToInternal_DoesNotMutateInput(t *testing.T) {
	wire := wireArticle("a1")
	snapshot := Object{}
	for k, v := range wire {
		snapshot[k] = v
	}

	_, err := Article.ToInternal(wire)

	require.NoError(t, err)
	assert.Equal(t, snapshot, wire)
}

// Every json field of a model type must have exactly one row in its table.
func TestTables_CoverModelFields(t *testing.T) {
	cases := []struct {
		table *Table
		model any
	}{
		{Feed, models.Feed{}},
		{NewFeed, models.NewFeed{}},
		{FeedUpdate, models.FeedUpdate{}},
		{RefreshResult, models.RefreshResult{}},
		{Article, models.Article{}},
		{Summary, models.Summary{}},
		{FeedSummary, models.FeedSummary{}},
		{BulkFetchRequest, models.BulkFetchRequest{}},
		{BulkFetchResponse, models.BulkFetchResponse{}},
		{DigestRequest, models.DigestRequest{}},
		{Digest, models.Digest{}},
		{DigestFeed, models.DigestFeed{}},
		{DigestArticle, models.DigestArticle{}},
	}

	for _, tc := range cases {
		t.Run(tc.table.Entity, func(t *testing.T) {
			assert.ElementsMatch(t, jsonNames(reflect.TypeOf(tc.model)), tc.table.InternalNames())

			wireSeen := map[string]bool{}
			for _, f := range tc.table.Fields {
				assert.False(t, wireSeen[f.Wire], "duplicate wire name %s", f.Wire)
				wireSeen[f.Wire] = true
				assert.Equal(t, strings.ToLower(f.Wire), f.Wire, "wire names are snake_case")
				assert.NotContains(t, f.Internal, "_", "internal names are compact camel")
				if f.Shape != Scalar {
					assert.NotNil(t, f.Elem, "nested field %s needs a table", f.Wire)
				}
			}
		})
	}
}

func jsonNames(typ reflect.Type) []string {
	var names []string
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		names = append(names, name)
	}
	return names
}
