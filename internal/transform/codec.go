package transform

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"laune/reader/internal/models"
)

// Parse decodes a JSON document keeping numbers as json.Number so that
// values pass through the tables unchanged.
func Parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return v, nil
}

// ParseObject decodes a JSON object.
func ParseObject(data []byte) (Object, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T: %w", v, ErrShape)
	}
	return obj, nil
}

// ParseList decodes a JSON array.
func ParseList(data []byte) ([]any, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON array, got %T: %w", v, ErrShape)
	}
	return list, nil
}

// Decode maps a wire object through t and fills out from the internal object.
// Internal keys that out does not declare are rejected.
func Decode(t *Table, wire Object, out any) error {
	internal, err := t.ToInternal(wire)
	if err != nil {
		return err
	}
	return fill(internal, out)
}

// DecodeList maps a list of wire objects through t and fills out, which must
// point to a slice.
func DecodeList(t *Table, wire []any, out any) error {
	internal, err := t.ListToInternal(wire)
	if err != nil {
		return err
	}
	if internal == nil {
		internal = []any{}
	}
	return fill(internal, out)
}

// Encode turns a model value into a wire object. The value's json tags must
// use the internal names of t.
func Encode(t *Table, v any) (Object, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", t.Entity, err)
	}
	internal, err := ParseObject(data)
	if err != nil {
		return nil, err
	}
	return t.ToWire(internal)
}

func fill(internal any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(internal); err != nil {
		return fmt.Errorf("failed to fill %T: %w", out, err)
	}
	return nil
}

// DecodeFeeds decodes the body of GET /feeds.
func DecodeFeeds(data []byte) ([]models.Feed, error) {
	list, err := ParseList(data)
	if err != nil {
		return nil, err
	}
	var feeds []models.Feed
	if err := DecodeList(Feed, list, &feeds); err != nil {
		return nil, err
	}
	return feeds, nil
}

// DecodeFeed decodes a single feed.
func DecodeFeed(data []byte) (models.Feed, error) {
	var feed models.Feed
	err := decodeObject(Feed, data, &feed)
	return feed, err
}

// DecodeArticles decodes an article list.
func DecodeArticles(data []byte) ([]models.Article, error) {
	list, err := ParseList(data)
	if err != nil {
		return nil, err
	}
	var articles []models.Article
	if err := DecodeList(Article, list, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// DecodeArticle decodes a single article.
func DecodeArticle(data []byte) (models.Article, error) {
	var article models.Article
	err := decodeObject(Article, data, &article)
	return article, err
}

// DecodeSummary decodes a summary. A JSON null or an empty body yields nil:
// no summary has been generated yet.
func DecodeSummary(data []byte) (*models.Summary, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("expected summary object, got %T: %w", v, ErrShape)
	}
	var summary models.Summary
	if err := Decode(Summary, obj, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// DecodeBulkFetchResponse decodes the body of POST /articles/bulk-fetch.
func DecodeBulkFetchResponse(data []byte) (models.BulkFetchResponse, error) {
	var resp models.BulkFetchResponse
	if err := decodeObject(BulkFetchResponse, data, &resp); err != nil {
		return models.BulkFetchResponse{}, err
	}
	if resp.Articles == nil {
		resp.Articles = []models.Article{}
	}
	if resp.FeedSummaries == nil {
		resp.FeedSummaries = []models.FeedSummary{}
	}
	return resp, nil
}

// DecodeRefreshResult decodes the body of POST /feeds/{id}/refresh.
func DecodeRefreshResult(data []byte) (models.RefreshResult, error) {
	var res models.RefreshResult
	err := decodeObject(RefreshResult, data, &res)
	return res, err
}

// DecodeDigest decodes the aggregated summary response.
func DecodeDigest(data []byte) (models.Digest, error) {
	var digest models.Digest
	err := decodeObject(Digest, data, &digest)
	return digest, err
}

// EncodeBulkFetchRequest returns the wire object for a bulk fetch request.
func EncodeBulkFetchRequest(req models.BulkFetchRequest) (Object, error) {
	return Encode(BulkFetchRequest, req)
}

// EncodeNewFeed returns the wire object for a create feed request.
func EncodeNewFeed(feed models.NewFeed) (Object, error) {
	return Encode(NewFeed, feed)
}

// EncodeFeedUpdate returns the wire object for an update feed request.
func EncodeFeedUpdate(update models.FeedUpdate) (Object, error) {
	return Encode(FeedUpdate, update)
}

// EncodeDigestRequest returns the wire object for an aggregated summary request.
func EncodeDigestRequest(req models.DigestRequest) (Object, error) {
	return Encode(DigestRequest, req)
}

func decodeObject(t *Table, data []byte, out any) error {
	obj, err := ParseObject(data)
	if err != nil {
		return err
	}
	return Decode(t, obj, out)
}
