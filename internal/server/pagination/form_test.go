package pagination

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBulkForm(t *testing.T) {
	values := url.Values{
		"feed_id":    {"f1", "f2", "f1", " "},
		"start_date": {"2024-01-01T00:00"},
		"end_date":   {"2024-01-31T23:59"},
		"page_size":  {"100"},
	}

	form, err := ParseBulkForm(values, DefaultPageSize, time.UTC)

	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, form.FeedIDs)
	require.NotNil(t, form.StartDate)
	assert.Equal(t, "2024-01-01T00:00:00Z", *form.StartDate)
	assert.Equal(t, "2024-01-31T23:59:00Z", *form.EndDate)
	assert.Equal(t, 100, form.PageSize)
}

func TestParseBulkForm_Defaults(t *testing.T) {
	form, err := ParseBulkForm(url.Values{}, 25, time.UTC)

	require.NoError(t, err)
	assert.Empty(t, form.FeedIDs)
	assert.Nil(t, form.StartDate)
	assert.Nil(t, form.EndDate)
	assert.Equal(t, 25, form.PageSize)
}

func TestParseBulkForm_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		want   error
	}{
		{"page size not offered", url.Values{"page_size": {"30"}}, ErrInvalidPageSize},
		{"page size not a number", url.Values{"page_size": {"lots"}}, ErrInvalidPageSize},
		{"bad start", url.Values{"start_date": {"yesterday"}}, ErrInvalidDate},
		{"bad end", url.Values{"end_date": {"2024-13-01T00:00"}}, ErrInvalidDate},
		{"reversed range", url.Values{"start_date": {"2024-02-01T00:00"}, "end_date": {"2024-01-01T00:00"}}, ErrDateOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBulkForm(tt.values, DefaultPageSize, time.UTC)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParsePageSize_FallsBackForUnofferedDefault(t *testing.T) {
	n, err := ParsePageSize("", 37)

	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, n)
}

func TestParseDateBound_Location(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)

	s, err := ParseDateBound("2024-01-01T09:00", tokyo)

	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00Z", *s)
	assert.Equal(t, "2024-01-01T09:00", FormatDateBound(s, tokyo))
}

func TestParseDateBound_AcceptsRFC3339(t *testing.T) {
	s, err := ParseDateBound("2024-01-01T09:00:00+02:00", time.UTC)

	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T07:00:00Z", *s)
}

func TestFormatDateBound_Blank(t *testing.T) {
	assert.Empty(t, FormatDateBound(nil, time.UTC))
	bad := "not a date"
	assert.Empty(t, FormatDateBound(&bad, time.UTC))
}

func TestParseHours(t *testing.T) {
	n, err := ParseHours("")
	require.NoError(t, err)
	assert.Equal(t, 24, n)

	n, err = ParseHours("168")
	require.NoError(t, err)
	assert.Equal(t, 168, n)

	for _, bad := range []string{"0", "169", "-3", "day"} {
		_, err := ParseHours(bad)
		assert.ErrorIs(t, err, ErrInvalidHours, bad)
	}
}

func TestParseDigestForm(t *testing.T) {
	form, err := ParseDigestForm(url.Values{"feed_id": {"f1", "f1", " ", "f2"}, "hours": {"48"}})
	require.NoError(t, err)
	assert.Equal(t, DigestForm{FeedIDs: []string{"f1", "f2"}, Hours: 48}, form)

	form, err = ParseDigestForm(url.Values{})
	require.NoError(t, err)
	assert.Empty(t, form.FeedIDs)
	assert.Equal(t, 24, form.Hours)

	_, err = ParseDigestForm(url.Values{"feed_id": {"f1"}, "hours": {"500"}})
	assert.ErrorIs(t, err, ErrInvalidHours)
}

func TestCursor_RoundTrip(t *testing.T) {
	offset, total, err := DecodeCursor(EncodeCursor(100, 120))

	require.NoError(t, err)
	assert.Equal(t, 100, offset)
	assert.Equal(t, 120, total)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, c := range []string{"!!!", EncodeCursor(1, 2)[:3], "MTAw"} {
		_, _, err := DecodeCursor(c)
		assert.Error(t, err, c)
	}
}
