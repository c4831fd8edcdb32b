// Package pagination parses and validates the paging and filtering input of
// the bulk fetch and digest forms.
package pagination

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"laune/reader/internal/models"
)

// DatetimeLocalFormat is the value format of an HTML datetime-local input.
const DatetimeLocalFormat = "2006-01-02T15:04"

// DefaultPageSize is preselected in the bulk fetch form.
const DefaultPageSize = 50

// PageSizes lists the page sizes a user may choose.
var PageSizes = []int{25, 50, 100, 200}

var (
	ErrInvalidPageSize = errors.New("page size must be one of 25, 50, 100 or 200")
	ErrInvalidDate     = errors.New("invalid date")
	ErrDateOrder       = errors.New("start date must not be after end date")
	ErrInvalidHours    = fmt.Errorf("hours must be between 1 and %d", models.MaxDigestHours)
)

// BulkForm is a validated bulk fetch submission. Dates are RFC 3339 in UTC.
type BulkForm struct {
	FeedIDs   []string
	StartDate *string
	EndDate   *string
	PageSize  int
}

// ParseBulkForm reads feed_id (repeated), start_date, end_date and page_size.
// Blank dates are omitted. An empty selection is not rejected here.
func ParseBulkForm(values url.Values, defaultPageSize int, loc *time.Location) (BulkForm, error) {
	var form BulkForm
	var err error

	form.FeedIDs = uniqueNonEmpty(values["feed_id"])

	if form.PageSize, err = ParsePageSize(values.Get("page_size"), defaultPageSize); err != nil {
		return form, err
	}
	if form.StartDate, err = ParseDateBound(values.Get("start_date"), loc); err != nil {
		return form, fmt.Errorf("start date: %w", err)
	}
	if form.EndDate, err = ParseDateBound(values.Get("end_date"), loc); err != nil {
		return form, fmt.Errorf("end date: %w", err)
	}

	if form.StartDate != nil && form.EndDate != nil && *form.StartDate > *form.EndDate {
		return form, ErrDateOrder
	}
	return form, nil
}

// ParsePageSize returns def for a blank value and rejects sizes outside PageSizes.
func ParsePageSize(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		if !slices.Contains(PageSizes, def) {
			return DefaultPageSize, nil
		}
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !slices.Contains(PageSizes, n) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPageSize, s)
	}
	return n, nil
}

// ParseDateBound converts a datetime-local (interpreted in loc) or RFC 3339
// value into an RFC 3339 UTC string. Blank yields nil.
func ParseDateBound(s string, loc *time.Location) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	t, err := time.ParseInLocation(DatetimeLocalFormat, s, loc)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
	}
	out := t.UTC().Format(time.RFC3339)
	return &out, nil
}

// FormatDateBound renders an RFC 3339 bound back into a datetime-local value
// for prefilling the form.
func FormatDateBound(s *string, loc *time.Location) string {
	t, ok := models.ParseTimestamp(s)
	if !ok {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DatetimeLocalFormat)
}

// ParseHours reads the digest window. Blank yields models.DefaultDigestHours.
func ParseHours(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.DefaultDigestHours, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > models.MaxDigestHours {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHours, s)
	}
	return n, nil
}

// DigestForm is a validated digest submission.
type DigestForm struct {
	FeedIDs []string
	Hours   int
}

// ParseDigestForm reads feed_id (repeated) and hours. Like ParseBulkForm it
// leaves an empty selection to the caller.
func ParseDigestForm(values url.Values) (DigestForm, error) {
	form := DigestForm{FeedIDs: uniqueNonEmpty(values["feed_id"])}
	hours, err := ParseHours(values.Get("hours"))
	if err != nil {
		return form, err
	}
	form.Hours = hours
	return form, nil
}

func uniqueNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
