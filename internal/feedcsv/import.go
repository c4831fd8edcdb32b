// Package feedcsv imports feed subscriptions from CSV, creating them through
// the backend API, and exports the current feed list as CSV.
package feedcsv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"laune/reader/internal/models"
)

// FeedCreator is the part of the API client the importer needs.
type FeedCreator interface {
	ListFeeds(ctx context.Context) ([]models.Feed, error)
	CreateFeed(ctx context.Context, feed models.NewFeed) (models.Feed, error)
}

// Result summarizes an import run.
type Result struct {
	Rows    int
	Created int
	Skipped int
	Errors  []string
}

const defaultDownloadTimeout = 30 * time.Second

// Importer handles the feed import process
type Importer struct {
	api        FeedCreator
	httpClient *http.Client
}

// Option configures an Importer.
type Option func(*Importer)

// WithHTTPClient sets the client used to download remote CSV files.
func WithHTTPClient(hc *http.Client) Option {
	return func(i *Importer) {
		if hc != nil {
			i.httpClient = hc
		}
	}
}

// WithTimeout bounds a remote CSV download, body included.
func WithTimeout(d time.Duration) Option {
	return func(i *Importer) {
		if d > 0 {
			i.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewImporter creates a new feed importer
func NewImporter(api FeedCreator, opts ...Option) *Importer {
	i := &Importer{
		api:        api,
		httpClient: &http.Client{Timeout: defaultDownloadTimeout},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ImportFeeds imports feeds from a local CSV file or an http(s) URL.
func (i *Importer) ImportFeeds(ctx context.Context, source string) (Result, error) {
	log.Info().Str("csv", source).Msg("Starting feed import")

	rc, err := i.open(ctx, source)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get CSV data: %w", err)
	}
	defer rc.Close()

	res, err := i.Import(ctx, rc)
	if err != nil {
		return res, fmt.Errorf("failed to import feeds: %w", err)
	}

	log.Info().
		Int("rows", res.Rows).
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Msg("Import summary")
	return res, nil
}

func (i *Importer) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.Open(source)
	}

	log.Debug().Str("url", source).Msg("Downloading CSV file")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download file: HTTP status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// Import reads a CSV with a required url column and an optional title
// column. URLs already registered with the backend, or repeated in the file,
// are skipped. Row-level failures are collected, not fatal.
func (i *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	var res Result

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return res, fmt.Errorf("empty CSV")
		}
		return res, err
	}

	urlIdx := findColumnIndex(header, "url")
	if urlIdx < 0 {
		return res, fmt.Errorf("required column 'url' not found in CSV header")
	}
	titleIdx := findColumnIndex(header, "title")

	existing, err := i.api.ListFeeds(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list existing feeds: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, f := range existing {
		seen[f.URL] = true
	}

	line := 1 // Header was already read
	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return res, fmt.Errorf("failed to read CSV line %d: %w", line, err)
			}
			log.Warn().Err(err).Int("line", line).Msg("Error reading CSV line")
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if len(record) == 0 || (len(record) == 1 && strings.TrimSpace(record[0]) == "") {
			continue
		}
		res.Rows++

		feed := models.NewFeed{
			URL:   safeGetValue(record, urlIdx),
			Title: safeGetValue(record, titleIdx),
		}
		if feed.URL == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: empty URL", line))
			continue
		}
		if feed.Title == "" {
			feed.Title = feed.URL
		}
		if seen[feed.URL] {
			log.Debug().Int("line", line).Str("url", feed.URL).Msg("Feed already registered")
			res.Skipped++
			continue
		}

		if _, err := i.api.CreateFeed(ctx, feed); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.Warn().Err(err).Int("line", line).Str("url", feed.URL).Msg("Failed to create feed")
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		seen[feed.URL] = true
		res.Created++
	}

	return res, nil
}

func findColumnIndex(header []string, columnName string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), columnName) {
			return i
		}
	}
	return -1
}

// safeGetValue returns the trimmed value at index, or "" when out of range.
func safeGetValue(record []string, index int) string {
	if index >= 0 && index < len(record) {
		return strings.TrimSpace(record[index])
	}
	return ""
}
