package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"laune/reader/internal/bulkfetch"
	"laune/reader/internal/models"
)

const (
	titleWidth = 60
	noDate     = "-"
)

// newTable creates a borderless, left-aligned table.
func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := newTable(w)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to fill table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func renderFeeds(w io.Writer, feeds []models.Feed) error {
	rows := make([][]string, 0, len(feeds))
	for _, f := range feeds {
		rows = append(rows, []string{f.ID, f.Title, f.URL, formatTime(f.LastFetched)})
	}
	return renderTable(w, []string{"id", "title", "url", "last fetched"}, rows)
}

func renderBulk(w io.Writer, s bulkfetch.State) error {
	fmt.Fprintf(w, "Found %d total articles. Showing %d articles.\n\n", s.TotalCount, len(s.Articles))

	if len(s.FeedSummaries) > 0 {
		rows := make([][]string, 0, len(s.FeedSummaries))
		for _, fs := range s.FeedSummaries {
			rows = append(rows, []string{fs.FeedTitle, strconv.Itoa(fs.ArticleCount)})
		}
		if err := renderTable(w, []string{"feed", "articles"}, rows); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if len(s.Articles) > 0 {
		rows := make([][]string, 0, len(s.Articles))
		for _, a := range s.Articles {
			rows = append(rows, []string{formatTime(a.PublishedAt), shorten(a.Title, titleWidth), a.URL})
		}
		if err := renderTable(w, []string{"published", "title", "url"}, rows); err != nil {
			return err
		}
	}

	if s.HasMore() {
		fmt.Fprintf(w, "\n%d more articles available, raise -pages to load them.\n", s.Remaining())
	}
	return nil
}

func renderDigest(w io.Writer, d models.Digest) error {
	fmt.Fprintf(w, "Digest of the last %d hours (%d articles)\n\n%s\n\n", d.TimeRangeHours, d.TotalArticles, d.Summary)

	var rows [][]string
	for _, f := range d.Feeds {
		for _, a := range f.Articles {
			published := a.PublishedAt
			rows = append(rows, []string{f.FeedTitle, formatTime(&published), shorten(a.Title, titleWidth)})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return renderTable(w, []string{"feed", "published", "title"}, rows)
}

func formatTime(s *string) string {
	t, ok := models.ParseTimestamp(s)
	if !ok {
		return noDate
	}
	return t.Local().Format(time.DateTime)
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
