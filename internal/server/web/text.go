package web

import (
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"laune/reader/internal/models"
)

// Preview lengths in characters.
const (
	homePreviewLength = 120
	feedPreviewLength = 150
	bulkPreviewLength = 200
)

const (
	dateLayout    = "Jan 2, 2006 3:04 PM"
	noDate        = "No date available"
	noPreview     = "No preview available"
	previewSuffix = "..."
)

// textRenderer turns backend HTML into page text. The strict policy strips
// every tag for previews, the UGC policy keeps safe markup for full content.
type textRenderer struct {
	strict *bluemonday.Policy
	ugc    *bluemonday.Policy
	loc    *time.Location
}

func newTextRenderer(loc *time.Location) *textRenderer {
	if loc == nil {
		loc = time.Local
	}
	ugc := bluemonday.UGCPolicy()
	ugc.AddTargetBlankToFullyQualifiedLinks(true)
	return &textRenderer{
		strict: bluemonday.StrictPolicy(),
		ugc:    ugc,
		loc:    loc,
	}
}

// Preview strips markup from content and truncates the text to limit runes.
func (t *textRenderer) Preview(content string, limit int) string {
	text := html.UnescapeString(t.strict.Sanitize(content))
	text = strings.Join(strings.Fields(text), " ")
	return truncate(text, limit)
}

// Content sanitizes article HTML for direct inclusion in a page.
func (t *textRenderer) Content(content string) template.HTML {
	return template.HTML(t.ugc.Sanitize(content))
}

// Date formats an optional ISO-8601 timestamp in the display location.
// Unset or unparsable values yield "".
func (t *textRenderer) Date(s *string) string {
	ts, ok := models.ParseTimestamp(s)
	if !ok {
		return ""
	}
	return ts.In(t.loc).Format(dateLayout)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit])) + previewSuffix
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// articleCard is one entry of an article list.
type articleCard struct {
	ID        string
	Title     string
	URL       string
	FeedTitle string
	Date      string
	Preview   string
}

func (t *textRenderer) cards(articles []models.Article, previewLength int, feedTitles map[string]string) []articleCard {
	cards := make([]articleCard, 0, len(articles))
	for _, a := range articles {
		cards = append(cards, articleCard{
			ID:        a.ID,
			Title:     a.Title,
			URL:       a.URL,
			FeedTitle: feedTitles[a.FeedID],
			Date:      orDefault(t.Date(a.PublishedAt), noDate),
			Preview:   t.Preview(a.Content, previewLength),
		})
	}
	return cards
}

func feedTitles(feeds []models.Feed) map[string]string {
	titles := make(map[string]string, len(feeds))
	for _, f := range feeds {
		titles[f.ID] = f.Title
	}
	return titles
}
