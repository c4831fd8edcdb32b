package web

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"laune/reader/internal/models"
	"laune/reader/internal/server/pagination"
)

type digestArticle struct {
	ID      string
	Title   string
	URL     string
	Date    string
	Summary string
}

type digestFeed struct {
	FeedTitle    string
	ArticleCount int
	Articles     []digestArticle
}

type digestResult struct {
	Summary        string
	TotalArticles  int
	TimeRangeHours int
	Feeds          []digestFeed
}

type digestView struct {
	Feeds  []feedOption
	Hours  int
	Digest *digestResult
}

// Digest shows the digest form.
func (h *Handler) Digest(w http.ResponseWriter, r *http.Request) {
	h.renderDigest(w, r, http.StatusOK, pagination.DigestForm{Hours: models.DefaultDigestHours}, nil, "")
}

// GenerateDigest asks the backend for one summary across the selected feeds.
func (h *Handler) GenerateDigest(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	if err := r.ParseForm(); err != nil {
		log.Warn().Err(err).Msg("Invalid digest form")
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	form, err := pagination.ParseDigestForm(r.PostForm)
	if err != nil {
		form.Hours = models.DefaultDigestHours
		msg := fmt.Sprintf("Hours must be between 1 and %d", models.MaxDigestHours)
		h.renderDigest(w, r, http.StatusBadRequest, form, nil, msg)
		return
	}
	if len(form.FeedIDs) == 0 {
		h.renderDigest(w, r, http.StatusBadRequest, form, nil, "Please select at least one feed")
		return
	}

	digest, err := h.api.AggregateSummary(r.Context(), models.DigestRequest{
		FeedIDs:   form.FeedIDs,
		HoursBack: form.Hours,
	})
	if err != nil {
		log.Error().Err(err).Strs("feed_ids", form.FeedIDs).Msg("Failed to generate digest")
		h.renderDigest(w, r, http.StatusBadGateway, form, nil, "Failed to generate digest")
		return
	}

	log.Info().Int("total_articles", digest.TotalArticles).Msg("Generated digest")
	h.renderDigest(w, r, http.StatusOK, form, h.digestResult(digest), "")
}

func (h *Handler) renderDigest(w http.ResponseWriter, r *http.Request, status int, form pagination.DigestForm, result *digestResult, msg string) {
	feeds, err := h.api.ListFeeds(r.Context())
	p := page{Title: "Feed Digest", Nav: "digest", Error: msg}.withFeeds(feeds, err)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to load feeds")
		p.Error = "Failed to load feeds"
	}

	p.Data = digestView{
		Feeds:  feedOptions(feeds, form.FeedIDs, false),
		Hours:  form.Hours,
		Digest: result,
	}
	h.render(w, r, status, "digest", p)
}

func (h *Handler) digestResult(d models.Digest) *digestResult {
	out := &digestResult{
		Summary:        d.Summary,
		TotalArticles:  d.TotalArticles,
		TimeRangeHours: d.TimeRangeHours,
	}
	for _, f := range d.Feeds {
		feed := digestFeed{FeedTitle: f.FeedTitle, ArticleCount: f.ArticleCount}
		for _, a := range f.Articles {
			article := digestArticle{
				ID:    a.ID,
				Title: a.Title,
				URL:   a.URL,
				Date:  orDefault(h.text.Date(&a.PublishedAt), noDate),
			}
			if a.Summary != nil {
				article.Summary = *a.Summary
			}
			feed.Articles = append(feed.Articles, article)
		}
		out.Feeds = append(out.Feeds, feed)
	}
	return out
}
