// Package web renders the reader's HTML pages on top of the backend client.
package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"laune/reader/internal/client"
	"laune/reader/internal/models"
	"laune/reader/internal/querycache"
	"laune/reader/internal/server/pagination"
	"laune/reader/internal/server/storage"
)

// Options tune the rendering of the pages.
type Options struct {
	// DefaultPageSize preselects the bulk fetch page size.
	DefaultPageSize int
	// Location is used to display dates and to read datetime-local inputs.
	Location *time.Location
}

// Handler serves the reader pages.
type Handler struct {
	api        querycache.Backend
	sessions   *Sessions
	selections storage.SelectionRepository
	pages      map[string]*template.Template
	text       *textRenderer

	defaultPageSize int
	loc             *time.Location
}

// NewHandler creates the page handler. selections may be nil, in which case
// bulk fetch forms are not remembered across sessions.
func NewHandler(api querycache.Backend, sessions *Sessions, selections storage.SelectionRepository, opts Options) (*Handler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	pageSize := opts.DefaultPageSize
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}

	return &Handler{
		api:             api,
		sessions:        sessions,
		selections:      selections,
		pages:           pages,
		text:            newTextRenderer(loc),
		defaultPageSize: pageSize,
		loc:             loc,
	}, nil
}

// Register adds the page routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Home)

	mux.HandleFunc("GET /feeds", h.Feeds)
	mux.HandleFunc("POST /feeds", h.CreateFeed)
	mux.HandleFunc("GET /feeds/export.csv", h.ExportFeeds)
	mux.HandleFunc("GET /feeds/{feedID}", h.Feed)
	mux.HandleFunc("POST /feeds/{feedID}/update", h.UpdateFeed)
	mux.HandleFunc("POST /feeds/{feedID}/delete", h.DeleteFeed)
	mux.HandleFunc("POST /feeds/{feedID}/refresh", h.RefreshFeed)

	mux.HandleFunc("GET /articles/{articleID}", h.Article)
	mux.HandleFunc("POST /articles/{articleID}/summary", h.GenerateSummary)

	mux.HandleFunc("GET /bulk-fetch", h.BulkFetch)
	mux.HandleFunc("POST /bulk-fetch", h.SubmitBulkFetch)
	mux.HandleFunc("POST /bulk-fetch/more", h.LoadMore)

	mux.HandleFunc("GET /digest", h.Digest)
	mux.HandleFunc("POST /digest", h.GenerateDigest)
}

var errorMessages = map[string]string{
	"delete":  "Failed to delete feed",
	"update":  "Failed to update feed",
	"refresh": "Failed to refresh feed",
	"summary": "Failed to generate summary",
}

var flashMessages = map[string]string{
	"created": "Feed added",
	"updated": "Feed updated",
	"deleted": "Feed deleted",
}

// Home lists the latest articles of all feeds.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	ctx := r.Context()

	p := page{Title: "Latest Articles", Nav: "home"}
	status := http.StatusOK

	articles, err := h.api.ListArticles(ctx, client.ArticleFilter{})
	if err != nil {
		log.Error().Err(err).Msg("Failed to load articles")
		p.Error = "Error loading articles"
		status = http.StatusBadGateway
	} else {
		p.Data = h.text.cards(articles, homePreviewLength, nil)
	}

	h.render(w, r, status, "home", p)
}

type feedView struct {
	Feed        models.Feed
	LastUpdated string
	Articles    []articleCard
}

// Feed shows one feed and its articles.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	ctx := r.Context()
	feedID := r.PathValue("feedID")

	feeds, err := h.api.ListFeeds(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load feeds")
		h.renderError(w, r, http.StatusBadGateway, "Error", "Error loading articles for this feed")
		return
	}
	feed, ok := models.FindFeed(feeds, feedID)
	if !ok {
		log.Debug().Str("feed_id", feedID).Msg("Feed not in loaded set")
		h.render(w, r, http.StatusNotFound, "error", page{
			Title: "Feed not found",
			Error: "The feed you are looking for does not exist.",
		}.withFeeds(feeds, nil))
		return
	}

	p := page{Title: feed.Title, Flash: feedFlash(r)}.withFeeds(feeds, nil)
	status := http.StatusOK
	view := feedView{
		Feed:        feed,
		LastUpdated: h.text.Date(feed.LastFetched),
	}

	articles, err := h.api.ListArticles(ctx, client.ArticleFilter{FeedID: feedID})
	if err != nil {
		log.Error().Err(err).Str("feed_id", feedID).Msg("Failed to load feed articles")
		p.Error = "Error loading articles for this feed"
		status = http.StatusBadGateway
	} else {
		view.Articles = h.text.cards(articles, feedPreviewLength, nil)
		for i := range view.Articles {
			view.Articles[i].Preview = orDefault(view.Articles[i].Preview, noPreview)
		}
	}
	if msg, ok := errorMessages[r.URL.Query().Get("error")]; ok && p.Error == "" {
		p.Error = msg
	}

	p.Data = view
	h.render(w, r, status, "feed", p)
}

type articleView struct {
	Article models.Article
	Date    string
	Summary *models.Summary
	Full    bool
	Content template.HTML
}

// Article shows one article with its summary. ?full=1 expands the content.
func (h *Handler) Article(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	ctx := r.Context()
	articleID := r.PathValue("articleID")

	article, err := h.api.GetArticle(ctx, articleID)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, client.ErrNotFound) {
			status = http.StatusNotFound
		}
		log.Warn().Err(err).Str("article_id", articleID).Msg("Failed to load article")
		h.renderError(w, r, status, "Article unavailable", "Error loading article. It may have been removed or is unavailable.")
		return
	}

	p := page{Title: article.Title}
	view := articleView{
		Article: article,
		Date:    h.text.Date(article.PublishedAt),
		Full:    r.URL.Query().Get("full") == "1",
	}
	if view.Full {
		view.Content = h.text.Content(article.Content)
	}

	summary, err := h.api.GetSummary(ctx, articleID)
	if err != nil {
		log.Warn().Err(err).Str("article_id", articleID).Msg("Failed to load summary")
	}
	view.Summary = summary
	if msg, ok := errorMessages[r.URL.Query().Get("error")]; ok {
		p.Error = msg
	}

	p.Data = view
	h.render(w, r, http.StatusOK, "article", p)
}

// GenerateSummary asks the backend to summarize an article and returns to it.
func (h *Handler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	articleID := r.PathValue("articleID")
	target := "/articles/" + articleID

	summary, err := h.api.GenerateSummary(r.Context(), articleID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			h.renderError(w, r, http.StatusNotFound, "Article unavailable", "Error loading article. It may have been removed or is unavailable.")
			return
		}
		log.Error().Err(err).Str("article_id", articleID).Msg("Failed to generate summary")
		redirect(w, r, target+"?error=summary")
		return
	}

	log.Info().Str("article_id", articleID).Str("model", summary.Model).Msg("Generated summary")
	redirect(w, r, target)
}

func feedFlash(r *http.Request) string {
	q := r.URL.Query()
	if added, err := strconv.Atoi(q.Get("refreshed")); err == nil {
		return fmt.Sprintf("Feed refreshed: %d new articles", added)
	}
	return flashMessages[q.Get("flash")]
}
