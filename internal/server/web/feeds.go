package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/hlog"

	"laune/reader/internal/client"
	"laune/reader/internal/feedcsv"
	"laune/reader/internal/models"
)

type feedRow struct {
	Feed        models.Feed
	LastUpdated string
}

type feedsView struct {
	Form  models.NewFeed
	Feeds []feedRow
}

// Feeds lists the registered feeds with the forms to manage them.
func (h *Handler) Feeds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.renderFeeds(w, r, http.StatusOK, models.NewFeed{}, errorMessages[q.Get("error")], flashMessages[q.Get("flash")])
}

func (h *Handler) renderFeeds(w http.ResponseWriter, r *http.Request, status int, form models.NewFeed, errMsg, flash string) {
	log := hlog.FromRequest(r)

	feeds, err := h.api.ListFeeds(r.Context())
	p := page{Title: "Manage Feeds", Nav: "feeds", Error: errMsg, Flash: flash}.withFeeds(feeds, err)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load feeds")
		p.Error = "Failed to load feeds"
		if status == http.StatusOK {
			status = http.StatusBadGateway
		}
	}

	rows := make([]feedRow, 0, len(feeds))
	for _, f := range feeds {
		rows = append(rows, feedRow{Feed: f, LastUpdated: h.text.Date(f.LastFetched)})
	}
	p.Data = feedsView{Form: form, Feeds: rows}
	h.render(w, r, status, "feeds", p)
}

// CreateFeed registers a new feed from the add form.
func (h *Handler) CreateFeed(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	if err := r.ParseForm(); err != nil {
		log.Warn().Err(err).Msg("Invalid feed form")
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	form := models.NewFeed{
		Title: strings.TrimSpace(r.PostFormValue("title")),
		URL:   strings.TrimSpace(r.PostFormValue("url")),
	}
	if form.Title == "" {
		h.renderFeeds(w, r, http.StatusBadRequest, form, "Feed title is required", "")
		return
	}
	if msg := feedURLProblem(form.URL); msg != "" {
		h.renderFeeds(w, r, http.StatusBadRequest, form, msg, "")
		return
	}

	feed, err := h.api.CreateFeed(r.Context(), form)
	if err != nil {
		log.Error().Err(err).Str("url", form.URL).Msg("Failed to create feed")
		h.renderFeeds(w, r, http.StatusBadGateway, form, "Failed to add feed", "")
		return
	}

	log.Info().Str("feed_id", feed.ID).Str("url", feed.URL).Msg("Created feed")
	redirect(w, r, "/feeds?flash=created")
}

// UpdateFeed changes the title and/or URL of a feed. Blank fields are kept.
func (h *Handler) UpdateFeed(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	feedID := r.PathValue("feedID")

	if err := r.ParseForm(); err != nil {
		log.Warn().Err(err).Msg("Invalid feed form")
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	var update models.FeedUpdate
	if title := strings.TrimSpace(r.PostFormValue("title")); title != "" {
		update.Title = &title
	}
	if feedURL := strings.TrimSpace(r.PostFormValue("url")); feedURL != "" {
		if msg := feedURLProblem(feedURL); msg != "" {
			h.renderFeeds(w, r, http.StatusBadRequest, models.NewFeed{}, msg, "")
			return
		}
		update.URL = &feedURL
	}
	if update.Title == nil && update.URL == nil {
		redirect(w, r, "/feeds")
		return
	}

	if _, err := h.api.UpdateFeed(r.Context(), feedID, update); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			h.renderError(w, r, http.StatusNotFound, "Feed not found", "The feed you are looking for does not exist.")
			return
		}
		log.Error().Err(err).Str("feed_id", feedID).Msg("Failed to update feed")
		redirect(w, r, "/feeds?error=update")
		return
	}

	log.Info().Str("feed_id", feedID).Msg("Updated feed")
	redirect(w, r, "/feeds?flash=updated")
}

// DeleteFeed removes a feed.
func (h *Handler) DeleteFeed(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	feedID := r.PathValue("feedID")

	if err := h.api.DeleteFeed(r.Context(), feedID); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			h.renderError(w, r, http.StatusNotFound, "Feed not found", "The feed you are looking for does not exist.")
			return
		}
		log.Error().Err(err).Str("feed_id", feedID).Msg("Failed to delete feed")
		redirect(w, r, "/feeds?error=delete")
		return
	}

	log.Info().Str("feed_id", feedID).Msg("Deleted feed")
	redirect(w, r, "/feeds?flash=deleted")
}

// RefreshFeed asks the backend to crawl a feed again.
func (h *Handler) RefreshFeed(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	feedID := r.PathValue("feedID")
	target := "/feeds/" + url.PathEscape(feedID)

	result, err := h.api.RefreshFeed(r.Context(), feedID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			h.renderError(w, r, http.StatusNotFound, "Feed not found", "The feed you are looking for does not exist.")
			return
		}
		log.Error().Err(err).Str("feed_id", feedID).Msg("Failed to refresh feed")
		redirect(w, r, target+"?error=refresh")
		return
	}

	log.Info().Str("feed_id", feedID).Int("articles_added", result.ArticlesAdded).Msg("Refreshed feed")
	redirect(w, r, fmt.Sprintf("%s?refreshed=%d", target, result.ArticlesAdded))
}

// ExportFeeds writes all feeds as a CSV download.
func (h *Handler) ExportFeeds(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	log.Debug().Msg("Export feeds request received")

	feeds, err := h.api.ListFeeds(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load feeds")
		http.Error(w, "Failed to load feeds", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=feeds.csv")
	if err := feedcsv.Export(w, feeds); err != nil {
		log.Error().Err(err).Msg("Error writing CSV data")
		return
	}

	log.Info().Int("feed_count", len(feeds)).Msg("Exported feeds as CSV")
}

// feedURLProblem returns the message to show for an unusable feed URL, or "".
func feedURLProblem(raw string) string {
	if raw == "" {
		return "Feed URL is required"
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "Feed URL must be an http or https address"
	}
	return ""
}
