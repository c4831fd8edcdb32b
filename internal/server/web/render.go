package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"laune/reader/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "feeds", "feed", "article", "bulk", "digest", "error"}

// page is the data every template receives. Data holds the page specific view.
type page struct {
	Title        string
	Nav          string
	Feeds        []models.Feed
	SidebarError bool
	Flash        string
	Error        string
	Data         any

	sidebarLoaded bool
}

// withFeeds marks the sidebar as already loaded by the handler.
func (p page) withFeeds(feeds []models.Feed, err error) page {
	p.Feeds = feeds
	p.SidebarError = err != nil
	p.sidebarLoaded = true
	return p
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// render executes the named page into a buffer so that a template error can
// still be reported with a 500 status.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	log := hlog.FromRequest(r)

	tmpl, ok := h.pages[name]
	if !ok {
		log.Error().Str("page", name).Msg("Unknown page template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if !p.sidebarLoaded {
		feeds, err := h.api.ListFeeds(r.Context())
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load sidebar feeds")
		}
		p = p.withFeeds(feeds, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", p); err != nil {
		log.Error().Err(err).Str("page", name).Msg("Error executing page template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error().Err(err).Msg("Error writing page to client")
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	h.render(w, r, status, "error", page{Title: title, Error: message})
}

// redirect answers a form post with 303 so that reloading the target page
// does not resubmit the form.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
