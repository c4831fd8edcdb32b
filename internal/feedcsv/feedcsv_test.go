package feedcsv

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laune/reader/internal/models"
)

type memoryFeeds struct {
	feeds   []models.Feed
	failURL string
}

func (m *memoryFeeds) ListFeeds(context.Context) ([]models.Feed, error) {
	return m.feeds, nil
}

func (m *memoryFeeds) CreateFeed(_ context.Context, f models.NewFeed) (models.Feed, error) {
	if f.URL == m.failURL {
		return models.Feed{}, errors.New("backend rejected feed")
	}
	created := models.Feed{ID: uuid.NewString(), Title: f.Title, URL: f.URL}
	m.feeds = append(m.feeds, created)
	return created, nil
}

func TestImport(t *testing.T) {
	api := &memoryFeeds{
		feeds:   []models.Feed{{ID: "f1", Title: "Known", URL: "https://known.example/rss"}},
		failURL: "https://broken.example/rss",
	}
	csvData := `title,url
Go Blog,https://go.dev/blog/feed.atom
Known again,https://known.example/rss
,https://untitled.example/rss
Dup,https://go.dev/blog/feed.atom
Missing,
Broken,https://broken.example/rss
`

	res, err := NewImporter(api).Import(context.Background(), strings.NewReader(csvData))

	require.NoError(t, err)
	assert.Equal(t, 6, res.Rows)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 2, res.Skipped)
	assert.Len(t, res.Errors, 2)
	require.Len(t, api.feeds, 3)
	assert.Equal(t, "Go Blog", api.feeds[1].Title)
	assert.Equal(t, "https://untitled.example/rss", api.feeds[2].Title)
}

func TestImport_RequiresURLColumn(t *testing.T) {
	_, err := NewImporter(&memoryFeeds{}).Import(context.Background(), strings.NewReader("title,link\nA,B\n"))

	assert.Error(t, err)
}

func TestImport_AcceptsExportOutput(t *testing.T) {
	fetched := "2024-05-01T10:00:00Z"
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, []models.Feed{
		{ID: "x1", Title: "A, with comma", URL: "https://a.example/rss", LastFetched: &fetched},
		{ID: "x2", Title: "B", URL: "https://b.example/rss"},
	}))

	api := &memoryFeeds{}
	res, err := NewImporter(api).Import(context.Background(), &buf)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, "A, with comma", api.feeds[0].Title)
}

type brokenReader struct{ err error }

func (b brokenReader) Read([]byte) (int, error) { return 0, b.err }

func TestImport_StopsOnReadFailure(t *testing.T) {
	reset := errors.New("connection reset by peer")
	body := io.MultiReader(strings.NewReader("title,url\nA,https://a.example/rss\n"), brokenReader{err: reset})
	api := &memoryFeeds{}

	res, err := NewImporter(api).Import(context.Background(), body)

	require.ErrorIs(t, err, reset)
	assert.Equal(t, 1, res.Created)
	assert.Empty(t, res.Errors)
}

func TestExport(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, Export(&buf, []models.Feed{{ID: "f1", Title: "A", URL: "https://a.example/rss"}}))

	assert.Equal(t, "id,title,url,last_fetched\nf1,A,https://a.example/rss,\n", buf.String())
}

func TestImportFeeds_FromFileAndURL(t *testing.T) {
	csvData := "url\nhttps://a.example/rss\n"

	path := filepath.Join(t.TempDir(), "feeds.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0o644))
	api := &memoryFeeds{}
	res, err := NewImporter(api).ImportFeeds(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("url\nhttps://b.example/rss\n"))
	}))
	defer srv.Close()
	res, err = NewImporter(api).ImportFeeds(context.Background(), srv.URL+"/feeds.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Len(t, api.feeds, 2)
}

func TestImportFeeds_DownloadTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	_, err := NewImporter(&memoryFeeds{}, WithTimeout(50*time.Millisecond)).
		ImportFeeds(context.Background(), srv.URL+"/feeds.csv")

	assert.Error(t, err)
}

func TestImportFeeds_MissingFile(t *testing.T) {
	_, err := NewImporter(&memoryFeeds{}).ImportFeeds(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))

	assert.Error(t, err)
}
