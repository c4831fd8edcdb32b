package web

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"laune/reader/internal/bulkfetch"
	"laune/reader/internal/metrics"
)

// SessionCookie names the cookie carrying the browser session id.
const SessionCookie = "laune_session"

const sessionMaxAge = 30 * 24 * time.Hour

// Sessions maps browser sessions to their bulk fetch coordinator. The least
// recently used session is dropped once capacity is reached.
type Sessions struct {
	fetcher bulkfetch.Fetcher
	logger  zerolog.Logger
	secure  bool

	mu           sync.Mutex
	coordinators *lru.Cache[string, *bulkfetch.Coordinator]
}

// NewSessions creates a session table holding at most capacity coordinators.
func NewSessions(capacity int, fetcher bulkfetch.Fetcher, logger zerolog.Logger, secureCookies bool) (*Sessions, error) {
	coordinators, err := lru.NewWithEvict(capacity, func(id string, _ *bulkfetch.Coordinator) {
		metrics.ActiveSessions.Dec()
		logger.Debug().Str("session", id).Msg("Evicted bulk fetch session")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session table: %w", err)
	}
	return &Sessions{
		fetcher:      fetcher,
		logger:       logger,
		secure:       secureCookies,
		coordinators: coordinators,
	}, nil
}

// ID returns the session id of r, issuing a new cookie when r carries none
// or an invalid one.
func (s *Sessions) ID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Coordinator returns the coordinator of a session, creating an idle one on
// first use.
func (s *Sessions) Coordinator(id string) *bulkfetch.Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.coordinators.Get(id); ok {
		return c
	}
	c := bulkfetch.New(s.fetcher, s.logger.With().Str("session", id).Logger())
	s.coordinators.Add(id, c)
	metrics.ActiveSessions.Inc()
	return c
}

// Len is the number of sessions currently held.
func (s *Sessions) Len() int {
	return s.coordinators.Len()
}
