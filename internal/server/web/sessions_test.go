package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_IssuesCookie(t *testing.T) {
	s, err := NewSessions(4, newMemoryAPI(), zerolog.Nop(), true)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	id := s.ID(rec, httptest.NewRequest(http.MethodGet, "/bulk-fetch", nil))

	_, err = uuid.Parse(id)
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
}

func TestSessions_ReusesValidCookie(t *testing.T) {
	s, err := NewSessions(4, newMemoryAPI(), zerolog.Nop(), false)
	require.NoError(t, err)
	existing := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/bulk-fetch", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: existing})
	rec := httptest.NewRecorder()

	assert.Equal(t, existing, s.ID(rec, req))
	assert.Empty(t, rec.Result().Cookies())
}

func TestSessions_ReplacesInvalidCookie(t *testing.T) {
	s, err := NewSessions(4, newMemoryAPI(), zerolog.Nop(), false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/bulk-fetch", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "../../etc"})
	rec := httptest.NewRecorder()

	id := s.ID(rec, req)
	assert.NotEqual(t, "../../etc", id)
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestSessions_CoordinatorPerSession(t *testing.T) {
	s, err := NewSessions(1, newMemoryAPI(), zerolog.Nop(), false)
	require.NoError(t, err)

	a := s.Coordinator("a")
	assert.Same(t, a, s.Coordinator("a"))

	b := s.Coordinator("b")
	assert.NotSame(t, a, b)
	assert.Equal(t, 1, s.Len())

	assert.NotSame(t, a, s.Coordinator("a"), "evicted session starts over")
}
