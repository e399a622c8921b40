package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notes-app/backend/internal/auth"
	"github.com/notes-app/backend/internal/domain"
)

type stubUsers struct {
	users map[string]*domain.User
}

func (s *stubUsers) Create(context.Context, *domain.User) error { return nil }
func (s *stubUsers) GetByID(context.Context, uuid.UUID) (*domain.User, error) {
	return nil, nil
}
func (s *stubUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.users[username], nil
}
func (s *stubUsers) Lock(context.Context, uuid.UUID) error { return nil }

func newTestMiddleware(t *testing.T) (*AuthMiddleware, *auth.Signer, *domain.User) {
	t.Helper()
	signer, err := auth.NewSigner([]byte("middleware-test-key"), auth.DefaultAccessTTL)
	require.NoError(t, err)
	alice := &domain.User{ID: uuid.New(), Username: "alice"}
	users := &stubUsers{users: map[string]*domain.User{"alice": alice}}
	return NewAuthMiddleware(signer, users, zerolog.New(io.Discard)), signer, alice
}

func TestAuthenticate(t *testing.T) {
	m, signer, alice := newTestMiddleware(t)

	valid, err := signer.Issue("alice")
	require.NoError(t, err)
	ghost, err := signer.Issue("ghost")
	require.NoError(t, err)
	other, err := auth.NewSigner([]byte("some-other-key"), auth.DefaultAccessTTL)
	require.NoError(t, err)
	forged, err := other.Issue("alice")
	require.NoError(t, err)

	tts := []struct {
		name   string
		header string
		want   bool
	}{
		{"no header", "", false},
		{"wrong scheme", "Basic " + valid, false},
		{"empty token", "Bearer ", false},
		{"garbage", "Bearer not.a.jwt", false},
		{"foreign key", "Bearer " + forged, false},
		{"unknown user", "Bearer " + ghost, false},
		{"valid", "Bearer " + valid, true},
	}
	for _, tt := range tts {
		t.Run(tt.name, func(t *testing.T) {
			var got auth.Identity
			var ok bool
			h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, ok = auth.FromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code, "authenticate never rejects")
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, alice.ID, got.UserID)
				assert.Equal(t, "alice", got.Username)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	m, signer, alice := newTestMiddleware(t)
	h := m.Authenticate(m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserID(r.Context())
		assert.True(t, ok)
		assert.Equal(t, alice.ID, id)
		w.WriteHeader(http.StatusOK)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Authentication required","data":null,"errors":["Authentication required"]}`, rec.Body.String())

	token, err := signer.Issue("alice")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
