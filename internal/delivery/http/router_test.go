package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/notes-app/backend/internal/auth"
	"github.com/notes-app/backend/internal/middleware"
	"github.com/notes-app/backend/internal/repository/sqlite"
	"github.com/notes-app/backend/internal/usecase"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

type testAPI struct {
	router *chi.Mux
}

func newTestAPI(t *testing.T, authRateLimit int) *testAPI {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zerolog.New(io.Discard)
	signer, err := auth.NewSigner([]byte("router-test-key"), auth.DefaultAccessTTL)
	require.NoError(t, err)

	tx := sqlite.NewTransactor(db)
	users := sqlite.NewUserStore(db)
	folders := sqlite.NewFolderStore(db)
	notes := sqlite.NewNoteStore(db)
	tokens := usecase.NewRefreshTokenManager(users, sqlite.NewRefreshTokenStore(db), tx, usecase.DefaultRefreshTTL)

	handler := NewHandler(
		usecase.NewAuthUsecase(users, sqlite.NewLoginEventStore(db), auth.NewBcryptHasher(bcrypt.MinCost), signer, tokens, tx),
		usecase.NewFolderUsecase(folders, notes, users, tx),
		usecase.NewNoteUsecase(notes, folders, tx),
		db.PingContext,
		logger,
	)
	router := NewRouter(handler, middleware.NewAuthMiddleware(signer, users, logger), RouterConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AuthRateLimit:  authRateLimit,
		AuthRateWindow: time.Minute,
		RequestLogger:  logger,
	})
	return &testAPI{router: router}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (a *testAPI) login(t *testing.T, username, password string) usecase.TokenResponse {
	t.Helper()
	status, env := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, status, env.Message)

	var tokens usecase.TokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	return tokens
}

type idResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	FolderName string `json:"folderName"`
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestRouter_FolderNoteScenario(t *testing.T) {
	api := newTestAPI(t, 0)
	tokens := api.login(t, "alice", "pw1")
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, "alice", tokens.Username)

	status, env := api.do(t, http.MethodPost, "/api/folders", tokens.AccessToken, map[string]any{"name": "Work"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	assert.Equal(t, "Folder created successfully", env.Message)
	work := decodeData[idResponse](t, env)

	status, env = api.do(t, http.MethodPost, "/api/folders", tokens.AccessToken, map[string]any{"name": "Projects", "parentFolderId": work.ID})
	require.Equal(t, http.StatusCreated, status, env.Message)
	projects := decodeData[idResponse](t, env)

	status, env = api.do(t, http.MethodPost, "/api/notes", tokens.AccessToken, map[string]any{"title": "Todo", "folderId": projects.ID})
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = api.do(t, http.MethodGet, "/api/notes/folder/"+projects.ID, tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	notes := decodeData[[]idResponse](t, env)
	require.Len(t, notes, 1)
	assert.Equal(t, "Todo", notes[0].Title)
	assert.Equal(t, "Projects", notes[0].FolderName)

	status, env = api.do(t, http.MethodGet, "/api/folders/root", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[[]idResponse](t, env), 1)

	status, env = api.do(t, http.MethodGet, "/api/folders/parent/"+work.ID, tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	children := decodeData[[]idResponse](t, env)
	require.Len(t, children, 1)
	assert.Equal(t, "Projects", children[0].Name)

	status, env = api.do(t, http.MethodGet, "/api/folders/"+work.ID, tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	var detail struct {
		Name       string       `json:"name"`
		Subfolders []idResponse `json:"subfolders"`
		Notes      []idResponse `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "Work", detail.Name)
	assert.Len(t, detail.Subfolders, 1)
	assert.Empty(t, detail.Notes)

	status, _ = api.do(t, http.MethodDelete, "/api/folders/"+work.ID, tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = api.do(t, http.MethodGet, "/api/notes", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decodeData[[]idResponse](t, env))
}

func TestRouter_AuthFlow(t *testing.T) {
	api := newTestAPI(t, 0)
	tokens := api.login(t, "alice", "pw1")

	status, env := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "alice", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username already exists", env.Message)
	assert.False(t, env.Success)

	status, env = api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Len(t, env.Errors, 2)

	status, env = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid username or password", env.Message)

	status, env = api.do(t, http.MethodGet, "/api/auth/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	me := decodeData[map[string]any](t, env)
	assert.Equal(t, "alice", me["username"])
	assert.NotContains(t, me, "passwordHash")

	status, env = api.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": tokens.RefreshToken})
	require.Equal(t, http.StatusOK, status)
	refreshed := decodeData[usecase.TokenResponse](t, env)
	assert.Equal(t, tokens.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, refreshed.AccessToken)

	status, env = api.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Refresh token not found", env.Message)

	status, _ = api.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = api.do(t, http.MethodPost, "/api/auth/logout", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", env.Message)
	assert.Contains(t, []string{"", "null"}, string(env.Data))

	status, env = api.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Refresh token was revoked", env.Message)

	// Access tokens stay valid until they expire.
	status, _ = api.do(t, http.MethodGet, "/api/folders", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	api := newTestAPI(t, 0)
	for _, path := range []string{"/api/folders", "/api/folders/root", "/api/notes", "/api/notes/root", "/api/auth/me"} {
		status, env := api.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.False(t, env.Success)

		status, _ = api.do(t, http.MethodGet, path, "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}
}

func TestRouter_CrossTenant(t *testing.T) {
	api := newTestAPI(t, 0)
	alice := api.login(t, "alice", "pw1")
	bob := api.login(t, "bob", "pw2")

	_, env := api.do(t, http.MethodPost, "/api/folders", alice.AccessToken, map[string]any{"name": "Work"})
	work := decodeData[idResponse](t, env)
	_, env = api.do(t, http.MethodPost, "/api/notes", alice.AccessToken, map[string]any{"title": "Secret", "folderId": work.ID})
	note := decodeData[idResponse](t, env)

	tts := []struct {
		method string
		path   string
		body   any
		status int
	}{
		{http.MethodGet, "/api/folders/" + work.ID, nil, http.StatusNotFound},
		{http.MethodPut, "/api/folders/" + work.ID, map[string]any{"name": "Mine"}, http.StatusNotFound},
		{http.MethodDelete, "/api/folders/" + work.ID, nil, http.StatusNotFound},
		{http.MethodGet, "/api/folders/parent/" + work.ID, nil, http.StatusNotFound},
		{http.MethodGet, "/api/notes/folder/" + work.ID, nil, http.StatusNotFound},
		{http.MethodGet, "/api/notes/" + note.ID, nil, http.StatusNotFound},
		{http.MethodPut, "/api/notes/" + note.ID, map[string]any{"title": "Mine"}, http.StatusNotFound},
		{http.MethodDelete, "/api/notes/" + note.ID, nil, http.StatusNotFound},
		{http.MethodPost, "/api/notes", map[string]any{"title": "Sneaky", "folderId": work.ID}, http.StatusBadRequest},
		{http.MethodPost, "/api/folders", map[string]any{"name": "Sub", "parentFolderId": work.ID}, http.StatusNotFound},
	}
	for _, tt := range tts {
		status, env := api.do(t, tt.method, tt.path, bob.AccessToken, tt.body)
		assert.Equal(t, tt.status, status, "%s %s: %s", tt.method, tt.path, env.Message)
	}

	status, env := api.do(t, http.MethodGet, "/api/notes/"+note.ID, alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Secret", decodeData[idResponse](t, env).Title)
}

func TestRouter_FolderErrors(t *testing.T) {
	api := newTestAPI(t, 0)
	tokens := api.login(t, "alice", "pw1")

	_, env := api.do(t, http.MethodPost, "/api/folders", tokens.AccessToken, map[string]any{"name": "Work"})
	work := decodeData[idResponse](t, env)

	status, env := api.do(t, http.MethodPost, "/api/folders", tokens.AccessToken, map[string]any{"name": "Work"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "A folder with this name already exists at this location", env.Message)

	status, env = api.do(t, http.MethodPut, "/api/folders/"+work.ID, tokens.AccessToken, map[string]any{"name": "Work", "parentFolderId": work.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "A folder cannot be its own parent", env.Message)

	status, _ = api.do(t, http.MethodPost, "/api/folders", tokens.AccessToken, map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = api.do(t, http.MethodPost, "/api/folders", tokens.AccessToken, "{not json")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", env.Message)

	status, _ = api.do(t, http.MethodGet, "/api/folders/not-a-uuid", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouter_RateLimitsLogin(t *testing.T) {
	api := newTestAPI(t, 2)
	body := map[string]string{"username": "alice", "password": "pw1"}

	for i := 0; i < 2; i++ {
		status, _ := api.do(t, http.MethodPost, "/api/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	status, env := api.do(t, http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Too many requests", env.Message)

	status, _ = api.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t, 0)
	status, env := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
}

func TestRouter_LoginHistory(t *testing.T) {
	api := newTestAPI(t, 0)
	tokens := api.login(t, "alice", "pw1")

	status, env := api.do(t, http.MethodGet, "/api/auth/logins", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status, env.Message)

	var events []struct {
		IPAddress string `json:"ipAddress"`
		UserAgent string `json:"userAgent"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "192.0.2.1", events[0].IPAddress)

	status, env = api.do(t, http.MethodGet, "/api/auth/logins?limit=zero", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid limit", env.Message)

	status, _ = api.do(t, http.MethodGet, "/api/auth/logins", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
