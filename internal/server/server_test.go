package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tabzpay/progress-sub002/config"
	"github.com/tabzpay/progress-sub002/internal/auth"
	"github.com/tabzpay/progress-sub002/internal/store"
	"github.com/tabzpay/progress-sub002/internal/supabase"
	"github.com/tabzpay/progress-sub002/internal/uistate"
	"github.com/tabzpay/progress-sub002/types"
	"go.uber.org/zap"
)

type noUsers struct{}

func (noUsers) GetByID(context.Context, int) (types.User, error) {
	return types.User{}, store.ErrNotFound
}

func (noUsers) GetByEmail(context.Context, string) (types.User, error) {
	return types.User{}, store.ErrNotFound
}

func (noUsers) Create(_ context.Context, u types.User) (types.User, error) {
	u.ID = 1
	return u, nil
}

func newTestRouter(t *testing.T, cfg config.Config) (http.Handler, *auth.TokenManager) {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(upstream.Close)

	sb, err := supabase.New(supabase.Config{URL: upstream.URL, APIKey: "anon"})
	require.NoError(t, err)

	tokens := auth.NewTokenManager("test-secret", "loantracker")
	router := NewRouter(cfg, Deps{
		Users:     noUsers{},
		Supabase:  sb,
		UIBackend: uistate.NewFileBackend(t.TempDir()),
		Tokens:    tokens,
		Logger:    zap.NewNop(),
	})
	return router, tokens
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzAndMetrics(t *testing.T) {
	h, _ := newTestRouter(t, config.Config{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "loantracker_http_requests_total")
}

func TestRootAuthAliases(t *testing.T) {
	h, _ := newTestRouter(t, config.Config{})

	for _, path := range []string{"/register", "/auth/register", "/login", "/auth/login"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
		rec := serve(h, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
		require.JSONEq(t, `{"error":"missing required fields"}`, rec.Body.String(), path)
	}
}

func TestDomainRoutesRequireToken(t *testing.T) {
	h, tokens := newTestRouter(t, config.Config{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/loans", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := tokens.Issue(7)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/loans", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t, config.Config{CORSOrigins: []string{"https://app.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/loans", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := serve(h, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/loans", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec = serve(h, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSPAIsGuarded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	h, tokens := newTestRouter(t, config.Config{SPADir: dir})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/app/loans?tab=open", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/sign-in?redirect=%2Fapp%2Floans%3Ftab%3Dopen", rec.Header().Get("Location"))

	token, _, err := tokens.Issue(7)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/app/loans", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	rec = serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "app")
}
