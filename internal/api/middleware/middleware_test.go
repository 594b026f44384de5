package middleware

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinehub/backoffice/internal/auth"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestAuthMiddleware(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", time.Hour)
	token, err := jwtSvc.GenerateToken(7, "admin", "admin")
	require.NoError(t, err)

	var seen *auth.Claims
	h := AuthMiddleware(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetClaims(r)
	}))

	cases := []struct {
		name   string
		req    func() *http.Request
		status int
	}{
		{"bearer", func() *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/admin/users", nil)
			r.Header.Set("Authorization", "Bearer "+token)
			return r
		}, http.StatusOK},
		{"query token on GET", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/admin/workbench/download?token="+token, nil)
		}, http.StatusOK},
		{"query token on POST", func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/admin/workbench/clear?token="+token, nil)
		}, http.StatusUnauthorized},
		{"missing", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		}, http.StatusUnauthorized},
		{"wrong scheme", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			r.Header.Set("Authorization", "Basic "+token)
			return r
		}, http.StatusUnauthorized},
		{"garbage", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			r.Header.Set("Authorization", "Bearer nope")
			return r
		}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tc.req())
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, int64(7), seen.UserID)
			} else {
				assert.Nil(t, seen)
				assert.Contains(t, rec.Body.String(), `"success":false`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", time.Hour)
	h := AuthMiddleware(jwtSvc)(RequireRole("admin")(ok))

	for role, status := range map[string]int{"admin": http.StatusNoContent, "editor": http.StatusForbidden} {
		token, err := jwtSvc.GenerateToken(1, "u", role)
		require.NoError(t, err)
		r := httptest.NewRequest(http.MethodGet, "/admin/analytics", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, status, rec.Code, role)
	}

	rec := httptest.NewRecorder()
	RequireRole("admin")(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	allowed, _ := rl.Allow("1.1.1.1")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("1.1.1.1")
	assert.True(t, allowed)
	allowed, retry := rl.Allow("1.1.1.1")
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retry)

	allowed, _ = rl.Allow("2.2.2.2")
	assert.True(t, allowed, "limits are per address")

	h := rl.Handler(ok)
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	r.RemoteAddr = "1.1.1.1"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "61", rec.Header().Get("Retry-After"))

	now = now.Add(2 * time.Minute)
	assert.Zero(t, rl.Cleanup())
	allowed, _ = rl.Allow("1.1.1.1")
	assert.True(t, allowed)
}

func TestMaxBodySize(t *testing.T) {
	var readErr error
	h := MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	// Chunked bodies have no declared length and hit the reader limit.
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	r.ContentLength = -1
	h.ServeHTTP(httptest.NewRecorder(), r)
	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)

	readErr = nil
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short")))
	assert.NoError(t, readErr)
}

func TestLoggerSkipsQuietPolling(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	h := Logger(ok)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/workbench", nil))
	assert.Empty(t, buf.String())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/admin/workbench/translate", nil))
	assert.Contains(t, buf.String(), "POST /admin/workbench/translate 204")

	buf.Reset()
	failing := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	failing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Contains(t, buf.String(), "GET /api/health 500")
}

func TestNormalizeOrigins(t *testing.T) {
	got := normalizeOrigins([]string{" https://Admin.Example.com/ ", "https://admin.example.com", "ftp://files", "", "http://localhost:5173/app"})
	assert.Equal(t, []string{"https://admin.example.com", "http://localhost:5173"}, got)
	assert.True(t, credentialsAllowed(got))

	assert.Equal(t, []string{"*"}, normalizeOrigins(nil))
	assert.Equal(t, []string{"*"}, normalizeOrigins([]string{"not an origin"}))
	assert.Equal(t, []string{"*"}, normalizeOrigins([]string{"https://a.example.com", "*"}))
	assert.False(t, credentialsAllowed([]string{"*"}))
}

func preflight(h http.Handler, path, method, headers string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodOptions, path, nil)
	r.Header.Set("Origin", "https://admin.example.com")
	r.Header.Set("Access-Control-Request-Method", method)
	if headers != "" {
		r.Header.Set("Access-Control-Request-Headers", headers)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestCORSSurfaces(t *testing.T) {
	origins := []string{"https://admin.example.com/"}
	api := CORS(origins)(ok)
	files := FileCORS(origins)(ok)

	rec := preflight(api, "/admin/users", http.MethodDelete, "Authorization")
	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = preflight(files, "/uploads/movies/a.mp4", http.MethodGet, "Range")
	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = preflight(files, "/uploads/movies/a.mp4", http.MethodDelete, "")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), "stored files are read-only")

	r := httptest.NewRequest(http.MethodGet, "/admin/workbench/download", nil)
	r.Header.Set("Origin", "https://admin.example.com")
	got := httptest.NewRecorder()
	api.ServeHTTP(got, r)
	assert.Contains(t, got.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}
