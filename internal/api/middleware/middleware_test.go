package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OscarCarPu/life-manager/internal/logging"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
})

func TestCORSMiddleware(t *testing.T) {
	handler := NewCORSMiddleware(CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000", "*.example.com"},
	}).Handler()(okHandler)

	tests := []struct {
		name        string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllowed string
	}{
		{"same origin", "GET", "", false, http.StatusOK, ""},
		{"allowed origin", "GET", "http://localhost:3000", false, http.StatusOK, "http://localhost:3000"},
		{"wildcard subdomain", "GET", "https://app.example.com", false, http.StatusOK, "https://app.example.com"},
		{"foreign origin", "GET", "https://evil.test", false, http.StatusOK, ""},
		{"preflight allowed", "OPTIONS", "http://localhost:3000", true, http.StatusNoContent, "http://localhost:3000"},
		{"preflight rejected", "OPTIONS", "https://evil.test", true, http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/recommendations", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "GET")
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllowed, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSMiddleware_PreflightHeaders(t *testing.T) {
	handler := NewCORSMiddleware(CORSConfig{AllowedOrigins: []string{"*"}}).Handler()(okHandler)

	req := httptest.NewRequest("OPTIONS", "/api/v1/recommendations", http.NoBody)
	req.Header.Set("Origin", "http://anywhere.test")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), RequestIDHeader)
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := NewSecurityHeadersMiddleware(DefaultSecurityHeadersConfig()).Handler()(okHandler)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/recommendations", http.NoBody))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", http.NoBody))
	assert.Empty(t, w.Header().Get("Cache-Control"))
}

func TestServerVersion(t *testing.T) {
	w := httptest.NewRecorder()
	ServerVersion("1.2.3")(okHandler).ServeHTTP(w, httptest.NewRequest("GET", "/", http.NoBody))
	assert.Equal(t, "1.2.3", w.Header().Get(ServerVersionHeader))
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	handler := NewLoggingMiddleware(logging.New(logging.DEBUG, "json", &buf)).Handler()(okHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/recommendations", http.NoBody)
	req.Header.Set(RequestIDHeader, "abc")
	handler.ServeHTTP(w, req)

	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"trace_id":"abc"`)

	buf.Reset()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/health", http.NoBody))
	assert.Empty(t, buf.String())
}
