package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newAuthRouter(keys []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(keys))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("api_key"))
	})
	return r
}

func TestAuth_OpenAccessWhenNoKeysConfigured(t *testing.T) {
	r := newAuthRouter(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAuth_AcceptsBothHeaderStyles(t *testing.T) {
	r := newAuthRouter([]string{"k1", "k2"})

	tests := []struct {
		name   string
		header string
		value  string
	}{
		{"dedicated header", "X-API-Key", "k1"},
		{"bearer token", "Authorization", "Bearer k2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set(tt.header, tt.value)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
		})
	}
}

func TestAuth_RejectsMissingAndUnknownKeys(t *testing.T) {
	r := newAuthRouter([]string{"k1"})

	tests := []struct {
		name   string
		header string
		value  string
	}{
		{"no key at all", "", ""},
		{"unknown key", "X-API-Key", "nope"},
		{"unknown bearer", "Authorization", "Bearer nope"},
		{"malformed authorization", "Authorization", "k1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuth_StoresKeyForDownstreamHandlers(t *testing.T) {
	r := newAuthRouter([]string{"k1"})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-API-Key", "k1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "k1" {
		t.Errorf("context api_key = %q, want %q", w.Body.String(), "k1")
	}
}
