package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestHandleOpenAPI(t *testing.T) {
	h := handleOpenAPI()
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()

	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "application/json") {
		t.Fatalf("content-type = %q, want application/json", got)
	}

	var doc struct {
		OpenAPI string                     `json:"openapi"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decoding document: %v", err)
	}
	if doc.OpenAPI == "" {
		t.Fatal("document has no openapi version")
	}
	for _, path := range []string{"/healthz", "/games", "/api/game", "/api/game/qr"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("document missing %s", path)
		}
	}
	if _, ok := doc.Paths["/api/admin/login"]; ok {
		t.Error("document still lists admin routes")
	}
}

func TestRoutes(t *testing.T) {
	srv := New(":0", slog.Default(), func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/healthz", http.StatusNoContent, ""},
		{"/openapi.json", http.StatusOK, "/api/game"},
		{"/docs", http.StatusOK, "/openapi.json"},
		{"/nowhere", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.body != "" && !strings.Contains(rec.Body.String(), tt.body) {
				t.Fatalf("body missing %q", tt.body)
			}
		})
	}
}

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   slog.Level
	}{
		{"/api/game", http.StatusOK, slog.LevelInfo},
		{"/api/game", http.StatusNotFound, slog.LevelInfo},
		{"/api/game", http.StatusServiceUnavailable, slog.LevelWarn},
		{"/healthz", http.StatusOK, slog.LevelDebug},
		{"/healthz", http.StatusServiceUnavailable, slog.LevelWarn},
	}
	for _, tt := range tests {
		if got := requestLevel(tt.path, tt.status); got != tt.want {
			t.Errorf("requestLevel(%s, %d) = %v, want %v", tt.path, tt.status, got, tt.want)
		}
	}
}
