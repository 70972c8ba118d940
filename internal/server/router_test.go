package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"platos/internal/handlers"
)

func TestNewRouterRegistersRoutes(t *testing.T) {
	handlers.Configure(nil, nil)
	router := newRouter()

	tests := []struct {
		path   string
		status int
	}{
		{"/healthz", http.StatusServiceUnavailable},
		{"/api/ingredients", http.StatusServiceUnavailable},
		{"/api/ingredients/1", http.StatusServiceUnavailable},
		{"/api/dishes", http.StatusServiceUnavailable},
		{"/api/dishes/bread/cost", http.StatusServiceUnavailable},
		{"/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rr.Code != tt.status {
			t.Fatalf("GET %s: expected %d, got %d", tt.path, tt.status, rr.Code)
		}
		if tt.status != http.StatusNotFound {
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("GET %s: expected application/json content type, got %q", tt.path, ct)
			}
		}
	}
}
