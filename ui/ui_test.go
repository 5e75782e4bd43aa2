//go:build !ui_embed

package ui

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFallbackRedirectsToDocs(t *testing.T) {
	h, err := Handler()
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/latest", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/docs" {
		t.Errorf("Location = %q, want /docs", loc)
	}
}
