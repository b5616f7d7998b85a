package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != UserAgent {
			t.Errorf("User-Agent = %q, want %q", got, UserAgent)
		}
		w.Write([]byte(`<html><body><h2 id="x">Playoffs</h2></body></html>`))
	}))
	defer srv.Close()

	doc, err := NewHTTP(srv.Client()).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got := doc.Find("h2#x").Text(); got != "Playoffs" {
		t.Errorf("heading = %q, want %q", got, "Playoffs")
	}
}

func TestHTTPFetch_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := NewHTTP(nil).Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 403")
	}
}
