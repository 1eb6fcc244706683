package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"loomvale/internal/retry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New("key", "engine", server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestImagesParsesResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("searchType"); got != "image" {
			t.Errorf("searchType = %q, want image", got)
		}
		if got := r.URL.Query().Get("q"); got != "lantern poster" {
			t.Errorf("q = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"link":"https://posters.example.com/a.jpg","image":{"width":800,"height":1200}},
			{"link":"https://cdn.example.net/b.png"},
			{"link":""}
		]}`))
	})

	results, err := client.Images(context.Background(), "lantern poster", 10)
	if err != nil {
		t.Fatalf("Images: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	first := results[0]
	if first.Host != "posters.example.com" || first.Width != 800 || first.Height != 1200 {
		t.Errorf("first result = %+v", first)
	}
	// Missing dimension metadata must survive as zeros, not an error.
	second := results[1]
	if second.Width != 0 || second.Height != 0 {
		t.Errorf("second result dimensions = %dx%d, want 0x0", second.Width, second.Height)
	}
}

func TestWebTitlesSkipsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("searchType"); got != "" {
			t.Errorf("web search must not set searchType, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"title":"  Frieren Season 2 - Official Site  "},{"title":""},{"title":"Ghibli works"}]}`))
	})

	titles, err := client.WebTitles(context.Background(), "anime key visual", 5)
	if err != nil {
		t.Fatalf("WebTitles: %v", err)
	}
	if len(titles) != 2 || titles[0] != "Frieren Season 2 - Official Site" {
		t.Errorf("titles = %v", titles)
	}
}

func TestStatusErrorClassification(t *testing.T) {
	cases := []struct {
		code      int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusForbidden, false},
		{http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.code)
		})

		_, err := client.Images(context.Background(), "q", 5)
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("code %d: expected StatusError, got %v", tc.code, err)
		}
		if statusErr.Code != tc.code {
			t.Errorf("code = %d, want %d", statusErr.Code, tc.code)
		}
		if got := retry.IsTransient(err); got != tc.transient {
			t.Errorf("IsTransient(%d) = %t, want %t", tc.code, got, tc.transient)
		}
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New("", "engine", "https://example.com"); err == nil {
		t.Error("expected error for missing api key")
	}
	if _, err := New("key", "", "https://example.com"); err == nil {
		t.Error("expected error for missing engine id")
	}
	if _, err := New("key", "engine", ""); err == nil {
		t.Error("expected error for missing base url")
	}
}

func TestImagesRejectsEmptyQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be issued for empty query")
	})
	if _, err := client.Images(context.Background(), "  ", 5); err == nil {
		t.Error("expected error for empty query")
	}
}
