package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const similarFixture = `{
	"similartracks": {
		"track": [
			{"name": "Teardrop", "match": 1.0, "artist": {"name": "Massive Attack"}},
			{"name": "Glory Box", "match": "0.73", "artist": {"name": "Portishead"}}
		]
	}
}`

const tagFixture = `{
	"tracks": {
		"track": [
			{"name": "The Model", "artist": {"name": "Kraftwerk"}},
			{"name": "Blue Monday", "artist": {"name": "New Order"}}
		]
	}
}`

func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") == "" {
			http.Error(w, `{"error":6,"message":"api_key missing"}`, http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("method") {
		case "track.getSimilar":
			fmt.Fprint(w, similarFixture)
		case "tag.getTopTracks":
			fmt.Fprint(w, tagFixture)
		default:
			fmt.Fprint(w, `{"error":3,"message":"invalid method"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetSimilarTracks(t *testing.T) {
	srv := fixtureServer(t)
	svc := NewLastFMService("test-key", srv.URL)

	results, err := svc.GetSimilarTracks(context.Background(), "Faithless", "Insomnia", 10)
	if err != nil {
		t.Fatalf("get similar tracks: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Artist != "Massive Attack" || results[0].Title != "Teardrop" || results[0].Match != 1.0 {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	// match arrives as a JSON string in this fixture
	if results[1].Match != 0.73 {
		t.Errorf("expected string match to parse to 0.73, got %v", results[1].Match)
	}
}

func TestGetTagTopTracks(t *testing.T) {
	srv := fixtureServer(t)
	svc := NewLastFMService("test-key", srv.URL)

	refs, err := svc.GetTagTopTracks(context.Background(), "electronic", 50)
	if err != nil {
		t.Fatalf("get tag top tracks: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(refs))
	}
	if refs[1].Artist != "New Order" || refs[1].Title != "Blue Monday" {
		t.Errorf("unexpected second track: %+v", refs[1])
	}
}

func TestLastFMErrorResponse(t *testing.T) {
	srv := fixtureServer(t)
	svc := NewLastFMService("", srv.URL)

	if _, err := svc.GetSimilarTracks(context.Background(), "a", "b", 5); err == nil {
		t.Fatalf("expected an error from the API error payload")
	}
}
