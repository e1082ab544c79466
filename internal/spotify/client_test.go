package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"playlistwatch/internal/core"
)

// staticTokens is a TokenSource that never hits the network.
type staticTokens struct {
	err error
}

func (s staticTokens) Token(_ context.Context) (*oauth2.Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &oauth2.Token{AccessToken: "test-token", TokenType: "Bearer"}, nil
}

// rewriteTransport redirects every request to the test server, keeping the
// request path intact.
type rewriteTransport struct {
	base *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.base.Scheme
	req.URL.Host = t.base.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("Failed to parse server URL: %v", err)
	}

	client := NewClient(staticTokens{}, zap.NewNop())
	client.httpClient = &http.Client{Transport: rewriteTransport{base: base}}

	return client, server
}

func trackItem(id, name, artist string) map[string]any {
	item := map[string]any{
		"added_at": "2025-01-01T00:00:00Z",
	}
	if id == "" {
		item["track"] = nil
		return item
	}
	item["track"] = map[string]any{
		"id":      id,
		"name":    name,
		"type":    "track",
		"artists": []map[string]any{{"name": artist}},
		"album":   map[string]any{"name": "Album " + id},
	}
	return item
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("Failed to encode response: %v", err)
	}
}

func playlistMetadata(total int) map[string]any {
	return map[string]any{
		"id":    "p1",
		"name":  "Test Playlist",
		"owner": map[string]any{"display_name": "owner"},
		"external_urls": map[string]any{
			"spotify": "https://open.spotify.com/playlist/p1",
		},
		"tracks": map[string]any{"total": total},
	}
}

func TestClient_FetchPlaylist_SinglePage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playlists/p1", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, playlistMetadata(2))
	})
	mux.HandleFunc("/v1/playlists/p1/tracks", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"total":  2,
			"limit":  100,
			"offset": 0,
			"items": []map[string]any{
				trackItem("a", "Song A", "Artist A"),
				trackItem("b", "Song B", "Artist B"),
			},
		})
	})

	client, _ := newTestClient(t, mux)

	info, tracks, err := client.FetchPlaylist(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FetchPlaylist() = %v", err)
	}

	if info.Name != "Test Playlist" || info.Owner != "owner" || info.Total != 2 {
		t.Errorf("Playlist info mismatch: %+v", info)
	}
	if info.SpotifyURL != "https://open.spotify.com/playlist/p1" {
		t.Errorf("SpotifyURL = %q", info.SpotifyURL)
	}

	if len(tracks) != 2 {
		t.Fatalf("Expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0].TrackID != "a" || tracks[0].Name != "Song A" || tracks[0].Artists != "Artist A" {
		t.Errorf("Track 0 mismatch: %+v", tracks[0])
	}
	if tracks[0].Position != 1 || tracks[1].Position != 2 {
		t.Errorf("Positions = %d, %d, want 1, 2", tracks[0].Position, tracks[1].Position)
	}
	if tracks[0].Album != "Album a" {
		t.Errorf("Album = %q", tracks[0].Album)
	}

	wantAdded := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if !tracks[0].AddedAt.Equal(wantAdded) {
		t.Errorf("AddedAt = %v, want %v", tracks[0].AddedAt, wantAdded)
	}
}

func TestClient_FetchPlaylist_Pagination(t *testing.T) {
	const total = 250

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playlists/p1", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, playlistMetadata(total))
	})

	var offsets []int
	mux.HandleFunc("/v1/playlists/p1/tracks", func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offsets = append(offsets, offset)

		if limit != 100 {
			t.Errorf("limit = %d, want 100", limit)
		}

		count := total - offset
		if count > limit {
			count = limit
		}
		items := make([]map[string]any, 0, count)
		for i := 0; i < count; i++ {
			id := fmt.Sprintf("t%d", offset+i)
			items = append(items, trackItem(id, "Song "+id, "Artist"))
		}

		writeJSON(t, w, map[string]any{
			"total":  total,
			"limit":  limit,
			"offset": offset,
			"items":  items,
		})
	})

	client, _ := newTestClient(t, mux)

	_, tracks, err := client.FetchPlaylist(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FetchPlaylist() = %v", err)
	}

	if len(tracks) != total {
		t.Fatalf("Expected %d tracks, got %d", total, len(tracks))
	}
	if len(offsets) != 3 || offsets[0] != 0 || offsets[1] != 100 || offsets[2] != 200 {
		t.Errorf("Page offsets = %v, want [0 100 200]", offsets)
	}

	// Positions run contiguously across page boundaries.
	for i, track := range tracks {
		if track.Position != i+1 {
			t.Fatalf("Track %d position = %d, want %d", i, track.Position, i+1)
		}
	}
	if tracks[100].TrackID != "t100" {
		t.Errorf("First track of second page = %q, want t100", tracks[100].TrackID)
	}
}

func TestClient_FetchPlaylist_SkipsUnplayableEntries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playlists/p1", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, playlistMetadata(4))
	})
	mux.HandleFunc("/v1/playlists/p1/tracks", func(w http.ResponseWriter, _ *http.Request) {
		noID := trackItem("x", "Local File", "Artist")
		noID["track"].(map[string]any)["id"] = ""

		writeJSON(t, w, map[string]any{
			"total":  4,
			"limit":  100,
			"offset": 0,
			"items": []map[string]any{
				trackItem("a", "Song A", "Artist"),
				trackItem("", "", ""), // removed media
				noID,
				trackItem("b", "Song B", "Artist"),
			},
		})
	})

	client, _ := newTestClient(t, mux)

	_, tracks, err := client.FetchPlaylist(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FetchPlaylist() = %v", err)
	}

	if len(tracks) != 2 {
		t.Fatalf("Expected 2 tracks, got %d: %+v", len(tracks), tracks)
	}

	// Skipped entries keep their slot, so the numbering has gaps.
	if tracks[0].TrackID != "a" || tracks[0].Position != 1 {
		t.Errorf("Track 0 = %+v, want a at position 1", tracks[0])
	}
	if tracks[1].TrackID != "b" || tracks[1].Position != 4 {
		t.Errorf("Track 1 = %+v, want b at position 4", tracks[1])
	}
}

func TestClient_FetchPlaylist_PageFailureAborts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playlists/p1", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, playlistMetadata(150))
	})
	mux.HandleFunc("/v1/playlists/p1/tracks", func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"status":500,"message":"server error"}}`))
			return
		}

		items := make([]map[string]any, 0, 100)
		for i := 0; i < 100; i++ {
			id := fmt.Sprintf("t%d", i)
			items = append(items, trackItem(id, "Song "+id, "Artist"))
		}
		writeJSON(t, w, map[string]any{
			"total":  150,
			"limit":  100,
			"offset": 0,
			"items":  items,
		})
	})

	client, _ := newTestClient(t, mux)

	_, tracks, err := client.FetchPlaylist(context.Background(), "p1")
	if !errors.Is(err, core.ErrFetchFailed) {
		t.Fatalf("FetchPlaylist() = %v, want ErrFetchFailed", err)
	}
	if tracks != nil {
		t.Errorf("A failed fetch must not return a partial listing, got %d tracks", len(tracks))
	}
}

func TestClient_FetchPlaylist_MetadataFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playlists/p1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"status":404,"message":"Not found"}}`))
	})

	client, _ := newTestClient(t, mux)

	_, _, err := client.FetchPlaylist(context.Background(), "p1")
	if !errors.Is(err, core.ErrFetchFailed) {
		t.Fatalf("FetchPlaylist() = %v, want ErrFetchFailed", err)
	}
}

func TestClient_FetchPlaylist_TokenError(t *testing.T) {
	client := NewClient(staticTokens{err: core.ErrMissingCredentials}, zap.NewNop())

	_, _, err := client.FetchPlaylist(context.Background(), "p1")
	if !errors.Is(err, core.ErrMissingCredentials) {
		t.Fatalf("FetchPlaylist() = %v, want ErrMissingCredentials", err)
	}
}

func TestClient_FetchTrackPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playlists/p1/tracks", func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		if offset != 10 {
			t.Errorf("offset = %d, want 10", offset)
		}
		if limit != 5 {
			t.Errorf("limit = %d, want 5", limit)
		}

		writeJSON(t, w, map[string]any{
			"total":  42,
			"limit":  limit,
			"offset": offset,
			"items": []map[string]any{
				trackItem("a", "Song A", "Artist"),
			},
		})
	})

	client, _ := newTestClient(t, mux)

	tracks, total, err := client.FetchTrackPage(context.Background(), "p1", 5, 10)
	if err != nil {
		t.Fatalf("FetchTrackPage() = %v", err)
	}
	if total != 42 {
		t.Errorf("total = %d, want 42", total)
	}
	if len(tracks) != 1 || tracks[0].Position != 11 {
		t.Errorf("tracks = %+v, want one track at position 11", tracks)
	}
}

func TestClient_FetchTrackPage_ClampsLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playlists/p1/tracks", func(w http.ResponseWriter, r *http.Request) {
		if limit := r.URL.Query().Get("limit"); limit != "100" {
			t.Errorf("limit = %q, want 100", limit)
		}
		if offset := r.URL.Query().Get("offset"); offset != "0" {
			t.Errorf("offset = %q, want 0", offset)
		}
		writeJSON(t, w, map[string]any{
			"total": 0, "limit": 100, "offset": 0,
			"items": []map[string]any{},
		})
	})

	client, _ := newTestClient(t, mux)

	if _, _, err := client.FetchTrackPage(context.Background(), "p1", 500, -3); err != nil {
		t.Fatalf("FetchTrackPage() = %v", err)
	}
}
