package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeSpotify serves the handful of Web API endpoints used by export.
func fakeSpotify(t *testing.T, mux *http.ServeMux) *SpotifyService {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("expected bearer token, got %q", got)
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return NewSpotifyService(context.Background(), "test-token", server.URL, nil)
}

func TestSearchQuery(t *testing.T) {
	tc := []struct {
		title, artist, want string
	}{
		{"Yellow", "Coldplay", "track:Yellow artist:Coldplay"},
		{" Hurt ", "", "track:Hurt"},
	}
	for _, tt := range tc {
		if got := SearchQuery(tt.title, tt.artist); got != tt.want {
			t.Errorf("SearchQuery(%q, %q) = %q, want %q", tt.title, tt.artist, got, tt.want)
		}
	}
}

func TestSpotifyService(t *testing.T) {
	t.Run("CurrentUserID", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id":"listener-42","display_name":"Sam"}`)
		})

		id, err := fakeSpotify(t, mux).CurrentUserID(context.Background())
		if err != nil {
			t.Fatalf("CurrentUserID() error = %v", err)
		}
		if id != "listener-42" {
			t.Errorf("expected listener-42, got %q", id)
		}
	})

	t.Run("SearchTrack match", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("q") != "track:Yellow artist:Coldplay" || q.Get("type") != "track" || q.Get("limit") != "1" {
				t.Errorf("unexpected query %v", q)
			}
			fmt.Fprint(w, `{"tracks":{"items":[{"id":"trk1","uri":"spotify:track:trk1","name":"Yellow"}]}}`)
		})

		id, err := fakeSpotify(t, mux).SearchTrack(context.Background(), "Yellow", "Coldplay")
		if err != nil {
			t.Fatalf("SearchTrack() error = %v", err)
		}
		if id != "trk1" {
			t.Errorf("expected trk1, got %q", id)
		}
	})

	t.Run("SearchTrack no match", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"tracks":{"items":[]}}`)
		})

		id, err := fakeSpotify(t, mux).SearchTrack(context.Background(), "Nothing", "Nobody")
		if err != nil || id != "" {
			t.Errorf("expected empty id and no error, got %q, %v", id, err)
		}
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /users/listener-42/playlists", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["name"] != "Road Trip" || body["public"] != true || body["description"] != "desc" {
				t.Errorf("unexpected body %v", body)
			}
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":"pl1","name":"Road Trip","external_urls":{"spotify":"https://open.spotify.com/playlist/pl1"}}`)
		})

		pl, err := fakeSpotify(t, mux).CreatePlaylist(context.Background(), "listener-42", "Road Trip", "desc", true)
		if err != nil {
			t.Fatalf("CreatePlaylist() error = %v", err)
		}
		if pl.ID != "pl1" || pl.URL != "https://open.spotify.com/playlist/pl1" {
			t.Errorf("unexpected playlist ref %+v", pl)
		}
	})

	t.Run("AddTracks", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /playlists/pl1/tracks", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				URIs []string `json:"uris"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if len(body.URIs) != 2 || body.URIs[0] != "spotify:track:a" {
				t.Errorf("unexpected uris %v", body.URIs)
			}
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"snapshot_id":"snap"}`)
		})

		if err := fakeSpotify(t, mux).AddTracks(context.Background(), "pl1", []string{"a", "b"}); err != nil {
			t.Fatalf("AddTracks() error = %v", err)
		}
	})

	t.Run("API error message", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"status":401,"message":"The access token expired"}}`)
		})

		_, err := fakeSpotify(t, mux).CurrentUserID(context.Background())
		if err == nil {
			t.Fatal("expected error")
		}
		if got := UpstreamMessage(err); got != "The access token expired" {
			t.Errorf("UpstreamMessage() = %q", got)
		}
	})
}

func TestUpstreamMessage(t *testing.T) {
	if got := UpstreamMessage(errors.New("dial tcp: refused")); got != "dial tcp: refused" {
		t.Errorf("UpstreamMessage() = %q", got)
	}
}
