package lyricsfetch

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	c := NewClient(url)
	c.initialRetryDelay = 10 * time.Millisecond
	return c
}

func unreachableURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestFetchLyricsSuccess(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/fetch-lyrics" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"outputPath": "/lyrics/song.lrc",
			"source":     "lrclib",
		})
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).FetchLyrics("Artist", "Song", "/lyrics/song.lrc")
	if !res.Success || res.OutputPath != "/lyrics/song.lrc" || res.Source != "lrclib" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if gotBody["artist"] != "Artist" || gotBody["title"] != "Song" {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
}

// lyrics are optional enrichment: an unreachable service is a soft
// negative, never an error
func TestFetchLyricsUnreachableIsSoftNegative(t *testing.T) {
	res := newTestClient(unreachableURL(t)).FetchLyrics("Artist", "Song", "/tmp/out.lrc")
	if res.Success {
		t.Fatal("expected Success=false for unreachable service")
	}
}

func TestFetchLyricsServerErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).FetchLyrics("Artist", "Song", "/tmp/out.lrc")
	if res.Success {
		t.Fatal("expected Success=false")
	}
	if calls.Load() != 1 {
		t.Fatalf("HTTP-level failure retried: %d calls", calls.Load())
	}
}

func TestFetchLyricsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false})
	}))
	defer srv.Close()

	if res := newTestClient(srv.URL).FetchLyrics("Artist", "Song", "/tmp/out.lrc"); res.Success {
		t.Fatal("expected Success=false when service found nothing")
	}
}

func TestIsHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if !newTestClient(srv.URL).IsHealthy() {
		t.Fatal("expected healthy")
	}
	if newTestClient(unreachableURL(t)).IsHealthy() {
		t.Fatal("expected unhealthy for unreachable service")
	}
}
