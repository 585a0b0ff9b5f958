package separator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// newTestClient points a client at url with retry delays shrunk so the
// exhaustion tests stay fast.
func newTestClient(url string) *Client {
	c := NewClient(url)
	c.initialRetryDelay = 10 * time.Millisecond
	return c
}

// unreachableURL returns an address nothing is listening on.
func unreachableURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestSeparateSuccess(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/separate" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{
			"instrumental_path": "/stems/track-1/instrumental.wav",
			"vocal_path":        "/stems/track-1/vocals.wav",
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	result, err := c.Separate("/media/song.flac", "track-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.InstrumentalPath != "/stems/track-1/instrumental.wav" {
		t.Errorf("unexpected instrumental path: %s", result.InstrumentalPath)
	}
	if result.VocalPath != "/stems/track-1/vocals.wav" {
		t.Errorf("unexpected vocal path: %s", result.VocalPath)
	}
	if result.ProcessingTimeMs < 0 {
		t.Errorf("negative processing time: %d", result.ProcessingTimeMs)
	}
	if gotBody["inputPath"] != "/media/song.flac" || gotBody["trackId"] != "track-1" {
		t.Errorf("unexpected request body: %v", gotBody)
	}
}

func TestSeparateRetriesThenPropagates(t *testing.T) {
	c := newTestClient(unreachableURL(t))

	start := time.Now()
	_, err := c.Separate("/media/song.flac", "track-1")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	// 3 attempts with backoff of 10ms then 20ms between them
	if elapsed < 30*time.Millisecond {
		t.Fatalf("retries with backoff not observed, elapsed %s", elapsed)
	}
}

func TestSeparateServerErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.Separate("/media/song.flac", "track-1"); err == nil {
		t.Fatal("expected error on server failure")
	}
	if calls.Load() != 1 {
		t.Fatalf("HTTP-level failure retried: %d calls", calls.Load())
	}
}

func TestSeparateInvalidResponseNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"vocal_path": "/stems/v.wav"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.Separate("/media/song.flac", "track-1"); err == nil {
		t.Fatal("expected error on response without instrumental path")
	}
	if calls.Load() != 1 {
		t.Fatalf("malformed response retried: %d calls", calls.Load())
	}
}

func TestGetProgressDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/progress/track-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"state":    "DONE",
			"progress": 100,
			"message":  "finished",
			"result": map[string]interface{}{
				"instrumental_path":  "/stems/i.wav",
				"vocal_path":         "/stems/v.wav",
				"processing_time_ms": 12345,
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	status := c.GetProgress("track-1")
	if status.State != StateDone || status.Progress != 100 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Result == nil || status.Result.InstrumentalPath != "/stems/i.wav" {
		t.Fatalf("result not decoded: %+v", status.Result)
	}
}

func TestGetProgressUnreachableReturnsNotStarted(t *testing.T) {
	c := newTestClient(unreachableURL(t))
	status := c.GetProgress("track-1")
	if status.State != StateNotStarted {
		t.Fatalf("expected NOT_STARTED, got %s", status.State)
	}
	if status.TrackID != "track-1" {
		t.Fatalf("track id lost: %+v", status)
	}
}

func TestGetProgressUnknownState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"state": "SOMETHING_NEW"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if status := c.GetProgress("track-1"); status.State != StateNotStarted {
		t.Fatalf("expected unknown state to collapse to NOT_STARTED, got %s", status.State)
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
