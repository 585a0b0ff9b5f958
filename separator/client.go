// Package separator is the client for the vocal-separation microservice.
// Separation is a mandatory feature when requested, so exhausted retries
// surface as an error; progress polling and health checks never do.
package separator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"yaytsa-site/retry"
)

const (
	connectTimeout     = 10 * time.Second
	jobReadTimeout     = 10 * time.Minute
	healthCheckTimeout = 5 * time.Second

	maxRetries        = 3
	initialRetryDelay = 1000 * time.Millisecond
)

// State is the separation job lifecycle as reported by the service.
// The client only observes transitions, it never drives them.
type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateProcessing State = "PROCESSING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

type SeparationResult struct {
	InstrumentalPath string `json:"instrumental_path"`
	VocalPath        string `json:"vocal_path"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

type ProgressStatus struct {
	TrackID  string
	State    State
	Progress int
	Message  string
	Result   *SeparationResult
}

type Client struct {
	baseURL string

	// separation can run for minutes, health checks must not
	jobClient    *http.Client
	healthClient *http.Client

	maxRetries        int
	initialRetryDelay time.Duration
}

func NewClient(baseURL string) *Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &Client{
		baseURL: baseURL,
		jobClient: &http.Client{
			Timeout:   jobReadTimeout,
			Transport: &http.Transport{DialContext: dialer.DialContext},
		},
		healthClient: &http.Client{
			Timeout: healthCheckTimeout,
		},
		maxRetries:        maxRetries,
		initialRetryDelay: initialRetryDelay,
	}
}

// Separate submits a separation job and waits for the service to finish
// it. Transient network failures are retried with exponential backoff;
// anything else (bad status, malformed body) fails immediately. All
// retries exhausted propagates the last error to the caller.
func (c *Client) Separate(inputPath, trackID string) (SeparationResult, error) {
	log.Infof("requesting audio separation for track %s from %s", trackID, inputPath)

	payload, err := json.Marshal(map[string]string{
		"inputPath": inputPath,
		"trackId":   trackID,
	})
	if err != nil {
		return SeparationResult{}, fmt.Errorf("marshal separation request: %w", err)
	}

	start := time.Now()
	var result SeparationResult

	policy := retry.Policy{
		MaxAttempts:  c.maxRetries,
		InitialDelay: c.initialRetryDelay,
		Retryable:    retry.IsNetworkError,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			log.Warnf("audio separation attempt %d failed for track %s (retrying in %s): %v",
				attempt, trackID, delay, err)
		},
	}

	err = policy.Do(func() error {
		resp, err := c.jobClient.Post(c.baseURL+"/api/separate", "application/json", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("separator returned status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decode separator response: %w", err)
		}
		if result.InstrumentalPath == "" {
			return fmt.Errorf("invalid response from audio separator")
		}
		return nil
	})
	if err != nil {
		log.Errorf("audio separation failed for track %s: %v", trackID, err)
		return SeparationResult{}, fmt.Errorf("audio separation failed: %w", err)
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	log.Infof("audio separation completed for track %s in %dms", trackID, result.ProcessingTimeMs)
	return result, nil
}

type progressResponse struct {
	State    string            `json:"state"`
	Progress int               `json:"progress"`
	Message  string            `json:"message"`
	Result   *SeparationResult `json:"result"`
}

// GetProgress is a single best-effort poll. Any failure yields
// NOT_STARTED instead of an error; a playback status UI polls this every
// tick and must never see a crash.
func (c *Client) GetProgress(trackID string) ProgressStatus {
	notStarted := ProgressStatus{TrackID: trackID, State: StateNotStarted}

	resp, err := c.jobClient.Get(c.baseURL + "/api/progress/" + trackID)
	if err != nil {
		log.Warnf("failed to get progress for track %s: %v", trackID, err)
		return notStarted
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return notStarted
	}

	var body progressResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Warnf("failed to decode progress for track %s: %v", trackID, err)
		return notStarted
	}

	state := State(body.State)
	switch state {
	case StateProcessing, StateDone, StateFailed:
	default:
		state = StateNotStarted
	}

	return ProgressStatus{
		TrackID:  trackID,
		State:    state,
		Progress: body.Progress,
		Message:  body.Message,
		Result:   body.Result,
	}
}

// IsHealthy probes GET /health with short timeouts.
func (c *Client) IsHealthy() bool {
	resp, err := c.healthClient.Get(c.baseURL + "/health")
	if err != nil {
		log.Warnf("audio separator health check failed: %v", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
