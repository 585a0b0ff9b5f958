// Package lyricsfetch is the client for the lyrics-acquisition
// microservice. Lyrics are optional enrichment: unlike separation,
// exhausted retries collapse into a "not found" result, never an error.
package lyricsfetch

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
	fetchReadTimeout   = 2 * time.Minute
	healthCheckTimeout = 5 * time.Second

	maxRetries        = 2
	initialRetryDelay = 1000 * time.Millisecond
)

type Result struct {
	Success    bool   `json:"success"`
	OutputPath string `json:"outputPath"`
	Source     string `json:"source"`
}

type Client struct {
	baseURL string

	fetchClient  *http.Client
	healthClient *http.Client

	maxRetries        int
	initialRetryDelay time.Duration
}

func NewClient(baseURL string) *Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &Client{
		baseURL: baseURL,
		fetchClient: &http.Client{
			Timeout:   fetchReadTimeout,
			Transport: &http.Transport{DialContext: dialer.DialContext},
		},
		healthClient: &http.Client{
			Timeout: healthCheckTimeout,
		},
		maxRetries:        maxRetries,
		initialRetryDelay: initialRetryDelay,
	}
}

// FetchLyrics asks the service to find lyrics for artist/title and write
// them to outputPath. Every failure mode ends in Success=false; the
// track just plays without lyrics.
func (c *Client) FetchLyrics(artist, title, outputPath string) Result {
	payload, err := json.Marshal(map[string]string{
		"artist":     artist,
		"title":      title,
		"outputPath": outputPath,
	})
	if err != nil {
		return Result{}
	}

	var result Result

	policy := retry.Policy{
		MaxAttempts:  c.maxRetries,
		InitialDelay: c.initialRetryDelay,
		Retryable:    retry.IsNetworkError,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			log.Warnf("lyrics fetch attempt %d failed for '%s' (retrying in %s): %v",
				attempt, title, delay, err)
		},
	}

	err = policy.Do(func() error {
		resp, err := c.fetchClient.Post(c.baseURL+"/api/fetch-lyrics", "application/json", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("lyrics fetcher returned status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decode lyrics fetcher response: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Debugf("lyrics fetch failed for '%s': %v", title, err)
		return Result{}
	}

	return result
}

// IsHealthy probes GET /health with short timeouts.
func (c *Client) IsHealthy() bool {
	resp, err := c.healthClient.Get(c.baseURL + "/health")
	if err != nil {
		log.Warnf("lyrics fetcher health check failed: %v", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
