// Package retry provides the backoff policy shared by the microservice
// clients: a fixed attempt budget with exponentially growing delays,
// retrying only errors the caller classifies as transient.
package retry

import (
	"context"
	"errors"
	"net"
	"time"
)

type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration

	// Retryable decides whether an attempt's error is worth retrying.
	// A nil Retryable retries everything.
	Retryable func(error) bool

	// OnRetry, when set, is called before each backoff sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Do runs fn up to MaxAttempts times. Delay before attempt n+1 is
// InitialDelay * 2^(n-1). A non-retryable error aborts immediately.
func (p Policy) Do(fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt < p.MaxAttempts {
			delay := p.InitialDelay << (attempt - 1)
			if p.OnRetry != nil {
				p.OnRetry(attempt, delay, err)
			}
			time.Sleep(delay)
		}
	}
	return lastErr
}

// IsNetworkError reports whether err is a network-layer failure
// (timeout, connection refused, DNS) as opposed to an HTTP-level or
// decoding error. Only the former are worth retrying.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
