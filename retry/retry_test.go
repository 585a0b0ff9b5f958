package retry

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func TestDoSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	p := Policy{MaxAttempts: 3, InitialDelay: time.Millisecond}
	err := p.Do(func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	fatal := errors.New("fatal")
	p := Policy{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		Retryable:    func(error) bool { return false },
	}
	err := p.Do(func() error {
		attempts++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestDoBackoffDoubles(t *testing.T) {
	var delays []time.Duration
	p := Policy{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
		OnRetry: func(_ int, delay time.Duration, _ error) {
			delays = append(delays, delay)
		},
	}

	start := time.Now()
	err := p.Do(func() error { return errors.New("always") })
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("expected %d backoff sleeps, got %v", len(want), delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d = %s, want %s", i, delays[i], want[i])
		}
	}
	if elapsed < 30*time.Millisecond {
		t.Fatalf("backoff sleeps not observed, elapsed %s", elapsed)
	}
}

func TestIsNetworkError(t *testing.T) {
	_, refused := net.Dial("tcp", "127.0.0.1:1")
	if refused == nil {
		t.Skip("port 1 unexpectedly accepting connections")
	}

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("malformed response"), false},
		{"refused", refused, true},
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid"}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", errors.Join(errors.New("request"), context.DeadlineExceeded), true},
	}
	for _, c := range cases {
		if got := IsNetworkError(c.err); got != c.want {
			t.Errorf("%s: IsNetworkError = %v, want %v", c.name, got, c.want)
		}
	}
}
