package procrun

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// retained output per stream is capped so a chatty tool can't grow memory
const maxCaptureBytes = 4096

// Result describes one supervised subprocess run.
//
// Completed is false when the watchdog killed the process (timeout or
// context cancellation) before it exited on its own.
type Result struct {
	ExitCode  int
	Stdout    string
	Stderr    string
	Completed bool
}

// Runner runs an external command. The indirection exists so components
// built on subprocesses can be tested without the real tools installed.
type Runner interface {
	Run(ctx context.Context, name string, args []string, dir string, timeout time.Duration) Result
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string, dir string, timeout time.Duration) Result {
	return Run(ctx, name, args, dir, timeout)
}

// limitWriter keeps the first maxCaptureBytes and discards the rest,
// always reporting success so the producing pipe is drained continuously.
type limitWriter struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (w *limitWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if room := maxCaptureBytes - w.buf.Len(); room > 0 {
		if len(p) > room {
			w.buf.Write(p[:room])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}

func (w *limitWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

// Run spawns name with args and waits for it under a hard wall-clock
// timeout. Stdout and stderr are drained for the whole run but only the
// first 4KiB of each is retained. On timeout or ctx cancellation the
// process is force-killed and Completed is false.
func Run(ctx context.Context, name string, args []string, dir string, timeout time.Duration) Result {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir

	var stdout, stderr limitWriter
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		log.Errorf("failed to start %s: %v", name, err)
		return Result{ExitCode: -1, Stderr: err.Error()}
	}

	var killed atomic.Bool
	done := make(chan struct{})
	watchdogStopped := make(chan struct{})
	go func() {
		defer close(watchdogStopped)
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-timer.C:
			log.Warnf("%s timeout after %s, killing", name, timeout)
			killed.Store(true)
			cmd.Process.Kill()
		case <-ctx.Done():
			log.Warnf("%s canceled, killing", name)
			killed.Store(true)
			cmd.Process.Kill()
		case <-done:
		}
	}()

	// Wait reaps the process and finishes the stdout/stderr copies,
	// so the handle is released on every path before we return.
	err := cmd.Wait()
	close(done)
	<-watchdogStopped

	res := Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Completed: !killed.Load(),
	}
	switch {
	case err == nil:
		res.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
	}
	return res
}
