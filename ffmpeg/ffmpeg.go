package ffmpeg

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"yaytsa-site/procrun"
)

var (
	errProbeFailed   = errors.New("ffprobe failed")
	errNoAudioStream = errors.New("no audio stream in ffprobe output")
)

// output below this size is never trusted, even when durations can't be probed
const minOutputBytes = 1024

// Transcoder converts audio files to FLAC under a fixed concurrency
// budget. When no slot is free the call fails immediately; callers keep
// serving the original file.
type Transcoder struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration

	sem    *semaphore.Weighted
	runner procrun.Runner

	// swapped out in tests
	probeDuration func(file string) float64
}

func NewTranscoder(maxConcurrent int, timeout time.Duration) *Transcoder {
	t := &Transcoder{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Timeout:     timeout,
		sem:         semaphore.NewWeighted(int64(maxConcurrent)),
		runner:      procrun.ExecRunner{},
	}
	t.probeDuration = func(file string) float64 {
		return ProbeDuration(t.runner, t.FFprobePath, file)
	}
	log.Infof("transcoder initialized: maxConcurrent=%d timeout=%s", maxConcurrent, timeout)
	return t
}

// TranscodeToFlac converts inputFile to a FLAC file next to it.
// The returned bool is false on any failure: capacity exhausted, process
// error, timeout, or a duration mismatch in the output. The caller cannot
// tell those apart; the distinctions show up in the logs only.
func (t *Transcoder) TranscodeToFlac(inputFile string) (string, bool) {
	if !t.sem.TryAcquire(1) {
		log.Warnf("transcoding capacity exceeded, skipping: %s", inputFile)
		return "", false
	}
	defer t.sem.Release(1)

	outputFile := strings.TrimSuffix(inputFile, filepath.Ext(inputFile)) + ".flac"

	res := t.runner.Run(context.Background(), t.FFmpegPath, []string{
		"-i", inputFile,
		"-vn",
		"-c:a", "flac",
		"-compression_level", "8",
		"-y", outputFile,
	}, "", t.Timeout)

	if !res.Completed {
		log.Warnf("ffmpeg killed after %s for %s", t.Timeout, inputFile)
		os.Remove(outputFile)
		return "", false
	}
	if res.ExitCode != 0 {
		log.Warnf("ffmpeg exited with code %d for %s: %s", res.ExitCode, inputFile, res.Stderr)
		os.Remove(outputFile)
		return "", false
	}

	info, err := os.Stat(outputFile)
	if err != nil || info.Size() == 0 {
		log.Warnf("ffmpeg produced no output for %s", inputFile)
		os.Remove(outputFile)
		return "", false
	}

	if !t.validateOutput(inputFile, outputFile, info.Size()) {
		os.Remove(outputFile)
		return "", false
	}

	log.Infof("transcoded %s -> %s (%d bytes)", filepath.Base(inputFile), filepath.Base(outputFile), info.Size())
	return outputFile, true
}

// validateOutput accepts the transcode when input and output durations
// agree within max(5% of input, 1s). If either duration can't be probed
// the file is accepted on size alone.
func (t *Transcoder) validateOutput(inputFile, outputFile string, outputSize int64) bool {
	if outputSize < minOutputBytes {
		log.Warnf("transcoded file too small (%d bytes): %s", outputSize, outputFile)
		return false
	}

	inputDuration := t.probeDuration(inputFile)
	outputDuration := t.probeDuration(outputFile)

	if inputDuration <= 0 || outputDuration <= 0 {
		log.Warnf("could not verify duration for %s (input=%.2fs, output=%.2fs)",
			filepath.Base(outputFile), inputDuration, outputDuration)
		return outputSize > minOutputBytes
	}

	if !durationsAgree(inputDuration, outputDuration) {
		log.Warnf("duration mismatch for %s: input=%.2fs, output=%.2fs",
			filepath.Base(outputFile), inputDuration, outputDuration)
		return false
	}
	return true
}

func durationsAgree(inputDuration, outputDuration float64) bool {
	tolerance := math.Max(inputDuration*0.05, 1.0)
	return math.Abs(inputDuration-outputDuration) <= tolerance
}
