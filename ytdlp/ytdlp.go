package ytdlp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"yaytsa-site/procrun"
)

const downloadTimeout = 10 * time.Minute

// Downloader fetches audio from a URL with yt-dlp. Every call gets its
// own temp directory; nothing is shared between concurrent downloads.
type Downloader struct {
	Path    string
	Timeout time.Duration

	runner procrun.Runner
}

func NewDownloader() *Downloader {
	return &Downloader{
		Path:    "yt-dlp",
		Timeout: downloadTimeout,
		runner:  procrun.ExecRunner{},
	}
}

// Download extracts audio from url into a fresh temp directory and
// returns the path of the downloaded file. On any failure the whole temp
// directory is removed best-effort before the error is returned; the
// caller owns the file (and its directory) on success.
func (d *Downloader) Download(ctx context.Context, url string) (string, error) {
	tempDir, err := os.MkdirTemp("", "ytdlp-download-")
	if err != nil {
		return "", fmt.Errorf("create download temp dir: %w", err)
	}

	outputTemplate := filepath.Join(tempDir, "%(title)s.%(ext)s")
	args := []string{
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--output", outputTemplate,
		"--no-playlist",
		"--no-part",
		url,
	}

	log.Infof("downloading audio from %s", url)
	log.Debugln(d.Path, strings.Join(args, " "))

	res := d.runner.Run(ctx, d.Path, args, "", d.Timeout)

	if !res.Completed {
		cleanupTempDir(tempDir)
		return "", fmt.Errorf("download timed out after %s", d.Timeout)
	}
	if res.ExitCode != 0 {
		cleanupTempDir(tempDir)
		return "", fmt.Errorf("yt-dlp exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	downloaded, err := firstRegularFile(tempDir)
	if err != nil {
		cleanupTempDir(tempDir)
		return "", err
	}

	log.Infof("downloaded audio to %s", downloaded)
	return downloaded, nil
}

func firstRegularFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("list download dir: %w", err)
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("downloaded file not found in %s", dir)
}

func cleanupTempDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		log.Warnf("failed to clean up temp dir %s: %v", dir, err)
	}
}
