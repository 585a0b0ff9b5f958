package lyrics

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"yaytsa-site/lrclib"
	"yaytsa-site/lyricsfetch"
)

// PublicClient is the public lyrics API surface the resolver needs.
type PublicClient interface {
	FetchLyrics(artist, title, album string, durationMs int64) lrclib.Result
}

// FetcherClient is the lyrics-acquisition microservice surface.
type FetcherClient interface {
	FetchLyrics(artist, title, outputPath string) lyricsfetch.Result
}

// Resolution records the outcome of one resolution run.
type Resolution struct {
	Found  bool
	Text   string // synced lyrics preferred over plain
	Source string
}

// Resolver tries lyrics sources in order and stops at the first success:
// the public API cascade first, the fetch service as fallback. Nothing
// found is a valid terminal outcome, not an error.
type Resolver struct {
	Public    PublicClient
	Fetcher   FetcherClient
	OutputDir string // scratch dir handed to the fetch service
}

type resolveStep struct {
	source string
	run    func() (string, bool)
}

func (r *Resolver) Resolve(artist, title, album string, durationMs int64) Resolution {
	steps := []resolveStep{
		{"lrclib", func() (string, bool) { return r.fromPublic(artist, title, album, durationMs) }},
		{"fetcher", func() (string, bool) { return r.fromFetcher(artist, title) }},
	}

	for _, step := range steps {
		text, ok := step.run()
		if ok {
			log.Infof("lyrics resolved for '%s' by '%s' via %s", title, artist, step.source)
			return Resolution{Found: true, Text: text, Source: step.source}
		}
	}

	log.Debugf("no lyrics found for '%s' by '%s'", title, artist)
	return Resolution{}
}

func (r *Resolver) fromPublic(artist, title, album string, durationMs int64) (string, bool) {
	if r.Public == nil {
		return "", false
	}
	res := r.Public.FetchLyrics(artist, title, album, durationMs)
	if !res.Found {
		return "", false
	}
	if strings.TrimSpace(res.SyncedLyrics) != "" {
		return res.SyncedLyrics, true
	}
	return res.PlainLyrics, true
}

func (r *Resolver) fromFetcher(artist, title string) (string, bool) {
	if r.Fetcher == nil {
		return "", false
	}

	outputPath := filepath.Join(r.OutputDir, uuid.Must(uuid.NewV7()).String()+".lrc")
	res := r.Fetcher.FetchLyrics(artist, title, outputPath)
	if !res.Success {
		return "", false
	}

	path := res.OutputPath
	if path == "" {
		path = outputPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warnf("lyrics fetcher reported success but output unreadable (%s): %v", path, err)
		return "", false
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}
