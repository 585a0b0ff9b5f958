// Package lrclib is a client for the LRCLIB public lyrics API
// (https://lrclib.net). Free, no API key, community-sourced synced and
// plain lyrics. Missing lyrics are the common case, so nothing in this
// package returns an error: every path ends in a definite found or
// not-found result.
package lrclib

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const requestTimeout = 15 * time.Second

type Result struct {
	Found        bool
	SyncedLyrics string
	PlainLyrics  string
}

type lrclibItem struct {
	Instrumental bool   `json:"instrumental"`
	SyncedLyrics string `json:"syncedLyrics"`
	PlainLyrics  string `json:"plainLyrics"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// FetchLyrics resolves lyrics with a three-tier cascade, each tier tried
// only when the previous one came up empty:
//
//  1. exact match on artist + title (+ album and duration when known)
//  2. exact match on artist + title alone
//  3. free-text search, first non-instrumental hit with lyrics
//
// durationMs <= 0 means unknown.
func (c *Client) FetchLyrics(artist, title, album string, durationMs int64) Result {
	exact := c.fetchExact(artist, title, album, durationMs)
	if exact.Found {
		return exact
	}

	if album != "" || durationMs > 0 {
		broad := c.fetchExact(artist, title, "", 0)
		if broad.Found {
			log.Debugf("lrclib: found lyrics via broad match for '%s' by '%s'", title, artist)
			return broad
		}
	}

	return c.search(artist, title)
}

func (c *Client) fetchExact(artist, title, album string, durationMs int64) Result {
	params := url.Values{}
	params.Set("artist_name", artist)
	params.Set("track_name", title)
	if album != "" {
		params.Set("album_name", album)
	}
	if durationMs > 0 {
		params.Set("duration", fmt.Sprintf("%d", durationMs/1000))
	}

	resp, err := c.httpClient.Get(c.baseURL + "/get?" + params.Encode())
	if err != nil {
		log.Warnf("lrclib exact fetch failed for '%s' by '%s': %v", title, artist, err)
		return Result{}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Result{}
	}
	if resp.StatusCode != http.StatusOK {
		log.Warnf("lrclib exact fetch returned status %d for '%s' by '%s'", resp.StatusCode, title, artist)
		return Result{}
	}

	var item lrclibItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		log.Warnf("lrclib exact fetch decode failed for '%s' by '%s': %v", title, artist, err)
		return Result{}
	}
	return parseItem(item)
}

func (c *Client) search(artist, title string) Result {
	params := url.Values{}
	params.Set("artist_name", artist)
	params.Set("track_name", title)

	resp, err := c.httpClient.Get(c.baseURL + "/search?" + params.Encode())
	if err != nil {
		log.Warnf("lrclib search failed for '%s' by '%s': %v", title, artist, err)
		return Result{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}
	}

	var items []lrclibItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		log.Warnf("lrclib search decode failed for '%s' by '%s': %v", title, artist, err)
		return Result{}
	}

	// results in server order, first one with usable lyrics wins
	for _, item := range items {
		if item.Instrumental {
			continue
		}
		if r := parseItem(item); r.Found {
			log.Debugf("lrclib: found lyrics via search for '%s' by '%s'", title, artist)
			return r
		}
	}
	return Result{}
}

func parseItem(item lrclibItem) Result {
	if item.Instrumental {
		return Result{}
	}
	synced := strings.TrimSpace(item.SyncedLyrics)
	plain := strings.TrimSpace(item.PlainLyrics)
	if synced == "" && plain == "" {
		return Result{}
	}
	return Result{
		Found:        true,
		SyncedLyrics: item.SyncedLyrics,
		PlainLyrics:  item.PlainLyrics,
	}
}
