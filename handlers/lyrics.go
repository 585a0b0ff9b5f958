package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"yaytsa-site/database"
	"yaytsa-site/lyrics"
)

// LyricsGet serves lyrics text for a track, resolving and caching on
// first request. A confirmed absence is cached too (negative-cache
// marker) so repeated requests don't hammer the external sources.
func LyricsGet(c echo.Context) error {
	track, err := findTrack(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no such track"})
	}

	if track.Lyrics == lyrics.NoLyricsMarker {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no lyrics"})
	}
	if track.Lyrics != "" {
		return c.String(http.StatusOK, track.Lyrics)
	}

	if track.Artist == "" || track.Title == "" {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no lyrics"})
	}

	durationMs := int64(track.Length * 1000)
	res := services.Resolver.Resolve(track.Artist, track.Title, track.Album, durationMs)

	cached := res.Text
	if !res.Found {
		cached = lyrics.NoLyricsMarker
	}
	if err := database.Get().Model(&track).Update("lyrics", cached).Error; err != nil {
		log.Warnln("failed to cache lyrics for", track.TrackID, err)
	}

	if !res.Found {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no lyrics"})
	}
	return c.String(http.StatusOK, res.Text)
}
