package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"yaytsa-site/config"
	"yaytsa-site/database"
	"yaytsa-site/tracks"
)

type ingestRequest struct {
	URL    string `json:"url"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Album  string `json:"album"`
}

// IngestPost records a track for ingestion. The ingest worker picks up
// pending tracks and runs download -> probe -> transcode.
func IngestPost(c echo.Context) error {
	var req ingestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url is required"})
	}

	userID, _ := c.Get("user_id").(uint)
	track := tracks.Track{
		TrackID: uuid.Must(uuid.NewV7()).String(),
		UserID:  userID,
		URL:     req.URL,
		Artist:  req.Artist,
		Title:   req.Title,
		Album:   req.Album,
		Status:  tracks.StatusPending,
	}
	if err := database.Get().Create(&track).Error; err != nil {
		log.Errorln("failed to create track:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create track"})
	}

	return c.JSON(http.StatusAccepted, map[string]string{"trackId": track.TrackID})
}

func TracksGet(c echo.Context) error {
	var list []tracks.Track
	if err := database.Get().Order("created_at desc").Find(&list).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list tracks"})
	}
	return c.JSON(http.StatusOK, list)
}

func TrackGet(c echo.Context) error {
	track, err := findTrack(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no such track"})
	}
	return c.JSON(http.StatusOK, track)
}

func TrackDelete(c echo.Context) error {
	track, err := findTrack(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no such track"})
	}

	for _, name := range []string{track.Filename, track.InstrumentalFilename, track.VocalFilename} {
		if name == "" {
			continue
		}
		p := name
		if !filepath.IsAbs(p) {
			p = filepath.Join(config.GetDataDir(), name)
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Warnln("failed to remove", name, err)
		}
	}

	if err := database.Get().Delete(&track).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete track"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

func findTrack(trackID string) (tracks.Track, error) {
	var track tracks.Track
	err := database.Get().Where("track_id = ?", trackID).First(&track).Error
	return track, err
}
