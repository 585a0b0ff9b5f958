package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"yaytsa-site/config"
	"yaytsa-site/database"
	"yaytsa-site/separator"
	"yaytsa-site/tracks"
)

// karaokeJobs tracks separation state per track while a job is in
// flight. The separator service is the source of truth; this map only
// covers the window before the service knows about the job.
var karaokeJobs = struct {
	sync.RWMutex
	m map[string]separator.ProgressStatus
}{m: make(map[string]separator.ProgressStatus)}

func setKaraokeJob(trackID string, status separator.ProgressStatus) {
	karaokeJobs.Lock()
	defer karaokeJobs.Unlock()
	karaokeJobs.m[trackID] = status
}

// KaraokeStart kicks off vocal separation for a track. Separation can
// run for minutes, so the request returns immediately and clients poll
// the progress endpoint.
func KaraokeStart(c echo.Context) error {
	track, err := findTrack(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no such track"})
	}
	if track.Filename == "" {
		return c.JSON(http.StatusConflict, map[string]string{"error": "track has no audio yet"})
	}
	if track.InstrumentalFilename != "" {
		return c.JSON(http.StatusOK, map[string]string{"state": string(separator.StateDone)})
	}

	karaokeJobs.Lock()
	if existing, ok := karaokeJobs.m[track.TrackID]; ok && existing.State == separator.StateProcessing {
		karaokeJobs.Unlock()
		return c.JSON(http.StatusAccepted, map[string]string{"state": string(separator.StateProcessing)})
	}
	karaokeJobs.m[track.TrackID] = separator.ProgressStatus{
		TrackID: track.TrackID,
		State:   separator.StateProcessing,
		Message: "separation requested",
	}
	karaokeJobs.Unlock()

	inputPath := filepath.Join(config.GetDataDir(), track.Filename)
	go runSeparation(track.TrackID, inputPath)

	return c.JSON(http.StatusAccepted, map[string]string{"state": string(separator.StateProcessing)})
}

func runSeparation(trackID, inputPath string) {
	result, err := services.Separator.Separate(inputPath, trackID)
	if err != nil {
		log.Errorln("separation failed for", trackID, err)
		setKaraokeJob(trackID, separator.ProgressStatus{
			TrackID: trackID,
			State:   separator.StateFailed,
			Message: err.Error(),
		})
		return
	}

	err = database.Get().Model(&tracks.Track{}).Where("track_id = ?", trackID).Updates(map[string]interface{}{
		"instrumental_filename": dataRelative(result.InstrumentalPath),
		"vocal_filename":        dataRelative(result.VocalPath),
	}).Error
	if err != nil {
		log.Errorln("failed to record stems for", trackID, err)
	}

	setKaraokeJob(trackID, separator.ProgressStatus{
		TrackID:  trackID,
		State:    separator.StateDone,
		Progress: 100,
		Result:   &result,
	})
}

// dataRelative rewrites a path the separator returned into one relative
// to the data dir, so it can be served from the /data static group. The
// stems dir is mounted under the data dir in both containers. Paths
// outside the data dir are stored as-is.
func dataRelative(p string) string {
	if p == "" {
		return ""
	}
	rel, err := filepath.Rel(config.GetDataDir(), p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return rel
}

// KaraokeProgress reports separation progress. Prefers the local job
// entry, falls back to polling the separator; either way this never
// returns an error status beyond "not started".
func KaraokeProgress(c echo.Context) error {
	trackID := c.Param("id")

	karaokeJobs.RLock()
	status, ok := karaokeJobs.m[trackID]
	karaokeJobs.RUnlock()
	if !ok {
		status = services.Separator.GetProgress(trackID)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"trackId":  trackID,
		"state":    status.State,
		"progress": status.Progress,
		"message":  status.Message,
		"result":   status.Result,
	})
}
