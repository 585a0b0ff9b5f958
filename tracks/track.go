package tracks

import (
	"yaytsa-site/database"

	"gorm.io/gorm"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusTranscoding Status = "transcoding"
	StatusReady       Status = "ready"
	StatusFailed      Status = "failed"
)

type Track struct {
	gorm.Model
	TrackID string `gorm:"uniqueIndex"` // uuid, stable across renames
	UserID  uint
	URL     string
	Artist  string
	Title   string
	Album   string
	Status  Status

	// Filename is the file served for playback. When a transcode fails
	// this stays pointing at the original (possibly unsupported) file.
	Filename string
	Codec    string
	Length   float64 // seconds
	Size     int64

	// Lyrics caches resolved lyrics text (LRC or plain). It holds the
	// negative-cache marker once a full resolution found nothing.
	Lyrics string

	InstrumentalFilename string
	VocalFilename        string
}

func SetStatus(trackID string, status Status) error {
	db := database.Get()
	log.Debugln("track", trackID, "status ->", status)
	return db.Model(&Track{}).Where("track_id = ?", trackID).Update("status", status).Error
}
