package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"yaytsa-site/config"
	"yaytsa-site/ffmpeg"
	"yaytsa-site/procrun"
	"yaytsa-site/tracks"
)

// ingestTrack runs the per-track pipeline: download, codec probe,
// conditional transcode, record update. Sequencing lives here; the
// pipeline components themselves are stateless and track-independent.
func ingestTrack(track tracks.Track) {
	tracks.SetStatus(track.TrackID, tracks.StatusDownloading)

	downloaded, err := downloader.Download(context.Background(), track.URL)
	if err != nil {
		log.Errorln("download failed for", track.TrackID, err)
		tracks.SetStatus(track.TrackID, tracks.StatusFailed)
		return
	}

	// move into the data dir under a stable name; the temp dir is ours
	// to clean up once the file is out of it
	dstFilename := uuid.Must(uuid.NewV7()).String() + filepath.Ext(downloaded)
	dstFilepath := filepath.Join(config.GetDataDir(), dstFilename)
	if err := moveFile(downloaded, dstFilepath); err != nil {
		log.Errorln("failed to move download for", track.TrackID, err)
		os.RemoveAll(filepath.Dir(downloaded))
		tracks.SetStatus(track.TrackID, tracks.StatusFailed)
		return
	}
	os.RemoveAll(filepath.Dir(downloaded))

	runner := procrun.ExecRunner{}
	codec, err := ffmpeg.ProbeAudioCodec(runner, "ffprobe", dstFilepath)
	if err != nil {
		log.Warnln("codec probe failed for", track.TrackID, err)
	}

	// a failed transcode is not fatal: the original file is served
	if !ffmpeg.IsBrowserNativeCodec(codec) {
		tracks.SetStatus(track.TrackID, tracks.StatusTranscoding)
		if flacPath, ok := transcoder.TranscodeToFlac(dstFilepath); ok {
			os.Remove(dstFilepath)
			dstFilepath = flacPath
			dstFilename = filepath.Base(flacPath)
			codec = "flac"
		} else {
			log.Warnln("transcode failed for", track.TrackID, "- serving original file")
		}
	}

	updates := map[string]interface{}{
		"filename": dstFilename,
		"codec":    codec,
		"status":   tracks.StatusReady,
	}
	if length := ffmpeg.ProbeDuration(runner, "ffprobe", dstFilepath); length > 0 {
		updates["length"] = length
	}
	if info, err := os.Stat(dstFilepath); err == nil {
		updates["size"] = info.Size()
	}

	err = db.Model(&tracks.Track{}).Where("track_id = ?", track.TrackID).Updates(updates).Error
	if err != nil {
		log.Errorln("failed to update track", track.TrackID, err)
	}
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// rename fails across filesystems, fall back to copy
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

func ingestPending() {
	log.Debugln("ingestPending...")

	// tracks stuck mid-pipeline from a previous run start over
	db.Model(&tracks.Track{}).
		Where("status IN ?", []tracks.Status{tracks.StatusDownloading, tracks.StatusTranscoding}).
		Update("status", tracks.StatusPending)

	for {
		var track tracks.Track
		err := db.Where("status = ?", tracks.StatusPending).Order("created_at").First(&track).Error
		if err == gorm.ErrRecordNotFound {
			log.Debugln("no pending tracks")
			break
		}
		if err != nil {
			log.Errorln("failed to query pending tracks:", err)
			break
		}
		ingestTrack(track)
	}
}

func ingestWorker() {
	ingestPending()
	ticker := time.NewTicker(10 * time.Second)
	for range ticker.C {
		ingestPending()
	}
}

func vacuumDatabase() {
	if err := db.Exec("VACUUM").Error; err != nil {
		log.Errorln(err)
	}
}

// cleanupStaleDownloads prunes download temp dirs left behind by a
// killed process. Anything older than a day is garbage.
func cleanupStaleDownloads() {
	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "ytdlp-download-") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		dir := filepath.Join(os.TempDir(), entry.Name())
		log.Infoln("removing stale download dir", dir)
		os.RemoveAll(dir)
	}
}

func periodicCleanup() {
	cleanupStaleDownloads()
	vacuumDatabase()
	ticker := time.NewTicker(1 * time.Hour)
	for range ticker.C {
		cleanupStaleDownloads()
		vacuumDatabase()
	}
}
