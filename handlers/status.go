package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sys/unix"

	"yaytsa-site/config"
	"yaytsa-site/procrun"
)

// GetFreeSpace returns the free space in bytes for the filesystem containing the given directory
func getFreeSpace(dir string) (uint64, error) {
	var stat unix.Statfs_t
	err := unix.Statfs(dir, &stat)
	if err != nil {
		return 0, fmt.Errorf("error getting filesystem stats: %v", err)
	}

	// Calculate free space
	freeSpace := stat.Bavail * uint64(stat.Bsize)
	return freeSpace, nil
}

// GetDirectorySize calculates the total size of a directory in bytes
func getDirectorySize(dir string) (int64, error) {
	var size int64
	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("error walking directory: %v", err)
	}
	return size, nil
}

func toolVersion(name string, args ...string) string {
	res := procrun.Run(context.Background(), name, args, "", 10*time.Second)
	if res.ExitCode != 0 || !res.Completed {
		return "unavailable"
	}
	line, _, _ := strings.Cut(res.Stdout, "\n")
	return strings.TrimSpace(line)
}

func StatusGet(c echo.Context) error {
	free, err := getFreeSpace(config.GetDataDir())
	if err != nil {
		log.Errorln(err)
	}
	used, err := getDirectorySize(config.GetDataDir())
	if err != nil {
		log.Errorln(err)
	}

	freeMiB := float64(free) / 1024 / 1024
	usedMiB := float64(used) / 1024 / 1024

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ytdlp":            toolVersion("yt-dlp", "--version"),
		"ffmpeg":           toolVersion("ffmpeg", "-version"),
		"freeMiB":          fmt.Sprintf("%.2f", freeMiB),
		"usedMiB":          fmt.Sprintf("%.2f", usedMiB),
		"separatorHealthy": services.Separator.IsHealthy(),
		"lyricsHealthy":    services.Fetcher.IsHealthy(),
	})
}
