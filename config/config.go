package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var gitSHA string
var buildDate string

func GetDataDir() string {
	value, exists := os.LookupEnv("YAYTSA_SITE_DATA_DIR")
	if exists {
		return value
	}
	return "data"
}

// defaults to GetDataDir() / config
func GetConfigDir() string {
	value, exists := os.LookupEnv("YAYTSA_SITE_CONFIG_DIR")
	if exists {
		return value
	}
	return filepath.Join(GetDataDir(), "config")
}

// directory where separated karaoke stems land
func GetStemsDir() string {
	value, exists := os.LookupEnv("YAYTSA_SITE_STEMS_DIR")
	if exists {
		return value
	}
	return filepath.Join(GetDataDir(), "stems")
}

func GetSeparatorURL() string {
	value, exists := os.LookupEnv("YAYTSA_SITE_SEPARATOR_URL")
	if exists {
		return value
	}
	return "http://audio-separator:8000"
}

func GetLyricsFetcherURL() string {
	value, exists := os.LookupEnv("YAYTSA_SITE_LYRICS_FETCHER_URL")
	if exists {
		return value
	}
	return "http://lyrics-fetcher:8000"
}

func GetLrclibURL() string {
	value, exists := os.LookupEnv("YAYTSA_SITE_LRCLIB_URL")
	if exists {
		return value
	}
	return "https://lrclib.net/api"
}

func GetMaxConcurrentTranscodes() int {
	if value, exists := os.LookupEnv("YAYTSA_SITE_MAX_CONCURRENT_TRANSCODES"); exists {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return 4
}

func GetTranscodeTimeout() time.Duration {
	if value, exists := os.LookupEnv("YAYTSA_SITE_TRANSCODE_TIMEOUT_SECONDS"); exists {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return 600 * time.Second
}

func GetAdminInitialPassword() (string, error) {
	key := "YAYTSA_SITE_ADMIN_INITIAL_PASSWORD"
	value, exists := os.LookupEnv(key)
	if exists {
		return value, nil
	}
	return "", fmt.Errorf("please set %s", key)
}

func GetSessionAuthKey() ([]byte, error) {
	key := "YAYTSA_SITE_SESSION_AUTH_KEY"
	value, exists := os.LookupEnv(key)
	if exists {
		return []byte(value), nil
	}
	return []byte{}, fmt.Errorf("please set %s", key)
}

func GetSecure() bool {
	key := "YAYTSA_SITE_SECURE"
	if value, exists := os.LookupEnv(key); exists {
		lower := strings.ToLower(value)
		if lower == "on" || lower == "1" || lower == "true" || lower == "yes" {
			return true
		}
	}
	return false
}

func GetGitSHA() string {
	if gitSHA == "" {
		return "<not provided>"
	} else {
		return gitSHA
	}
}

func GetBuildDate() string {
	if buildDate == "" {
		return "<not provided>"
	} else {
		return buildDate
	}
}
