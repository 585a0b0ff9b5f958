package ffmpeg

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"yaytsa-site/procrun"
)

const probeTimeout = 30 * time.Second

// codecs a browser can play natively; anything else gets transcoded
var browserNativeCodecPrefixes = []string{
	"mp3", "aac", "flac", "opus", "ogg", "vorbis", "wav", "pcm", "mpeg",
}

// IsBrowserNativeCodec reports whether audio with the given codec can be
// served to a browser as-is. Unknown/empty codecs are assumed playable.
func IsBrowserNativeCodec(codec string) bool {
	if strings.TrimSpace(codec) == "" {
		return true
	}
	lower := strings.ToLower(codec)
	for _, prefix := range browserNativeCodecPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// ProbeDuration returns the container duration of file in seconds,
// or -1 when it cannot be determined.
func ProbeDuration(runner procrun.Runner, ffprobePath, file string) float64 {
	res := runner.Run(context.Background(), ffprobePath, []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		file,
	}, "", probeTimeout)
	if res.ExitCode != 0 || !res.Completed {
		return -1
	}
	return parseDuration(res.Stdout)
}

func parseDuration(output string) float64 {
	s := strings.TrimSpace(output)
	if s == "" {
		return -1
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return -1
	}
	return d
}

type probeStreams struct {
	Streams []struct {
		CodecName string `json:"codec_name"`
	} `json:"streams"`
}

// ProbeAudioCodec returns the codec name of the first audio stream.
func ProbeAudioCodec(runner procrun.Runner, ffprobePath, file string) (string, error) {
	res := runner.Run(context.Background(), ffprobePath, []string{
		"-v", "quiet",
		"-select_streams", "a:0",
		"-print_format", "json",
		"-show_streams",
		file,
	}, "", probeTimeout)
	if res.ExitCode != 0 || !res.Completed {
		log.Errorf("ffprobe failed for %s: exit=%d stderr=%s", file, res.ExitCode, res.Stderr)
		return "", errProbeFailed
	}

	var out probeStreams
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		log.Errorln("failed to parse ffprobe output:", err)
		return "", err
	}
	if len(out.Streams) == 0 {
		return "", errNoAudioStream
	}
	return out.Streams[0].CodecName, nil
}
