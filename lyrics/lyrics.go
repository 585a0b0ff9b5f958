// Package lyrics parses raw lyrics text (LRC or plain) into timestamped
// lines and resolves the active line during playback.
package lyrics

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// NoLyricsMarker is stored after a lookup confirmed no lyrics exist, so
// the next read doesn't trigger another round of external queries.
const NoLyricsMarker = "[no lyrics found]"

// UntimedLine marks a line that carried no timestamp tag.
const UntimedLine = -1.0

// timestamp tags like [01:23.45] or [01:23]; a line may carry several
var timestampRe = regexp.MustCompile(`\[(\d{1,2}):(\d{2})(?:\.(\d{1,3}))?\]`)

// metadata tags like [ar:...], [ti:...], [by:...]
var metadataRe = regexp.MustCompile(`^\[[a-zA-Z]{2}:.*\]$`)

type Line struct {
	Time float64 // seconds, UntimedLine when absent
	Text string
}

// Parsed is an ordered set of lyric lines. TimeSynced is true only when
// every line carries a valid timestamp; a mix of timed and untimed lines
// cannot drive active-line highlighting.
type Parsed struct {
	Lines      []Line
	TimeSynced bool
}

// Parse splits raw lyrics text into lines. It returns (nil, false) for
// empty input, the negative-cache marker, or text with no usable lines.
// A content line with several timestamp tags (repeated chorus) produces
// one entry per tag, all with the same text.
func Parse(raw string) (*Parsed, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == NoLyricsMarker {
		return nil, false
	}

	var lines []Line
	anyTimed := false

	for _, rawLine := range strings.Split(trimmed, "\n") {
		s := strings.TrimSpace(rawLine)
		if s == "" || metadataRe.MatchString(s) {
			continue
		}

		matches := timestampRe.FindAllStringSubmatchIndex(s, -1)
		if len(matches) == 0 {
			// untagged plain-text line; anything else starting with
			// a bracket is an unrecognized tag and gets dropped
			if !strings.HasPrefix(s, "[") {
				lines = append(lines, Line{Time: UntimedLine, Text: s})
			}
			continue
		}

		text := strings.TrimSpace(s[matches[len(matches)-1][1]:])
		for _, m := range matches {
			t := tagTime(s, m)
			lines = append(lines, Line{Time: t, Text: text})
		}
		anyTimed = true
	}

	if len(lines) == 0 {
		return nil, false
	}

	timeSynced := false
	if anyTimed {
		sort.SliceStable(lines, func(i, j int) bool {
			return lines[i].Time < lines[j].Time
		})
		timeSynced = true
		for _, l := range lines {
			if l.Time < 0 {
				timeSynced = false
				break
			}
		}
	}

	return &Parsed{Lines: lines, TimeSynced: timeSynced}, true
}

// tagTime converts one regex match into seconds. The fractional part is
// a decimal fraction regardless of digit count ("5" = .5s, "50" = .5s).
func tagTime(s string, m []int) float64 {
	minutes, _ := strconv.ParseFloat(s[m[2]:m[3]], 64)
	seconds, _ := strconv.ParseFloat(s[m[4]:m[5]], 64)
	t := minutes*60 + seconds
	if m[6] >= 0 {
		frac, err := strconv.ParseFloat("0."+s[m[6]:m[7]], 64)
		if err == nil {
			t += frac
		}
	}
	return t
}

// ActiveLineIndex returns the greatest index whose timestamp is at or
// before currentTime, or -1 when no line qualifies or the set is not
// time-synced. Runs every playback tick, so it binary-searches.
func (p *Parsed) ActiveLineIndex(currentTime float64) int {
	if p == nil || !p.TimeSynced || len(p.Lines) == 0 {
		return -1
	}
	idx := sort.Search(len(p.Lines), func(i int) bool {
		return p.Lines[i].Time > currentTime
	})
	return idx - 1
}
