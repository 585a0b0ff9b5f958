package ffmpeg

import "testing"

func TestIsBrowserNativeCodec(t *testing.T) {
	cases := []struct {
		codec string
		want  bool
	}{
		{"mp3", true},
		{"aac", true},
		{"flac", true},
		{"opus", true},
		{"vorbis", true},
		{"pcm_s16le", true},
		{"mpeg", true},
		{"FLAC", true},
		{"", true}, // unknown codecs are assumed playable
		{"  ", true},
		{"alac", false},
		{"wmav2", false},
		{"ape", false},
		{"tta", false},
	}
	for _, c := range cases {
		if got := IsBrowserNativeCodec(c.codec); got != c.want {
			t.Errorf("IsBrowserNativeCodec(%q) = %v, want %v", c.codec, got, c.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		output string
		want   float64
	}{
		{"180.123\n", 180.123},
		{"  42.0  ", 42.0},
		{"", -1},
		{"N/A", -1},
		{"garbage", -1},
	}
	for _, c := range cases {
		if got := parseDuration(c.output); got != c.want {
			t.Errorf("parseDuration(%q) = %v, want %v", c.output, got, c.want)
		}
	}
}
