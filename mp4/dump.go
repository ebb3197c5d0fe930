package mp4

import (
	"fmt"
	"io"
	"strings"
)

// TrackSummary is the stable, serialization friendly description of one
// track.
type TrackSummary struct {
	TrackId       uint32  `json:"track_id"`
	Handler       string  `json:"handler"`
	SampleEntry   string  `json:"sample_entry"`
	Timescale     uint32  `json:"timescale"`
	Duration      uint64  `json:"duration"`
	DurationSec   float64 `json:"duration_sec"`
	SampleCount   int     `json:"sample_count"`
	SyncCount     int     `json:"sync_count"`
	Width         uint32  `json:"width,omitempty"`
	Height        uint32  `json:"height,omitempty"`
	SampleRate    uint32  `json:"sample_rate,omitempty"`
	ChannelCount  uint8   `json:"channel_count,omitempty"`
	SampleBits    uint8   `json:"sample_bits,omitempty"`
	Language      string  `json:"language,omitempty"`
	EditListCount int     `json:"edit_list_count,omitempty"`
}

// MovieSummary is the stable description of a whole file.
type MovieSummary struct {
	MajorBrand  string         `json:"major_brand"`
	Timescale   uint32         `json:"timescale"`
	Duration    uint64         `json:"duration"`
	DurationSec float64        `json:"duration_sec"`
	Tracks      []TrackSummary `json:"tracks"`
	Warnings    []string       `json:"warnings,omitempty"`
}

func typeString(t [4]byte) string {
	s := make([]byte, 0, 4)
	for _, c := range t {
		if c >= 0x20 && c < 0x7F {
			s = append(s, c)
		} else {
			s = append(s, fmt.Sprintf("\\x%02x", c)...)
		}
	}
	return string(s)
}

func languageString(lang [3]uint8) string {
	if lang == ([3]uint8{}) {
		return ""
	}
	return string([]byte{lang[0] + 0x60, lang[1] + 0x60, lang[2] + 0x60})
}

// Summary exports the parsed structure as plain values, for JSON output or
// programmatic inspection.
func (movie *Movie) Summary() MovieSummary {
	brand := [4]byte{}
	if movie.Info.MajorBrand != 0 {
		brand[0] = byte(movie.Info.MajorBrand >> 24)
		brand[1] = byte(movie.Info.MajorBrand >> 16)
		brand[2] = byte(movie.Info.MajorBrand >> 8)
		brand[3] = byte(movie.Info.MajorBrand)
	}
	summary := MovieSummary{
		MajorBrand: typeString(brand),
		Timescale:  movie.Info.Timescale,
		Duration:   movie.Info.Duration,
	}
	if movie.Info.Timescale > 0 {
		summary.DurationSec = float64(movie.Info.Duration) / float64(movie.Info.Timescale)
	}
	for _, track := range movie.tracks {
		ts := TrackSummary{
			TrackId:       track.TrackId,
			Handler:       typeString(track.HandlerType),
			SampleEntry:   typeString(track.EntryType),
			Timescale:     track.Timescale,
			Duration:      track.Duration,
			SampleCount:   len(track.samples),
			Width:         track.Width,
			Height:        track.Height,
			SampleRate:    track.SampleRate,
			ChannelCount:  track.ChannelCount,
			SampleBits:    track.SampleBits,
			Language:      languageString(track.Language),
			EditListCount: len(track.EditList),
		}
		if track.Timescale > 0 {
			ts.DurationSec = float64(track.Duration) / float64(track.Timescale)
		}
		for _, sample := range track.samples {
			if sample.IsSync {
				ts.SyncCount++
			}
		}
		summary.Tracks = append(summary.Tracks, ts)
	}
	for _, warning := range movie.warnings {
		summary.Warnings = append(summary.Warnings, warning.Error())
	}
	return summary
}

// Dump prints the box tree with offsets and sizes, one box per line.
func (tree *BoxTree) Dump(w io.Writer) {
	for _, box := range tree.Boxes {
		dumpBox(w, box, 0)
	}
}

func dumpBox(w io.Writer, box *Box, depth int) {
	fmt.Fprintf(w, "%s[%s] offset=%d size=%d\n",
		strings.Repeat("  ", depth), typeString(box.Header.Type), box.Header.Offset, box.Header.Size)
	for _, child := range box.Children {
		dumpBox(w, child, depth+1)
	}
	if len(box.Slack) > 0 {
		fmt.Fprintf(w, "%s(slack %d bytes)\n", strings.Repeat("  ", depth+1), len(box.Slack))
	}
}
