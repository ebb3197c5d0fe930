package mp4

import (
	"io"
)

// EditEntry is one edit list segment with durations in the movie timescale
// and media times in the track timescale.
type EditEntry struct {
	SegmentDuration   uint64
	MediaTime         int64
	MediaRateInteger  int16
	MediaRateFraction int16
}

// Track is the resolved view of one trak, with the compact tables already
// expanded into samples.
type Track struct {
	TrackId      uint32
	Cid          MOV_CODEC_TYPE
	HandlerType  [4]byte
	EntryType    [4]byte
	Timescale    uint32
	Duration     uint64
	Width        uint32
	Height       uint32
	SampleRate   uint32
	SampleBits   uint8
	ChannelCount uint8
	Language     [3]uint8
	ExtraData    []byte
	EditList     []EditEntry

	samples []Sample
}

func (track *Track) SampleCount() int {
	return len(track.samples)
}

// Movie holds everything a reader needs to enumerate tracks and samples and
// to rewrite the file. The source reader stays attached for lazy payload
// access.
type Movie struct {
	Info     MovInfo
	tracks   []*Track
	warnings []Warning
	sidxs    []*SegmentIndexBox
	reader   *movReader
}

// ReadMovie parses the movie structure of a flat mp4 file. Damaged or
// unsupported regions degrade to Warnings as long as the overall structure
// survives.
func ReadMovie(r io.ReadSeeker) (*Movie, error) {
	demuxer, err := CreateMp4Demuxer(r)
	if err != nil {
		return nil, err
	}
	if err = demuxer.ReadHead(); err != nil {
		return nil, err
	}
	movie := &Movie{
		Info:     demuxer.mp4Info,
		warnings: demuxer.warnings,
		sidxs:    demuxer.sidxs,
		reader:   demuxer.reader,
	}
	for _, t := range demuxer.tracks {
		track := &Track{
			TrackId:      t.trackId,
			Cid:          t.cid,
			HandlerType:  t.handlerType,
			EntryType:    t.entryType,
			Timescale:    t.timescale,
			Duration:     t.duration,
			Width:        t.width,
			Height:       t.height,
			SampleRate:   t.sampleRate,
			SampleBits:   t.sampleBits,
			ChannelCount: t.chanelCount,
			Language:     t.language,
			samples:      t.samplelist,
		}
		if len(t.extraData) > 0 {
			track.ExtraData = t.extraData
		} else if t.extra != nil {
			track.ExtraData = t.extra.export()
		}
		if t.elst != nil {
			for _, e := range t.elst.entrys {
				track.EditList = append(track.EditList, EditEntry{
					SegmentDuration:   e.segmentDuration,
					MediaTime:         e.mediaTime,
					MediaRateInteger:  e.mediaRateInteger,
					MediaRateFraction: e.mediaRateFraction,
				})
			}
		}
		movie.warnings = append(movie.warnings, t.warnings...)
		movie.tracks = append(movie.tracks, track)
	}
	return movie, nil
}

func (movie *Movie) Tracks() []*Track {
	return movie.tracks
}

func (movie *Movie) Track(trackId uint32) (*Track, error) {
	for _, track := range movie.tracks {
		if track.TrackId == trackId {
			return track, nil
		}
	}
	return nil, ErrOutOfRange
}

// Samples returns an index addressed sample view for one track. The view is
// a snapshot; later mutations of the movie do not move under a caller's feet.
func (movie *Movie) Samples(trackId uint32) (*SampleSeq, error) {
	track, err := movie.Track(trackId)
	if err != nil {
		return nil, err
	}
	samples := make([]Sample, len(track.samples))
	copy(samples, track.samples)
	return newSampleSeq(samples), nil
}

func (movie *Movie) Warnings() []Warning {
	return movie.warnings
}

// SeekSegments flattens every segment index found in the file into absolute
// positions, in file order.
func (movie *Movie) SeekSegments() []SeekSegment {
	var segments []SeekSegment
	for _, sidx := range movie.sidxs {
		segments = append(segments, sidx.SeekSegments()...)
	}
	return segments
}

// ReadSampleData copies the payload of the i-th sample (0-based) of a track
// out of the attached source.
func (movie *Movie) ReadSampleData(trackId uint32, i int) ([]byte, error) {
	track, err := movie.Track(trackId)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(track.samples) {
		return nil, ErrOutOfRange
	}
	sample := track.samples[i]
	if err = movie.reader.SeekTo(int64(sample.DataOffset)); err != nil {
		return nil, err
	}
	return movie.reader.ReadExact(int(sample.Size))
}

// TrimTrailingSamples drops every sample after the first keep samples of a
// track and shrinks the declared durations to match. The compact tables are
// rebuilt minimal on the next write.
func (movie *Movie) TrimTrailingSamples(trackId uint32, keep int) error {
	track, err := movie.Track(trackId)
	if err != nil {
		return err
	}
	if keep < 0 || keep > len(track.samples) {
		return ErrOutOfRange
	}
	removed := uint64(0)
	for _, sample := range track.samples[keep:] {
		removed += uint64(sample.Duration)
	}
	track.samples = track.samples[:keep]
	if track.Duration >= removed {
		track.Duration -= removed
	} else {
		track.Duration = 0
	}
	movie.refreshDuration()
	return nil
}

// RewriteTimescale rescales one track to a new timescale, adjusting every
// sample duration, decode time and composition offset. Rounding is per
// sample, so downscaling may lose sub tick precision.
func (movie *Movie) RewriteTimescale(trackId uint32, timescale uint32) error {
	track, err := movie.Track(trackId)
	if err != nil {
		return err
	}
	if timescale == 0 {
		return ErrOutOfRange
	}
	if track.Timescale == 0 || track.Timescale == timescale {
		track.Timescale = timescale
		return nil
	}
	old := uint64(track.Timescale)
	rescale := func(v uint64) uint64 {
		return v * uint64(timescale) / old
	}
	for i := range track.samples {
		endDts := rescale(track.samples[i].Dts + uint64(track.samples[i].Duration))
		track.samples[i].Dts = rescale(track.samples[i].Dts)
		track.samples[i].Duration = uint32(endDts - track.samples[i].Dts)
		track.samples[i].CompositionOffset = int32(
			int64(track.samples[i].CompositionOffset) * int64(timescale) / int64(old))
	}
	track.Duration = rescale(track.Duration)
	track.Timescale = timescale
	movie.refreshDuration()
	return nil
}

// refreshDuration recomputes the movie duration as the longest track
// duration expressed in the movie timescale.
func (movie *Movie) refreshDuration() {
	longest := uint64(0)
	for _, track := range movie.tracks {
		if track.Timescale == 0 || movie.Info.Timescale == 0 {
			continue
		}
		d := track.Duration * uint64(movie.Info.Timescale) / uint64(track.Timescale)
		if d > longest {
			longest = d
		}
	}
	movie.Info.Duration = longest
}
