package mp4

import (
	"bytes"
	"errors"
	"testing"
)

// syntactically valid avcC record with placeholder sps/pps payloads
var testAvcc = []byte{
	0x01, 0x64, 0x00, 0x1E, 0xFF, 0xE1,
	0x00, 0x04, 0x67, 0x64, 0x00, 0x1E,
	0x01,
	0x00, 0x04, 0x68, 0xEE, 0x3C, 0x80,
}

func muxTestFile(t *testing.T) ([]byte, *Movmuxer) {
	t.Helper()
	w := NewBufferWriter(4096)
	muxer, err := CreateMp4Muxer(w)
	if err != nil {
		t.Fatal(err)
	}
	vid := muxer.AddVideoTrack(MOV_CODEC_H264, 640, 360, 90000, testAvcc)
	aud := muxer.AddAudioTrack(MOV_CODEC_G711A, 1, 16, 8000, nil)

	for i := 0; i < 6; i++ {
		frame := bytes.Repeat([]byte{byte(i + 1)}, 50+i)
		dts := uint64(i) * 3000
		pts := dts + 1500
		if err = muxer.WriteSample(vid, frame, pts, dts, i%3 == 0); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 4; i++ {
		frame := bytes.Repeat([]byte{0xAA}, 160)
		dts := uint64(i) * 160
		if err = muxer.WriteSample(aud, frame, dts, dts, true); err != nil {
			t.Fatal(err)
		}
	}
	if err = muxer.WriteTrailer(); err != nil {
		t.Fatal(err)
	}
	return w.Bytes(), muxer
}

func TestMuxDemuxRoundtrip(t *testing.T) {
	data, muxer := muxTestFile(t)

	movie, err := ReadMovie(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(movie.Warnings()) != 0 {
		t.Fatalf("unexpected warnings %v", movie.Warnings())
	}
	if len(movie.Tracks()) != 2 {
		t.Fatalf("got %d tracks", len(movie.Tracks()))
	}

	for _, written := range muxer.tracks {
		read, err := movie.Track(written.trackId)
		if err != nil {
			t.Fatal(err)
		}
		if read.Cid != written.cid || read.Timescale != written.timescale {
			t.Fatalf("track %d: got cid=%d ts=%d", written.trackId, read.Cid, read.Timescale)
		}
		seq, err := movie.Samples(written.trackId)
		if err != nil {
			t.Fatal(err)
		}
		if seq.Len() != len(written.samplelist) {
			t.Fatalf("track %d: %d samples, want %d", written.trackId, seq.Len(), len(written.samplelist))
		}
		for i, want := range written.samplelist {
			got, err := seq.At(i)
			if err != nil {
				t.Fatal(err)
			}
			if got.DataOffset != want.DataOffset || got.Size != want.Size ||
				got.Duration != want.Duration || got.CompositionOffset != want.CompositionOffset ||
				got.IsSync != want.IsSync {
				t.Fatalf("track %d sample %d: got %+v want %+v", written.trackId, i+1, got, want)
			}
		}
	}

	video, _ := movie.Track(1)
	if video.Width != 640 || video.Height != 360 {
		t.Fatalf("video %dx%d", video.Width, video.Height)
	}
	if !bytes.Equal(video.ExtraData, testAvcc) {
		t.Fatal("avcC payload changed across the roundtrip")
	}
	audio, _ := movie.Track(2)
	if audio.SampleRate != 8000 || audio.ChannelCount != 1 {
		t.Fatalf("audio rate=%d channels=%d", audio.SampleRate, audio.ChannelCount)
	}

	payload, err := movie.ReadSampleData(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(payload, bytes.Repeat([]byte{1}, 50)) {
		t.Fatal("sample payload mismatch")
	}
}

func TestWriteMovieRemux(t *testing.T) {
	data, _ := muxTestFile(t)
	movie, err := ReadMovie(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	w := NewBufferWriter(len(data))
	if err = WriteMovie(w, movie); err != nil {
		t.Fatal(err)
	}

	again, err := ReadMovie(bytes.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Tracks()) != len(movie.Tracks()) {
		t.Fatalf("track count changed: %d != %d", len(again.Tracks()), len(movie.Tracks()))
	}
	for _, src := range movie.Tracks() {
		dst, err := again.Track(src.TrackId)
		if err != nil {
			t.Fatal(err)
		}
		if dst.SampleCount() != src.SampleCount() {
			t.Fatalf("track %d sample count %d != %d", src.TrackId, dst.SampleCount(), src.SampleCount())
		}
		for i := 0; i < src.SampleCount(); i++ {
			before, err := movie.ReadSampleData(src.TrackId, i)
			if err != nil {
				t.Fatal(err)
			}
			after, err := again.ReadSampleData(src.TrackId, i)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(before, after) {
				t.Fatalf("track %d sample %d payload changed", src.TrackId, i+1)
			}
			a, _ := movie.Samples(src.TrackId)
			b, _ := again.Samples(src.TrackId)
			sa, _ := a.At(i)
			sb, _ := b.At(i)
			if sa.Duration != sb.Duration || sa.CompositionOffset != sb.CompositionOffset || sa.IsSync != sb.IsSync {
				t.Fatalf("track %d sample %d timing changed", src.TrackId, i+1)
			}
		}
	}
}

func TestWriteMovieWithoutSource(t *testing.T) {
	data, _ := muxTestFile(t)
	movie, err := ReadMovie(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	movie.reader = nil
	err = WriteMovie(NewBufferWriter(16), movie)
	if !errors.Is(err, ErrUnresolvedOffset) {
		t.Fatalf("expected ErrUnresolvedOffset, got %v", err)
	}
}

func TestTrimTrailingSamples(t *testing.T) {
	data, _ := muxTestFile(t)
	movie, err := ReadMovie(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	track, _ := movie.Track(1)
	before := track.Duration

	if err = movie.TrimTrailingSamples(1, 3); err != nil {
		t.Fatal(err)
	}
	if track.SampleCount() != 3 {
		t.Fatalf("got %d samples", track.SampleCount())
	}
	if track.Duration >= before {
		t.Fatalf("duration did not shrink: %d >= %d", track.Duration, before)
	}
	if err = movie.TrimTrailingSamples(1, 99); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}

	// trimmed movie still writes and reads back
	w := NewBufferWriter(len(data))
	if err = WriteMovie(w, movie); err != nil {
		t.Fatal(err)
	}
	again, err := ReadMovie(bytes.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	trimmed, _ := again.Track(1)
	if trimmed.SampleCount() != 3 {
		t.Fatalf("rewritten track has %d samples", trimmed.SampleCount())
	}
}

func TestRewriteTimescale(t *testing.T) {
	data, _ := muxTestFile(t)
	movie, err := ReadMovie(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	track, _ := movie.Track(1)
	seq, _ := movie.Samples(1)
	first, _ := seq.At(0)
	if first.Duration != 3000 {
		t.Fatalf("precondition: duration %d", first.Duration)
	}

	if err = movie.RewriteTimescale(1, 30000); err != nil {
		t.Fatal(err)
	}
	if track.Timescale != 30000 {
		t.Fatalf("timescale %d", track.Timescale)
	}
	seq, _ = movie.Samples(1)
	rescaled, _ := seq.At(0)
	if rescaled.Duration != 1000 {
		t.Fatalf("rescaled duration %d, want 1000", rescaled.Duration)
	}
	if rescaled.CompositionOffset != 500 {
		t.Fatalf("rescaled composition offset %d, want 500", rescaled.CompositionOffset)
	}
	if err = movie.RewriteTimescale(1, 0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for zero timescale, got %v", err)
	}
}

func TestMuxDemuxAacExtraData(t *testing.T) {
	// AudioSpecificConfig for AAC-LC 44100Hz stereo
	asc := []byte{0x12, 0x10}

	w := NewBufferWriter(1024)
	muxer, err := CreateMp4Muxer(w)
	if err != nil {
		t.Fatal(err)
	}
	aud := muxer.AddAudioTrack(MOV_CODEC_AAC, 2, 16, 44100, asc)
	for i := 0; i < 3; i++ {
		dts := uint64(i) * 1024
		if err = muxer.WriteSample(aud, bytes.Repeat([]byte{0x21}, 100), dts, dts, true); err != nil {
			t.Fatal(err)
		}
	}
	if err = muxer.WriteTrailer(); err != nil {
		t.Fatal(err)
	}

	movie, err := ReadMovie(bytes.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	track, err := movie.Track(aud)
	if err != nil {
		t.Fatal(err)
	}
	if track.Cid != MOV_CODEC_AAC {
		t.Fatalf("cid %d", track.Cid)
	}
	if !bytes.Equal(track.ExtraData, asc) {
		t.Fatalf("extradata %v, want %v", track.ExtraData, asc)
	}
	if track.SampleRate != 44100 || track.ChannelCount != 2 {
		t.Fatalf("rate=%d channels=%d", track.SampleRate, track.ChannelCount)
	}
	if track.SampleCount() != 3 {
		t.Fatalf("got %d samples", track.SampleCount())
	}
}

func TestEditListRoundtrip(t *testing.T) {
	data, _ := muxTestFile(t)
	movie, err := ReadMovie(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	video, _ := movie.Track(1)
	video.EditList = append(video.EditList, EditEntry{
		SegmentDuration:  500,
		MediaTime:        1500,
		MediaRateInteger: 1,
	})

	w := NewBufferWriter(len(data))
	if err = WriteMovie(w, movie); err != nil {
		t.Fatal(err)
	}
	again, err := ReadMovie(bytes.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	track, err := again.Track(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(track.EditList) != 1 {
		t.Fatalf("edit list has %d entries", len(track.EditList))
	}
	entry := track.EditList[0]
	if entry.SegmentDuration != 500 || entry.MediaTime != 1500 || entry.MediaRateInteger != 1 {
		t.Fatalf("entry %+v", entry)
	}

	summary := again.Summary()
	if summary.Tracks[0].EditListCount != 1 {
		t.Fatalf("summary edit list count %d", summary.Tracks[0].EditListCount)
	}
}

func TestReadMovieTruncated(t *testing.T) {
	data, _ := muxTestFile(t)
	cut := data[:len(data)-20]
	movie, err := ReadMovie(bytes.NewReader(cut))
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, w := range movie.Warnings() {
		if errors.Is(w, ErrTruncated) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a truncation warning")
	}
}

func TestMovieSummary(t *testing.T) {
	data, _ := muxTestFile(t)
	movie, err := ReadMovie(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	summary := movie.Summary()
	if summary.MajorBrand != "isom" {
		t.Fatalf("brand %q", summary.MajorBrand)
	}
	if len(summary.Tracks) != 2 {
		t.Fatalf("%d tracks", len(summary.Tracks))
	}
	video := summary.Tracks[0]
	if video.Handler != "vide" || video.SampleEntry != "avc1" {
		t.Fatalf("handler=%q entry=%q", video.Handler, video.SampleEntry)
	}
	if video.SampleCount != 6 || video.SyncCount != 2 {
		t.Fatalf("samples=%d sync=%d", video.SampleCount, video.SyncCount)
	}
}
