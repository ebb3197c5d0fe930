package mp4

import (
	"errors"
	"testing"
)

func TestExpandChunkRunsPastChunkTable(t *testing.T) {
	// two chunks, runs say chunk 1 has 4 samples and chunks from 3 have 2;
	// the second run clamps onto chunk 2
	stbl := &movstbl{
		stsc: &movstsc{entrys: []stscEntry{
			{firstChunk: 1, samplesPerChunk: 4, sampleDescriptionIndex: 1},
			{firstChunk: 3, samplesPerChunk: 2, sampleDescriptionIndex: 1},
		}},
		stco: &movstco{chunkOffsetlist: []uint64{1000, 5000}},
		stsz: &movstsz{sampleSize: 100, sampleCount: 6},
		stts: &movstts{entrys: []sttsEntry{{sampleCount: 6, sampleDelta: 10}}},
	}
	samples, warnings := expandSampleTable(stbl)
	if len(samples) != 6 {
		t.Fatalf("expected 6 samples, got %d", len(samples))
	}
	wantOffsets := []uint64{1000, 1100, 1200, 1300, 5000, 5100}
	for i, want := range wantOffsets {
		if samples[i].DataOffset != want {
			t.Fatalf("sample %d offset %d, want %d", i+1, samples[i].DataOffset, want)
		}
	}
	if len(warnings) == 0 {
		t.Fatal("expected a table inconsistency warning for the out of range run")
	}
}

func TestExpandDurations(t *testing.T) {
	stbl := &movstbl{
		stsc: &movstsc{entrys: []stscEntry{{firstChunk: 1, samplesPerChunk: 5, sampleDescriptionIndex: 1}}},
		stco: &movstco{chunkOffsetlist: []uint64{0}},
		stsz: &movstsz{sampleSize: 10, sampleCount: 5},
		stts: &movstts{entrys: []sttsEntry{
			{sampleCount: 3, sampleDelta: 1000},
			{sampleCount: 2, sampleDelta: 500},
		}},
	}
	samples, warnings := expandSampleTable(stbl)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	wantDurations := []uint32{1000, 1000, 1000, 500, 500}
	wantDts := []uint64{0, 1000, 2000, 3000, 3500}
	for i := range wantDurations {
		if samples[i].Duration != wantDurations[i] {
			t.Fatalf("sample %d duration %d, want %d", i+1, samples[i].Duration, wantDurations[i])
		}
		if samples[i].Dts != wantDts[i] {
			t.Fatalf("sample %d dts %d, want %d", i+1, samples[i].Dts, wantDts[i])
		}
	}
}

func TestExpandSyncDefault(t *testing.T) {
	stbl := &movstbl{
		stsc: &movstsc{entrys: []stscEntry{{firstChunk: 1, samplesPerChunk: 3, sampleDescriptionIndex: 1}}},
		stco: &movstco{chunkOffsetlist: []uint64{0}},
		stsz: &movstsz{sampleSize: 1, sampleCount: 3},
		stts: &movstts{entrys: []sttsEntry{{sampleCount: 3, sampleDelta: 1}}},
	}
	samples, _ := expandSampleTable(stbl)
	for i := range samples {
		if !samples[i].IsSync {
			t.Fatalf("sample %d not sync without an stss table", i+1)
		}
	}

	stbl.stss = &movstss{sampleNumber: []uint32{2}}
	samples, _ = expandSampleTable(stbl)
	if samples[0].IsSync || !samples[1].IsSync || samples[2].IsSync {
		t.Fatalf("sync flags %v %v %v, want false true false",
			samples[0].IsSync, samples[1].IsSync, samples[2].IsSync)
	}
}

func TestExpandZeroRunsZeroSamples(t *testing.T) {
	stbl := &movstbl{
		stsc: &movstsc{},
		stco: &movstco{chunkOffsetlist: []uint64{100}},
		stsz: &movstsz{sampleSize: 10, sampleCount: 7},
		stts: &movstts{entrys: []sttsEntry{{sampleCount: 7, sampleDelta: 1}}},
	}
	samples, _ := expandSampleTable(stbl)
	if len(samples) != 0 {
		t.Fatalf("expected no samples from an empty chunk map, got %d", len(samples))
	}
}

func TestExpandSizeCountDisagreement(t *testing.T) {
	// chunk map implies 6 samples, size table only carries 4
	stbl := &movstbl{
		stsc: &movstsc{entrys: []stscEntry{{firstChunk: 1, samplesPerChunk: 6, sampleDescriptionIndex: 1}}},
		stco: &movstco{chunkOffsetlist: []uint64{0}},
		stsz: &movstsz{sampleSize: 0, sampleCount: 4, entrySizelist: []uint32{1, 2, 3, 4}},
		stts: &movstts{entrys: []sttsEntry{{sampleCount: 6, sampleDelta: 1}}},
	}
	samples, warnings := expandSampleTable(stbl)
	if len(samples) != 4 {
		t.Fatalf("expected truncation to 4 samples, got %d", len(samples))
	}
	found := false
	for _, w := range warnings {
		if errors.Is(w, ErrTableInconsistency) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an ErrTableInconsistency warning")
	}
}

func TestExpandSttsShortfall(t *testing.T) {
	stbl := &movstbl{
		stsc: &movstsc{entrys: []stscEntry{{firstChunk: 1, samplesPerChunk: 4, sampleDescriptionIndex: 1}}},
		stco: &movstco{chunkOffsetlist: []uint64{0}},
		stsz: &movstsz{sampleSize: 10, sampleCount: 4},
		stts: &movstts{entrys: []sttsEntry{{sampleCount: 2, sampleDelta: 100}}},
	}
	samples, warnings := expandSampleTable(stbl)
	if len(samples) != 4 {
		t.Fatalf("got %d samples", len(samples))
	}
	// the last known delta carries forward
	if samples[2].Duration != 100 || samples[3].Duration != 100 {
		t.Fatalf("durations %d %d, want 100 100", samples[2].Duration, samples[3].Duration)
	}
	if samples[3].Dts != 300 {
		t.Fatalf("dts %d, want 300", samples[3].Dts)
	}
	if len(warnings) == 0 {
		t.Fatal("expected a warning for the short stts table")
	}
}

func buildSamples() []Sample {
	samples := make([]Sample, 0, 10)
	offset := uint64(4096)
	dts := uint64(0)
	for i := 0; i < 10; i++ {
		size := uint32(100 + i%3)
		duration := uint32(1000)
		if i >= 7 {
			duration = 500
		}
		s := Sample{
			Index:             uint32(i) + 1,
			DataOffset:        offset,
			Size:              size,
			Duration:          duration,
			CompositionOffset: int32(i % 2 * 10),
			IsSync:            i%5 == 0,
			Dts:               dts,
		}
		samples = append(samples, s)
		offset += uint64(size)
		dts += uint64(duration)
		if i == 4 {
			// gap starts a new chunk
			offset += 512
		}
	}
	return samples
}

func TestCompressExpandRoundtrip(t *testing.T) {
	want := buildSamples()
	stbl := compressSampleTable(want, 1)
	got, warnings := expandSampleTable(stbl)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d mismatch: got %+v want %+v", i+1, got[i], want[i])
		}
	}
}

func TestCompressMinimality(t *testing.T) {
	samples := buildSamples()
	stbl := compressSampleTable(samples, 1)

	for i := 1; i < len(stbl.stts.entrys); i++ {
		if stbl.stts.entrys[i].sampleDelta == stbl.stts.entrys[i-1].sampleDelta {
			t.Fatal("adjacent stts runs share a delta and should have merged")
		}
	}
	for i := 1; i < len(stbl.stsc.entrys); i++ {
		if stbl.stsc.entrys[i].samplesPerChunk == stbl.stsc.entrys[i-1].samplesPerChunk {
			t.Fatal("adjacent stsc runs share samples per chunk and should have merged")
		}
	}
	if len(stbl.stts.entrys) != 2 {
		t.Fatalf("expected 2 stts runs, got %d", len(stbl.stts.entrys))
	}
}

func TestCompressOmitsEmptyTables(t *testing.T) {
	samples := []Sample{
		{Index: 1, DataOffset: 0, Size: 10, Duration: 1, IsSync: true},
		{Index: 2, DataOffset: 10, Size: 10, Duration: 1, IsSync: true, Dts: 1},
	}
	stbl := compressSampleTable(samples, 1)
	if stbl.ctts != nil {
		t.Fatal("ctts built although every composition offset is zero")
	}
	if stbl.stss != nil {
		t.Fatal("stss built although every sample is sync")
	}
	if stbl.stsz.sampleSize != 10 || stbl.stsz.entrySizelist != nil {
		t.Fatal("uniform sizes should use the constant form")
	}
	if len(stbl.stco.chunkOffsetlist) != 1 {
		t.Fatalf("contiguous samples should share one chunk, got %d", len(stbl.stco.chunkOffsetlist))
	}
}

func TestSampleSeq(t *testing.T) {
	seq := newSampleSeq(buildSamples())
	if seq.Len() != 10 {
		t.Fatalf("len %d", seq.Len())
	}
	if _, err := seq.At(10); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	s, err := seq.At(3)
	if err != nil || s.Index != 4 {
		t.Fatalf("got %+v %v", s, err)
	}
	i, err := seq.IndexAtTime(2500)
	if err != nil || i != 2 {
		t.Fatalf("IndexAtTime got %d %v, want 2", i, err)
	}
	sync, err := seq.SyncBefore(4)
	if err != nil || sync != 0 {
		t.Fatalf("SyncBefore got %d %v, want 0", sync, err)
	}
	sync, _ = seq.SyncBefore(7)
	if sync != 5 {
		t.Fatalf("SyncBefore got %d, want 5", sync)
	}
}
