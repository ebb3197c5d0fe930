package mp4

import (
	"sort"
)

// Sample is one fully resolved media sample. Index is 1-based to match the
// numbering sync tables use on the wire.
type Sample struct {
	Index             uint32
	DataOffset        uint64
	Size              uint32
	Duration          uint32
	CompositionOffset int32
	IsSync            bool
	Dts               uint64
}

func (s Sample) Pts() uint64 {
	return uint64(int64(s.Dts) + int64(s.CompositionOffset))
}

func tableWarning(boxtype [4]byte, err error) Warning {
	return Warning{Type: boxtype, Err: err}
}

// expandSampleTable flattens the compact stbl tables into one entry per
// sample. The chunk map drives the walk: the sample count is whatever the
// stsc runs yield over the declared chunks, and the other tables are checked
// against it. A table that runs short truncates the result and reports a
// warning instead of failing the whole track.
func expandSampleTable(stbl *movstbl) ([]Sample, []Warning) {
	var warnings []Warning
	if stbl == nil || stbl.stsc == nil || stbl.stco == nil || stbl.stsz == nil {
		return nil, warnings
	}
	chunkCount := uint32(len(stbl.stco.chunkOffsetlist))

	// Resolve each run's starting chunk. A first_chunk beyond the chunk table
	// clamps to the last chunk and a non increasing one is pushed past its
	// predecessor, so every run keeps its relative order over the chunks that
	// actually exist.
	starts := make([]uint32, len(stbl.stsc.entrys))
	prev := uint32(0)
	for i, entry := range stbl.stsc.entrys {
		s := entry.firstChunk
		if s == 0 || s > chunkCount {
			warnings = append(warnings, tableWarning(TypeSTSC, ErrTableInconsistency))
			s = chunkCount
		}
		if s <= prev {
			if entry.firstChunk != 0 && entry.firstChunk <= chunkCount {
				warnings = append(warnings, tableWarning(TypeSTSC, ErrTableInconsistency))
			}
			s = prev + 1
		}
		starts[i] = s
		prev = s
	}
	runEnd := func(i int) uint32 {
		if i+1 < len(starts) {
			return starts[i+1]
		}
		return chunkCount + 1
	}

	// samples declared by the chunk map
	total := uint64(0)
	for i, entry := range stbl.stsc.entrys {
		if starts[i] > chunkCount {
			break
		}
		total += uint64(runEnd(i)-starts[i]) * uint64(entry.samplesPerChunk)
	}

	sizeCount := uint64(stbl.stsz.sampleCount)
	if stbl.stsz.sampleSize == 0 {
		sizeCount = uint64(len(stbl.stsz.entrySizelist))
	}
	if sizeCount != total {
		warnings = append(warnings, tableWarning(TypeSTSZ, ErrTableInconsistency))
		if sizeCount < total {
			total = sizeCount
		}
	}

	samples := make([]Sample, 0, total)
	sampleIdx := uint64(0)
	for i, entry := range stbl.stsc.entrys {
		if starts[i] > chunkCount {
			break
		}
		endChunk := runEnd(i)
		for chunk := starts[i]; chunk < endChunk && sampleIdx < total; chunk++ {
			offset := stbl.stco.chunkOffsetlist[chunk-1]
			for k := uint32(0); k < entry.samplesPerChunk && sampleIdx < total; k++ {
				size := stbl.stsz.sampleSize
				if size == 0 {
					size = stbl.stsz.entrySizelist[sampleIdx]
				}
				samples = append(samples, Sample{
					Index:      uint32(sampleIdx) + 1,
					DataOffset: offset,
					Size:       size,
					IsSync:     true,
				})
				offset += uint64(size)
				sampleIdx++
			}
		}
	}

	// durations
	dts := uint64(0)
	idx := 0
	if stbl.stts != nil {
		for _, entry := range stbl.stts.entrys {
			for k := uint32(0); k < entry.sampleCount && idx < len(samples); k++ {
				samples[idx].Duration = entry.sampleDelta
				samples[idx].Dts = dts
				dts += uint64(entry.sampleDelta)
				idx++
			}
		}
	}
	if idx < len(samples) {
		warnings = append(warnings, tableWarning(TypeSTTS, ErrTableInconsistency))
		// carry the last known delta forward so timestamps stay monotonic
		var delta uint32
		if idx > 0 {
			delta = samples[idx-1].Duration
		}
		for ; idx < len(samples); idx++ {
			samples[idx].Duration = delta
			samples[idx].Dts = dts
			dts += uint64(delta)
		}
	} else if stbl.stts != nil {
		declared := uint64(0)
		for _, entry := range stbl.stts.entrys {
			declared += uint64(entry.sampleCount)
		}
		if declared > uint64(len(samples)) {
			warnings = append(warnings, tableWarning(TypeSTTS, ErrTableInconsistency))
		}
	}

	// composition offsets
	if stbl.ctts != nil {
		idx = 0
		for _, entry := range stbl.ctts.entrys {
			for k := uint32(0); k < entry.sampleCount && idx < len(samples); k++ {
				samples[idx].CompositionOffset = entry.sampleOffset
				idx++
			}
		}
		if idx < len(samples) {
			warnings = append(warnings, tableWarning(TypeCTTS, ErrTableInconsistency))
		}
	}

	// sync samples; an absent table marks every sample sync
	if stbl.stss != nil {
		for i := range samples {
			samples[i].IsSync = false
		}
		for _, num := range stbl.stss.sampleNumber {
			if num == 0 || num > uint32(len(samples)) {
				warnings = append(warnings, tableWarning(TypeSTSS, ErrTableInconsistency))
				continue
			}
			samples[num-1].IsSync = true
		}
	}
	return samples, warnings
}

// compressSampleTable rebuilds the minimal compact tables for a sample list.
// Adjacent equal durations fold into one stts run, back to back samples fold
// into chunks, and ctts/stss are omitted entirely when they carry no
// information. Expanding the result yields the input samples again.
func compressSampleTable(samples []Sample, sampleDescriptionIndex uint32) *movstbl {
	stbl := &movstbl{
		stts: &movstts{},
		stsc: &movstsc{},
		stsz: &movstsz{},
		stco: &movstco{},
	}
	if len(samples) == 0 {
		stbl.stsz.sampleSize = 0
		stbl.stsz.sampleCount = 0
		return stbl
	}

	// stts
	for i := range samples {
		n := len(stbl.stts.entrys)
		if n > 0 && stbl.stts.entrys[n-1].sampleDelta == samples[i].Duration {
			stbl.stts.entrys[n-1].sampleCount++
		} else {
			stbl.stts.entrys = append(stbl.stts.entrys, sttsEntry{
				sampleCount: 1,
				sampleDelta: samples[i].Duration,
			})
		}
	}

	// stsz
	constant := true
	for i := 1; i < len(samples); i++ {
		if samples[i].Size != samples[0].Size {
			constant = false
			break
		}
	}
	stbl.stsz.sampleCount = uint32(len(samples))
	if constant {
		stbl.stsz.sampleSize = samples[0].Size
	} else {
		stbl.stsz.entrySizelist = make([]uint32, len(samples))
		for i := range samples {
			stbl.stsz.entrySizelist[i] = samples[i].Size
		}
	}

	// chunks: a sample starts a new chunk unless it sits immediately after
	// the previous sample's data
	var chunks []movchunk
	for i := range samples {
		n := len(chunks)
		if n > 0 && samples[i].DataOffset == samples[i-1].DataOffset+uint64(samples[i-1].Size) {
			chunks[n-1].samplenum++
		} else {
			chunks = append(chunks, movchunk{
				chunknum:    uint32(n) + 1,
				samplenum:   1,
				chunkoffset: samples[i].DataOffset,
			})
		}
	}
	stbl.stco.chunkOffsetlist = make([]uint64, len(chunks))
	for i := range chunks {
		stbl.stco.chunkOffsetlist[i] = chunks[i].chunkoffset
		n := len(stbl.stsc.entrys)
		if n > 0 && stbl.stsc.entrys[n-1].samplesPerChunk == chunks[i].samplenum {
			continue
		}
		stbl.stsc.entrys = append(stbl.stsc.entrys, stscEntry{
			firstChunk:             chunks[i].chunknum,
			samplesPerChunk:        chunks[i].samplenum,
			sampleDescriptionIndex: sampleDescriptionIndex,
		})
	}

	// ctts only when some offset is nonzero
	hasCtts := false
	for i := range samples {
		if samples[i].CompositionOffset != 0 {
			hasCtts = true
			break
		}
	}
	if hasCtts {
		stbl.ctts = &movctts{}
		for i := range samples {
			n := len(stbl.ctts.entrys)
			if n > 0 && stbl.ctts.entrys[n-1].sampleOffset == samples[i].CompositionOffset {
				stbl.ctts.entrys[n-1].sampleCount++
			} else {
				stbl.ctts.entrys = append(stbl.ctts.entrys, cttsEntry{
					sampleCount:  1,
					sampleOffset: samples[i].CompositionOffset,
				})
			}
		}
	}

	// stss only when some sample is not sync
	allSync := true
	for i := range samples {
		if !samples[i].IsSync {
			allSync = false
			break
		}
	}
	if !allSync {
		stbl.stss = &movstss{}
		for i := range samples {
			if samples[i].IsSync {
				stbl.stss.sampleNumber = append(stbl.stss.sampleNumber, uint32(i)+1)
			}
		}
	}
	return stbl
}

// SampleSeq is an index addressed view over a track's samples. Every accessor
// is stateless, so concurrent readers and restarted scans need no reset call.
type SampleSeq struct {
	samples []Sample
}

func newSampleSeq(samples []Sample) *SampleSeq {
	return &SampleSeq{samples: samples}
}

func (seq *SampleSeq) Len() int {
	return len(seq.samples)
}

// At returns the i-th sample, 0-based.
func (seq *SampleSeq) At(i int) (Sample, error) {
	if i < 0 || i >= len(seq.samples) {
		return Sample{}, ErrOutOfRange
	}
	return seq.samples[i], nil
}

// IndexAtTime returns the 0-based index of the last sample whose decode time
// is at or before dts.
func (seq *SampleSeq) IndexAtTime(dts uint64) (int, error) {
	if len(seq.samples) == 0 || seq.samples[0].Dts > dts {
		return 0, ErrOutOfRange
	}
	i := sort.Search(len(seq.samples), func(i int) bool {
		return seq.samples[i].Dts > dts
	})
	return i - 1, nil
}

// SyncBefore returns the 0-based index of the nearest sync sample at or
// before i, for seeking to a decodable position.
func (seq *SampleSeq) SyncBefore(i int) (int, error) {
	if i < 0 || i >= len(seq.samples) {
		return 0, ErrOutOfRange
	}
	for ; i > 0; i-- {
		if seq.samples[i].IsSync {
			break
		}
	}
	return i, nil
}

func (seq *SampleSeq) TotalDuration() uint64 {
	total := uint64(0)
	for i := range seq.samples {
		total += uint64(seq.samples[i].Duration)
	}
	return total
}
