package mp4

// Compact run-length/delta sample tables, one struct per stbl child. Entry
// counts are recomputed from the slices at encode time; a stored count is
// never trusted.

type sttsEntry struct {
	sampleCount uint32
	sampleDelta uint32
}

type movstts struct {
	entrys []sttsEntry
}

type cttsEntry struct {
	sampleCount  uint32
	sampleOffset int32
}

type movctts struct {
	entrys []cttsEntry
}

type stscEntry struct {
	firstChunk             uint32
	samplesPerChunk        uint32
	sampleDescriptionIndex uint32
}

type movstsc struct {
	entrys []stscEntry
}

// sampleSize != 0 means every sample shares that one size and entrySizelist
// is empty; otherwise entrySizelist carries one size per sample.
type movstsz struct {
	sampleSize    uint32
	sampleCount   uint32
	entrySizelist []uint32
}

type movstco struct {
	chunkOffsetlist []uint64
}

// sampleNumber holds 1-based sync sample indices in ascending order. A nil
// table means every sample is a sync sample.
type movstss struct {
	sampleNumber []uint32
}

type elstEntry struct {
	segmentDuration   uint64
	mediaTime         int64
	mediaRateInteger  int16
	mediaRateFraction int16
}

type movelst struct {
	entrys []elstEntry
}

type movstbl struct {
	stts *movstts
	ctts *movctts
	stsc *movstsc
	stsz *movstsz
	stco *movstco
	stss *movstss
}

type movchunk struct {
	chunknum    uint32
	samplenum   uint32
	chunkoffset uint64
}
