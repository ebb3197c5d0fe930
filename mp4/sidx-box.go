package mp4

import (
	"encoding/binary"
)

// aligned(8) class SegmentIndexBox extends FullBox(‘sidx’, version, 0) {
// 		unsigned int(32) reference_ID;
// 		unsigned int(32) timescale;
// 		if (version==0) {
// 			unsigned int(32) earliest_presentation_time;
// 			unsigned int(32) first_offset;
// 		} else {
// 			unsigned int(64) earliest_presentation_time;
// 			unsigned int(64) first_offset;
// 		}
// 		unsigned int(16) reserved = 0;
// 		unsigned int(16) reference_count;
// 		for(i=1; i <= reference_count; i++) {
// 			bit (1)           reference_type;
// 			unsigned int(31)  referenced_size;
// 			unsigned int(32)  subsegment_duration;
// 			bit(1)            starts_with_SAP;
// 			unsigned int(3)   SAP_type;
// 			unsigned int(28)  SAP_delta_time;
// 		}
// }

type sidxEntry struct {
	ReferenceType      uint8
	ReferencedSize     uint32
	SubsegmentDuration uint32
	StartsWithSAP      uint8
	SAPType            uint8
	SAPDeltaTime       uint32
}

type SegmentIndexBox struct {
	box                      *FullBox
	ReferenceID              uint32
	Timescale                uint32
	EarliestPresentationTime uint64
	FirstOffset              uint64
	Entrys                   []sidxEntry
}

func NewSegmentIndexBox() *SegmentIndexBox {
	return &SegmentIndexBox{
		box: NewFullBox(TypeSIDX, 1),
	}
}

func (sidx *SegmentIndexBox) Size() uint64 {
	if sidx.box.Version == 0 {
		return sidx.box.Size() + 20 + 12*uint64(len(sidx.Entrys))
	}
	return sidx.box.Size() + 28 + 12*uint64(len(sidx.Entrys))
}

func (sidx *SegmentIndexBox) Decode(r *movReader) (offset int, err error) {
	if _, err = sidx.box.Decode(r); err != nil {
		return
	}
	if sidx.box.Version > 1 {
		err = boxErr(sidx.box.Box.Type, sidx.box.Box.Offset, ErrUnsupportedVariant)
		return
	}
	fixed := 20
	if sidx.box.Version == 1 {
		fixed = 28
	}
	buf, err := r.ReadExact(fixed)
	if err != nil {
		return
	}
	n := 0
	sidx.ReferenceID = binary.BigEndian.Uint32(buf[n:])
	n += 4
	sidx.Timescale = binary.BigEndian.Uint32(buf[n:])
	n += 4
	if sidx.box.Version == 0 {
		sidx.EarliestPresentationTime = uint64(binary.BigEndian.Uint32(buf[n:]))
		n += 4
		sidx.FirstOffset = uint64(binary.BigEndian.Uint32(buf[n:]))
		n += 4
	} else {
		sidx.EarliestPresentationTime = binary.BigEndian.Uint64(buf[n:])
		n += 8
		sidx.FirstOffset = binary.BigEndian.Uint64(buf[n:])
		n += 8
	}
	n += 2
	referenceCount := binary.BigEndian.Uint16(buf[n:])
	if err = checkEntryCount(sidx.box.Box, uint32(referenceCount), 12, FullBoxLen+uint64(fixed)); err != nil {
		return
	}
	offset = FullBoxLen + fixed
	ebuf, err := r.ReadExact(int(referenceCount) * 12)
	if err != nil {
		return
	}
	sidx.Entrys = make([]sidxEntry, referenceCount)
	n = 0
	for i := 0; i < int(referenceCount); i++ {
		first := binary.BigEndian.Uint32(ebuf[n:])
		sidx.Entrys[i].ReferenceType = uint8(first >> 31)
		sidx.Entrys[i].ReferencedSize = first & 0x7FFFFFFF
		n += 4
		sidx.Entrys[i].SubsegmentDuration = binary.BigEndian.Uint32(ebuf[n:])
		n += 4
		last := binary.BigEndian.Uint32(ebuf[n:])
		sidx.Entrys[i].StartsWithSAP = uint8(last >> 31)
		sidx.Entrys[i].SAPType = uint8(last >> 28 & 0x07)
		sidx.Entrys[i].SAPDeltaTime = last & 0x0FFFFFFF
		n += 4
	}
	offset += n
	return
}

func (sidx *SegmentIndexBox) Encode() (int, []byte) {
	sidx.box.Box.Size = sidx.Size()
	offset, boxdata := sidx.box.Encode()
	binary.BigEndian.PutUint32(boxdata[offset:], sidx.ReferenceID)
	offset += 4
	binary.BigEndian.PutUint32(boxdata[offset:], sidx.Timescale)
	offset += 4
	if sidx.box.Version == 0 {
		binary.BigEndian.PutUint32(boxdata[offset:], uint32(sidx.EarliestPresentationTime))
		offset += 4
		binary.BigEndian.PutUint32(boxdata[offset:], uint32(sidx.FirstOffset))
		offset += 4
	} else {
		binary.BigEndian.PutUint64(boxdata[offset:], sidx.EarliestPresentationTime)
		offset += 8
		binary.BigEndian.PutUint64(boxdata[offset:], sidx.FirstOffset)
		offset += 8
	}
	offset += 2
	binary.BigEndian.PutUint16(boxdata[offset:], uint16(len(sidx.Entrys)))
	offset += 2
	for i := range sidx.Entrys {
		binary.BigEndian.PutUint32(boxdata[offset:],
			uint32(sidx.Entrys[i].ReferenceType)<<31|sidx.Entrys[i].ReferencedSize&0x7FFFFFFF)
		offset += 4
		binary.BigEndian.PutUint32(boxdata[offset:], sidx.Entrys[i].SubsegmentDuration)
		offset += 4
		binary.BigEndian.PutUint32(boxdata[offset:],
			uint32(sidx.Entrys[i].StartsWithSAP)<<31|uint32(sidx.Entrys[i].SAPType&0x07)<<28|
				sidx.Entrys[i].SAPDeltaTime&0x0FFFFFFF)
		offset += 4
	}
	return offset, boxdata
}

// SeekSegment locates one indexed subsegment in the file, with times in the
// sidx timescale.
type SeekSegment struct {
	Offset        uint64
	Size          uint32
	Time          uint64
	Duration      uint32
	StartsWithSAP bool
}

// SeekSegments expands the index into absolute file positions. The anchor is
// the first byte after the sidx box, advanced by first_offset; times start at
// earliest_presentation_time and accumulate subsegment durations.
func (sidx *SegmentIndexBox) SeekSegments() []SeekSegment {
	anchor := uint64(sidx.box.Box.Offset) + sidx.box.Box.Size + sidx.FirstOffset
	time := sidx.EarliestPresentationTime
	segments := make([]SeekSegment, 0, len(sidx.Entrys))
	for i := range sidx.Entrys {
		// reference_type 1 points at a nested sidx, not media
		segments = append(segments, SeekSegment{
			Offset:        anchor,
			Size:          sidx.Entrys[i].ReferencedSize,
			Time:          time,
			Duration:      sidx.Entrys[i].SubsegmentDuration,
			StartsWithSAP: sidx.Entrys[i].StartsWithSAP == 1,
		})
		anchor += uint64(sidx.Entrys[i].ReferencedSize)
		time += uint64(sidx.Entrys[i].SubsegmentDuration)
	}
	return segments
}

func decodeSidxBox(demuxer *MovDemuxer) (err error) {
	sidx := SegmentIndexBox{box: &FullBox{Box: demuxer.currentBox()}}
	if _, err = sidx.Decode(demuxer.reader); err != nil {
		return
	}
	demuxer.sidxs = append(demuxer.sidxs, &sidx)
	return
}
