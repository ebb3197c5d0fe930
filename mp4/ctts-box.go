package mp4

import (
	"encoding/binary"
)

// aligned(8) class CompositionOffsetBox extends FullBox(‘ctts’, version = 0, 0) {
// 		unsigned int(32) entry_count;
// 		int i;
// 		if (version==0) {
// 			for (i=0; i < entry_count; i++) {
// 				unsigned int(32) sample_count;
// 				unsigned int(32) sample_offset;
// 			}
// 		}
// 		else if (version == 1) {
// 			for (i=0; i < entry_count; i++) {
// 				unsigned int(32) sample_count;
// 				signed int(32) sample_offset;
// 			}
// 		}
// }

type CompositionOffsetBox struct {
	box       *FullBox
	entryList *movctts
}

func NewCompositionOffsetBox() *CompositionOffsetBox {
	return &CompositionOffsetBox{
		box: NewFullBox(TypeCTTS, 0),
	}
}

func (ctts *CompositionOffsetBox) Size() uint64 {
	if ctts.entryList == nil {
		return ctts.box.Size() + 4
	}
	return ctts.box.Size() + 4 + 8*uint64(len(ctts.entryList.entrys))
}

func (ctts *CompositionOffsetBox) Decode(r *movReader) (offset int, err error) {
	if _, err = ctts.box.Decode(r); err != nil {
		return
	}
	if ctts.box.Version > 1 {
		err = boxErr(ctts.box.Box.Type, ctts.box.Box.Offset, ErrUnsupportedVariant)
		return
	}
	entryCountBuf, err := r.ReadExact(4)
	if err != nil {
		return
	}
	offset = 8
	entryCount := binary.BigEndian.Uint32(entryCountBuf)
	if err = checkEntryCount(ctts.box.Box, entryCount, 8, FullBoxLen+4); err != nil {
		return
	}
	ctts.entryList = new(movctts)
	ctts.entryList.entrys = make([]cttsEntry, entryCount)
	buf, err := r.ReadExact(int(entryCount) * 8)
	if err != nil {
		return
	}
	idx := 0
	for i := 0; i < int(entryCount); i++ {
		ctts.entryList.entrys[i].sampleCount = binary.BigEndian.Uint32(buf[idx:])
		idx += 4
		// Version 0 offsets are unsigned on the wire but in-memory they share
		// the signed representation; values above 2^31-1 do not occur in
		// practice and would misbehave identically in either version.
		ctts.entryList.entrys[i].sampleOffset = int32(binary.BigEndian.Uint32(buf[idx:]))
		idx += 4
	}
	offset += idx
	return
}

func (ctts *CompositionOffsetBox) Encode() (int, []byte) {
	ctts.box.Box.Size = ctts.Size()
	offset, buf := ctts.box.Encode()
	binary.BigEndian.PutUint32(buf[offset:], uint32(len(ctts.entryList.entrys)))
	offset += 4
	for i := range ctts.entryList.entrys {
		binary.BigEndian.PutUint32(buf[offset:], ctts.entryList.entrys[i].sampleCount)
		offset += 4
		binary.BigEndian.PutUint32(buf[offset:], uint32(ctts.entryList.entrys[i].sampleOffset))
		offset += 4
	}
	return offset, buf
}

// makeCtts emits version 1 when any composition offset is negative and
// version 0 otherwise.
func makeCtts(ctts *movctts) (boxdata []byte) {
	cttsbox := NewCompositionOffsetBox()
	cttsbox.entryList = ctts
	for i := range ctts.entrys {
		if ctts.entrys[i].sampleOffset < 0 {
			cttsbox.box.Version = 1
			break
		}
	}
	_, boxdata = cttsbox.Encode()
	return
}

func decodeCttsBox(demuxer *MovDemuxer) (err error) {
	ctts := CompositionOffsetBox{box: &FullBox{Box: demuxer.currentBox()}}
	if _, err = ctts.Decode(demuxer.reader); err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.stbl.ctts = ctts.entryList
	return
}
