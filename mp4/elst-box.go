package mp4

import (
	"encoding/binary"
)

// aligned(8) class EditListBox extends FullBox(‘elst’, version, 0) {
// 		unsigned int(32) entry_count;
// 		for (i=1; i <= entry_count; i++) {
// 			if (version==1) {
// 				unsigned int(64) segment_duration;
// 				int(64) media_time;
// 			} else { // version==0
// 				unsigned int(32) segment_duration;
// 				int(32)  media_time;
// 			}
// 			int(16) media_rate_integer;
// 			int(16) media_rate_fraction = 0;
// 		}
// }

type EditListBox struct {
	box       *FullBox
	entryList *movelst
}

func NewEditListBox(version uint8) *EditListBox {
	return &EditListBox{
		box: NewFullBox(TypeELST, version),
	}
}

func (elst *EditListBox) Size() uint64 {
	if elst.entryList == nil {
		return elst.box.Size() + 4
	}
	if elst.box.Version == 1 {
		return elst.box.Size() + 4 + 20*uint64(len(elst.entryList.entrys))
	}
	return elst.box.Size() + 4 + 12*uint64(len(elst.entryList.entrys))
}

func (elst *EditListBox) Decode(r *movReader) (offset int, err error) {
	if _, err = elst.box.Decode(r); err != nil {
		return
	}
	if elst.box.Version > 1 {
		err = boxErr(elst.box.Box.Type, elst.box.Box.Offset, ErrUnsupportedVariant)
		return
	}
	entryCountBuf, err := r.ReadExact(4)
	if err != nil {
		return
	}
	offset = 8
	entryCount := binary.BigEndian.Uint32(entryCountBuf)
	entrySize := uint64(12)
	if elst.box.Version == 1 {
		entrySize = 20
	}
	if err = checkEntryCount(elst.box.Box, entryCount, entrySize, FullBoxLen+4); err != nil {
		return
	}
	buf, err := r.ReadExact(int(entryCount) * int(entrySize))
	if err != nil {
		return
	}
	elst.entryList = new(movelst)
	elst.entryList.entrys = make([]elstEntry, entryCount)
	idx := 0
	for i := 0; i < int(entryCount); i++ {
		if elst.box.Version == 1 {
			elst.entryList.entrys[i].segmentDuration = binary.BigEndian.Uint64(buf[idx:])
			idx += 8
			elst.entryList.entrys[i].mediaTime = int64(binary.BigEndian.Uint64(buf[idx:]))
			idx += 8
		} else {
			elst.entryList.entrys[i].segmentDuration = uint64(binary.BigEndian.Uint32(buf[idx:]))
			idx += 4
			elst.entryList.entrys[i].mediaTime = int64(int32(binary.BigEndian.Uint32(buf[idx:])))
			idx += 4
		}
		elst.entryList.entrys[i].mediaRateInteger = int16(binary.BigEndian.Uint16(buf[idx:]))
		idx += 2
		elst.entryList.entrys[i].mediaRateFraction = int16(binary.BigEndian.Uint16(buf[idx:]))
		idx += 2
	}
	offset += idx
	return
}

func (elst *EditListBox) Encode() (int, []byte) {
	elst.box.Box.Size = elst.Size()
	offset, buf := elst.box.Encode()
	binary.BigEndian.PutUint32(buf[offset:], uint32(len(elst.entryList.entrys)))
	offset += 4
	for i := range elst.entryList.entrys {
		if elst.box.Version == 1 {
			binary.BigEndian.PutUint64(buf[offset:], elst.entryList.entrys[i].segmentDuration)
			offset += 8
			binary.BigEndian.PutUint64(buf[offset:], uint64(elst.entryList.entrys[i].mediaTime))
			offset += 8
		} else {
			binary.BigEndian.PutUint32(buf[offset:], uint32(elst.entryList.entrys[i].segmentDuration))
			offset += 4
			binary.BigEndian.PutUint32(buf[offset:], uint32(elst.entryList.entrys[i].mediaTime))
			offset += 4
		}
		binary.BigEndian.PutUint16(buf[offset:], uint16(elst.entryList.entrys[i].mediaRateInteger))
		offset += 2
		binary.BigEndian.PutUint16(buf[offset:], uint16(elst.entryList.entrys[i].mediaRateFraction))
		offset += 2
	}
	return offset, buf
}

// makeEdtsBox wraps the edit list in its edts container. Version 1 is used
// when any field overflows the 32-bit form.
func makeEdtsBox(elst *movelst) []byte {
	var version uint8
	for i := range elst.entrys {
		if elst.entrys[i].segmentDuration > 0xFFFFFFFF ||
			elst.entrys[i].mediaTime > 0x7FFFFFFF || elst.entrys[i].mediaTime < -0x80000000 {
			version = 1
			break
		}
	}
	elstbox := NewEditListBox(version)
	elstbox.entryList = elst
	_, elstdata := elstbox.Encode()

	edts := NewBasicBox(TypeEDTS)
	edts.Size = BasicBoxLen + uint64(len(elstdata))
	offset, edtsdata := edts.Encode()
	copy(edtsdata[offset:], elstdata)
	return edtsdata
}

func decodeElstBox(demuxer *MovDemuxer) (err error) {
	elst := EditListBox{box: &FullBox{Box: demuxer.currentBox()}}
	if _, err = elst.Decode(demuxer.reader); err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.elst = elst.entryList
	return
}
