package mp4

import (
	"encoding/binary"
)

// aligned(8) class TimeToSampleBox extends FullBox(’stts’, version = 0, 0) {
//     unsigned int(32) entry_count;
//     int i;
//     for (i=0; i < entry_count; i++) {
//         unsigned int(32) sample_count;
//         unsigned int(32) sample_delta;
//     }
// }

type TimeToSampleBox struct {
	box       *FullBox
	entryList *movstts
}

func NewTimeToSampleBox() *TimeToSampleBox {
	return &TimeToSampleBox{
		box: NewFullBox(TypeSTTS, 0),
	}
}

func (stts *TimeToSampleBox) Size() uint64 {
	if stts.entryList == nil {
		return stts.box.Size() + 4
	}
	return stts.box.Size() + 4 + 8*uint64(len(stts.entryList.entrys))
}

func (stts *TimeToSampleBox) Decode(r *movReader) (offset int, err error) {
	if _, err = stts.box.Decode(r); err != nil {
		return
	}
	entryCountBuf, err := r.ReadExact(4)
	if err != nil {
		return
	}
	offset = 8
	entryCount := binary.BigEndian.Uint32(entryCountBuf)
	if err = checkEntryCount(stts.box.Box, entryCount, 8, FullBoxLen+4); err != nil {
		return
	}
	stts.entryList = new(movstts)
	stts.entryList.entrys = make([]sttsEntry, entryCount)
	buf, err := r.ReadExact(int(entryCount) * 8)
	if err != nil {
		return
	}
	idx := 0
	for i := 0; i < int(entryCount); i++ {
		stts.entryList.entrys[i].sampleCount = binary.BigEndian.Uint32(buf[idx:])
		idx += 4
		stts.entryList.entrys[i].sampleDelta = binary.BigEndian.Uint32(buf[idx:])
		idx += 4
	}
	offset += idx
	return
}

func (stts *TimeToSampleBox) Encode() (int, []byte) {
	stts.box.Box.Size = stts.Size()
	offset, buf := stts.box.Encode()
	binary.BigEndian.PutUint32(buf[offset:], uint32(len(stts.entryList.entrys)))
	offset += 4
	for i := range stts.entryList.entrys {
		binary.BigEndian.PutUint32(buf[offset:], stts.entryList.entrys[i].sampleCount)
		offset += 4
		binary.BigEndian.PutUint32(buf[offset:], uint32(stts.entryList.entrys[i].sampleDelta))
		offset += 4
	}
	return offset, buf
}

// checkEntryCount rejects a declared entry count that cannot fit in the
// remaining payload, so a corrupt count never drives a huge allocation.
func checkEntryCount(box *BasicBox, entryCount uint32, entrySize uint64, fixed uint64) error {
	if box.Size < fixed || uint64(entryCount)*entrySize > box.Size-fixed {
		return boxErr(box.Type, box.Offset, ErrTruncated)
	}
	return nil
}

func makeStts(stts *movstts) (boxdata []byte) {
	sttsbox := NewTimeToSampleBox()
	sttsbox.entryList = stts
	_, boxdata = sttsbox.Encode()
	return
}

func decodeSttsBox(demuxer *MovDemuxer) (err error) {
	stts := TimeToSampleBox{box: &FullBox{Box: demuxer.currentBox()}}
	if _, err = stts.Decode(demuxer.reader); err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.stbl.stts = stts.entryList
	return
}
