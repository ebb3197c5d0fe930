package mp4

import (
	"encoding/binary"
)

// aligned(8) class SyncSampleBox extends FullBox(‘stss’, version = 0, 0) {
// 		unsigned int(32) entry_count;
// 		int i;
// 		for (i=0; i < entry_count; i++) {
// 			unsigned int(32) sample_number;
// 		}
// }

type SyncSampleBox struct {
	box       *FullBox
	entryList *movstss
}

func NewSyncSampleBox() *SyncSampleBox {
	return &SyncSampleBox{
		box: NewFullBox(TypeSTSS, 0),
	}
}

func (stss *SyncSampleBox) Size() uint64 {
	if stss.entryList == nil {
		return stss.box.Size() + 4
	}
	return stss.box.Size() + 4 + 4*uint64(len(stss.entryList.sampleNumber))
}

func (stss *SyncSampleBox) Decode(r *movReader) (offset int, err error) {
	if _, err = stss.box.Decode(r); err != nil {
		return
	}
	entryCountBuf, err := r.ReadExact(4)
	if err != nil {
		return
	}
	offset = 8
	entryCount := binary.BigEndian.Uint32(entryCountBuf)
	if err = checkEntryCount(stss.box.Box, entryCount, 4, FullBoxLen+4); err != nil {
		return
	}
	stss.entryList = new(movstss)
	stss.entryList.sampleNumber = make([]uint32, entryCount)
	buf, err := r.ReadExact(int(entryCount) * 4)
	if err != nil {
		return
	}
	idx := 0
	for i := 0; i < int(entryCount); i++ {
		stss.entryList.sampleNumber[i] = binary.BigEndian.Uint32(buf[idx:])
		idx += 4
	}
	offset += idx
	return
}

func (stss *SyncSampleBox) Encode() (int, []byte) {
	stss.box.Box.Size = stss.Size()
	offset, buf := stss.box.Encode()
	binary.BigEndian.PutUint32(buf[offset:], uint32(len(stss.entryList.sampleNumber)))
	offset += 4
	for i := range stss.entryList.sampleNumber {
		binary.BigEndian.PutUint32(buf[offset:], stss.entryList.sampleNumber[i])
		offset += 4
	}
	return offset, buf
}

func makeStss(stss *movstss) (boxdata []byte) {
	stssbox := NewSyncSampleBox()
	stssbox.entryList = stss
	_, boxdata = stssbox.Encode()
	return
}

func decodeStssBox(demuxer *MovDemuxer) (err error) {
	stss := SyncSampleBox{box: &FullBox{Box: demuxer.currentBox()}}
	if _, err = stss.Decode(demuxer.reader); err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.stbl.stss = stss.entryList
	return
}
