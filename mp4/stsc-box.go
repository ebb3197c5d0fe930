package mp4

import (
	"encoding/binary"
)

// aligned(8) class SampleToChunkBox extends FullBox(‘stsc’, version = 0, 0) {
//     unsigned int(32) entry_count;
//     for (i=1; i <= entry_count; i++) {
//         unsigned int(32) first_chunk;
//         unsigned int(32) samples_per_chunk;
//         unsigned int(32) sample_description_index;
//     }
// }

type SampleToChunkBox struct {
	box       *FullBox
	entryList *movstsc
}

func NewSampleToChunkBox() *SampleToChunkBox {
	return &SampleToChunkBox{
		box: NewFullBox(TypeSTSC, 0),
	}
}

func (stsc *SampleToChunkBox) Size() uint64 {
	if stsc.entryList == nil {
		return stsc.box.Size() + 4
	}
	return stsc.box.Size() + 4 + 12*uint64(len(stsc.entryList.entrys))
}

func (stsc *SampleToChunkBox) Decode(r *movReader) (offset int, err error) {
	if _, err = stsc.box.Decode(r); err != nil {
		return
	}
	entryCountBuf, err := r.ReadExact(4)
	if err != nil {
		return
	}
	offset = 8
	entryCount := binary.BigEndian.Uint32(entryCountBuf)
	if err = checkEntryCount(stsc.box.Box, entryCount, 12, FullBoxLen+4); err != nil {
		return
	}
	stsc.entryList = new(movstsc)
	stsc.entryList.entrys = make([]stscEntry, entryCount)
	buf, err := r.ReadExact(int(entryCount) * 12)
	if err != nil {
		return
	}
	idx := 0
	for i := 0; i < int(entryCount); i++ {
		stsc.entryList.entrys[i].firstChunk = binary.BigEndian.Uint32(buf[idx:])
		idx += 4
		stsc.entryList.entrys[i].samplesPerChunk = binary.BigEndian.Uint32(buf[idx:])
		idx += 4
		stsc.entryList.entrys[i].sampleDescriptionIndex = binary.BigEndian.Uint32(buf[idx:])
		idx += 4
	}
	offset += idx
	return
}

func (stsc *SampleToChunkBox) Encode() (int, []byte) {
	stsc.box.Box.Size = stsc.Size()
	offset, buf := stsc.box.Encode()
	binary.BigEndian.PutUint32(buf[offset:], uint32(len(stsc.entryList.entrys)))
	offset += 4
	for i := range stsc.entryList.entrys {
		binary.BigEndian.PutUint32(buf[offset:], stsc.entryList.entrys[i].firstChunk)
		offset += 4
		binary.BigEndian.PutUint32(buf[offset:], stsc.entryList.entrys[i].samplesPerChunk)
		offset += 4
		binary.BigEndian.PutUint32(buf[offset:], stsc.entryList.entrys[i].sampleDescriptionIndex)
		offset += 4
	}
	return offset, buf
}

func makeStsc(stsc *movstsc) (boxdata []byte) {
	stscbox := NewSampleToChunkBox()
	stscbox.entryList = stsc
	_, boxdata = stscbox.Encode()
	return
}

func decodeStscBox(demuxer *MovDemuxer) (err error) {
	stsc := SampleToChunkBox{box: &FullBox{Box: demuxer.currentBox()}}
	if _, err = stsc.Decode(demuxer.reader); err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.stbl.stsc = stsc.entryList
	return
}
