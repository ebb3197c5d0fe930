package mp4

import (
	"encoding/binary"
	"math"
)

// aligned(8) class ChunkOffsetBox extends FullBox(‘stco’, version = 0, 0) {
// 		unsigned int(32) entry_count;
// 		for (i=1; i <= entry_count; i++) {
// 			unsigned int(32) chunk_offset;
// 		}
// }

type ChunkOffsetBox struct {
	box       *FullBox
	entryList *movstco
}

func NewChunkOffsetBox() *ChunkOffsetBox {
	return &ChunkOffsetBox{
		box: NewFullBox(TypeSTCO, 0),
	}
}

func (stco *ChunkOffsetBox) Size() uint64 {
	if stco.entryList == nil {
		return stco.box.Size() + 4
	}
	return stco.box.Size() + 4 + 4*uint64(len(stco.entryList.chunkOffsetlist))
}

func (stco *ChunkOffsetBox) Decode(r *movReader) (offset int, err error) {
	if _, err = stco.box.Decode(r); err != nil {
		return
	}
	entryCountBuf, err := r.ReadExact(4)
	if err != nil {
		return
	}
	offset = 8
	entryCount := binary.BigEndian.Uint32(entryCountBuf)
	if err = checkEntryCount(stco.box.Box, entryCount, 4, FullBoxLen+4); err != nil {
		return
	}
	stco.entryList = new(movstco)
	stco.entryList.chunkOffsetlist = make([]uint64, entryCount)
	buf, err := r.ReadExact(int(entryCount) * 4)
	if err != nil {
		return
	}
	idx := 0
	for i := 0; i < int(entryCount); i++ {
		stco.entryList.chunkOffsetlist[i] = uint64(binary.BigEndian.Uint32(buf[idx:]))
		idx += 4
	}
	offset += idx
	return
}

func (stco *ChunkOffsetBox) Encode() (int, []byte) {
	stco.box.Box.Size = stco.Size()
	offset, buf := stco.box.Encode()
	binary.BigEndian.PutUint32(buf[offset:], uint32(len(stco.entryList.chunkOffsetlist)))
	offset += 4
	for i := range stco.entryList.chunkOffsetlist {
		binary.BigEndian.PutUint32(buf[offset:], uint32(stco.entryList.chunkOffsetlist[i]))
		offset += 4
	}
	return offset, buf
}

// aligned(8) class ChunkLargeOffsetBox extends FullBox(‘co64’, version = 0, 0) {
// 		unsigned int(32) entry_count;
// 		for (i=1; i <= entry_count; i++) {
// 			unsigned int(64) chunk_offset;
// 		}
// }

type ChunkLargeOffsetBox struct {
	box       *FullBox
	entryList *movstco
}

func NewChunkLargeOffsetBox() *ChunkLargeOffsetBox {
	return &ChunkLargeOffsetBox{
		box: NewFullBox(TypeCO64, 0),
	}
}

func (co64 *ChunkLargeOffsetBox) Size() uint64 {
	if co64.entryList == nil {
		return co64.box.Size() + 4
	}
	return co64.box.Size() + 4 + 8*uint64(len(co64.entryList.chunkOffsetlist))
}

func (co64 *ChunkLargeOffsetBox) Decode(r *movReader) (offset int, err error) {
	if _, err = co64.box.Decode(r); err != nil {
		return
	}
	entryCountBuf, err := r.ReadExact(4)
	if err != nil {
		return
	}
	offset = 8
	entryCount := binary.BigEndian.Uint32(entryCountBuf)
	if err = checkEntryCount(co64.box.Box, entryCount, 8, FullBoxLen+4); err != nil {
		return
	}
	co64.entryList = new(movstco)
	co64.entryList.chunkOffsetlist = make([]uint64, entryCount)
	buf, err := r.ReadExact(int(entryCount) * 8)
	if err != nil {
		return
	}
	idx := 0
	for i := 0; i < int(entryCount); i++ {
		co64.entryList.chunkOffsetlist[i] = binary.BigEndian.Uint64(buf[idx:])
		idx += 8
	}
	offset += idx
	return
}

func (co64 *ChunkLargeOffsetBox) Encode() (int, []byte) {
	co64.box.Box.Size = co64.Size()
	offset, buf := co64.box.Encode()
	binary.BigEndian.PutUint32(buf[offset:], uint32(len(co64.entryList.chunkOffsetlist)))
	offset += 4
	for i := range co64.entryList.chunkOffsetlist {
		binary.BigEndian.PutUint64(buf[offset:], co64.entryList.chunkOffsetlist[i])
		offset += 8
	}
	return offset, buf
}

// makeStco picks co64 when any chunk offset overflows 32 bits.
func makeStco(stco *movstco) (boxdata []byte) {
	large := false
	for _, off := range stco.chunkOffsetlist {
		if off > math.MaxUint32 {
			large = true
			break
		}
	}
	if large {
		co64box := NewChunkLargeOffsetBox()
		co64box.entryList = stco
		_, boxdata = co64box.Encode()
	} else {
		stcobox := NewChunkOffsetBox()
		stcobox.entryList = stco
		_, boxdata = stcobox.Encode()
	}
	return
}

func decodeStcoBox(demuxer *MovDemuxer) (err error) {
	stco := ChunkOffsetBox{box: &FullBox{Box: demuxer.currentBox()}}
	if _, err = stco.Decode(demuxer.reader); err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.stbl.stco = stco.entryList
	return
}

func decodeCo64Box(demuxer *MovDemuxer) (err error) {
	co64 := ChunkLargeOffsetBox{box: &FullBox{Box: demuxer.currentBox()}}
	if _, err = co64.Decode(demuxer.reader); err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.stbl.stco = co64.entryList
	return
}
