package mp4

import (
	"encoding/binary"
)

// aligned(8) class SampleSizeBox extends FullBox(‘stsz’, version = 0, 0) {
// 		unsigned int(32) sample_size;
// 		unsigned int(32) sample_count;
// 		if (sample_size==0) {
// 			for (i=1; i <= sample_count; i++) {
// 				unsigned int(32) entry_size;
// 			}
// 		}
// }

type SampleSizeBox struct {
	box  *FullBox
	stsz *movstsz
}

func NewSampleSizeBox() *SampleSizeBox {
	return &SampleSizeBox{
		box: NewFullBox(TypeSTSZ, 0),
	}
}

func (stsz *SampleSizeBox) Size() uint64 {
	if stsz.stsz == nil {
		return stsz.box.Size() + 8
	} else if stsz.stsz.sampleSize == 0 {
		return stsz.box.Size() + 8 + 4*uint64(stsz.stsz.sampleCount)
	} else {
		return stsz.box.Size() + 8
	}
}

func (stsz *SampleSizeBox) Decode(r *movReader) (offset int, err error) {
	if _, err = stsz.box.Decode(r); err != nil {
		return
	}
	tmp, err := r.ReadExact(8)
	if err != nil {
		return
	}
	offset = 12
	stsz.stsz = new(movstsz)
	stsz.stsz.sampleSize = binary.BigEndian.Uint32(tmp)
	stsz.stsz.sampleCount = binary.BigEndian.Uint32(tmp[4:])
	if stsz.stsz.sampleSize == 0 {
		if err = checkEntryCount(stsz.box.Box, stsz.stsz.sampleCount, 4, FullBoxLen+8); err != nil {
			return
		}
		buf, rerr := r.ReadExact(int(stsz.stsz.sampleCount) * 4)
		if rerr != nil {
			err = rerr
			return
		}
		idx := 0
		stsz.stsz.entrySizelist = make([]uint32, stsz.stsz.sampleCount)
		for i := 0; i < int(stsz.stsz.sampleCount); i++ {
			stsz.stsz.entrySizelist[i] = binary.BigEndian.Uint32(buf[idx:])
			idx += 4
		}
		offset += idx
	}
	return
}

func (stsz *SampleSizeBox) Encode() (int, []byte) {
	if stsz.stsz.sampleSize == 0 {
		stsz.stsz.sampleCount = uint32(len(stsz.stsz.entrySizelist))
	}
	stsz.box.Box.Size = stsz.Size()
	offset, buf := stsz.box.Encode()
	binary.BigEndian.PutUint32(buf[offset:], stsz.stsz.sampleSize)
	offset += 4
	binary.BigEndian.PutUint32(buf[offset:], stsz.stsz.sampleCount)
	offset += 4
	if stsz.stsz.sampleSize == 0 {
		for i := 0; i < int(stsz.stsz.sampleCount); i++ {
			binary.BigEndian.PutUint32(buf[offset:], stsz.stsz.entrySizelist[i])
			offset += 4
		}
	}
	return offset, buf
}

// aligned(8) class CompactSampleSizeBox extends FullBox(‘stz2’, version = 0, 0) {
// 		unsigned int(24) reserved = 0;
// 		unsigned int(8) field_size;
// 		unsigned int(32) sample_count;
// 		for (i=1; i <= sample_count; i++) {
// 			unsigned int(field_size) entry_size;
// 		}
// }

type CompactSampleSizeBox struct {
	box       *FullBox
	fieldSize uint8
	stsz      *movstsz
}

func (stz2 *CompactSampleSizeBox) Decode(r *movReader) (offset int, err error) {
	if _, err = stz2.box.Decode(r); err != nil {
		return
	}
	tmp, err := r.ReadExact(8)
	if err != nil {
		return
	}
	offset = 12
	stz2.fieldSize = tmp[3]
	sampleCount := binary.BigEndian.Uint32(tmp[4:])
	if stz2.fieldSize != 4 && stz2.fieldSize != 8 && stz2.fieldSize != 16 {
		err = boxErr(stz2.box.Box.Type, stz2.box.Box.Offset, ErrUnsupportedVariant)
		return
	}
	tableLen := (int(sampleCount)*int(stz2.fieldSize) + 7) / 8
	if uint64(tableLen) > stz2.box.Box.Size-FullBoxLen-8 {
		err = boxErr(stz2.box.Box.Type, stz2.box.Box.Offset, ErrTruncated)
		return
	}
	buf, err := r.ReadExact(tableLen)
	if err != nil {
		return
	}
	stz2.stsz = &movstsz{
		sampleCount:   sampleCount,
		entrySizelist: make([]uint32, sampleCount),
	}
	for i := 0; i < int(sampleCount); i++ {
		switch stz2.fieldSize {
		case 4:
			b := buf[i/2]
			if i%2 == 0 {
				stz2.stsz.entrySizelist[i] = uint32(b >> 4)
			} else {
				stz2.stsz.entrySizelist[i] = uint32(b & 0x0F)
			}
		case 8:
			stz2.stsz.entrySizelist[i] = uint32(buf[i])
		case 16:
			stz2.stsz.entrySizelist[i] = uint32(binary.BigEndian.Uint16(buf[i*2:]))
		}
	}
	offset += tableLen
	return
}

// makeStsz collapses to the single-constant form only when every sample
// shares exactly one size. Compact stz2 tables always re-encode as stsz.
func makeStsz(stsz *movstsz) (boxdata []byte) {
	stszbox := NewSampleSizeBox()
	stszbox.stsz = stsz
	_, boxdata = stszbox.Encode()
	return
}

func decodeStszBox(demuxer *MovDemuxer) (err error) {
	stsz := SampleSizeBox{box: &FullBox{Box: demuxer.currentBox()}}
	if _, err = stsz.Decode(demuxer.reader); err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.stbl.stsz = stsz.stsz
	return
}

func decodeStz2Box(demuxer *MovDemuxer) (err error) {
	stz2 := CompactSampleSizeBox{box: &FullBox{Box: demuxer.currentBox()}}
	if _, err = stz2.Decode(demuxer.reader); err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.stbl.stsz = stz2.stsz
	return
}
