package mp4

import (
	"encoding/binary"

	"github.com/yapingcat/gomedia/go-codec"
)

// aligned(8) class MediaHeaderBox extends FullBox(‘mdhd’, version, 0) {
// 		if (version==1) {
// 			unsigned int(64)  creation_time;
// 			unsigned int(64)  modification_time;
// 			unsigned int(32)  timescale;
// 			unsigned int(64)  duration;
// 		} else { // version==0
// 			unsigned int(32)  creation_time;
// 			unsigned int(32)  modification_time;
// 			unsigned int(32)  timescale;
// 			unsigned int(32)  duration;
// 		}
// 		bit(1) pad = 0;
// 		unsigned int(5)[3] language; // ISO-639-2/T language code
// 		unsigned int(16) pre_defined = 0;
// }

type MediaHeaderBox struct {
	box              *FullBox
	CreationTime     uint64
	ModificationTime uint64
	Timescale        uint32
	Duration         uint64
	Pad              uint8
	Language         [3]uint8
}

func NewMediaHeaderBox() *MediaHeaderBox {
	return &MediaHeaderBox{
		box: NewFullBox(TypeMDHD, 0),
		// und
		Language: [3]uint8{'u' - 0x60, 'n' - 0x60, 'd' - 0x60},
	}
}

func (mdhd *MediaHeaderBox) Size() uint64 {
	if mdhd.box.Version == 1 {
		return mdhd.box.Size() + 32
	}
	return mdhd.box.Size() + 20
}

func (mdhd *MediaHeaderBox) Decode(r *movReader) (offset int, err error) {
	if _, err = mdhd.box.Decode(r); err != nil {
		return
	}
	if mdhd.box.Version > 1 {
		err = boxErr(mdhd.box.Box.Type, mdhd.box.Box.Offset, ErrUnsupportedVariant)
		return
	}
	need := 20
	if mdhd.box.Version == 1 {
		need = 32
	}
	buf, err := r.ReadExact(need)
	if err != nil {
		return
	}
	if mdhd.box.Version == 1 {
		mdhd.CreationTime = binary.BigEndian.Uint64(buf)
		mdhd.ModificationTime = binary.BigEndian.Uint64(buf[8:])
		mdhd.Timescale = binary.BigEndian.Uint32(buf[16:])
		mdhd.Duration = binary.BigEndian.Uint64(buf[20:])
		offset = 28
	} else {
		mdhd.CreationTime = uint64(binary.BigEndian.Uint32(buf))
		mdhd.ModificationTime = uint64(binary.BigEndian.Uint32(buf[4:]))
		mdhd.Timescale = binary.BigEndian.Uint32(buf[8:])
		mdhd.Duration = uint64(binary.BigEndian.Uint32(buf[12:]))
		offset = 16
	}
	bs := codec.NewBitStream(buf[offset:])
	mdhd.Pad = bs.GetBit()
	mdhd.Language[0] = bs.Uint8(5)
	mdhd.Language[1] = bs.Uint8(5)
	mdhd.Language[2] = bs.Uint8(5)
	offset += 4
	return
}

func (mdhd *MediaHeaderBox) Encode() (int, []byte) {
	if mdhd.CreationTime > 0xFFFFFFFF || mdhd.ModificationTime > 0xFFFFFFFF || mdhd.Duration > 0xFFFFFFFF {
		mdhd.box.Version = 1
	}
	mdhd.box.Box.Size = mdhd.Size()
	offset, buf := mdhd.box.Encode()
	if mdhd.box.Version == 1 {
		binary.BigEndian.PutUint64(buf[offset:], mdhd.CreationTime)
		offset += 8
		binary.BigEndian.PutUint64(buf[offset:], mdhd.ModificationTime)
		offset += 8
		binary.BigEndian.PutUint32(buf[offset:], mdhd.Timescale)
		offset += 4
		binary.BigEndian.PutUint64(buf[offset:], mdhd.Duration)
		offset += 8
	} else {
		binary.BigEndian.PutUint32(buf[offset:], uint32(mdhd.CreationTime))
		offset += 4
		binary.BigEndian.PutUint32(buf[offset:], uint32(mdhd.ModificationTime))
		offset += 4
		binary.BigEndian.PutUint32(buf[offset:], mdhd.Timescale)
		offset += 4
		binary.BigEndian.PutUint32(buf[offset:], uint32(mdhd.Duration))
		offset += 4
	}
	buf[offset] = mdhd.Pad<<7 | ((mdhd.Language[0] & 0x1F) << 2) | ((mdhd.Language[1] & 0x1F) >> 3)
	offset++
	buf[offset] = ((mdhd.Language[1] & 0x1F) << 5) | (mdhd.Language[2] & 0x1F)
	offset++
	return offset + 2, buf
}

func makeMdhdBox(track *mp4track) []byte {
	mdhd := NewMediaHeaderBox()
	mdhd.Timescale = track.timescale
	mdhd.Duration = track.duration
	_, boxdata := mdhd.Encode()
	return boxdata
}

func decodeMdhdBox(demuxer *MovDemuxer) (err error) {
	mdhd := MediaHeaderBox{box: &FullBox{Box: demuxer.currentBox()}}
	if _, err = mdhd.Decode(demuxer.reader); err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.timescale = mdhd.Timescale
	track.duration = mdhd.Duration
	track.language = mdhd.Language
	return
}
