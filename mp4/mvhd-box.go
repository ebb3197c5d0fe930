package mp4

import (
	"encoding/binary"
)

// aligned(8) class MovieHeaderBox extends FullBox(‘mvhd’, version, 0) {
// 		if (version==1) {
// 			unsigned int(64) creation_time;
// 			unsigned int(64) modification_time;
// 			unsigned int(32) timescale;
// 			unsigned int(64) duration;
// 		} else { // version==0
// 			unsigned int(32) creation_time;
// 			unsigned int(32) modification_time;
// 			unsigned int(32) timescale;
// 			unsigned int(32) duration;
// 		}
// 		template int(32) rate = 0x00010000; // typically 1.0
// 		template int(16) volume = 0x0100; // typically, full volume
// 		const bit(16) reserved = 0;
// 		const unsigned int(32)[2] reserved = 0;
// 		template int(32)[9] matrix = { 0x00010000,0,0,0,0x00010000,0,0,0,0x40000000 };
// 		bit(32)[6] pre_defined = 0;
// 		unsigned int(32) next_track_ID;
// }

type MovieHeaderBox struct {
	box              *FullBox
	CreationTime     uint64
	ModificationTime uint64
	Timescale        uint32
	Duration         uint64
	Rate             uint32
	Volume           uint16
	Matrix           [9]uint32
	NextTrackId      uint32
}

func NewMovieHeaderBox() *MovieHeaderBox {
	return &MovieHeaderBox{
		box:    NewFullBox(TypeMVHD, 0),
		Rate:   0x00010000,
		Volume: 0x0100,
		Matrix: [9]uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000},
	}
}

func (mvhd *MovieHeaderBox) Size() uint64 {
	if mvhd.box.Version == 1 {
		return mvhd.box.Size() + 108
	}
	return mvhd.box.Size() + 96
}

func (mvhd *MovieHeaderBox) Decode(r *movReader) (offset int, err error) {
	if _, err = mvhd.box.Decode(r); err != nil {
		return
	}
	if mvhd.box.Version > 1 {
		err = boxErr(mvhd.box.Box.Type, mvhd.box.Box.Offset, ErrUnsupportedVariant)
		return
	}
	need := 96
	if mvhd.box.Version == 1 {
		need = 108
	}
	buf, err := r.ReadExact(need)
	if err != nil {
		return
	}
	if mvhd.box.Version == 1 {
		mvhd.CreationTime = binary.BigEndian.Uint64(buf)
		mvhd.ModificationTime = binary.BigEndian.Uint64(buf[8:])
		mvhd.Timescale = binary.BigEndian.Uint32(buf[16:])
		mvhd.Duration = binary.BigEndian.Uint64(buf[20:])
		offset = 28
	} else {
		mvhd.CreationTime = uint64(binary.BigEndian.Uint32(buf))
		mvhd.ModificationTime = uint64(binary.BigEndian.Uint32(buf[4:]))
		mvhd.Timescale = binary.BigEndian.Uint32(buf[8:])
		mvhd.Duration = uint64(binary.BigEndian.Uint32(buf[12:]))
		offset = 16
	}
	mvhd.Rate = binary.BigEndian.Uint32(buf[offset:])
	offset += 4
	mvhd.Volume = binary.BigEndian.Uint16(buf[offset:])
	offset += 2
	offset += 10 // reserved
	for i := 0; i < 9; i++ {
		mvhd.Matrix[i] = binary.BigEndian.Uint32(buf[offset:])
		offset += 4
	}
	offset += 24 // pre_defined
	mvhd.NextTrackId = binary.BigEndian.Uint32(buf[offset:])
	offset += 4
	offset += FullBoxLen
	return
}

func (mvhd *MovieHeaderBox) Encode() (int, []byte) {
	if mvhd.CreationTime > 0xFFFFFFFF || mvhd.ModificationTime > 0xFFFFFFFF || mvhd.Duration > 0xFFFFFFFF {
		mvhd.box.Version = 1
	}
	mvhd.box.Box.Size = mvhd.Size()
	offset, buf := mvhd.box.Encode()
	if mvhd.box.Version == 1 {
		binary.BigEndian.PutUint64(buf[offset:], mvhd.CreationTime)
		offset += 8
		binary.BigEndian.PutUint64(buf[offset:], mvhd.ModificationTime)
		offset += 8
		binary.BigEndian.PutUint32(buf[offset:], mvhd.Timescale)
		offset += 4
		binary.BigEndian.PutUint64(buf[offset:], mvhd.Duration)
		offset += 8
	} else {
		binary.BigEndian.PutUint32(buf[offset:], uint32(mvhd.CreationTime))
		offset += 4
		binary.BigEndian.PutUint32(buf[offset:], uint32(mvhd.ModificationTime))
		offset += 4
		binary.BigEndian.PutUint32(buf[offset:], mvhd.Timescale)
		offset += 4
		binary.BigEndian.PutUint32(buf[offset:], uint32(mvhd.Duration))
		offset += 4
	}
	binary.BigEndian.PutUint32(buf[offset:], mvhd.Rate)
	offset += 4
	binary.BigEndian.PutUint16(buf[offset:], mvhd.Volume)
	offset += 2
	offset += 10
	for i := 0; i < 9; i++ {
		binary.BigEndian.PutUint32(buf[offset:], mvhd.Matrix[i])
		offset += 4
	}
	offset += 24
	binary.BigEndian.PutUint32(buf[offset:], mvhd.NextTrackId)
	offset += 4
	return offset, buf
}

func makeMvhdBox(info *MovInfo) []byte {
	mvhd := NewMovieHeaderBox()
	mvhd.CreationTime = info.CreationTime
	mvhd.ModificationTime = info.ModificationTime
	mvhd.Timescale = info.Timescale
	mvhd.Duration = info.Duration
	if info.Rate != 0 {
		mvhd.Rate = info.Rate
	}
	if info.Volume != 0 {
		mvhd.Volume = info.Volume
	}
	if info.Matrix != ([9]uint32{}) {
		mvhd.Matrix = info.Matrix
	}
	mvhd.NextTrackId = info.NextTrackId
	_, boxdata := mvhd.Encode()
	return boxdata
}

func decodeMvhdBox(demuxer *MovDemuxer) (err error) {
	mvhd := MovieHeaderBox{box: &FullBox{Box: demuxer.currentBox()}}
	if _, err = mvhd.Decode(demuxer.reader); err != nil {
		return
	}
	demuxer.mp4Info.CreationTime = mvhd.CreationTime
	demuxer.mp4Info.ModificationTime = mvhd.ModificationTime
	demuxer.mp4Info.Timescale = mvhd.Timescale
	demuxer.mp4Info.Duration = mvhd.Duration
	demuxer.mp4Info.Rate = mvhd.Rate
	demuxer.mp4Info.Volume = mvhd.Volume
	demuxer.mp4Info.Matrix = mvhd.Matrix
	demuxer.mp4Info.NextTrackId = mvhd.NextTrackId
	return
}
