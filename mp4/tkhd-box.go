package mp4

import (
	"encoding/binary"
)

// aligned(8) class TrackHeaderBox extends FullBox(‘tkhd’, version, flags) {
// 		if (version==1) {
// 			unsigned int(64) creation_time;
// 			unsigned int(64) modification_time;
// 			unsigned int(32) track_ID;
// 			const unsigned int(32) reserved = 0;
// 			unsigned int(64) duration;
// 		} else { // version==0
// 			unsigned int(32) creation_time;
// 			unsigned int(32) modification_time;
// 			unsigned int(32) track_ID;
// 			const unsigned int(32) reserved = 0;
// 			unsigned int(32) duration;
// 		}
// 		const unsigned int(32)[2] reserved = 0;
// 		template int(16) layer = 0;
// 		template int(16) alternate_group = 0;
// 		template int(16) volume = {if track_is_audio 0x0100 else 0};
// 		const unsigned int(16) reserved = 0;
// 		template int(32)[9] matrix = { 0x00010000,0,0,0,0x00010000,0,0,0,0x40000000 };
// 		unsigned int(32) width;
// 		unsigned int(32) height;
// }

type TrackHeaderBox struct {
	box              *FullBox
	CreationTime     uint64
	ModificationTime uint64
	TrackId          uint32
	Duration         uint64
	Layer            int16
	AlternateGroup   int16
	Volume           uint16
	Matrix           [9]uint32
	Width            uint32
	Height           uint32
}

func NewTrackHeaderBox() *TrackHeaderBox {
	tkhd := &TrackHeaderBox{
		box:    NewFullBox(TypeTKHD, 0),
		Matrix: [9]uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000},
	}
	// track_enabled | track_in_movie
	tkhd.box.Flags = [3]byte{0x00, 0x00, 0x03}
	return tkhd
}

func (tkhd *TrackHeaderBox) Size() uint64 {
	if tkhd.box.Version == 1 {
		return tkhd.box.Size() + 92
	}
	return tkhd.box.Size() + 80
}

func (tkhd *TrackHeaderBox) Decode(r *movReader) (offset int, err error) {
	if _, err = tkhd.box.Decode(r); err != nil {
		return
	}
	if tkhd.box.Version > 1 {
		err = boxErr(tkhd.box.Box.Type, tkhd.box.Box.Offset, ErrUnsupportedVariant)
		return
	}
	need := 80
	if tkhd.box.Version == 1 {
		need = 92
	}
	buf, err := r.ReadExact(need)
	if err != nil {
		return
	}
	if tkhd.box.Version == 1 {
		tkhd.CreationTime = binary.BigEndian.Uint64(buf)
		tkhd.ModificationTime = binary.BigEndian.Uint64(buf[8:])
		tkhd.TrackId = binary.BigEndian.Uint32(buf[16:])
		tkhd.Duration = binary.BigEndian.Uint64(buf[24:])
		offset = 32
	} else {
		tkhd.CreationTime = uint64(binary.BigEndian.Uint32(buf))
		tkhd.ModificationTime = uint64(binary.BigEndian.Uint32(buf[4:]))
		tkhd.TrackId = binary.BigEndian.Uint32(buf[8:])
		tkhd.Duration = uint64(binary.BigEndian.Uint32(buf[16:]))
		offset = 20
	}
	offset += 8 // reserved
	tkhd.Layer = int16(binary.BigEndian.Uint16(buf[offset:]))
	offset += 2
	tkhd.AlternateGroup = int16(binary.BigEndian.Uint16(buf[offset:]))
	offset += 2
	tkhd.Volume = binary.BigEndian.Uint16(buf[offset:])
	offset += 4 // volume + reserved
	for i := 0; i < 9; i++ {
		tkhd.Matrix[i] = binary.BigEndian.Uint32(buf[offset:])
		offset += 4
	}
	tkhd.Width = binary.BigEndian.Uint32(buf[offset:])
	offset += 4
	tkhd.Height = binary.BigEndian.Uint32(buf[offset:])
	offset += 4
	offset += FullBoxLen
	return
}

func (tkhd *TrackHeaderBox) Encode() (int, []byte) {
	if tkhd.CreationTime > 0xFFFFFFFF || tkhd.ModificationTime > 0xFFFFFFFF || tkhd.Duration > 0xFFFFFFFF {
		tkhd.box.Version = 1
	}
	tkhd.box.Box.Size = tkhd.Size()
	offset, buf := tkhd.box.Encode()
	if tkhd.box.Version == 1 {
		binary.BigEndian.PutUint64(buf[offset:], tkhd.CreationTime)
		offset += 8
		binary.BigEndian.PutUint64(buf[offset:], tkhd.ModificationTime)
		offset += 8
		binary.BigEndian.PutUint32(buf[offset:], tkhd.TrackId)
		offset += 8 // track_ID + reserved
		binary.BigEndian.PutUint64(buf[offset:], tkhd.Duration)
		offset += 8
	} else {
		binary.BigEndian.PutUint32(buf[offset:], uint32(tkhd.CreationTime))
		offset += 4
		binary.BigEndian.PutUint32(buf[offset:], uint32(tkhd.ModificationTime))
		offset += 4
		binary.BigEndian.PutUint32(buf[offset:], tkhd.TrackId)
		offset += 8
		binary.BigEndian.PutUint32(buf[offset:], uint32(tkhd.Duration))
		offset += 4
	}
	offset += 8
	binary.BigEndian.PutUint16(buf[offset:], uint16(tkhd.Layer))
	offset += 2
	binary.BigEndian.PutUint16(buf[offset:], uint16(tkhd.AlternateGroup))
	offset += 2
	binary.BigEndian.PutUint16(buf[offset:], tkhd.Volume)
	offset += 4
	for i := 0; i < 9; i++ {
		binary.BigEndian.PutUint32(buf[offset:], tkhd.Matrix[i])
		offset += 4
	}
	binary.BigEndian.PutUint32(buf[offset:], tkhd.Width)
	offset += 4
	binary.BigEndian.PutUint32(buf[offset:], tkhd.Height)
	offset += 4
	return offset, buf
}

// makeTkhdBox writes width and height in 16.16 fixed point for video tracks
// and full volume for audio tracks.
func makeTkhdBox(track *mp4track) []byte {
	tkhd := NewTrackHeaderBox()
	tkhd.TrackId = track.trackId
	tkhd.Duration = track.movieDuration()
	if track.cid.isVideo() {
		tkhd.Width = track.width << 16
		tkhd.Height = track.height << 16
	} else if track.cid.isAudio() {
		tkhd.Volume = 0x0100
	}
	_, boxdata := tkhd.Encode()
	return boxdata
}

func decodeTkhdBox(demuxer *MovDemuxer) (err error) {
	tkhd := TrackHeaderBox{box: &FullBox{Box: demuxer.currentBox()}}
	if _, err = tkhd.Decode(demuxer.reader); err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.trackId = tkhd.TrackId
	track.tkhdDuration = tkhd.Duration
	track.width = tkhd.Width >> 16
	track.height = tkhd.Height >> 16
	track.volume = tkhd.Volume
	track.layer = tkhd.Layer
	return
}
