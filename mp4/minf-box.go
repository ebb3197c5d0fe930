package mp4

import (
	"encoding/binary"
)

// aligned(8) class VideoMediaHeaderBox extends FullBox(‘vmhd’, version = 0, 1) {
// 		template unsigned int(16) graphicsmode = 0;
// 		template unsigned int(16)[3] opcolor = {0, 0, 0};
// }

func makeVmhdBox() []byte {
	vmhd := NewFullBox(TypeVMHD, 0)
	vmhd.Flags = [3]byte{0x00, 0x00, 0x01}
	vmhd.Box.Size = vmhd.Size() + 8
	_, boxdata := vmhd.Encode()
	return boxdata
}

// aligned(8) class SoundMediaHeaderBox extends FullBox(‘smhd’, version = 0, 0) {
// 		template int(16) balance = 0;
// 		const unsigned int(16) reserved = 0;
// }

func makeSmhdBox() []byte {
	smhd := NewFullBox(TypeSMHD, 0)
	smhd.Box.Size = smhd.Size() + 4
	_, boxdata := smhd.Encode()
	return boxdata
}

// makeDefaultDinfBox builds dinf/dref with the single self-contained url
// entry every self-referencing file carries.
func makeDefaultDinfBox() []byte {
	url := NewFullBox(TypeURL, 0)
	url.Flags = [3]byte{0x00, 0x00, 0x01}
	url.Box.Size = url.Size()
	_, urldata := url.Encode()

	dref := NewFullBox(TypeDREF, 0)
	dref.Box.Size = dref.Size() + 4 + uint64(len(urldata))
	offset, drefdata := dref.Encode()
	binary.BigEndian.PutUint32(drefdata[offset:], 1)
	copy(drefdata[offset+4:], urldata)

	dinf := NewBasicBox(TypeDINF)
	dinf.Size = BasicBoxLen + uint64(len(drefdata))
	offset, dinfdata := dinf.Encode()
	copy(dinfdata[offset:], drefdata)
	return dinfdata
}

func makeMinfBox(track *mp4track) []byte {
	var mhd []byte
	if track.cid.isVideo() {
		mhd = makeVmhdBox()
	} else {
		mhd = makeSmhdBox()
	}
	dinf := makeDefaultDinfBox()
	stbl := makeStblBox(track)

	minf := NewBasicBox(TypeMINF)
	minf.Size = BasicBoxLen + uint64(len(mhd)+len(dinf)+len(stbl))
	offset, minfdata := minf.Encode()
	copy(minfdata[offset:], mhd)
	offset += len(mhd)
	copy(minfdata[offset:], dinf)
	offset += len(dinf)
	copy(minfdata[offset:], stbl)
	return minfdata
}

func makeMdiaBox(track *mp4track) []byte {
	mdhd := makeMdhdBox(track)
	hdlr := makeHdlrBox(getHandlerTypeWithCodecId(track.cid))
	minf := makeMinfBox(track)

	mdia := NewBasicBox(TypeMDIA)
	mdia.Size = BasicBoxLen + uint64(len(mdhd)+len(hdlr)+len(minf))
	offset, mdiadata := mdia.Encode()
	copy(mdiadata[offset:], mdhd)
	offset += len(mdhd)
	copy(mdiadata[offset:], hdlr)
	offset += len(hdlr)
	copy(mdiadata[offset:], minf)
	return mdiadata
}

func makeTrakBox(track *mp4track) []byte {
	tkhd := makeTkhdBox(track)
	var edts []byte
	if track.elst != nil && len(track.elst.entrys) > 0 {
		edts = makeEdtsBox(track.elst)
	}
	mdia := makeMdiaBox(track)

	trak := NewBasicBox(TypeTRAK)
	trak.Size = BasicBoxLen + uint64(len(tkhd)+len(edts)+len(mdia))
	offset, trakdata := trak.Encode()
	copy(trakdata[offset:], tkhd)
	offset += len(tkhd)
	copy(trakdata[offset:], edts)
	offset += len(edts)
	copy(trakdata[offset:], mdia)
	return trakdata
}
