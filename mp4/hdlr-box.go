package mp4

// aligned(8) class HandlerBox extends FullBox(‘hdlr’, version = 0, 0) {
// 		unsigned int(32) pre_defined = 0;
// 		unsigned int(32) handler_type;
// 		const unsigned int(32)[3] reserved = 0;
// 		string   name;
// }

type HandlerBox struct {
	box         *FullBox
	HandlerType [4]byte
	Name        string
}

func NewHandlerBox(handlerType [4]byte, name string) *HandlerBox {
	return &HandlerBox{
		box:         NewFullBox(TypeHDLR, 0),
		HandlerType: handlerType,
		Name:        name,
	}
}

func (hdlr *HandlerBox) Size() uint64 {
	return hdlr.box.Size() + 20 + uint64(len(hdlr.Name)) + 1
}

func (hdlr *HandlerBox) Decode(r *movReader) (offset int, err error) {
	if _, err = hdlr.box.Decode(r); err != nil {
		return
	}
	payload := int(hdlr.box.Box.Size) - hdlr.box.Box.HeaderLen - 4
	if payload < 20 {
		err = boxErr(hdlr.box.Box.Type, hdlr.box.Box.Offset, ErrInvalidHeader)
		return
	}
	buf, err := r.ReadExact(payload)
	if err != nil {
		return
	}
	copy(hdlr.HandlerType[:], buf[4:8])
	offset = 20
	name := buf[offset:]
	// the trailing NUL is not part of the name
	if n := len(name); n > 0 && name[n-1] == 0 {
		name = name[:n-1]
	}
	hdlr.Name = string(name)
	offset = payload
	return
}

func (hdlr *HandlerBox) Encode() (int, []byte) {
	hdlr.box.Box.Size = hdlr.Size()
	offset, buf := hdlr.box.Encode()
	offset += 4
	copy(buf[offset:], hdlr.HandlerType[:])
	offset += 4
	offset += 12
	copy(buf[offset:], hdlr.Name)
	offset += len(hdlr.Name)
	buf[offset] = 0
	offset++
	return offset, buf
}

func makeHdlrBox(handlerType [4]byte) []byte {
	var name string
	switch handlerType {
	case TypeVIDE:
		name = "VideoHandler"
	case TypeSOUN:
		name = "SoundHandler"
	default:
		name = "DataHandler"
	}
	hdlr := NewHandlerBox(handlerType, name)
	_, boxdata := hdlr.Encode()
	return boxdata
}

func decodeHdlrBox(demuxer *MovDemuxer) (err error) {
	hdlr := HandlerBox{box: &FullBox{Box: demuxer.currentBox()}}
	if _, err = hdlr.Decode(demuxer.reader); err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.handlerType = hdlr.HandlerType
	return
}
