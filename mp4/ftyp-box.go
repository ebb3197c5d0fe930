package mp4

import (
	"encoding/binary"
)

// aligned(8) class FileTypeBox extends Box(‘ftyp’) {
// 		unsigned int(32) major_brand;
// 		unsigned int(32) minor_version;
// 		unsigned int(32) compatible_brands[]; // to end of the box
// }

type FileTypeBox struct {
	box              *BasicBox
	MajorBrand       uint32
	MinorVersion     uint32
	CompatibleBrands []uint32
}

func NewFileTypeBox() *FileTypeBox {
	return &FileTypeBox{
		box: NewBasicBox(TypeFTYP),
	}
}

func NewSegmentTypeBox() *FileTypeBox {
	return &FileTypeBox{
		box: NewBasicBox(TypeSTYP),
	}
}

func (ftyp *FileTypeBox) Size() uint64 {
	return BasicBoxLen + 8 + 4*uint64(len(ftyp.CompatibleBrands))
}

func (ftyp *FileTypeBox) Decode(r *movReader) (offset int, err error) {
	if ftyp.box.Size < BasicBoxLen+8 {
		err = boxErr(ftyp.box.Type, ftyp.box.Offset, ErrInvalidHeader)
		return
	}
	payload := int(ftyp.box.Size) - ftyp.box.HeaderLen
	buf, err := r.ReadExact(payload)
	if err != nil {
		return
	}
	ftyp.MajorBrand = binary.BigEndian.Uint32(buf)
	ftyp.MinorVersion = binary.BigEndian.Uint32(buf[4:])
	offset = 8
	n := (payload - offset) / 4
	ftyp.CompatibleBrands = make([]uint32, n)
	for i := 0; i < n; i++ {
		ftyp.CompatibleBrands[i] = binary.BigEndian.Uint32(buf[offset:])
		offset += 4
	}
	return
}

func (ftyp *FileTypeBox) Encode() (int, []byte) {
	ftyp.box.Size = ftyp.Size()
	offset, buf := ftyp.box.Encode()
	binary.BigEndian.PutUint32(buf[offset:], ftyp.MajorBrand)
	offset += 4
	binary.BigEndian.PutUint32(buf[offset:], ftyp.MinorVersion)
	offset += 4
	for i := range ftyp.CompatibleBrands {
		binary.BigEndian.PutUint32(buf[offset:], ftyp.CompatibleBrands[i])
		offset += 4
	}
	return offset, buf
}

func makeFtypBox(major uint32, minor uint32, compatible []uint32) []byte {
	ftyp := NewFileTypeBox()
	ftyp.MajorBrand = major
	ftyp.MinorVersion = minor
	ftyp.CompatibleBrands = compatible
	_, boxdata := ftyp.Encode()
	return boxdata
}

func decodeFtypBox(demuxer *MovDemuxer) (err error) {
	ftyp := FileTypeBox{box: demuxer.currentBox()}
	if _, err = ftyp.Decode(demuxer.reader); err != nil {
		return
	}
	demuxer.mp4Info.MajorBrand = ftyp.MajorBrand
	demuxer.mp4Info.MinorVersion = ftyp.MinorVersion
	demuxer.mp4Info.CompatibleBrands = ftyp.CompatibleBrands
	return
}
