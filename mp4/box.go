package mp4

import (
	"encoding/binary"
	"math"
)

const (
	BasicBoxLen = 8
	FullBoxLen  = 12
)

func f(s string) [4]byte {
	return [4]byte([]byte(s))
}

var (
	TypeFTYP = f("ftyp")
	TypeSTYP = f("styp")
	TypeMOOV = f("moov")
	TypeMVHD = f("mvhd")
	TypeTRAK = f("trak")
	TypeTKHD = f("tkhd")
	TypeEDTS = f("edts")
	TypeELST = f("elst")
	TypeMDIA = f("mdia")
	TypeMDHD = f("mdhd")
	TypeHDLR = f("hdlr")
	TypeMINF = f("minf")
	TypeVMHD = f("vmhd")
	TypeSMHD = f("smhd")
	TypeHMHD = f("hmhd")
	TypeNMHD = f("nmhd")
	TypeDINF = f("dinf")
	TypeDREF = f("dref")
	TypeURL  = f("url ")
	TypeSTBL = f("stbl")
	TypeSTSD = f("stsd")
	TypeSTTS = f("stts")
	TypeCTTS = f("ctts")
	TypeSTSC = f("stsc")
	TypeSTSZ = f("stsz")
	TypeSTZ2 = f("stz2")
	TypeSTCO = f("stco")
	TypeCO64 = f("co64")
	TypeSTSS = f("stss")
	TypeMDAT = f("mdat")
	TypeFREE = f("free")
	TypeSKIP = f("skip")
	TypeUDTA = f("udta")
	TypeSIDX = f("sidx")
	TypeUUID = f("uuid")

	TypeAVC1 = f("avc1")
	TypeAVC3 = f("avc3")
	TypeHVC1 = f("hvc1")
	TypeHEV1 = f("hev1")
	TypeMP4A = f("mp4a")
	TypeULAW = f("ulaw")
	TypeALAW = f("alaw")
	TypeOPUS = f("opus")
	TypeAVCC = f("avcC")
	TypeHVCC = f("hvcC")
	TypeESDS = f("esds")

	TypeISOM = f("isom")
	TypeISO2 = f("iso2")
	TypeISO5 = f("iso5")
	TypeISO6 = f("iso6")
	TypeMP41 = f("mp41")
	TypeMP42 = f("mp42")

	TypeVIDE = f("vide")
	TypeSOUN = f("soun")
	TypeHINT = f("hint")
	TypeMETA = f("meta")
	TypeAUXV = f("auxv")
)

func mov_tag(tag [4]byte) uint32 {
	return binary.BigEndian.Uint32(tag[:])
}

// containerTypes is the closed table of box types whose payload is a
// sequence of child boxes. Everything else is a leaf: either a recognized
// type with its own codec, or an opaque payload kept verbatim.
var containerTypes = map[[4]byte]bool{
	TypeMOOV: true,
	TypeTRAK: true,
	TypeEDTS: true,
	TypeMDIA: true,
	TypeMINF: true,
	TypeDINF: true,
	TypeSTBL: true,
	TypeUDTA: true,
}

//	aligned(8) class Box (unsigned int(32) boxtype, optional unsigned int(8)[16] extended_type) {
//	    unsigned int(32) size;
//	    unsigned int(32) type = boxtype;
//	    if (size==1) {
//	       unsigned int(64) largesize;
//	    } else if (size==0) {
//	       // box extends to end of file
//	    }
//	    if (boxtype=='uuid') {
//	       unsigned int(8)[16] usertype = extended_type;
//	    }
//	}
type BasicBox struct {
	Offset   int64
	Size     uint64
	Type     [4]byte
	UserType [16]byte

	// HeaderLen is the number of header bytes on the wire (8, 16, 24 or 32).
	HeaderLen int
	// ToEnd is set when the wire size was 0, i.e. the box extends to the end
	// of its enclosing source. Legal for the outermost box only.
	ToEnd bool
}

func NewBasicBox(boxtype [4]byte) *BasicBox {
	return &BasicBox{
		Type: boxtype,
	}
}

func (box *BasicBox) Decode(r *movReader) (int, error) {
	box.Offset = r.Position()
	buf, err := r.ReadExact(BasicBoxLen)
	if err != nil {
		return 0, err
	}
	box.Size = uint64(binary.BigEndian.Uint32(buf))
	copy(box.Type[:], buf[4:8])
	nn := BasicBoxLen
	if box.Size == 1 {
		large, err := r.ReadExact(8)
		if err != nil {
			return nn, err
		}
		box.Size = binary.BigEndian.Uint64(large)
		nn += 8
	} else if box.Size == 0 {
		box.ToEnd = true
		box.Size = uint64(nn) + uint64(r.Remaining())
	}
	if box.Type == TypeUUID {
		user, err := r.ReadExact(16)
		if err != nil {
			return nn, err
		}
		copy(box.UserType[:], user)
		nn += 16
	}
	box.HeaderLen = nn
	if box.Size < uint64(nn) {
		return nn, boxErr(box.Type, box.Offset, ErrInvalidHeader)
	}
	return nn, nil
}

// Encode picks the 32-bit size form whenever the total size fits and the
// 64-bit form otherwise, so re-encoding a box of a given size is idempotent.
// In the 32-bit form the returned buffer spans the whole box and typed
// encoders fill their payload into it behind the returned header length. In
// the 64-bit form the buffer holds the 16 byte header only; the payload must
// be written separately, never through this buffer.
func (box *BasicBox) Encode() (int, []byte) {
	nn := BasicBoxLen
	var buf []byte
	if box.Size > math.MaxUint32 {
		buf = make([]byte, 16)
		binary.BigEndian.PutUint32(buf, 1)
		copy(buf[4:], box.Type[:])
		binary.BigEndian.PutUint64(buf[8:], box.Size)
		nn += 8
	} else {
		buf = make([]byte, box.Size)
		binary.BigEndian.PutUint32(buf, uint32(box.Size))
		copy(buf[4:], box.Type[:])
		if box.Type == TypeUUID {
			copy(buf[nn:nn+16], box.UserType[:])
			nn += 16
		}
	}
	box.HeaderLen = nn
	return nn, buf
}

// aligned(8) class FullBox(unsigned int(32) boxtype, unsigned int(8) v, bit(24) f) extends Box(boxtype) {
//     unsigned int(8) version = v;
//     bit(24) flags = f;
// }

type FullBox struct {
	Box     *BasicBox
	Version uint8
	Flags   [3]byte
}

func NewFullBox(boxtype [4]byte, version uint8) *FullBox {
	return &FullBox{
		Box:     NewBasicBox(boxtype),
		Version: version,
	}
}

func (box *FullBox) Size() uint64 {
	return FullBoxLen
}

func (box *FullBox) Decode(r *movReader) (int, error) {
	buf, err := r.ReadExact(4)
	if err != nil {
		return 0, err
	}
	box.Version = buf[0]
	copy(box.Flags[:], buf[1:])
	return 4, nil
}

func (box *FullBox) Encode() (int, []byte) {
	offset, buf := box.Box.Encode()
	buf[offset] = box.Version
	copy(buf[offset+1:], box.Flags[:])
	return offset + 4, buf
}
