package mp4

import (
	"github.com/deepch/vdk/codec/h264parser"
	"github.com/yapingcat/gomedia/go-codec"
)

type MOV_CODEC_TYPE int

const (
	MOV_CODEC_UNSUPPORT MOV_CODEC_TYPE = iota

	MOV_CODEC_H264 MOV_CODEC_TYPE = iota
	MOV_CODEC_H265

	MOV_CODEC_AAC MOV_CODEC_TYPE = iota + 100
	MOV_CODEC_G711A
	MOV_CODEC_G711U
	MOV_CODEC_MP3
	MOV_CODEC_OPUS
)

func (cid MOV_CODEC_TYPE) isVideo() bool {
	return cid == MOV_CODEC_H264 || cid == MOV_CODEC_H265
}

func (cid MOV_CODEC_TYPE) isAudio() bool {
	return cid == MOV_CODEC_AAC || cid == MOV_CODEC_G711A || cid == MOV_CODEC_G711U ||
		cid == MOV_CODEC_MP3 || cid == MOV_CODEC_OPUS
}

func getCodecNameWithCodecId(cid MOV_CODEC_TYPE) [4]byte {
	switch cid {
	case MOV_CODEC_H264:
		return TypeAVC1
	case MOV_CODEC_H265:
		return TypeHVC1
	case MOV_CODEC_AAC, MOV_CODEC_MP3:
		return TypeMP4A
	case MOV_CODEC_G711A:
		return TypeALAW
	case MOV_CODEC_G711U:
		return TypeULAW
	case MOV_CODEC_OPUS:
		return TypeOPUS
	default:
		panic("unsupport codec id")
	}
}

func getCodecIdBySampleEntry(entry [4]byte) MOV_CODEC_TYPE {
	switch entry {
	case TypeAVC1, TypeAVC3:
		return MOV_CODEC_H264
	case TypeHVC1, TypeHEV1:
		return MOV_CODEC_H265
	case TypeMP4A:
		return MOV_CODEC_AAC
	case TypeALAW:
		return MOV_CODEC_G711A
	case TypeULAW:
		return MOV_CODEC_G711U
	case TypeOPUS:
		return MOV_CODEC_OPUS
	default:
		return MOV_CODEC_UNSUPPORT
	}
}

// ffmpeg isom.c const AVCodecTag ff_mp4_obj_type[]
func getObjectTypeWithCodecId(cid MOV_CODEC_TYPE) uint8 {
	switch cid {
	case MOV_CODEC_H264:
		return 0x21
	case MOV_CODEC_H265:
		return 0x23
	case MOV_CODEC_AAC:
		return 0x40
	case MOV_CODEC_G711A:
		return 0xfd
	case MOV_CODEC_G711U:
		return 0xfe
	case MOV_CODEC_MP3:
		return 0x69
	default:
		panic("unsupport codec id")
	}
}

func getCodecIdByObjectType(objType uint8) MOV_CODEC_TYPE {
	switch objType {
	case 0x21:
		return MOV_CODEC_H264
	case 0x23:
		return MOV_CODEC_H265
	case 0x40:
		return MOV_CODEC_AAC
	case 0xfd:
		return MOV_CODEC_G711A
	case 0xfe:
		return MOV_CODEC_G711U
	case 0x6b, 0x69:
		return MOV_CODEC_MP3
	default:
		return MOV_CODEC_UNSUPPORT
	}
}

func getHandlerTypeWithCodecId(cid MOV_CODEC_TYPE) [4]byte {
	if cid.isVideo() {
		return TypeVIDE
	}
	return TypeSOUN
}

type extraData interface {
	export() []byte
	load(data []byte)
}

type h264ExtraData struct {
	spss [][]byte
	ppss [][]byte
}

func (extra *h264ExtraData) export() []byte {
	data, _ := codec.CreateH264AVCCExtradata(extra.spss, extra.ppss)
	return data
}

func (extra *h264ExtraData) load(data []byte) {
	extra.spss, extra.ppss = codec.CovertExtradata(data)
}

type h265ExtraData struct {
	hvccExtra *codec.HEVCRecordConfiguration
}

func newh265ExtraData() *h265ExtraData {
	return &h265ExtraData{
		hvccExtra: codec.NewHEVCRecordConfiguration(),
	}
}

func (extra *h265ExtraData) export() []byte {
	data, _ := extra.hvccExtra.Encode()
	return data
}

func (extra *h265ExtraData) load(data []byte) {
	extra.hvccExtra.Decode(data)
}

type aacExtraData struct {
	asc []byte
}

func (extra *aacExtraData) export() []byte {
	return extra.asc
}

func (extra *aacExtraData) load(data []byte) {
	extra.asc = make([]byte, len(data))
	copy(extra.asc, data)
}

// getH264Resolution recovers width and height from the SPS inside an avcC
// record, for files whose visual sample entry carries zeroed dimensions.
func getH264Resolution(avcc []byte) (width uint32, height uint32) {
	spss, _ := codec.CovertExtradata(avcc)
	if len(spss) == 0 {
		return
	}
	sps := spss[0]
	if len(sps) > 4 && sps[0] == 0 && sps[1] == 0 {
		if sps[2] == 1 {
			sps = sps[3:]
		} else if sps[2] == 0 && sps[3] == 1 {
			sps = sps[4:]
		}
	}
	info, err := h264parser.ParseSPS(sps)
	if err != nil {
		return
	}
	return uint32(info.Width), uint32(info.Height)
}
