package mp4

import (
	"errors"
	"io"
)

type MovInfo struct {
	MajorBrand       uint32
	MinorVersion     uint32
	CompatibleBrands []uint32
	Timescale        uint32
	Duration         uint64
	CreationTime     uint64
	ModificationTime uint64
	Rate             uint32
	Volume           uint16
	Matrix           [9]uint32
	NextTrackId      uint32
}

type mp4track struct {
	cid          MOV_CODEC_TYPE
	trackId      uint32
	stbl         *movstbl
	duration     uint64
	tkhdDuration uint64
	timescale    uint32
	width        uint32
	height       uint32
	sampleRate   uint32
	sampleBits   uint8
	chanelCount  uint8
	volume       uint16
	layer        int16
	language     [3]uint8
	handlerType  [4]byte
	entryType    [4]byte
	elst         *movelst
	extra        extraData
	extraData    []byte

	samplelist []Sample
	warnings   []Warning

	// set by the muxer for tkhd duration scaling
	movieTimescale uint32
}

func (track *mp4track) movieDuration() uint64 {
	if track.timescale == 0 || track.movieTimescale == 0 {
		return track.duration
	}
	return track.duration * uint64(track.movieTimescale) / uint64(track.timescale)
}

// MovDemuxer walks the box tree of a flat (non fragmented) file. Containers
// are entered, recognized leaves are decoded, and everything else is skipped
// by its declared size. A child that overruns its container is reported as a
// warning and parsing resumes at the container boundary.
type MovDemuxer struct {
	reader     *movReader
	mdatOffset []uint64
	tracks     []*mp4track
	mp4Info    MovInfo
	sidxs      []*SegmentIndexBox
	warnings   []Warning

	current    *BasicBox
	containers []containerFrame
}

// containerFrame is one entry of the open-container stack: the container's
// type and the byte offset its payload ends at.
type containerFrame struct {
	boxtype [4]byte
	end     int64
}

func CreateMp4Demuxer(r io.ReadSeeker) (*MovDemuxer, error) {
	reader, err := newMovReader(r)
	if err != nil {
		return nil, err
	}
	return &MovDemuxer{reader: reader}, nil
}

func (demuxer *MovDemuxer) currentBox() *BasicBox {
	return demuxer.current
}

func (demuxer *MovDemuxer) warn(boxtype [4]byte, offset int64, err error) {
	demuxer.warnings = append(demuxer.warnings, Warning{Type: boxtype, Offset: offset, Err: err})
}

// leaveContainers pops every container the cursor has moved past.
func (demuxer *MovDemuxer) leaveContainers() {
	pos := demuxer.reader.Position()
	for len(demuxer.containers) > 0 &&
		pos >= demuxer.containers[len(demuxer.containers)-1].end {
		demuxer.containers = demuxer.containers[:len(demuxer.containers)-1]
	}
}

// insideTrak reports whether the cursor is inside an open trak container.
func (demuxer *MovDemuxer) insideTrak() bool {
	for i := range demuxer.containers {
		if demuxer.containers[i].boxtype == TypeTRAK {
			return true
		}
	}
	return false
}

func (demuxer *MovDemuxer) ReadHead() error {
	var err error
	for {
		demuxer.leaveContainers()
		if demuxer.reader.Remaining() == 0 {
			break
		}
		basebox := new(BasicBox)
		if _, err = basebox.Decode(demuxer.reader); err != nil {
			if errors.Is(err, ErrTruncated) {
				demuxer.warn(basebox.Type, basebox.Offset, ErrTruncated)
				break
			}
			return err
		}
		boxEnd := basebox.Offset + int64(basebox.Size)
		if len(demuxer.containers) > 0 {
			parentEnd := demuxer.containers[len(demuxer.containers)-1].end
			if boxEnd > parentEnd {
				demuxer.warn(basebox.Type, basebox.Offset, ErrStructuralMismatch)
				if err = demuxer.reader.SeekTo(parentEnd); err != nil {
					return err
				}
				continue
			}
		} else if uint64(boxEnd) > uint64(demuxer.reader.Position())+uint64(demuxer.reader.Remaining()) {
			demuxer.warn(basebox.Type, basebox.Offset, ErrTruncated)
			break
		}
		demuxer.current = basebox

		if containerTypes[basebox.Type] {
			if basebox.Type == TypeTRAK {
				demuxer.tracks = append(demuxer.tracks, &mp4track{stbl: new(movstbl)})
			}
			demuxer.containers = append(demuxer.containers, containerFrame{basebox.Type, boxEnd})
			continue
		}

		switch basebox.Type {
		case TypeFTYP, TypeSTYP:
			err = decodeFtypBox(demuxer)
		case TypeFREE, TypeSKIP:
			err = decodeFreeBox(demuxer)
		case TypeMDAT:
			demuxer.mdatOffset = append(demuxer.mdatOffset, uint64(demuxer.reader.Position()))
		case TypeMVHD:
			err = decodeMvhdBox(demuxer)
		case TypeTKHD:
			err = demuxer.decodeTrackLeaf(decodeTkhdBox)
		case TypeMDHD:
			err = demuxer.decodeTrackLeaf(decodeMdhdBox)
		case TypeHDLR:
			err = demuxer.decodeTrackLeaf(decodeHdlrBox)
		case TypeELST:
			err = demuxer.decodeTrackLeaf(decodeElstBox)
		case TypeVMHD, TypeSMHD, TypeHMHD, TypeNMHD:
			// media headers carry nothing the sample walk needs
		case TypeSTSD:
			if err = demuxer.decodeTrackLeaf(decodeStsdBox); err == nil {
				demuxer.containers = append(demuxer.containers, containerFrame{basebox.Type, boxEnd})
				continue
			}
		case TypeSTTS:
			err = demuxer.decodeTrackLeaf(decodeSttsBox)
		case TypeCTTS:
			err = demuxer.decodeTrackLeaf(decodeCttsBox)
		case TypeSTSC:
			err = demuxer.decodeTrackLeaf(decodeStscBox)
		case TypeSTSZ:
			err = demuxer.decodeTrackLeaf(decodeStszBox)
		case TypeSTZ2:
			err = demuxer.decodeTrackLeaf(decodeStz2Box)
		case TypeSTCO:
			err = demuxer.decodeTrackLeaf(decodeStcoBox)
		case TypeCO64:
			err = demuxer.decodeTrackLeaf(decodeCo64Box)
		case TypeSTSS:
			err = demuxer.decodeTrackLeaf(decodeStssBox)
		case TypeAVC1, TypeAVC3:
			if err = demuxer.setTrackCodec(MOV_CODEC_H264, decodeVisualSampleEntry); err == nil {
				demuxer.containers = append(demuxer.containers, containerFrame{basebox.Type, boxEnd})
				continue
			}
		case TypeHVC1, TypeHEV1:
			if err = demuxer.setTrackCodec(MOV_CODEC_H265, decodeVisualSampleEntry); err == nil {
				demuxer.containers = append(demuxer.containers, containerFrame{basebox.Type, boxEnd})
				continue
			}
		case TypeMP4A:
			if err = demuxer.setTrackCodec(MOV_CODEC_AAC, decodeAudioSampleEntry); err == nil {
				demuxer.containers = append(demuxer.containers, containerFrame{basebox.Type, boxEnd})
				continue
			}
		case TypeULAW:
			if err = demuxer.setTrackCodec(MOV_CODEC_G711U, decodeAudioSampleEntry); err == nil {
				demuxer.containers = append(demuxer.containers, containerFrame{basebox.Type, boxEnd})
				continue
			}
		case TypeALAW:
			if err = demuxer.setTrackCodec(MOV_CODEC_G711A, decodeAudioSampleEntry); err == nil {
				demuxer.containers = append(demuxer.containers, containerFrame{basebox.Type, boxEnd})
				continue
			}
		case TypeOPUS:
			if err = demuxer.setTrackCodec(MOV_CODEC_OPUS, decodeAudioSampleEntry); err == nil {
				demuxer.containers = append(demuxer.containers, containerFrame{basebox.Type, boxEnd})
				continue
			}
		case TypeAVCC:
			err = demuxer.decodeTrackLeaf(decodeAvccBox)
		case TypeHVCC:
			err = demuxer.decodeTrackLeaf(decodeHvccBox)
		case TypeESDS:
			err = demuxer.decodeTrackLeaf(decodeEsdsBox)
		case TypeSIDX:
			err = decodeSidxBox(demuxer)
		}
		if err != nil {
			if demuxer.recoverable(err) {
				demuxer.warn(basebox.Type, basebox.Offset, err)
				err = nil
			} else {
				return err
			}
		}
		// land exactly on the box boundary whatever the handler consumed
		if err = demuxer.reader.SeekTo(boxEnd); err != nil {
			demuxer.warn(basebox.Type, basebox.Offset, ErrTruncated)
			break
		}
	}

	for _, track := range demuxer.tracks {
		track.samplelist, track.warnings = expandSampleTable(track.stbl)
	}
	return nil
}

// decodeTrackLeaf guards leaves that require an enclosing trak. A stray table
// box outside any trak is never attributed to the last track seen.
func (demuxer *MovDemuxer) decodeTrackLeaf(decode func(*MovDemuxer) error) error {
	if len(demuxer.tracks) == 0 || !demuxer.insideTrak() {
		return ErrStructuralMismatch
	}
	return decode(demuxer)
}

func (demuxer *MovDemuxer) setTrackCodec(cid MOV_CODEC_TYPE, decode func(*MovDemuxer) error) error {
	if len(demuxer.tracks) == 0 || !demuxer.insideTrak() {
		return ErrStructuralMismatch
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.cid = cid
	switch cid {
	case MOV_CODEC_H264:
		track.extra = new(h264ExtraData)
	case MOV_CODEC_H265:
		track.extra = newh265ExtraData()
	case MOV_CODEC_AAC:
		track.extra = new(aacExtraData)
	}
	return decode(demuxer)
}

// recoverable reports whether a per-box failure should degrade to a warning
// so the rest of the tree still parses.
func (demuxer *MovDemuxer) recoverable(err error) bool {
	return errors.Is(err, ErrUnsupportedVariant) ||
		errors.Is(err, ErrTableInconsistency) ||
		errors.Is(err, ErrStructuralMismatch)
}

func (demuxer *MovDemuxer) GetMp4Info() MovInfo {
	return demuxer.mp4Info
}

func (demuxer *MovDemuxer) Warnings() []Warning {
	return demuxer.warnings
}

// ReadSampleData copies one sample's payload out of the source.
func (demuxer *MovDemuxer) ReadSampleData(sample Sample) ([]byte, error) {
	if err := demuxer.reader.SeekTo(int64(sample.DataOffset)); err != nil {
		return nil, err
	}
	return demuxer.reader.ReadExact(int(sample.Size))
}
