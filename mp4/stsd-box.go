package mp4

import (
	"encoding/binary"
)

// aligned(8) abstract class SampleEntry (unsigned int(32) format) extends Box(format){
// 		const unsigned int(8)[6] reserved = 0;
// 		unsigned int(16) data_reference_index;
// }

type SampleEntry struct {
	box                *BasicBox
	dataReferenceIndex uint16
}

func NewSampleEntry(format [4]byte) *SampleEntry {
	return &SampleEntry{
		box:                NewBasicBox(format),
		dataReferenceIndex: 1,
	}
}

func (entry *SampleEntry) Size() uint64 {
	return BasicBoxLen + 8
}

func (entry *SampleEntry) Decode(r *movReader) (offset int, err error) {
	buf, err := r.ReadExact(8)
	if err != nil {
		return
	}
	entry.dataReferenceIndex = binary.BigEndian.Uint16(buf[6:])
	offset = 8
	return
}

func (entry *SampleEntry) Encode() (int, []byte) {
	offset, buf := entry.box.Encode()
	offset += 6
	binary.BigEndian.PutUint16(buf[offset:], entry.dataReferenceIndex)
	offset += 2
	return offset, buf
}

// class AudioSampleEntry(codingname) extends SampleEntry (codingname){
// 		const unsigned int(32)[2] reserved = 0;
// 		template unsigned int(16) channelcount = 2;
// 		template unsigned int(16) samplesize = 16;
// 		unsigned int(16) pre_defined = 0;
// 		const unsigned int(16) reserved = 0 ;
// 		template unsigned int(32) samplerate = { default samplerate of media}<<16;
// }

type AudioSampleEntry struct {
	entry        *SampleEntry
	version      uint16 // ffmpeg mov.c mov_parse_stsd_audio
	channelcount uint16
	samplesize   uint16
	samplerate   uint32
}

func NewAudioSampleEntry(format [4]byte) *AudioSampleEntry {
	return &AudioSampleEntry{
		entry: NewSampleEntry(format),
	}
}

func (entry *AudioSampleEntry) Size() uint64 {
	return entry.entry.Size() + 20
}

func (entry *AudioSampleEntry) Decode(r *movReader) (offset int, err error) {
	if offset, err = entry.entry.Decode(r); err != nil {
		return
	}
	buf, err := r.ReadExact(20)
	if err != nil {
		return
	}
	entry.version = binary.BigEndian.Uint16(buf)
	entry.channelcount = binary.BigEndian.Uint16(buf[8:])
	entry.samplesize = binary.BigEndian.Uint16(buf[10:])
	entry.samplerate = binary.BigEndian.Uint32(buf[16:]) >> 16
	offset += 20
	return
}

func (entry *AudioSampleEntry) Encode() (int, []byte) {
	offset, buf := entry.entry.Encode()
	offset += 8
	binary.BigEndian.PutUint16(buf[offset:], entry.channelcount)
	offset += 2
	binary.BigEndian.PutUint16(buf[offset:], entry.samplesize)
	offset += 2
	offset += 4
	binary.BigEndian.PutUint32(buf[offset:], entry.samplerate<<16)
	offset += 4
	return offset, buf
}

func decodeAudioSampleEntry(demuxer *MovDemuxer) (err error) {
	entry := AudioSampleEntry{entry: &SampleEntry{box: demuxer.currentBox()}}
	if _, err = entry.Decode(demuxer.reader); err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.entryType = entry.entry.box.Type
	track.chanelCount = uint8(entry.channelcount)
	track.sampleBits = uint8(entry.samplesize)
	track.sampleRate = entry.samplerate
	quickTime := false
	for _, brand := range demuxer.mp4Info.CompatibleBrands {
		if brand == mov_tag(f("qt  ")) {
			quickTime = true
			break
		}
	}
	// ffmpeg mov.c mov_parse_stsd_audio
	if quickTime && entry.version == 1 {
		err = demuxer.reader.Skip(16)
	} else if quickTime && entry.version == 2 {
		err = demuxer.reader.Skip(36)
	}
	return
}

// class VisualSampleEntry(codingname) extends SampleEntry (codingname){
// 		unsigned int(16) pre_defined = 0;
// 		const unsigned int(16) reserved = 0;
// 		unsigned int(32)[3] pre_defined = 0;
// 		unsigned int(16) width;
// 		unsigned int(16) height;
// 		template unsigned int(32) horizresolution = 0x00480000; // 72 dpi
// 		template unsigned int(32) vertresolution = 0x00480000; // 72 dpi
// 		const unsigned int(32) reserved = 0;
// 		template unsigned int(16) frame_count = 1;
// 		string[32] compressorname;
// 		template unsigned int(16) depth = 0x0018;
// 		int(16) pre_defined = -1;
// }

type VisualSampleEntry struct {
	entry           *SampleEntry
	width           uint16
	height          uint16
	horizresolution uint32
	vertresolution  uint32
	frameCount      uint16
	compressorname  [32]byte
}

func NewVisualSampleEntry(format [4]byte) *VisualSampleEntry {
	return &VisualSampleEntry{
		entry:           NewSampleEntry(format),
		horizresolution: 0x00480000,
		vertresolution:  0x00480000,
		frameCount:      1,
	}
}

func (entry *VisualSampleEntry) Size() uint64 {
	return entry.entry.Size() + 70
}

func (entry *VisualSampleEntry) Decode(r *movReader) (offset int, err error) {
	if offset, err = entry.entry.Decode(r); err != nil {
		return
	}
	buf, err := r.ReadExact(70)
	if err != nil {
		return
	}
	entry.width = binary.BigEndian.Uint16(buf[16:])
	entry.height = binary.BigEndian.Uint16(buf[18:])
	entry.horizresolution = binary.BigEndian.Uint32(buf[20:])
	entry.vertresolution = binary.BigEndian.Uint32(buf[24:])
	entry.frameCount = binary.BigEndian.Uint16(buf[32:])
	copy(entry.compressorname[:], buf[34:66])
	offset += 70
	return
}

func (entry *VisualSampleEntry) Encode() (int, []byte) {
	offset, buf := entry.entry.Encode()
	offset += 16
	binary.BigEndian.PutUint16(buf[offset:], entry.width)
	offset += 2
	binary.BigEndian.PutUint16(buf[offset:], entry.height)
	offset += 2
	binary.BigEndian.PutUint32(buf[offset:], entry.horizresolution)
	offset += 4
	binary.BigEndian.PutUint32(buf[offset:], entry.vertresolution)
	offset += 8
	binary.BigEndian.PutUint16(buf[offset:], entry.frameCount)
	offset += 2
	copy(buf[offset:offset+32], entry.compressorname[:])
	offset += 32
	binary.BigEndian.PutUint16(buf[offset:], 0x0018)
	offset += 2
	binary.BigEndian.PutUint16(buf[offset:], 0xFFFF)
	offset += 2
	return offset, buf
}

func decodeVisualSampleEntry(demuxer *MovDemuxer) (err error) {
	entry := VisualSampleEntry{entry: &SampleEntry{box: demuxer.currentBox()}}
	if _, err = entry.Decode(demuxer.reader); err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.entryType = entry.entry.box.Type
	track.width = uint32(entry.width)
	track.height = uint32(entry.height)
	return
}

// aligned(8) class SampleDescriptionBox (unsigned int(32) handler_type) extends FullBox('stsd', 0, 0){
// 		int i ;
// 		unsigned int(32) entry_count;
// 		for (i = 1 ; i <= entry_count ; i++){
// 			switch (handler_type){
// 				case ‘soun’: AudioSampleEntry();  break;
// 				case ‘vide’: VisualSampleEntry(); break;
// 				case ‘hint’: HintSampleEntry();   break;
// 				case ‘meta’: MetadataSampleEntry(); break;
// 			}
// 		}
// }

type SampleDescriptionBox struct {
	box        *FullBox
	entryCount uint32
}

func NewSampleDescriptionBox() *SampleDescriptionBox {
	return &SampleDescriptionBox{
		box: NewFullBox(TypeSTSD, 0),
	}
}

func (stsd *SampleDescriptionBox) Size() uint64 {
	return stsd.box.Size() + 4
}

func (stsd *SampleDescriptionBox) Decode(r *movReader) (offset int, err error) {
	if _, err = stsd.box.Decode(r); err != nil {
		return
	}
	buf, err := r.ReadExact(4)
	if err != nil {
		return
	}
	stsd.entryCount = binary.BigEndian.Uint32(buf)
	offset = 8
	return
}

func (stsd *SampleDescriptionBox) Encode() (int, []byte) {
	offset, buf := stsd.box.Encode()
	binary.BigEndian.PutUint32(buf[offset:], stsd.entryCount)
	offset += 4
	return offset, buf
}

func makeStsdBox(track *mp4track) []byte {
	var avbox []byte
	var extra []byte
	if len(track.extraData) > 0 {
		extra = track.extraData
	} else if track.extra != nil {
		extra = track.extra.export()
	}

	switch track.cid {
	case MOV_CODEC_H264:
		avbox = makeAvcCBox(extra)
	case MOV_CODEC_H265:
		avbox = makeHvcCBox(extra)
	case MOV_CODEC_AAC, MOV_CODEC_MP3:
		avbox = makeEsdsBox(track.trackId, track.cid, extra)
	}

	var se []byte
	var offset int
	if track.cid.isVideo() {
		entry := NewVisualSampleEntry(getCodecNameWithCodecId(track.cid))
		entry.width = uint16(track.width)
		entry.height = uint16(track.height)
		entry.entry.box.Size = entry.Size() + uint64(len(avbox))
		offset, se = entry.Encode()
	} else {
		entry := NewAudioSampleEntry(getCodecNameWithCodecId(track.cid))
		entry.channelcount = uint16(track.chanelCount)
		entry.samplesize = uint16(track.sampleBits)
		entry.samplerate = track.sampleRate
		entry.entry.box.Size = entry.Size() + uint64(len(avbox))
		offset, se = entry.Encode()
	}
	copy(se[offset:], avbox)

	stsd := NewSampleDescriptionBox()
	stsd.entryCount = 1
	stsd.box.Box.Size = stsd.Size() + uint64(len(se))
	offset, stsdbox := stsd.Encode()
	copy(stsdbox[offset:], se)
	return stsdbox
}

func decodeStsdBox(demuxer *MovDemuxer) (err error) {
	stsd := SampleDescriptionBox{box: &FullBox{Box: demuxer.currentBox()}}
	_, err = stsd.Decode(demuxer.reader)
	return
}

func makeAvcCBox(extra []byte) []byte {
	avcc := NewBasicBox(TypeAVCC)
	avcc.Size = BasicBoxLen + uint64(len(extra))
	offset, boxdata := avcc.Encode()
	copy(boxdata[offset:], extra)
	return boxdata
}

func decodeAvccBox(demuxer *MovDemuxer) (err error) {
	box := demuxer.currentBox()
	buf, err := demuxer.reader.ReadExact(int(box.Size) - box.HeaderLen)
	if err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.extraData = buf
	if track.extra == nil {
		track.extra = new(h264ExtraData)
	}
	track.extra.load(buf)
	if track.width == 0 || track.height == 0 {
		track.width, track.height = getH264Resolution(buf)
	}
	return
}

func makeHvcCBox(extra []byte) []byte {
	hvcc := NewBasicBox(TypeHVCC)
	hvcc.Size = BasicBoxLen + uint64(len(extra))
	offset, boxdata := hvcc.Encode()
	copy(boxdata[offset:], extra)
	return boxdata
}

func decodeHvccBox(demuxer *MovDemuxer) (err error) {
	box := demuxer.currentBox()
	buf, err := demuxer.reader.ReadExact(int(box.Size) - box.HeaderLen)
	if err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	track.extraData = buf
	if track.extra == nil {
		track.extra = newh265ExtraData()
	}
	track.extra.load(buf)
	return
}

func makeEsdsBox(tid uint32, cid MOV_CODEC_TYPE, extra []byte) []byte {
	esd := makeESDescriptor(uint16(tid), cid, extra)
	esds := NewFullBox(TypeESDS, 0)
	esds.Box.Size = esds.Size() + uint64(len(esd))
	offset, esdsBox := esds.Encode()
	copy(esdsBox[offset:], esd)
	return esdsBox
}

func decodeEsdsBox(demuxer *MovDemuxer) (err error) {
	box := demuxer.currentBox()
	esds := FullBox{Box: box}
	if _, err = esds.Decode(demuxer.reader); err != nil {
		return
	}
	buf, err := demuxer.reader.ReadExact(int(box.Size) - box.HeaderLen - 4)
	if err != nil {
		return
	}
	track := demuxer.tracks[len(demuxer.tracks)-1]
	vosdata := decodeESDescriptor(buf, track)
	if track.extra != nil && len(vosdata) > 0 {
		track.extra.load(vosdata)
		track.extraData = vosdata
	}
	return nil
}
