package mp4

import (
	"encoding/binary"
	"math"
	"sort"
)

// Movmuxer writes a flat mp4 file front to back. The mdat size field is
// reserved up front and patched on WriteTrailer; an 8 byte free box sits
// right before mdat so the header can grow to the 64-bit form in place when
// the payload passes 4GiB.
type Movmuxer struct {
	writer         Writer
	nextTrackId    uint32
	mdatHdrOffset  int64
	tracks         map[uint32]*mp4track
	trackOrder     []uint32
	movieTimescale uint32
	finalized      bool
}

type MuxerOption func(*Movmuxer)

func WithMovieTimescale(timescale uint32) MuxerOption {
	return func(muxer *Movmuxer) {
		if timescale > 0 {
			muxer.movieTimescale = timescale
		}
	}
}

func CreateMp4Muxer(w Writer, options ...MuxerOption) (*Movmuxer, error) {
	muxer := &Movmuxer{
		writer:         w,
		nextTrackId:    1,
		tracks:         make(map[uint32]*mp4track),
		movieTimescale: 1000,
	}
	for _, opt := range options {
		opt(muxer)
	}
	ftyp := makeFtypBox(mov_tag(TypeISOM), 0x200, []uint32{
		mov_tag(TypeISOM), mov_tag(TypeISO2), mov_tag(TypeAVC1), mov_tag(TypeMP41),
	})
	if _, err := muxer.writer.Write(ftyp); err != nil {
		return nil, err
	}
	if _, err := muxer.writer.Write(makeFreeBox(0)); err != nil {
		return nil, err
	}
	muxer.mdatHdrOffset = muxer.writer.Tell()
	mdat := make([]byte, BasicBoxLen)
	copy(mdat[4:], TypeMDAT[:])
	if _, err := muxer.writer.Write(mdat); err != nil {
		return nil, err
	}
	return muxer, nil
}

func (muxer *Movmuxer) AddVideoTrack(cid MOV_CODEC_TYPE, width uint32, height uint32, timescale uint32, extraData []byte) uint32 {
	track := &mp4track{
		cid:            cid,
		trackId:        muxer.nextTrackId,
		width:          width,
		height:         height,
		timescale:      timescale,
		movieTimescale: muxer.movieTimescale,
		extraData:      extraData,
	}
	muxer.tracks[track.trackId] = track
	muxer.trackOrder = append(muxer.trackOrder, track.trackId)
	muxer.nextTrackId++
	return track.trackId
}

func (muxer *Movmuxer) AddAudioTrack(cid MOV_CODEC_TYPE, channelCount uint8, sampleBits uint8, sampleRate uint32, extraData []byte) uint32 {
	track := &mp4track{
		cid:            cid,
		trackId:        muxer.nextTrackId,
		chanelCount:    channelCount,
		sampleBits:     sampleBits,
		sampleRate:     sampleRate,
		timescale:      sampleRate,
		movieTimescale: muxer.movieTimescale,
		extraData:      extraData,
	}
	muxer.tracks[track.trackId] = track
	muxer.trackOrder = append(muxer.trackOrder, track.trackId)
	muxer.nextTrackId++
	return track.trackId
}

// WriteSample appends one sample's payload to mdat and records its position.
// Timestamps are in the track timescale; pts-dts becomes the composition
// offset.
func (muxer *Movmuxer) WriteSample(trackId uint32, data []byte, pts uint64, dts uint64, isSync bool) error {
	track, ok := muxer.tracks[trackId]
	if !ok {
		return ErrOutOfRange
	}
	if muxer.finalized {
		return ErrUnresolvedOffset
	}
	sample := Sample{
		Index:             uint32(len(track.samplelist)) + 1,
		DataOffset:        uint64(muxer.writer.Tell()),
		Size:              uint32(len(data)),
		CompositionOffset: int32(int64(pts) - int64(dts)),
		IsSync:            isSync,
		Dts:               dts,
	}
	track.samplelist = append(track.samplelist, sample)
	_, err := muxer.writer.Write(data)
	return err
}

// WriteTrailer patches the mdat size and appends the moov.
func (muxer *Movmuxer) WriteTrailer() error {
	if err := muxer.patchMdatSize(); err != nil {
		return err
	}
	muxer.finalized = true
	for _, tid := range muxer.trackOrder {
		muxer.tracks[tid].finalizeDurations()
	}
	moov := muxer.makeMoov()
	_, err := muxer.writer.Write(moov)
	return err
}

func (muxer *Movmuxer) patchMdatSize() error {
	current := muxer.writer.Tell()
	datalen := current - muxer.mdatHdrOffset
	if datalen > math.MaxUint32 {
		// consume the free box in front and write the 64-bit header
		mdat := BasicBox{Type: TypeMDAT, Size: uint64(datalen) + BasicBoxLen}
		hdr := make([]byte, 16)
		binary.BigEndian.PutUint32(hdr, 1)
		copy(hdr[4:], mdat.Type[:])
		binary.BigEndian.PutUint64(hdr[8:], mdat.Size)
		return patch(muxer.writer, patchPoint{offset: muxer.mdatHdrOffset - BasicBoxLen, length: 16}, hdr)
	}
	sizebuf := make([]byte, 4)
	binary.BigEndian.PutUint32(sizebuf, uint32(datalen))
	return patch(muxer.writer, patchPoint{offset: muxer.mdatHdrOffset, length: 4}, sizebuf)
}

func (track *mp4track) finalizeDurations() {
	n := len(track.samplelist)
	for i := 0; i < n-1; i++ {
		track.samplelist[i].Duration = uint32(track.samplelist[i+1].Dts - track.samplelist[i].Dts)
	}
	if n > 1 {
		track.samplelist[n-1].Duration = track.samplelist[n-2].Duration
	}
	total := uint64(0)
	for i := range track.samplelist {
		total += uint64(track.samplelist[i].Duration)
	}
	track.duration = total
}

func (muxer *Movmuxer) makeMoov() []byte {
	maxDuration := uint64(0)
	for _, tid := range muxer.trackOrder {
		track := muxer.tracks[tid]
		track.stbl = compressSampleTable(track.samplelist, 1)
		if d := track.movieDuration(); d > maxDuration {
			maxDuration = d
		}
	}
	info := &MovInfo{
		Timescale:   muxer.movieTimescale,
		Duration:    maxDuration,
		NextTrackId: muxer.nextTrackId,
	}
	mvhd := makeMvhdBox(info)

	traks := make([][]byte, 0, len(muxer.trackOrder))
	total := len(mvhd)
	for _, tid := range muxer.trackOrder {
		trak := makeTrakBox(muxer.tracks[tid])
		traks = append(traks, trak)
		total += len(trak)
	}

	moov := NewBasicBox(TypeMOOV)
	moov.Size = BasicBoxLen + uint64(total)
	offset, moovdata := moov.Encode()
	copy(moovdata[offset:], mvhd)
	offset += len(mvhd)
	for _, trak := range traks {
		copy(moovdata[offset:], trak)
		offset += len(trak)
	}
	return moovdata
}

// WriteMovie remuxes a parsed movie into w. Sample payloads are copied from
// the movie's attached source in decode order, the chunk offset tables are
// regenerated for the new layout, and the moov is rebuilt from the in-memory
// sample lists. A movie without a readable source cannot resolve its sample
// positions and fails with ErrUnresolvedOffset.
func WriteMovie(w Writer, movie *Movie) error {
	if movie.reader == nil {
		return ErrUnresolvedOffset
	}
	muxer, err := CreateMp4Muxer(w)
	if err != nil {
		return err
	}
	if movie.Info.Timescale != 0 {
		muxer.movieTimescale = movie.Info.Timescale
	}

	type pending struct {
		track  *mp4track
		sample Sample
	}
	var queue []pending
	for _, src := range movie.tracks {
		track := &mp4track{
			cid:            src.Cid,
			trackId:        muxer.nextTrackId,
			timescale:      src.Timescale,
			movieTimescale: muxer.movieTimescale,
			duration:       src.Duration,
			width:          src.Width,
			height:         src.Height,
			sampleRate:     src.SampleRate,
			sampleBits:     src.SampleBits,
			chanelCount:    src.ChannelCount,
			extraData:      src.ExtraData,
		}
		if len(src.EditList) > 0 {
			track.elst = &movelst{}
			for _, e := range src.EditList {
				track.elst.entrys = append(track.elst.entrys, elstEntry{
					segmentDuration:   e.SegmentDuration,
					mediaTime:         e.MediaTime,
					mediaRateInteger:  e.MediaRateInteger,
					mediaRateFraction: e.MediaRateFraction,
				})
			}
		}
		muxer.tracks[track.trackId] = track
		muxer.trackOrder = append(muxer.trackOrder, track.trackId)
		muxer.nextTrackId++
		for _, sample := range src.samples {
			queue = append(queue, pending{track: track, sample: sample})
		}
	}

	// interleave by decode time scaled to the movie timescale
	sort.SliceStable(queue, func(i, j int) bool {
		ti, tj := queue[i].track, queue[j].track
		di := queue[i].sample.Dts * uint64(muxer.movieTimescale) / uint64(max32(ti.timescale, 1))
		dj := queue[j].sample.Dts * uint64(muxer.movieTimescale) / uint64(max32(tj.timescale, 1))
		return di < dj
	})

	for _, p := range queue {
		sample := p.sample
		newOffset := uint64(muxer.writer.Tell())
		if err = movie.reader.CopyTo(muxer.writer, int64(sample.DataOffset), int64(sample.Size)); err != nil {
			return err
		}
		sample.DataOffset = newOffset
		sample.Index = uint32(len(p.track.samplelist)) + 1
		p.track.samplelist = append(p.track.samplelist, sample)
	}

	if err = muxer.patchMdatSize(); err != nil {
		return err
	}
	moov := muxer.makeMoov()
	_, err = muxer.writer.Write(moov)
	return err
}

func max32(v uint32, floor uint32) uint32 {
	if v < floor {
		return floor
	}
	return v
}
