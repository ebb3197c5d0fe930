package mp4

// aligned(8) class SampleTableBox extends Box(‘stbl’) {
// }

func makeStblBox(track *mp4track) []byte {
	stsd := makeStsdBox(track)
	stts := makeStts(track.stbl.stts)
	var ctts []byte
	if track.stbl.ctts != nil {
		ctts = makeCtts(track.stbl.ctts)
	}
	stsc := makeStsc(track.stbl.stsc)
	stsz := makeStsz(track.stbl.stsz)
	stco := makeStco(track.stbl.stco)
	var stss []byte
	if track.stbl.stss != nil {
		stss = makeStss(track.stbl.stss)
	}

	stbl := NewBasicBox(TypeSTBL)
	stbl.Size = BasicBoxLen + uint64(len(stsd)+len(stts)+len(ctts)+len(stsc)+len(stsz)+len(stco)+len(stss))
	offset, stbldata := stbl.Encode()
	for _, boxdata := range [][]byte{stsd, stts, ctts, stsc, stsz, stco, stss} {
		copy(stbldata[offset:], boxdata)
		offset += len(boxdata)
	}
	return stbldata
}
