package mp4

// aligned(8) class FreeSpaceBox extends Box(free_type) {
// 		unsigned int(8) data[];
// }

func makeFreeBox(payload uint64) []byte {
	free := NewBasicBox(TypeFREE)
	free.Size = BasicBoxLen + payload
	_, boxdata := free.Encode()
	return boxdata
}

func decodeFreeBox(demuxer *MovDemuxer) (err error) {
	box := demuxer.currentBox()
	return demuxer.reader.Skip(int64(box.Size) - int64(box.HeaderLen))
}
