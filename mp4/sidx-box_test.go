package mp4

import (
	"testing"
)

func TestSidxRoundtripAndSeekSegments(t *testing.T) {
	sidx := NewSegmentIndexBox()
	sidx.ReferenceID = 1
	sidx.Timescale = 90000
	sidx.EarliestPresentationTime = 9000
	sidx.FirstOffset = 100
	sidx.Entrys = []sidxEntry{
		{ReferencedSize: 500, SubsegmentDuration: 1000, StartsWithSAP: 1, SAPType: 1},
		{ReferencedSize: 300, SubsegmentDuration: 2000, SAPDeltaTime: 48},
	}
	_, buf := sidx.Encode()

	r := readerOver(t, buf)
	base := new(BasicBox)
	if _, err := base.Decode(r); err != nil {
		t.Fatal(err)
	}
	decoded := SegmentIndexBox{box: &FullBox{Box: base}}
	if _, err := decoded.Decode(r); err != nil {
		t.Fatal(err)
	}
	if decoded.ReferenceID != 1 || decoded.Timescale != 90000 ||
		decoded.EarliestPresentationTime != 9000 || decoded.FirstOffset != 100 {
		t.Fatalf("decoded header %+v", decoded)
	}
	if len(decoded.Entrys) != 2 {
		t.Fatalf("%d entries", len(decoded.Entrys))
	}
	for i := range sidx.Entrys {
		if decoded.Entrys[i] != sidx.Entrys[i] {
			t.Fatalf("entry %d: got %+v want %+v", i, decoded.Entrys[i], sidx.Entrys[i])
		}
	}

	// anchor = end of the box + first_offset
	segments := decoded.SeekSegments()
	wantAnchor := uint64(base.Size) + 100
	if segments[0].Offset != wantAnchor || segments[0].Size != 500 ||
		segments[0].Time != 9000 || segments[0].Duration != 1000 || !segments[0].StartsWithSAP {
		t.Fatalf("segment 0 %+v", segments[0])
	}
	if segments[1].Offset != wantAnchor+500 || segments[1].Time != 10000 || segments[1].StartsWithSAP {
		t.Fatalf("segment 1 %+v", segments[1])
	}
}

func TestSidxTruncatedReferenceTable(t *testing.T) {
	sidx := NewSegmentIndexBox()
	sidx.Timescale = 1000
	sidx.Entrys = []sidxEntry{{ReferencedSize: 10, SubsegmentDuration: 10}}
	_, buf := sidx.Encode()
	// claim more references than the payload carries
	buf[len(buf)-12-1] = 200

	r := readerOver(t, buf)
	base := new(BasicBox)
	if _, err := base.Decode(r); err != nil {
		t.Fatal(err)
	}
	decoded := SegmentIndexBox{box: &FullBox{Box: base}}
	if _, err := decoded.Decode(r); err == nil {
		t.Fatal("expected an error for the oversized reference count")
	}
}
