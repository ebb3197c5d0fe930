package mp4

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestBoxTreePassthrough(t *testing.T) {
	data, _ := muxTestFile(t)
	tree, err := ParseBoxTree(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", tree.Warnings)
	}

	w := NewBufferWriter(len(data))
	if err = tree.WriteTo(w); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(w.Bytes(), data) {
		t.Fatal("clean rewrite is not byte exact")
	}
}

func TestBoxTreeFindBox(t *testing.T) {
	data, _ := muxTestFile(t)
	tree, err := ParseBoxTree(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	stbl := tree.FindBox("moov", "trak", "mdia", "minf", "stbl")
	if stbl == nil {
		t.Fatal("stbl not found")
	}
	if tree.FindBox("moof") != nil {
		t.Fatal("found a box that is not in the file")
	}
	mdat := tree.FindBox("mdat")
	if mdat == nil {
		t.Fatal("mdat not found")
	}
	if mdat.Payload != nil || mdat.buffered() {
		t.Fatal("mdat payload should stay unbuffered")
	}
	if mdat.DataOffset != mdat.Header.Offset+int64(mdat.Header.HeaderLen) {
		t.Fatalf("mdat data offset %d", mdat.DataOffset)
	}
}

func TestBoxTreeDetachedSource(t *testing.T) {
	data, _ := muxTestFile(t)
	tree, err := ParseBoxTree(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	tree.reader = nil
	err = tree.WriteTo(NewBufferWriter(16))
	if !errors.Is(err, ErrUnresolvedOffset) {
		t.Fatalf("expected ErrUnresolvedOffset, got %v", err)
	}
}

func TestBoxTreeMalformedChildBecomesSlack(t *testing.T) {
	// udta declares 10 payload bytes; the child inside claims 100
	data := make([]byte, 18)
	binary.BigEndian.PutUint32(data, 18)
	copy(data[4:], "udta")
	binary.BigEndian.PutUint32(data[8:], 100)
	copy(data[12:], "free")
	data[16], data[17] = 0xAB, 0xCD

	tree, err := ParseBoxTree(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Boxes) != 1 || tree.Boxes[0].Header.Type != TypeUDTA {
		t.Fatalf("unexpected top level %v", tree.Boxes)
	}
	udta := tree.Boxes[0]
	if len(udta.Children) != 0 || len(udta.Slack) != 10 {
		t.Fatalf("children=%d slack=%d, want the damage kept as slack", len(udta.Children), len(udta.Slack))
	}
	found := false
	for _, w := range tree.Warnings {
		if errors.Is(w, ErrStructuralMismatch) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a structural mismatch warning")
	}

	w := NewBufferWriter(len(data))
	if err = tree.WriteTo(w); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(w.Bytes(), data) {
		t.Fatal("slack rewrite is not byte exact")
	}
}

func TestBoxTreeUndersizedTailBecomesSlack(t *testing.T) {
	data := make([]byte, 12)
	binary.BigEndian.PutUint32(data, 12)
	copy(data[4:], "udta")
	copy(data[8:], []byte{1, 2, 3, 4})

	tree, err := ParseBoxTree(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Boxes[0].Slack) != 4 {
		t.Fatalf("slack %d bytes, want 4", len(tree.Boxes[0].Slack))
	}
	if len(tree.Warnings) == 0 {
		t.Fatal("expected a warning for the undersized tail")
	}
}

func TestBoxTreeNormalizesToEnd(t *testing.T) {
	// a to-end box gets an explicit size on rewrite
	data := make([]byte, 12)
	copy(data[4:], "skip")
	copy(data[8:], []byte{9, 9, 9, 9})

	tree, err := ParseBoxTree(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	box := tree.Boxes[0]
	if !box.Header.ToEnd || box.Header.Size != 12 {
		t.Fatalf("toEnd=%v size=%d", box.Header.ToEnd, box.Header.Size)
	}

	w := NewBufferWriter(len(data))
	if err = tree.WriteTo(w); err != nil {
		t.Fatal(err)
	}
	out := w.Bytes()
	if binary.BigEndian.Uint32(out) != 12 {
		t.Fatalf("rewritten size field %d, want explicit 12", binary.BigEndian.Uint32(out))
	}
	if !bytes.Equal(out[4:], data[4:]) {
		t.Fatal("payload changed")
	}
}

func TestBoxTreePayloadEditPropagatesSizes(t *testing.T) {
	data, _ := muxTestFile(t)
	tree, err := ParseBoxTree(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	moov := tree.FindBox("moov")
	hdlr := tree.FindBox("moov", "trak", "mdia", "hdlr")
	if moov == nil || hdlr == nil {
		t.Fatal("moov or hdlr not found")
	}
	oldMoov := moov.Header.Size
	hdlr.Payload = append(hdlr.Payload, []byte("xx")...)

	w := NewBufferWriter(len(data) + 2)
	if err = tree.WriteTo(w); err != nil {
		t.Fatal(err)
	}
	if moov.Header.Size != oldMoov+2 {
		t.Fatalf("moov size %d, want %d", moov.Header.Size, oldMoov+2)
	}
	out := w.Bytes()
	if len(out) != len(data)+2 {
		t.Fatalf("output %d bytes, want %d", len(out), len(data)+2)
	}
}
