package mp4

import (
	"encoding/binary"
	"errors"
	"testing"
)

func buildStz2(fieldSize byte, sampleCount uint32, table []byte) []byte {
	data := make([]byte, 20+len(table))
	binary.BigEndian.PutUint32(data, uint32(len(data)))
	copy(data[4:], "stz2")
	data[15] = fieldSize
	binary.BigEndian.PutUint32(data[16:], sampleCount)
	copy(data[20:], table)
	return data
}

func TestStz2Decode4BitFields(t *testing.T) {
	// three samples packed two nibbles per byte, last nibble is padding
	data := buildStz2(4, 3, []byte{0x57, 0x20})

	r := readerOver(t, data)
	base := new(BasicBox)
	if _, err := base.Decode(r); err != nil {
		t.Fatal(err)
	}
	stz2 := CompactSampleSizeBox{box: &FullBox{Box: base}}
	if _, err := stz2.Decode(r); err != nil {
		t.Fatal(err)
	}
	if stz2.stsz.sampleCount != 3 || stz2.stsz.sampleSize != 0 {
		t.Fatalf("count=%d size=%d", stz2.stsz.sampleCount, stz2.stsz.sampleSize)
	}
	want := []uint32{5, 7, 2}
	for i, w := range want {
		if stz2.stsz.entrySizelist[i] != w {
			t.Fatalf("entry %d size %d, want %d", i+1, stz2.stsz.entrySizelist[i], w)
		}
	}
}

func TestStz2Decode16BitFields(t *testing.T) {
	data := buildStz2(16, 2, []byte{0x01, 0x00, 0x02, 0x58})

	r := readerOver(t, data)
	base := new(BasicBox)
	if _, err := base.Decode(r); err != nil {
		t.Fatal(err)
	}
	stz2 := CompactSampleSizeBox{box: &FullBox{Box: base}}
	if _, err := stz2.Decode(r); err != nil {
		t.Fatal(err)
	}
	if stz2.stsz.entrySizelist[0] != 256 || stz2.stsz.entrySizelist[1] != 600 {
		t.Fatalf("entries %v", stz2.stsz.entrySizelist)
	}
}

func TestStz2RejectsUnknownFieldSize(t *testing.T) {
	data := buildStz2(3, 3, []byte{0x57, 0x20})

	r := readerOver(t, data)
	base := new(BasicBox)
	if _, err := base.Decode(r); err != nil {
		t.Fatal(err)
	}
	stz2 := CompactSampleSizeBox{box: &FullBox{Box: base}}
	_, err := stz2.Decode(r)
	if !errors.Is(err, ErrUnsupportedVariant) {
		t.Fatalf("expected ErrUnsupportedVariant, got %v", err)
	}
}

func TestStz2CountBeyondPayload(t *testing.T) {
	// the declared count needs more table bytes than the box carries
	data := buildStz2(8, 50, []byte{1, 2})

	r := readerOver(t, data)
	base := new(BasicBox)
	if _, err := base.Decode(r); err != nil {
		t.Fatal(err)
	}
	stz2 := CompactSampleSizeBox{box: &FullBox{Box: base}}
	_, err := stz2.Decode(r)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}
