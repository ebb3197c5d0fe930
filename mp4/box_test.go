package mp4

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func readerOver(t *testing.T, data []byte) *movReader {
	t.Helper()
	r, err := newMovReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestBasicBoxDecode32(t *testing.T) {
	data := make([]byte, 16)
	binary.BigEndian.PutUint32(data, 16)
	copy(data[4:], "free")

	box := BasicBox{}
	n, err := box.Decode(readerOver(t, data))
	if err != nil {
		t.Fatal(err)
	}
	if n != 8 || box.Size != 16 || box.Type != TypeFREE || box.HeaderLen != 8 {
		t.Fatalf("got n=%d size=%d type=%q headerlen=%d", n, box.Size, box.Type[:], box.HeaderLen)
	}
}

func TestBasicBoxDecodeLargesize(t *testing.T) {
	data := make([]byte, 24)
	binary.BigEndian.PutUint32(data, 1)
	copy(data[4:], "mdat")
	binary.BigEndian.PutUint64(data[8:], 24)

	box := BasicBox{}
	n, err := box.Decode(readerOver(t, data))
	if err != nil {
		t.Fatal(err)
	}
	if n != 16 || box.Size != 24 || box.Type != TypeMDAT {
		t.Fatalf("got n=%d size=%d type=%q", n, box.Size, box.Type[:])
	}
}

func TestBasicBoxDecodeToEnd(t *testing.T) {
	data := make([]byte, 20)
	binary.BigEndian.PutUint32(data, 0)
	copy(data[4:], "mdat")

	box := BasicBox{}
	if _, err := box.Decode(readerOver(t, data)); err != nil {
		t.Fatal(err)
	}
	if !box.ToEnd || box.Size != 20 {
		t.Fatalf("got toEnd=%v size=%d", box.ToEnd, box.Size)
	}
}

func TestBasicBoxDecodeUUID(t *testing.T) {
	data := make([]byte, 32)
	binary.BigEndian.PutUint32(data, 32)
	copy(data[4:], "uuid")
	user := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	copy(data[8:], user[:])

	box := BasicBox{}
	n, err := box.Decode(readerOver(t, data))
	if err != nil {
		t.Fatal(err)
	}
	if n != 24 || box.UserType != user {
		t.Fatalf("got n=%d usertype=%v", n, box.UserType)
	}
}

func TestBasicBoxDecodeInvalidSize(t *testing.T) {
	data := make([]byte, 8)
	binary.BigEndian.PutUint32(data, 5) // smaller than the 8 byte header
	copy(data[4:], "free")

	box := BasicBox{}
	_, err := box.Decode(readerOver(t, data))
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestBasicBoxDecodeTruncatedHeader(t *testing.T) {
	box := BasicBox{}
	_, err := box.Decode(readerOver(t, []byte{0, 0, 0}))
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestBasicBoxEncodeBufferForms(t *testing.T) {
	// 32-bit form spans the whole box, the largesize form is header only
	small := BasicBox{Type: TypeFREE, Size: 24}
	n, buf := small.Encode()
	if n != 8 || len(buf) != 24 {
		t.Fatalf("got n=%d len=%d, want whole-box buffer", n, len(buf))
	}
	large := BasicBox{Type: TypeMDAT, Size: math.MaxUint32 + 100}
	n, buf = large.Encode()
	if n != 16 || len(buf) != 16 {
		t.Fatalf("got n=%d len=%d, want header-only buffer", n, len(buf))
	}
}

func TestBasicBoxEncode64BitThreshold(t *testing.T) {
	box := BasicBox{Type: TypeMDAT, Size: math.MaxUint32 + 100}
	n, buf := box.Encode()
	if n != 16 {
		t.Fatalf("expected largesize form, header len %d", n)
	}
	if binary.BigEndian.Uint32(buf) != 1 {
		t.Fatalf("expected wire size 1, got %d", binary.BigEndian.Uint32(buf))
	}
	if binary.BigEndian.Uint64(buf[8:]) != box.Size {
		t.Fatal("largesize mismatch")
	}

	decoded := BasicBox{}
	if _, err := decoded.Decode(readerOver(t, append(buf, 0))); err != nil {
		t.Fatal(err)
	}
	if decoded.Size != box.Size {
		t.Fatalf("declared size changed across codec: %d != %d", decoded.Size, box.Size)
	}
}

func TestMovReaderExactness(t *testing.T) {
	r := readerOver(t, []byte{1, 2, 3, 4})
	if _, err := r.ReadExact(5); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	buf, err := r.ReadExact(4)
	if err != nil || len(buf) != 4 {
		t.Fatalf("got %v %v", buf, err)
	}
	if err = r.SeekTo(10); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestReservePatch(t *testing.T) {
	w := NewBufferWriter(32)
	p, err := reservePatch(w, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = w.Write([]byte("payload")); err != nil {
		t.Fatal(err)
	}
	if err = patch(w, p, []byte{0xDE, 0xAD, 0xBE, 0xEF}); err != nil {
		t.Fatal(err)
	}
	got := w.Bytes()
	if !bytes.Equal(got[:4], []byte{0xDE, 0xAD, 0xBE, 0xEF}) || string(got[4:]) != "payload" {
		t.Fatalf("unexpected sink contents %v", got)
	}
	if w.Tell() != int64(len(got)) {
		t.Fatal("patch moved the write position")
	}
	if err = patch(w, p, []byte{1}); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected length mismatch rejection, got %v", err)
	}
}
