package mp4

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestStrayTableLeafOutsideTrak(t *testing.T) {
	// moov holding an empty trak followed by an stts at moov level; the table
	// must not be attributed to the track
	stts := make([]byte, 24)
	binary.BigEndian.PutUint32(stts, 24)
	copy(stts[4:], "stts")
	binary.BigEndian.PutUint32(stts[12:], 1) // entry_count
	binary.BigEndian.PutUint32(stts[16:], 2)
	binary.BigEndian.PutUint32(stts[20:], 100)

	data := make([]byte, 16)
	binary.BigEndian.PutUint32(data, uint32(16+len(stts)))
	copy(data[4:], "moov")
	binary.BigEndian.PutUint32(data[8:], 8)
	copy(data[12:], "trak")
	data = append(data, stts...)

	movie, err := ReadMovie(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(movie.Tracks()) != 1 {
		t.Fatalf("got %d tracks", len(movie.Tracks()))
	}
	if n := movie.Tracks()[0].SampleCount(); n != 0 {
		t.Fatalf("stray table produced %d samples", n)
	}
	found := false
	for _, w := range movie.Warnings() {
		if errors.Is(w, ErrStructuralMismatch) && w.Type == TypeSTTS {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a structural mismatch warning for the stray stts")
	}
}
