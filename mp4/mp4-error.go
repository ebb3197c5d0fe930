package mp4

import (
	"errors"
	"fmt"
)

// Fatal errors abort the enclosing read/write call. Non-fatal table and
// structure anomalies are recovered locally and reported as Warnings on the
// parse result instead.
var (
	ErrTruncated          = errors.New("mp4: source ended before declared length")
	ErrInvalidHeader      = errors.New("mp4: declared box size smaller than header")
	ErrStructuralMismatch = errors.New("mp4: children size does not match container size")
	ErrUnsupportedVariant = errors.New("mp4: unsupported box version or flags")
	ErrTableInconsistency = errors.New("mp4: sample table counts disagree")
	ErrUnresolvedOffset   = errors.New("mp4: sample data was never written")
	ErrOutOfRange         = errors.New("mp4: seek beyond source bounds")
)

// BoxError carries the box type and byte offset an error was detected at, so
// callers can log actionable diagnostics.
type BoxError struct {
	Type   [4]byte
	Offset int64
	Err    error
}

func (e *BoxError) Error() string {
	return fmt.Sprintf("mp4: box %q at offset %d: %v", e.Type[:], e.Offset, e.Err)
}

func (e *BoxError) Unwrap() error { return e.Err }

func boxErr(boxtype [4]byte, offset int64, err error) error {
	return &BoxError{Type: boxtype, Offset: offset, Err: err}
}

// Warning is a non-fatal anomaly attached to a best-effort parse result.
type Warning struct {
	Type   [4]byte
	Offset int64
	Err    error
}

func (w Warning) Error() string {
	return fmt.Sprintf("mp4: box %q at offset %d: %v", w.Type[:], w.Offset, w.Err)
}

func (w Warning) Unwrap() error { return w.Err }
