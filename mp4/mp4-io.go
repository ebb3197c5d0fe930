package mp4

import (
	"io"
)

// Writer is the byte sink contract the caller supplies. The muxer and the
// tree writer never open files themselves; they only need positional write
// access so container sizes can be patched after the children are written.
type Writer interface {
	Write(p []byte) (n int, err error)
	Seek(offset int64, whence int) (int64, error)
	Tell() (offset int64)
}

// movReader is a positional cursor over a finite byte source. Every read is
// exact: a read past the declared source length fails with ErrTruncated
// instead of returning short data.
type movReader struct {
	r    io.ReadSeeker
	size int64
	pos  int64
}

func newMovReader(r io.ReadSeeker) (*movReader, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return &movReader{r: r, size: size}, nil
}

func (mr *movReader) Position() int64 { return mr.pos }

func (mr *movReader) Remaining() int64 { return mr.size - mr.pos }

func (mr *movReader) ReadExact(n int) ([]byte, error) {
	if int64(n) > mr.Remaining() {
		return nil, ErrTruncated
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(mr.r, buf); err != nil {
		return nil, ErrTruncated
	}
	mr.pos += int64(n)
	return buf, nil
}

func (mr *movReader) ReadFull(buf []byte) error {
	if int64(len(buf)) > mr.Remaining() {
		return ErrTruncated
	}
	if _, err := io.ReadFull(mr.r, buf); err != nil {
		return ErrTruncated
	}
	mr.pos += int64(len(buf))
	return nil
}

func (mr *movReader) SeekTo(offset int64) error {
	if offset < 0 || offset > mr.size {
		return ErrOutOfRange
	}
	if _, err := mr.r.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	mr.pos = offset
	return nil
}

func (mr *movReader) Skip(n int64) error {
	return mr.SeekTo(mr.pos + n)
}

// CopyTo copies n bytes starting at offset into w and restores the cursor.
func (mr *movReader) CopyTo(w io.Writer, offset, n int64) error {
	if offset < 0 || offset+n > mr.size {
		return ErrOutOfRange
	}
	back := mr.pos
	if err := mr.SeekTo(offset); err != nil {
		return err
	}
	if _, err := io.CopyN(w, mr.r, n); err != nil {
		mr.pos = mr.size
		return ErrTruncated
	}
	mr.pos = offset + n
	return mr.SeekTo(back)
}

// patchPoint remembers a reserved region of the sink so a header can be
// rewritten once the size of its contents is known.
type patchPoint struct {
	offset int64
	length int
}

// reservePatch writes length placeholder bytes at the current sink position
// and returns a token for patching them later.
func reservePatch(w Writer, length int) (patchPoint, error) {
	p := patchPoint{offset: w.Tell(), length: length}
	if _, err := w.Write(make([]byte, length)); err != nil {
		return patchPoint{}, err
	}
	return p, nil
}

// patch overwrites a previously reserved region. The replacement must be the
// same length as the placeholder; the sink position is restored afterwards.
func patch(w Writer, p patchPoint, buf []byte) error {
	if len(buf) != p.length {
		return ErrOutOfRange
	}
	back := w.Tell()
	if _, err := w.Seek(p.offset, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return err
	}
	_, err := w.Seek(back, io.SeekStart)
	return err
}

// BufferWriter is a growable in-memory sink implementing Writer. It backs
// tests and callers that assemble a file before flushing it elsewhere.
type BufferWriter struct {
	buffer []byte
	offset int
}

func NewBufferWriter(capacity int) *BufferWriter {
	return &BufferWriter{buffer: make([]byte, 0, capacity)}
}

func (bw *BufferWriter) Write(p []byte) (n int, err error) {
	if cap(bw.buffer)-bw.offset >= len(p) {
		if len(bw.buffer) < bw.offset+len(p) {
			bw.buffer = bw.buffer[:bw.offset+len(p)]
		}
		copy(bw.buffer[bw.offset:], p)
	} else {
		tmp := bw.buffer[0:bw.offset]
		tmp = append(tmp, p...)
		bw.buffer = tmp
	}
	bw.offset += len(p)
	return len(p), nil
}

func (bw *BufferWriter) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent {
		if bw.offset+int(offset) > len(bw.buffer) {
			return -1, ErrOutOfRange
		}
		bw.offset += int(offset)
	} else if whence == io.SeekStart {
		if offset > int64(len(bw.buffer)) {
			return -1, ErrOutOfRange
		}
		bw.offset = int(offset)
	} else {
		bw.offset = len(bw.buffer) + int(offset)
		if bw.offset < 0 {
			bw.offset = 0
			return -1, ErrOutOfRange
		}
	}
	return int64(bw.offset), nil
}

func (bw *BufferWriter) Tell() (offset int64) {
	return int64(bw.offset)
}

func (bw *BufferWriter) Bytes() []byte {
	return bw.buffer
}
