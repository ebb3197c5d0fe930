package mp4

import (
	"encoding/binary"
	"io"
	"math"
)

// Box is one node of a parsed box tree. Containers hold children, leaves
// hold their payload verbatim, and mdat keeps only the payload's position in
// the source so a multi gigabyte file never has to fit in memory.
type Box struct {
	Header   BasicBox
	Children []*Box
	Payload  []byte
	// Slack is malformed or unparseable trailing bytes inside a container,
	// kept so a rewrite loses nothing.
	Slack []byte
	// DataOffset is the source position of an unbuffered payload (mdat).
	DataOffset int64
}

func (box *Box) buffered() bool {
	return box.Payload != nil || len(box.Children) > 0 || box.Header.Size == uint64(box.Header.HeaderLen)
}

// BoxTree is the structural view of a whole file: the flat list of top level
// boxes plus everything salvageable beneath them.
type BoxTree struct {
	Boxes    []*Box
	Warnings []Warning

	reader *movReader
}

// ParseBoxTree reads the full box structure of a file. Unknown leaf types are
// kept opaque; structural damage inside a container is preserved as slack and
// reported as a warning rather than failing the parse.
func ParseBoxTree(r io.ReadSeeker) (*BoxTree, error) {
	reader, err := newMovReader(r)
	if err != nil {
		return nil, err
	}
	tree := &BoxTree{reader: reader}
	end := reader.Position() + reader.Remaining()
	tree.Boxes, err = tree.parseBoxes(reader, end, nil)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func (tree *BoxTree) warn(boxtype [4]byte, offset int64, err error) {
	tree.Warnings = append(tree.Warnings, Warning{Type: boxtype, Offset: offset, Err: err})
}

func (tree *BoxTree) parseBoxes(r *movReader, end int64, parent *Box) ([]*Box, error) {
	var boxes []*Box
	for r.Position() < end {
		start := r.Position()
		if end-start < BasicBoxLen {
			slack, err := r.ReadExact(int(end - start))
			if err != nil {
				return boxes, err
			}
			if parent != nil {
				parent.Slack = slack
				tree.warn(parent.Header.Type, start, ErrStructuralMismatch)
			} else {
				tree.warn([4]byte{}, start, ErrTruncated)
			}
			break
		}
		box := new(Box)
		if _, err := box.Header.Decode(r); err != nil {
			return boxes, err
		}
		boxEnd := box.Header.Offset + int64(box.Header.Size)
		if boxEnd > end {
			// the box claims more than its container holds
			if err := r.SeekTo(start); err != nil {
				return boxes, err
			}
			slack, err := r.ReadExact(int(end - start))
			if err != nil {
				return boxes, err
			}
			if parent != nil {
				parent.Slack = slack
				tree.warn(box.Header.Type, start, ErrStructuralMismatch)
			} else {
				tree.warn(box.Header.Type, start, ErrTruncated)
			}
			break
		}
		switch {
		case containerTypes[box.Header.Type]:
			children, err := tree.parseBoxes(r, boxEnd, box)
			if err != nil {
				return boxes, err
			}
			box.Children = children
		case box.Header.Type == TypeMDAT:
			box.DataOffset = r.Position()
			if err := r.SeekTo(boxEnd); err != nil {
				return boxes, err
			}
		default:
			payload, err := r.ReadExact(int(box.Header.Size) - box.Header.HeaderLen)
			if err != nil {
				return boxes, err
			}
			box.Payload = payload
		}
		boxes = append(boxes, box)
	}
	return boxes, nil
}

// FindBox returns the first box of a type along a path of nested containers,
// e.g. FindBox("moov", "trak", "mdia").
func (tree *BoxTree) FindBox(path ...string) *Box {
	boxes := tree.Boxes
	var found *Box
	for _, name := range path {
		found = nil
		want := f(name)
		for _, box := range boxes {
			if box.Header.Type == want {
				found = box
				break
			}
		}
		if found == nil {
			return nil
		}
		boxes = found.Children
	}
	return found
}

// WriteTo rewrites the tree into w. Container sizes are reserved and patched
// after their children are written, so edits to any payload propagate to
// every enclosing size field. Unbuffered payloads are copied from the source
// the tree was parsed from; a tree detached from its source cannot place them
// and fails with ErrUnresolvedOffset.
func (tree *BoxTree) WriteTo(w Writer) error {
	for _, box := range tree.Boxes {
		if err := tree.writeBox(w, box); err != nil {
			return err
		}
	}
	return nil
}

func (tree *BoxTree) writeBox(w Writer, box *Box) error {
	start := w.Tell()
	// keep the wire form the source used so a clean pass stays byte exact;
	// header lengths 16 and 32 are the largesize forms
	large := box.Header.HeaderLen == 16 || box.Header.HeaderLen == 32
	hdrLen := BasicBoxLen
	if large {
		hdrLen += 8
	}
	if box.Header.Type == TypeUUID {
		hdrLen += 16
	}
	hdr, err := reservePatch(w, hdrLen)
	if err != nil {
		return err
	}

	switch {
	case len(box.Children) > 0 || (containerTypes[box.Header.Type] && box.Payload == nil):
		for _, child := range box.Children {
			if err = tree.writeBox(w, child); err != nil {
				return err
			}
		}
		if len(box.Slack) > 0 {
			if _, err = w.Write(box.Slack); err != nil {
				return err
			}
		}
	case box.Payload != nil:
		if _, err = w.Write(box.Payload); err != nil {
			return err
		}
	case !box.buffered():
		if tree.reader == nil {
			return ErrUnresolvedOffset
		}
		n := int64(box.Header.Size) - int64(box.Header.HeaderLen)
		if err = tree.reader.CopyTo(w, box.DataOffset, n); err != nil {
			return err
		}
	}

	size := uint64(w.Tell() - start)
	buf := make([]byte, hdrLen)
	if large {
		binary.BigEndian.PutUint32(buf, 1)
		copy(buf[4:], box.Header.Type[:])
		binary.BigEndian.PutUint64(buf[8:], size)
		if box.Header.Type == TypeUUID {
			copy(buf[16:], box.Header.UserType[:])
		}
	} else {
		if size > math.MaxUint32 {
			return boxErr(box.Header.Type, start, ErrInvalidHeader)
		}
		binary.BigEndian.PutUint32(buf, uint32(size))
		copy(buf[4:], box.Header.Type[:])
		if box.Header.Type == TypeUUID {
			copy(buf[8:], box.Header.UserType[:])
		}
	}
	box.Header.Size = size
	box.Header.Offset = start
	return patch(w, hdr, buf)
}
