package evb

import (
	"encoding/binary"
	"io"
	"math"
)

// Reader reads little-endian track fields from a byte slice.
// The first short read is sticky: every later read returns zero and Err
// reports io.ErrUnexpectedEOF.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the position of the next unread byte.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) Err() error {
	return r.err
}

// ReadU32 reads 4 bytes as little-endian uint32.
func (r *Reader) ReadU32() uint32 {
	if r.err != nil {
		return 0
	}
	if r.Remaining() < 4 {
		r.err = io.ErrUnexpectedEOF
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

// ReadF32 reads 4 bytes as a little-endian IEEE-754 float.
func (r *Reader) ReadF32() float32 {
	return math.Float32frombits(r.ReadU32())
}

// ReadTag reads an opaque 4-character code.
func (r *Reader) ReadTag() [4]byte {
	var tag [4]byte
	copy(tag[:], r.ReadBytes(4))
	return tag
}

// ReadBytes reads n raw bytes into a fresh slice.
func (r *Reader) ReadBytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.Remaining() < n {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}
