// Package evb decodes and encodes .evb event tracks: a size-prefixed,
// count-prefixed list of timestamped records, each either a mask record
// (lip-sync bitmask) or a scripted record (designer-authored event with
// nested named elements).
package evb

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// Record tags as stored on disk.
const (
	TagMask     uint32 = 0x7ab7
	TagScripted uint32 = 0x3c8c
)

// oneBits is the IEEE-754 bit pattern of 1.0.
const oneBits uint32 = 0x3f800000

var (
	// ErrFormat marks a malformed or unrecognized track. Decoding never
	// returns a partial track alongside it.
	ErrFormat = errors.New("malformed event track")
	// ErrLookupMiss marks an out-of-range index or a record of the wrong kind.
	ErrLookupMiss = errors.New("no such record")
)

// FormatError describes where decoding stopped.
type FormatError struct {
	Record int // -1 for the track header
	Offset int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Record < 0 {
		return fmt.Sprintf("evb: header: %s (offset %d)", e.Reason, e.Offset)
	}
	return fmt.Sprintf("evb: record %d: %s (offset %d)", e.Record, e.Reason, e.Offset)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// Kind is the record variant.
type Kind uint8

const (
	KindMask Kind = iota + 1
	KindScripted
)

func (k Kind) String() string {
	switch k {
	case KindMask:
		return "mask"
	case KindScripted:
		return "scripted"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Tag returns the on-disk tag of the kind.
func (k Kind) Tag() uint32 {
	if k == KindScripted {
		return TagScripted
	}
	return TagMask
}

// Mask is the payload of a mask record.
type Mask struct {
	Bitmask uint32
	Aux     uint32
}

// Attribute is a name/value pair of a scripted element. Both fields hold the
// raw bytes as stored, including the trailing terminator byte.
type Attribute struct {
	Name  []byte
	Value []byte
}

func (a Attribute) NameText() string  { return Text(a.Name) }
func (a Attribute) ValueText() string { return Text(a.Value) }

// Element is one named node of a scripted record. Name holds the raw bytes
// including the trailing terminator byte.
type Element struct {
	Name       []byte
	Attributes []Attribute
}

func (e Element) NameText() string { return Text(e.Name) }

// Attr returns the value of the first attribute with the given name.
func (e Element) Attr(name string) (string, bool) {
	for _, a := range e.Attributes {
		if a.NameText() == name {
			return a.ValueText(), true
		}
	}
	return "", false
}

// Scripted is the payload of a scripted record.
type Scripted struct {
	Flag      uint32 // 0 or 1
	EventType [4]byte
	Reserved  uint32
	Elements  []Element
}

// Type returns the event type code as a string, e.g. "mati". Trailing NUL
// padding is dropped.
func (s *Scripted) Type() string {
	return string(bytes.TrimRight(s.EventType[:], "\x00"))
}

// Record is one timestamped entry of a track. Exactly one of Mask and
// Scripted is meaningful, selected by Kind.
type Record struct {
	Timestamp float32
	Kind      Kind
	Mask      Mask
	Scripted  *Scripted
}

// Track is a decoded, immutable record sequence in file order. Timestamps
// are not guaranteed to be sorted.
type Track struct {
	declaredSize uint32
	records      []Record
}

// NewTrack builds a track from records, e.g. for encoding.
func NewTrack(records []Record) *Track {
	rs := make([]Record, len(records))
	copy(rs, records)
	return &Track{records: rs}
}

// Len returns the record count fixed at decode time.
func (t *Track) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// DeclaredSize returns the size prefix as read from the file.
func (t *Track) DeclaredSize() uint32 {
	return t.declaredSize
}

// Record returns the record at index i, or false when i is out of range.
func (t *Track) Record(i int) (Record, bool) {
	if t == nil || i < 0 || i >= len(t.records) {
		return Record{}, false
	}
	return t.records[i], true
}

// Each calls fn for every record in order until fn returns false.
func (t *Track) Each(fn func(i int, r Record) bool) {
	if t == nil {
		return
	}
	for i, r := range t.records {
		if !fn(i, r) {
			return
		}
	}
}

// CString returns s as stored bytes with the trailing terminator. Text
// outside Windows-1252 cannot be stored and is an error.
func CString(s string) ([]byte, error) {
	encoded, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%q is not Windows-1252 text: %w", s, err)
	}
	return append(encoded, 0), nil
}

// Text converts stored bytes to a UTF-8 string, dropping the terminator.
// Pure ASCII passes through unchanged; other bytes are read as Windows-1252.
func Text(raw []byte) string {
	raw = bytes.TrimRight(raw, "\x00")
	if len(raw) == 0 {
		return ""
	}
	allASCII := true
	for _, b := range raw {
		if b >= 0x80 {
			allASCII = false
			break
		}
	}
	if allASCII {
		return string(raw)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
