package evb

import (
	"fmt"
	"math"
)

// Encode serializes t in the .evb layout. The size prefix is the total
// encoded length.
func Encode(t *Track) ([]byte, error) {
	w := NewWriter()
	w.WriteU32(0) // size, patched below
	w.WriteU32(uint32(t.Len()))

	var err error
	t.Each(func(i int, r Record) bool {
		w.WriteF32(r.Timestamp)
		switch r.Kind {
		case KindMask:
			writeMask(w, r.Mask)
		case KindScripted:
			err = writeScripted(w, r.Scripted)
		default:
			err = fmt.Errorf("unknown kind %v", r.Kind)
		}
		if err != nil {
			err = fmt.Errorf("encode record %d: %w", i, err)
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if uint64(w.Len()) > math.MaxUint32 {
		return nil, fmt.Errorf("encode: track too large (%d bytes)", w.Len())
	}
	w.PatchU32(0, uint32(w.Len()))
	return w.Bytes(), nil
}

func writeMask(w *Writer, m Mask) {
	w.WriteU32(TagMask)
	w.WriteU32(m.Bitmask)
	w.WriteU32(oneBits)
	w.WriteU32(m.Aux)
	w.WriteU32(0)
	w.WriteU32(0)
}

func writeScripted(w *Writer, s *Scripted) error {
	if s == nil {
		return fmt.Errorf("scripted record without payload")
	}
	if s.Flag > 1 {
		return fmt.Errorf("scripted flag %d, want 0 or 1", s.Flag)
	}
	w.WriteU32(TagScripted)
	w.WriteU32(s.Flag)
	w.WriteU32(oneBits)
	w.WriteBytes(s.EventType[:])
	w.WriteU32(s.Reserved)
	w.WriteU32(uint32(len(s.Elements)))
	for _, el := range s.Elements {
		if len(el.Name) == 0 {
			return fmt.Errorf("element name needs at least a terminator byte")
		}
		w.WriteU32(uint32(len(el.Name) - 1))
		w.WriteU32(uint32(len(el.Attributes)))
		w.WriteBytes(el.Name)
		for _, a := range el.Attributes {
			if len(a.Name) == 0 || len(a.Value) == 0 {
				return fmt.Errorf("attribute of %q needs terminator bytes", el.NameText())
			}
			w.WriteU32(uint32(len(a.Name) - 1))
			w.WriteU32(uint32(len(a.Value) - 1))
			w.WriteBytes(a.Name)
			w.WriteBytes(a.Value)
		}
	}
	return nil
}

// Builder assembles a track record by record.
type Builder struct {
	records []Record
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Mask appends a mask record.
func (b *Builder) Mask(ts float32, bitmask, aux uint32) *Builder {
	b.records = append(b.records, Record{
		Timestamp: ts,
		Kind:      KindMask,
		Mask:      Mask{Bitmask: bitmask, Aux: aux},
	})
	return b
}

// Scripted appends a scripted record.
func (b *Builder) Scripted(ts float32, s Scripted) *Builder {
	b.records = append(b.records, Record{
		Timestamp: ts,
		Kind:      KindScripted,
		Scripted:  &s,
	})
	return b
}

func (b *Builder) Track() *Track {
	return NewTrack(b.records)
}

// EventType packs a code of up to 4 bytes, NUL padded.
func EventType(code string) [4]byte {
	var t [4]byte
	copy(t[:], code)
	return t
}
