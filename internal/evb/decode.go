package evb

import (
	"fmt"
	"io"
)

// Smallest possible encoded record: timestamp, tag and a mask body.
const minRecordSize = 4 + 4 + 20

// Decode parses a complete .evb track. Every structural check is fatal: the
// first violation returns a *FormatError and no track.
func Decode(data []byte) (*Track, error) {
	d := &decoder{r: NewReader(data), record: -1}
	return d.track()
}

// DecodeFrom reads r to EOF and decodes the result.
func DecodeFrom(r io.Reader) (*Track, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read track: %w", err)
	}
	return Decode(data)
}

type decoder struct {
	r      *Reader
	record int
}

func (d *decoder) fail(format string, args ...any) error {
	return &FormatError{
		Record: d.record,
		Offset: d.r.Offset(),
		Reason: fmt.Sprintf(format, args...),
	}
}

// truncated reports a short read as a format error.
func (d *decoder) truncated() error {
	if d.r.Err() == nil {
		return nil
	}
	return d.fail("truncated: %v", d.r.Err())
}

// u32 reads one field, returning a format error on a short read.
func (d *decoder) u32() (uint32, error) {
	v := d.r.ReadU32()
	return v, d.truncated()
}

func (d *decoder) expect(field string, ok bool, v uint32) error {
	if !ok {
		return d.fail("%s = %#08x", field, v)
	}
	return nil
}

func (d *decoder) track() (*Track, error) {
	size := d.r.ReadU32()
	count := d.r.ReadU32()
	if err := d.truncated(); err != nil {
		return nil, err
	}

	capacity := d.r.Remaining() / minRecordSize
	if uint64(count) < uint64(capacity) {
		capacity = int(count)
	}
	t := &Track{declaredSize: size, records: make([]Record, 0, capacity)}

	for i := 0; uint64(i) < uint64(count); i++ {
		d.record = i
		rec := Record{Timestamp: d.r.ReadF32()}
		tag := d.r.ReadU32()
		if err := d.truncated(); err != nil {
			return nil, err
		}
		switch tag {
		case TagMask:
			m, err := d.mask()
			if err != nil {
				return nil, err
			}
			rec.Kind, rec.Mask = KindMask, m
		case TagScripted:
			s, err := d.scripted()
			if err != nil {
				return nil, err
			}
			rec.Kind, rec.Scripted = KindScripted, s
		default:
			return nil, d.fail("unknown record tag %#x", tag)
		}
		t.records = append(t.records, rec)
	}
	return t, nil
}

func (d *decoder) mask() (Mask, error) {
	var m Mask
	m.Bitmask = d.r.ReadU32()
	one, err := d.u32()
	if err != nil {
		return m, err
	}
	if err := d.expect("mask sentinel", one == oneBits, one); err != nil {
		return m, err
	}
	m.Aux = d.r.ReadU32()
	zeroA, err := d.u32()
	if err != nil {
		return m, err
	}
	if err := d.expect("mask zero field A", zeroA == 0, zeroA); err != nil {
		return m, err
	}
	zeroB, err := d.u32()
	if err != nil {
		return m, err
	}
	if err := d.expect("mask zero field B", zeroB == 0, zeroB); err != nil {
		return m, err
	}
	return m, nil
}

func (d *decoder) scripted() (*Scripted, error) {
	s := &Scripted{}
	flag, err := d.u32()
	if err != nil {
		return nil, err
	}
	if err := d.expect("scripted flag", flag == 0 || flag == 1, flag); err != nil {
		return nil, err
	}
	s.Flag = flag
	one, err := d.u32()
	if err != nil {
		return nil, err
	}
	if err := d.expect("scripted sentinel", one == oneBits, one); err != nil {
		return nil, err
	}
	s.EventType = d.r.ReadTag()
	s.Reserved = d.r.ReadU32()
	count, err := d.u32()
	if err != nil {
		return nil, err
	}

	for j := uint64(0); j < uint64(count); j++ {
		el, err := d.element()
		if err != nil {
			return nil, err
		}
		s.Elements = append(s.Elements, el)
	}
	return s, nil
}

// element reads one element. Stored lengths exclude the terminator byte,
// so each name or value occupies length+1 bytes.
func (d *decoder) element() (Element, error) {
	var el Element
	nameLen := d.r.ReadU32()
	attrCount, err := d.u32()
	if err != nil {
		return el, err
	}
	if el.Name, err = d.text("element name", nameLen); err != nil {
		return el, err
	}
	for i := uint64(0); i < uint64(attrCount); i++ {
		nameLen := d.r.ReadU32()
		valueLen, err := d.u32()
		if err != nil {
			return el, err
		}
		var a Attribute
		if a.Name, err = d.text("attribute name", nameLen); err != nil {
			return el, err
		}
		if a.Value, err = d.text("attribute value", valueLen); err != nil {
			return el, err
		}
		el.Attributes = append(el.Attributes, a)
	}
	return el, nil
}

// text reads a stored string of n bytes plus its terminator. The length is
// checked against the remaining data before any int conversion.
func (d *decoder) text(field string, n uint32) ([]byte, error) {
	if uint64(n)+1 > uint64(d.r.Remaining()) {
		return nil, d.fail("truncated: %s length %d with %d bytes left", field, n, d.r.Remaining())
	}
	return d.r.ReadBytes(int(n) + 1), nil
}
