package evb

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TrackDoc is the YAML authoring form of a track, used by evbtool compile
// and dump.
type TrackDoc struct {
	Records []RecordDoc `yaml:"records"`
}

type RecordDoc struct {
	At       float32      `yaml:"at"`
	Mask     *MaskDoc     `yaml:"mask,omitempty"`
	Scripted *ScriptedDoc `yaml:"scripted,omitempty"`
}

type MaskDoc struct {
	Bits uint32 `yaml:"bits"`
	Aux  uint32 `yaml:"aux"`
}

type ScriptedDoc struct {
	Type     string       `yaml:"type"`
	Flag     uint32       `yaml:"flag"`
	Reserved uint32       `yaml:"reserved,omitempty"`
	Elements []ElementDoc `yaml:"elements,omitempty"`
}

type ElementDoc struct {
	Name  string    `yaml:"name"`
	Attrs []AttrDoc `yaml:"attrs,omitempty"`
}

type AttrDoc struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// LoadYAML reads a track document from path.
func LoadYAML(path string) (*Track, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read track doc %s: %w", path, err)
	}
	t, err := ParseYAML(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseYAML builds a track from its YAML authoring form.
func ParseYAML(raw []byte) (*Track, error) {
	var doc TrackDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse track doc: %w", err)
	}
	b := NewBuilder()
	for i, rd := range doc.Records {
		switch {
		case rd.Mask != nil && rd.Scripted != nil:
			return nil, fmt.Errorf("record %d: both mask and scripted set", i)
		case rd.Mask != nil:
			b.Mask(rd.At, rd.Mask.Bits, rd.Mask.Aux)
		case rd.Scripted != nil:
			s, err := rd.Scripted.payload()
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			b.Scripted(rd.At, s)
		default:
			return nil, fmt.Errorf("record %d: neither mask nor scripted set", i)
		}
	}
	return b.Track(), nil
}

func (sd *ScriptedDoc) payload() (Scripted, error) {
	// Shorter codes are NUL padded, the form Scripted.Type trims.
	if len(sd.Type) > 4 {
		return Scripted{}, fmt.Errorf("event type %q longer than 4 bytes", sd.Type)
	}
	if sd.Flag > 1 {
		return Scripted{}, fmt.Errorf("flag %d, want 0 or 1", sd.Flag)
	}
	s := Scripted{
		Flag:      sd.Flag,
		EventType: EventType(sd.Type),
		Reserved:  sd.Reserved,
	}
	for i, ed := range sd.Elements {
		name, err := CString(ed.Name)
		if err != nil {
			return Scripted{}, fmt.Errorf("element %d name: %w", i, err)
		}
		el := Element{Name: name}
		for j, ad := range ed.Attrs {
			var a Attribute
			if a.Name, err = CString(ad.Name); err != nil {
				return Scripted{}, fmt.Errorf("element %d attribute %d name: %w", i, j, err)
			}
			if a.Value, err = CString(ad.Value); err != nil {
				return Scripted{}, fmt.Errorf("element %d attribute %d value: %w", i, j, err)
			}
			el.Attributes = append(el.Attributes, a)
		}
		s.Elements = append(s.Elements, el)
	}
	return s, nil
}

// Doc converts a track to its YAML authoring form.
func Doc(t *Track) TrackDoc {
	doc := TrackDoc{Records: make([]RecordDoc, 0, t.Len())}
	t.Each(func(_ int, r Record) bool {
		rd := RecordDoc{At: r.Timestamp}
		switch r.Kind {
		case KindMask:
			rd.Mask = &MaskDoc{Bits: r.Mask.Bitmask, Aux: r.Mask.Aux}
		case KindScripted:
			sd := &ScriptedDoc{
				Type:     r.Scripted.Type(),
				Flag:     r.Scripted.Flag,
				Reserved: r.Scripted.Reserved,
			}
			for _, el := range r.Scripted.Elements {
				ed := ElementDoc{Name: el.NameText()}
				for _, a := range el.Attributes {
					ed.Attrs = append(ed.Attrs, AttrDoc{Name: a.NameText(), Value: a.ValueText()})
				}
				sd.Elements = append(sd.Elements, ed)
			}
			rd.Scripted = sd
		}
		doc.Records = append(doc.Records, rd)
		return true
	})
	return doc
}

// MarshalYAML renders a track in its YAML authoring form.
func MarshalYAML(t *Track) ([]byte, error) {
	return yaml.Marshal(Doc(t))
}
