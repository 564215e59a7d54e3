package evb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lipSyncTrack is one mask record followed by one empty "mati" record.
func lipSyncTrack(t *testing.T) []byte {
	t.Helper()
	raw, err := Encode(NewBuilder().
		Mask(0, 0x10, 0).
		Scripted(0, Scripted{Flag: 0, EventType: EventType("mati")}).
		Track())
	require.NoError(t, err)
	return raw
}

func TestDecode_MaskThenScripted(t *testing.T) {
	tr, err := Decode(lipSyncTrack(t))
	require.NoError(t, err)
	require.Equal(t, 2, tr.Len())

	r0, ok := tr.Record(0)
	require.True(t, ok)
	assert.Equal(t, KindMask, r0.Kind)
	assert.Equal(t, Mask{Bitmask: 0x10, Aux: 0}, r0.Mask)

	r1, ok := tr.Record(1)
	require.True(t, ok)
	assert.Equal(t, KindScripted, r1.Kind)
	assert.Equal(t, "mati", r1.Scripted.Type())
	assert.Empty(t, r1.Scripted.Elements)

	_, ok = tr.Record(2)
	assert.False(t, ok)
	_, ok = tr.Record(-1)
	assert.False(t, ok)
}

func TestDecode_HandWrittenBytes(t *testing.T) {
	w := NewWriter()
	w.WriteU32(0) // size is not checked
	w.WriteU32(1)
	w.WriteF32(1.5)
	w.WriteU32(TagScripted)
	w.WriteU32(1)
	w.WriteU32(0x3f800000)
	w.WriteBytes([]byte("ckpo"))
	w.WriteU32(7)
	w.WriteU32(1)
	w.WriteU32(4) // "face" without terminator
	w.WriteU32(1)
	w.WriteBytes([]byte("face\x00"))
	w.WriteU32(4)
	w.WriteU32(5)
	w.WriteBytes([]byte("anim\x00"))
	w.WriteBytes([]byte("smile\x00"))

	tr, err := Decode(w.Bytes())
	require.NoError(t, err)
	r, ok := tr.Record(0)
	require.True(t, ok)
	assert.Equal(t, float32(1.5), r.Timestamp)

	s := r.Scripted
	assert.Equal(t, uint32(1), s.Flag)
	assert.Equal(t, "ckpo", s.Type())
	assert.Equal(t, uint32(7), s.Reserved)
	require.Len(t, s.Elements, 1)
	assert.Equal(t, []byte("face\x00"), s.Elements[0].Name)
	assert.Equal(t, "face", s.Elements[0].NameText())
	v, ok := s.Elements[0].Attr("anim")
	assert.True(t, ok)
	assert.Equal(t, "smile", v)
}

func TestDecode_MaskSentinel(t *testing.T) {
	raw := lipSyncTrack(t)
	// header(8) + timestamp(4) + tag(4) + bitmask(4)
	const sentinelOff = 20

	bad := append([]byte(nil), raw...)
	bad[sentinelOff+3] = 0x40 // 2.0

	tr, err := Decode(bad)
	require.Error(t, err)
	assert.Nil(t, tr)
	assert.True(t, errors.Is(err, ErrFormat))

	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 0, fe.Record)

	bad[sentinelOff+3] = 0x3f
	_, err = Decode(bad)
	assert.NoError(t, err)
}

func TestDecode_FatalFields(t *testing.T) {
	raw := lipSyncTrack(t)
	tests := []struct {
		name string
		off  int
		val  byte
	}{
		{"unknown tag", 12, 0x01},
		{"mask zero A", 28, 0x01},
		{"mask zero B", 32, 0x01},
		// second record starts at 36: timestamp(4) tag(4) flag(4) sentinel(4)
		{"scripted flag 2", 44, 0x02},
		{"scripted sentinel", 51, 0x00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := append([]byte(nil), raw...)
			bad[tt.off] = tt.val
			tr, err := Decode(bad)
			assert.Nil(t, tr)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestDecode_Truncated(t *testing.T) {
	raw := lipSyncTrack(t)
	for _, n := range []int{0, 4, 7, 12, 20, 35, 40, len(raw) - 1} {
		tr, err := Decode(raw[:n])
		assert.Nil(t, tr, "len %d", n)
		assert.ErrorIs(t, err, ErrFormat, "len %d", n)
	}
}

func TestDecode_HugeCountsFailFast(t *testing.T) {
	w := NewWriter()
	w.WriteU32(0)
	w.WriteU32(0xffffffff)
	w.WriteF32(0)
	w.WriteU32(TagMask)
	_, err := Decode(w.Bytes())
	assert.ErrorIs(t, err, ErrFormat)

	w = NewWriter()
	w.WriteU32(0)
	w.WriteU32(1)
	w.WriteF32(0)
	w.WriteU32(TagScripted)
	w.WriteU32(0)
	w.WriteU32(0x3f800000)
	w.WriteBytes([]byte("mati"))
	w.WriteU32(0)
	w.WriteU32(1)
	w.WriteU32(0xfffffff0) // name length far beyond the data
	w.WriteU32(0)
	_, err = Decode(w.Bytes())
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDecode_LengthsAtUint32Limits(t *testing.T) {
	w := NewWriter()
	w.WriteU32(0)
	w.WriteU32(0x80000000)
	_, err := Decode(w.Bytes())
	assert.ErrorIs(t, err, ErrFormat)

	scripted := func(nameLen, valueLen uint32) []byte {
		w := NewWriter()
		w.WriteU32(0)
		w.WriteU32(1)
		w.WriteF32(0)
		w.WriteU32(TagScripted)
		w.WriteU32(0)
		w.WriteU32(0x3f800000)
		w.WriteBytes([]byte("mati"))
		w.WriteU32(0)
		w.WriteU32(1)
		w.WriteU32(nameLen)
		w.WriteU32(1)
		w.WriteBytes([]byte("id\x00"))
		w.WriteU32(1)
		w.WriteU32(valueLen)
		w.WriteBytes([]byte("a\x00b\x00"))
		return w.Bytes()
	}

	tr, err := Decode(scripted(2, 1))
	require.NoError(t, err)
	r, _ := tr.Record(0)
	v, ok := r.Scripted.Elements[0].Attr("a")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	for name, raw := range map[string][]byte{
		"element name":    scripted(0xffffffff, 1),
		"attribute value": scripted(2, 0xffffffff),
	} {
		_, err := Decode(raw)
		var fe *FormatError
		require.ErrorAs(t, err, &fe, name)
		assert.Contains(t, fe.Reason, name)
	}
}

func TestDecode_UnsortedTimestampsKeepFileOrder(t *testing.T) {
	raw, err := Encode(NewBuilder().
		Mask(300, 1, 0).
		Mask(100, 2, 0).
		Mask(200, 3, 0).
		Track())
	require.NoError(t, err)

	tr, err := Decode(raw)
	require.NoError(t, err)
	var bits []uint32
	tr.Each(func(_ int, r Record) bool {
		bits = append(bits, r.Mask.Bitmask)
		return true
	})
	assert.Equal(t, []uint32{1, 2, 3}, bits)
}

func TestEncode_SizePrefix(t *testing.T) {
	raw := lipSyncTrack(t)
	tr, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(raw)), tr.DeclaredSize())

	again, err := Encode(tr)
	require.NoError(t, err)
	assert.Equal(t, raw, again)
}

func TestEncode_RejectsBadPayloads(t *testing.T) {
	_, err := Encode(NewBuilder().Scripted(0, Scripted{Flag: 2}).Track())
	assert.Error(t, err)

	_, err = Encode(NewBuilder().Scripted(0, Scripted{
		Elements: []Element{{Name: nil}},
	}).Track())
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	assert.Equal(t, "mouth", Text([]byte("mouth\x00")))
	assert.Equal(t, "", Text([]byte{0}))
	assert.Equal(t, "café", Text([]byte{'c', 'a', 'f', 0xe9, 0}))
	raw, err := CString("café")
	require.NoError(t, err)
	assert.Equal(t, []byte{'c', 'a', 'f', 0xe9, 0}, raw)

	_, err = CString("日本")
	assert.ErrorContains(t, err, "Windows-1252")
}
