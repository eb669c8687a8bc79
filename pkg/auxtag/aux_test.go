package aux

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictOrderPreserved(t *testing.T) {
	d := &Dict{entries: []Entry{
		{Tag: NewTag("NM"), Value: Value{Type: Int, Int: 2}},
		{Tag: NewTag("AS"), Value: Value{Type: Int, Int: 60}},
	}}
	assert.Equal(t, []Tag{NewTag("NM"), NewTag("AS")}, d.Keys())
	v, ok := d.Get(NewTag("AS"))
	require.True(t, ok)
	assert.EqualValues(t, 60, v.Int)
	assert.False(t, d.Has(NewTag("XX")))
}

func TestNilDictSafe(t *testing.T) {
	var d *Dict
	assert.Equal(t, 0, d.Len())
	assert.Nil(t, d.Keys())
	assert.Nil(t, d.Values())
	_, ok := d.Get(NewTag("NM"))
	assert.False(t, ok)
}

func TestDecodeBinaryAllTypes(t *testing.T) {
	var buf []byte

	// NM:i:2
	buf = append(buf, 'N', 'M', 'i')
	buf = appendInt32(buf, 2)

	// AS:A:x
	buf = append(buf, 'A', 'S', 'A', 'x')

	// FL:f:1.5
	buf = append(buf, 'F', 'L', 'f')
	bits := math.Float32bits(1.5)
	buf = appendUint32(buf, bits)

	// RG:Z:sample1\0
	buf = append(buf, 'R', 'G', 'Z')
	buf = append(buf, "sample1"...)
	buf = append(buf, 0)

	// HX:H:1A2B\0
	buf = append(buf, 'H', 'X', 'H')
	buf = append(buf, "1A2B"...)
	buf = append(buf, 0)

	// XB:B:i,1,2,3
	buf = append(buf, 'X', 'B', 'B', 'i')
	buf = appendUint32(buf, 3)
	buf = appendInt32(buf, 1)
	buf = appendInt32(buf, 2)
	buf = appendInt32(buf, 3)

	d, err := DecodeBinary(buf)
	require.NoError(t, err)
	require.Equal(t, 6, d.Len())

	nm, _ := d.Get(NewTag("NM"))
	assert.EqualValues(t, 2, nm.Int)

	as, _ := d.Get(NewTag("AS"))
	assert.Equal(t, byte('x'), as.Char)

	fl, _ := d.Get(NewTag("FL"))
	assert.InDelta(t, 1.5, fl.Float, 0.0001)

	rg, _ := d.Get(NewTag("RG"))
	assert.Equal(t, "sample1", rg.Str)

	hx, _ := d.Get(NewTag("HX"))
	assert.Equal(t, []byte{0x1a, 0x2b}, hx.Hex)

	xb, _ := d.Get(NewTag("XB"))
	assert.Equal(t, []int64{1, 2, 3}, xb.ArrayInt)
}

func TestFindBinary(t *testing.T) {
	var buf []byte
	buf = append(buf, 'N', 'M', 'i')
	buf = appendInt32(buf, 2)
	buf = append(buf, 'C', 'G', 'Z')
	buf = append(buf, "x"...)
	buf = append(buf, 0)

	v, ok, err := FindBinary(buf, NewTag("CG"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x", v.Str)

	_, ok, err = FindBinary(buf, NewTag("ZZ"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeBinaryUnknownType(t *testing.T) {
	buf := []byte{'N', 'M', 'q', 0}
	_, err := DecodeBinary(buf)
	assert.Error(t, err)
}

func appendInt32(b []byte, v int32) []byte {
	return appendUint32(b, uint32(v))
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}
