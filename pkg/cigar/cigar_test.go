package cigar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringRoundTrip(t *testing.T) {
	ops, err := ParseString([]byte("8M2I4M1D3M"))
	require.NoError(t, err)
	require.Len(t, ops, 5)
	assert.Equal(t, "8M2I4M1D3M", ops.String())
}

func TestParseStringStar(t *testing.T) {
	ops, err := ParseString([]byte("*"))
	require.NoError(t, err)
	assert.Nil(t, ops)
	assert.Equal(t, "*", ops.String())
}

func TestParseStringInvalidOp(t *testing.T) {
	_, err := ParseString([]byte("8Q"))
	assert.Error(t, err)
}

func TestParseStringTrailingDigits(t *testing.T) {
	_, err := ParseString([]byte("8M2"))
	assert.Error(t, err)
}

func TestLengths(t *testing.T) {
	ops, err := ParseString([]byte("10M2I3D5M"))
	require.NoError(t, err)
	ref, query := ops.Lengths()
	assert.EqualValues(t, 10+3+5, ref)
	assert.EqualValues(t, 10+2+5, query)
	assert.EqualValues(t, ref, ops.AlignLength())
}

func TestWireRoundTrip(t *testing.T) {
	ops, err := ParseString([]byte("35M2I100M"))
	require.NoError(t, err)
	words := EncodeWire(ops)
	back := DecodeWire(words)
	assert.Equal(t, ops, back)
}

func TestConsumes(t *testing.T) {
	assert.True(t, Match.ConsumesReference())
	assert.True(t, Match.ConsumesQuery())
	assert.True(t, Insertion.ConsumesQuery())
	assert.False(t, Insertion.ConsumesReference())
	assert.True(t, Deletion.ConsumesReference())
	assert.False(t, Deletion.ConsumesQuery())
	assert.False(t, HardClip.ConsumesReference())
	assert.False(t, HardClip.ConsumesQuery())
	assert.False(t, Padded.ConsumesReference())
	assert.False(t, Back.ConsumesReference())
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "M", Match.String())
	assert.Equal(t, "S", SoftClip.String())
	assert.Equal(t, "?", Op(numOps).String())
}
