package seq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromASCIIExpandRoundTrip(t *testing.T) {
	bases := "ACGTN"
	p := FromASCII([]byte(bases))
	assert.Equal(t, len(bases), p.Length)
	assert.Equal(t, bases, p.String())
}

func TestFromASCIIOddLength(t *testing.T) {
	p := FromASCII([]byte("ACG"))
	assert.Equal(t, 3, p.Length)
	assert.Equal(t, "ACG", p.String())
}

func TestFromWireNibblesSwapsNibbles(t *testing.T) {
	// 'A' has code 1, 'C' has code 2. BIN packs high-nibble-first: a single
	// wire byte of 0x12 encodes "A" then "C" once its nibbles are swapped to
	// the low-nibble-first Packed layout.
	p := FromWireNibbles([]byte{0x12}, 2)
	assert.Equal(t, "AC", p.String())
}

func TestFromASCIIUnknownBase(t *testing.T) {
	p := FromASCII([]byte("X"))
	assert.Equal(t, "N", p.String())
}
