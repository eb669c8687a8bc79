package sam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/htsrecord/pkg/auxtag"
	"github.com/scttfrdmn/htsrecord/pkg/rerr"
)

func fullyPopulatedLine() []byte {
	return []byte("read1\t0\tchr1\t100\t60\t4M\t=\t200\t104\tACGT\tIIII\tNM:i:0\tRG:Z:sample1")
}

func TestFromBytesFullyPopulated(t *testing.T) {
	r := New()
	require.NoError(t, r.FromBytes(fullyPopulatedLine()))

	name, err := r.TemplateName()
	require.NoError(t, err)
	assert.Equal(t, "read1", name)

	flag, err := r.Flag()
	require.NoError(t, err)
	assert.EqualValues(t, 0, flag)

	refName, err := r.RefName()
	require.NoError(t, err)
	assert.Equal(t, "chr1", refName)

	pos, err := r.Position()
	require.NoError(t, err)
	assert.EqualValues(t, 100, pos)

	mapQ, err := r.MappingQuality()
	require.NoError(t, err)
	assert.EqualValues(t, 60, mapQ)

	cig, err := r.Cigar()
	require.NoError(t, err)
	assert.Equal(t, "4M", cig)

	nextRef, err := r.NextRefName()
	require.NoError(t, err)
	assert.Equal(t, "chr1", nextRef) // "=" resolves to RefName

	hasSeq, err := r.HasSequence()
	require.NoError(t, err)
	assert.True(t, hasSeq)

	rawSeq, err := r.Sequence()
	require.NoError(t, err)
	assert.Equal(t, "ACGT", rawSeq)

	packed, err := r.SequencePacked()
	require.NoError(t, err)
	require.NotNil(t, packed)
	assert.Equal(t, "ACGT", packed.String())

	qual, err := r.Quality()
	require.NoError(t, err)
	assert.Equal(t, []byte{40, 40, 40, 40}, qual)

	strand, err := r.Strand()
	require.NoError(t, err)
	assert.EqualValues(t, 1, strand)

	d, err := r.AuxData()
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
}

func TestMissingFields(t *testing.T) {
	line := []byte("*\t4\t*\t0\t255\t*\t*\t0\t0\t*\t*")
	r := New()
	require.NoError(t, r.FromBytes(line))

	hasName, err := r.HasTemplateName()
	require.NoError(t, err)
	assert.False(t, hasName)

	_, err = r.TemplateName()
	assert.ErrorIs(t, err, rerr.ErrMissing)

	mapped, err := r.IsMapped()
	require.NoError(t, err)
	assert.False(t, mapped)

	_, err = r.RefName()
	assert.ErrorIs(t, err, rerr.ErrMissing)

	has, err := r.HasPosition()
	require.NoError(t, err)
	assert.False(t, has)

	_, err = r.Position()
	assert.ErrorIs(t, err, rerr.ErrMissing)

	hasMapQ, err := r.HasMappingQuality()
	require.NoError(t, err)
	assert.False(t, hasMapQ)

	_, err = r.MappingQuality()
	assert.ErrorIs(t, err, rerr.ErrMissing)

	hasSeq, err := r.HasSequence()
	require.NoError(t, err)
	assert.False(t, hasSeq)

	_, err = r.Sequence()
	assert.ErrorIs(t, err, rerr.ErrMissing)

	packed, err := r.SequencePacked()
	require.NoError(t, err)
	assert.Nil(t, packed)

	qual, err := r.Quality()
	require.NoError(t, err)
	assert.Nil(t, qual)

	cig, err := r.Cigar()
	require.NoError(t, err)
	assert.Equal(t, "", cig)

	ops, err := r.CigarRLE()
	require.NoError(t, err)
	assert.Empty(t, ops)

	alnLen, err := r.AlignLength()
	require.NoError(t, err)
	assert.EqualValues(t, 0, alnLen)

	_, err = r.NextPosition()
	assert.ErrorIs(t, err, rerr.ErrMissing)

	_, err = r.TemplateLength()
	assert.ErrorIs(t, err, rerr.ErrMissing)
}

func TestFullySpecifiedLineScenario(t *testing.T) {
	line := []byte("r001\t99\tref\t7\t30\t8M2I4M1D3M\t=\t37\t39\tTTAGATAAAGGATACTG\t*\tNM:i:1")
	r := New()
	require.NoError(t, r.FromBytes(line))

	flag, err := r.Flag()
	require.NoError(t, err)
	assert.EqualValues(t, 99, flag)

	pos, err := r.Position()
	require.NoError(t, err)
	assert.EqualValues(t, 7, pos)

	cig, err := r.Cigar()
	require.NoError(t, err)
	assert.Equal(t, "8M2I4M1D3M", cig)

	alnLen, err := r.AlignLength()
	require.NoError(t, err)
	assert.EqualValues(t, 16, alnLen)

	tlen, err := r.TemplateLength()
	require.NoError(t, err)
	assert.EqualValues(t, 39, tlen)

	v, err := r.Get(aux.NewTag("NM"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, v.Int)
}

func TestMalformedLineTooFewFields(t *testing.T) {
	r := New()
	err := r.FromBytes([]byte("read1\t0\tchr1"))
	assert.ErrorIs(t, err, rerr.ErrMalformedLine)
}

func TestCopyEqualBytesRoundTrip(t *testing.T) {
	line := fullyPopulatedLine()
	r := New()
	require.NoError(t, r.FromBytes(line))

	cp := r.Copy()
	assert.True(t, Equal(r, cp))

	out, err := cp.Bytes()
	require.NoError(t, err)
	assert.Equal(t, line, out)
}

func TestGetTag(t *testing.T) {
	r := New()
	require.NoError(t, r.FromBytes(fullyPopulatedLine()))

	v, err := r.Get(aux.NewTag("NM"))
	require.NoError(t, err)
	assert.EqualValues(t, 0, v.Int)

	_, err = r.Get(aux.NewTag("ZZ"))
	assert.ErrorIs(t, err, rerr.ErrUnknownTag)
}
