package bam

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/htsrecord/pkg/rerr"
)

type fixedFields struct {
	refID, pos                     int32
	lReadName, mapQ                uint8
	bin, nCigarOp, flag            uint16
	lSeq, nextRefID, nextPos, tLen int32
}

func buildRecord(t *testing.T, ff fixedFields, payload []byte) []byte {
	t.Helper()
	buf := make([]byte, fixedHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(int32(coreSize+len(payload))))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(ff.refID))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(ff.pos))
	buf[12] = ff.lReadName
	buf[13] = ff.mapQ
	binary.LittleEndian.PutUint16(buf[14:16], ff.bin)
	binary.LittleEndian.PutUint16(buf[16:18], ff.nCigarOp)
	binary.LittleEndian.PutUint16(buf[18:20], ff.flag)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(ff.lSeq))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(ff.nextRefID))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(ff.nextPos))
	binary.LittleEndian.PutUint32(buf[32:36], uint32(ff.tLen))
	copy(buf[fixedHeaderSize:], payload)
	return buf
}

func cigarWord(op byte, length int) uint32 {
	return uint32(op) | uint32(length)<<4
}

type stubRefs struct{}

func (stubRefs) RefName(id int) (string, bool) {
	if id == 0 {
		return "chr1", true
	}
	return "", false
}

func (stubRefs) RefLen(id int) (int64, bool) {
	if id == 0 {
		return 1000000, true
	}
	return 0, false
}

func TestFromBytesMinimalUnmapped(t *testing.T) {
	name := append([]byte("read1"), 0)
	buf := buildRecord(t, fixedFields{
		refID: -1, pos: -1, lReadName: uint8(len(name)), mapQ: 255,
		bin: 4680, nCigarOp: 0, flag: 0x4,
		lSeq: 0, nextRefID: -1, nextPos: -1, tLen: 0,
	}, name)

	r := New()
	require.NoError(t, r.FromBytes(buf))
	assert.True(t, r.IsFilled())

	tn, err := r.TemplateName()
	require.NoError(t, err)
	assert.Equal(t, "read1", tn)

	mapped, err := r.IsMapped()
	require.NoError(t, err)
	assert.False(t, mapped)

	_, err = r.RefName()
	assert.ErrorIs(t, err, rerr.ErrUnmapped)

	seq, err := r.Sequence()
	require.NoError(t, err)
	assert.Nil(t, seq)
}

func TestFromBytesMappedSmallCigar(t *testing.T) {
	name := append([]byte("r2"), 0)
	var payload []byte
	payload = append(payload, name...)
	payload = appendUint32(payload, cigarWord(0 /* Match */, 4))
	// seq "ACGT" -> codes 1,2,4,8 packed high-nibble-first as BIN stores it
	payload = append(payload, byte(1)<<4|2, byte(4)<<4|8)
	payload = append(payload, 30, 30, 30, 30) // qual

	buf := buildRecord(t, fixedFields{
		refID: 0, pos: 99, lReadName: uint8(len(name)), mapQ: 60,
		bin: reg2bin(99, 103), nCigarOp: 1, flag: 0,
		lSeq: 4, nextRefID: -1, nextPos: -1, tLen: 0,
	}, payload)

	r := New()
	require.NoError(t, r.FromBytes(buf))
	r.SetReferenceDict(stubRefs{})

	refName, err := r.RefName()
	require.NoError(t, err)
	assert.Equal(t, "chr1", refName)

	pos, err := r.Position()
	require.NoError(t, err)
	assert.EqualValues(t, 100, pos)

	cig, err := r.Cigar(true)
	require.NoError(t, err)
	assert.Equal(t, "4M", cig)

	seq, err := r.Sequence()
	require.NoError(t, err)
	require.NotNil(t, seq)
	assert.Equal(t, "ACGT", seq.String())

	stored, err := r.StoredBin()
	require.NoError(t, err)
	computed, err := r.Bin()
	require.NoError(t, err)
	assert.Equal(t, stored, computed)
}

func TestCGEscape(t *testing.T) {
	name := append([]byte("r3"), 0)
	var payload []byte
	payload = append(payload, name...)
	payload = appendUint32(payload, cigarWord(4 /* SoftClip */, 4))
	payload = appendUint32(payload, cigarWord(3 /* Skipped */, 10))
	payload = append(payload, byte(1)<<4|2, byte(4)<<4|8) // seq ACGT
	payload = append(payload, 30, 30, 30, 30)              // qual

	// CG:B,I = [2M, 8I]
	payload = append(payload, 'C', 'G', 'B', 'I')
	payload = appendUint32(payload, 2)
	payload = appendUint32(payload, cigarWord(0, 2))
	payload = appendUint32(payload, cigarWord(1, 8))

	buf := buildRecord(t, fixedFields{
		refID: 0, pos: 0, lReadName: uint8(len(name)), mapQ: 60,
		bin: 0, nCigarOp: 2, flag: 0,
		lSeq: 4, nextRefID: -1, nextPos: -1, tLen: 0,
	}, payload)

	r := New()
	require.NoError(t, r.FromBytes(buf))

	cig, err := r.Cigar(true)
	require.NoError(t, err)
	assert.Equal(t, "2M8I", cig)
}

func TestCopyEqualBytes(t *testing.T) {
	name := append([]byte("read1"), 0)
	buf := buildRecord(t, fixedFields{
		refID: -1, pos: -1, lReadName: uint8(len(name)), mapQ: 255,
		bin: 4680, nCigarOp: 0, flag: 0x4,
		lSeq: 0, nextRefID: -1, nextPos: -1, tLen: 0,
	}, name)

	r := New()
	require.NoError(t, r.FromBytes(buf))
	cp := r.Copy()
	assert.True(t, Equal(r, cp))

	out, err := cp.Bytes()
	require.NoError(t, err)
	assert.Equal(t, buf, out)
}

func TestDataSizeDivergesFromPayloadLength(t *testing.T) {
	name := append([]byte("read1"), 0)
	buf := buildRecord(t, fixedFields{
		refID: -1, pos: -1, lReadName: uint8(len(name)), mapQ: 255,
		bin: 4680, nCigarOp: 0, flag: 0x4,
		lSeq: 0, nextRefID: -1, nextPos: -1, tLen: 0,
	}, name)

	r := New()
	require.NoError(t, r.FromBytes(buf))

	ds, err := r.DataSize()
	require.NoError(t, err)
	assert.EqualValues(t, len(name)+4, ds)
}

func TestEmptyRecordRequiresFill(t *testing.T) {
	r := New()
	assert.False(t, r.IsFilled())
	_, err := r.Flag()
	assert.Error(t, err)
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}
