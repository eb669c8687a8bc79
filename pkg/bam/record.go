// Package bam implements BinRecord: the packed-binary alignment record format
// described by spec.md §4.1. A Record owns a copy of its wire bytes and
// decodes individual fields on demand, recomputing variable-length payload
// offsets from its cached fixed-header fields on every accessor call.
package bam

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/scttfrdmn/htsrecord/pkg/auxtag"
	"github.com/scttfrdmn/htsrecord/pkg/rerr"
	"github.com/scttfrdmn/htsrecord/pkg/seq"
)

// fixedHeaderSize is the size, in bytes, of the BIN record's fixed header
// (block_size through tlen inclusive).
const fixedHeaderSize = 36

// coreSize is the size, in bytes, of the fixed fields counted by block_size
// (everything after the block_size field itself: refid through tlen).
const coreSize = fixedHeaderSize - 4

// ReferenceDict is the non-owning, read-only reference-name/length
// dictionary a Record may consult to resolve a stored reference id. It is
// the Record-side half of spec.md §6.3's reader contract; a Record never
// extends the lifetime of whatever implements it.
type ReferenceDict interface {
	// RefName returns the name of the 0-based reference id, and false if
	// id is out of range.
	RefName(id int) (string, bool)
	// RefLen returns the length of the 0-based reference id, and false if
	// id is out of range.
	RefLen(id int) (int64, bool)
}

// Record is a single BIN (packed-binary) alignment record.
type Record struct {
	filled bool

	blockSize int32
	refID     int32
	pos       int32
	lReadName uint8
	mapQ      uint8
	bin       uint16
	nCigarOp  uint16
	flag      uint16
	lSeq      int32
	nextRefID int32
	nextPos   int32
	tLen      int32

	// payload holds the variable-length tail: read_name, cigar, sequence,
	// quality and aux, in that order. Its length is blockSize - 32.
	payload []byte

	refs ReferenceDict
}

// New returns an empty Record.
func New() *Record { return &Record{} }

// IsFilled reports whether the record has been populated by FromBytes.
func (r *Record) IsFilled() bool { return r.filled }

// Empty resets r to its zero, unfilled state, releasing its buffers.
func (r *Record) Empty() { *r = Record{} }

// SetReferenceDict attaches a non-owning reference dictionary used by
// RefName/RefLen. Passing nil detaches it.
func (r *Record) SetReferenceDict(d ReferenceDict) { r.refs = d }

// FromBytes parses a single BIN record from buf, which must contain at least
// one whole record starting at offset 0 (the external reader is responsible
// for framing; see pkg/bamsrc). FromBytes copies every byte it needs, so buf
// may be reused by the caller afterwards.
func (r *Record) FromBytes(buf []byte) error {
	if len(buf) < fixedHeaderSize {
		return fmt.Errorf("bam: header needs %d bytes, got %d: %w", fixedHeaderSize, len(buf), rerr.ErrShortBuffer)
	}
	blockSize := int32(binary.LittleEndian.Uint32(buf[0:4]))
	payloadLen := int(blockSize) - coreSize
	if payloadLen < 0 {
		return fmt.Errorf("bam: block_size %d smaller than fixed core size %d: %w", blockSize, coreSize, rerr.ErrShortBuffer)
	}
	need := fixedHeaderSize + payloadLen
	if len(buf) < need {
		return fmt.Errorf("bam: record needs %d bytes, got %d: %w", need, len(buf), rerr.ErrShortBuffer)
	}

	next := Record{
		blockSize: blockSize,
		refID:     int32(binary.LittleEndian.Uint32(buf[4:8])),
		pos:       int32(binary.LittleEndian.Uint32(buf[8:12])),
		lReadName: buf[12],
		mapQ:      buf[13],
		bin:       binary.LittleEndian.Uint16(buf[14:16]),
		nCigarOp:  binary.LittleEndian.Uint16(buf[16:18]),
		flag:      binary.LittleEndian.Uint16(buf[18:20]),
		lSeq:      int32(binary.LittleEndian.Uint32(buf[20:24])),
		nextRefID: int32(binary.LittleEndian.Uint32(buf[24:28])),
		nextPos:   int32(binary.LittleEndian.Uint32(buf[28:32])),
		tLen:      int32(binary.LittleEndian.Uint32(buf[32:36])),
		refs:      r.refs,
	}
	next.payload = append([]byte(nil), buf[fixedHeaderSize:need]...)
	next.filled = true

	if err := next.validateOffsets(); err != nil {
		return err
	}

	*r = next
	return nil
}

// DataSize is the offset-validation bound spec.md §4.1 names: block_size -
// 32 + 4. It is intentionally one field-width (4 bytes) larger than the
// actual payload length (len(payload) == block_size - 32); see DESIGN.md for
// why FromBytes still bounds-checks every computed offset against the real
// payload length rather than this value. DataSize is exposed only for
// parity with tooling that computes the named quantity literally; nothing
// in this package uses it for a slice bound.
func (r *Record) DataSize() (int64, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	return int64(r.blockSize) - 32 + 4, nil
}

// offsets returns the byte offsets, within payload, of the cigar, sequence,
// quality and aux regions. They are recomputed on every call from the cached
// header fields, never cached themselves, per spec.md's "Offsets (computed,
// not stored)".
func (r *Record) offsets() (cigarOff, seqOff, qualOff, auxOff int) {
	nameLen := int(r.lReadName)
	nCigar := int(r.nCigarOp)
	cigarOff = nameLen
	seqOff = nameLen + 4*nCigar
	qualOff = seqOff + (int(r.lSeq)+1)/2
	auxOff = qualOff + int(r.lSeq)
	return
}

func (r *Record) validateOffsets() error {
	_, _, _, auxOff := r.offsets()
	if int(r.lReadName) > len(r.payload) || auxOff > len(r.payload) {
		return fmt.Errorf("bam: computed field offsets exceed payload of %d bytes: %w", len(r.payload), rerr.ErrShortBuffer)
	}
	return nil
}

func (r *Record) requireFilled() error {
	if !r.filled {
		return rerr.ErrNotFilled
	}
	return nil
}

// Flag returns the record's FLAG bitmask.
func (r *Record) Flag() (uint16, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	return r.flag, nil
}

const (
	flagUnmapped                 = 0x0004
	flagSecondaryOrSupplementary = 0x0900
	flagReverse                  = 0x0010
)

// IsMapped reports whether the record's own Unmapped flag bit is clear.
func (r *Record) IsMapped() (bool, error) {
	f, err := r.Flag()
	if err != nil {
		return false, err
	}
	return f&flagUnmapped == 0, nil
}

// IsPrimary reports whether neither the Secondary nor Supplementary flag
// bits are set.
func (r *Record) IsPrimary() (bool, error) {
	f, err := r.Flag()
	if err != nil {
		return false, err
	}
	return f&flagSecondaryOrSupplementary == 0, nil
}

// IsPositiveStrand reports whether the record's Reverse flag bit is clear.
func (r *Record) IsPositiveStrand() (bool, error) {
	f, err := r.Flag()
	if err != nil {
		return false, err
	}
	return f&flagReverse == 0, nil
}

// Strand returns +1 for a forward-strand alignment, -1 for reverse.
func (r *Record) Strand() (int8, error) {
	pos, err := r.IsPositiveStrand()
	if err != nil {
		return 0, err
	}
	if pos {
		return 1, nil
	}
	return -1, nil
}

// RefID returns the 1-based reference id (0 means unmapped).
func (r *Record) RefID() (int64, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	return int64(r.refID) + 1, nil
}

// RefName resolves the record's reference id to a name via the attached
// ReferenceDict.
func (r *Record) RefName() (string, error) {
	return r.resolveName(r.refID)
}

// RefLen resolves the record's reference id to a reference length via the
// attached ReferenceDict.
func (r *Record) RefLen() (int64, error) {
	return r.resolveLen(r.refID)
}

// NextRefID returns the 1-based mate reference id (0 means unmapped).
func (r *Record) NextRefID() (int64, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	return int64(r.nextRefID) + 1, nil
}

// NextRefName resolves the mate's reference id to a name.
func (r *Record) NextRefName() (string, error) {
	return r.resolveName(r.nextRefID)
}

// NextRefLen resolves the mate's reference id to a reference length.
func (r *Record) NextRefLen() (int64, error) {
	return r.resolveLen(r.nextRefID)
}

func (r *Record) resolveName(stored int32) (string, error) {
	if err := r.requireFilled(); err != nil {
		return "", err
	}
	if stored == -1 {
		return "", rerr.ErrUnmapped
	}
	if r.refs == nil {
		return "", rerr.ErrNoReader
	}
	name, ok := r.refs.RefName(int(stored))
	if !ok {
		return "", fmt.Errorf("bam: reference id %d out of range", stored)
	}
	return name, nil
}

func (r *Record) resolveLen(stored int32) (int64, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	if stored == -1 {
		return 0, rerr.ErrUnmapped
	}
	if r.refs == nil {
		return 0, rerr.ErrNoReader
	}
	length, ok := r.refs.RefLen(int(stored))
	if !ok {
		return 0, fmt.Errorf("bam: reference id %d out of range", stored)
	}
	return length, nil
}

// Position returns the 1-based leftmost reference coordinate (0 means
// unmapped).
func (r *Record) Position() (int64, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	return int64(r.pos) + 1, nil
}

// NextPosition returns the 1-based mate position (0 means unmapped).
func (r *Record) NextPosition() (int64, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	return int64(r.nextPos) + 1, nil
}

// RightPosition returns the highest reference coordinate covered by the
// alignment: Position() + AlignLength() - 1.
func (r *Record) RightPosition() (int64, error) {
	pos, err := r.Position()
	if err != nil {
		return 0, err
	}
	alnLen, err := r.AlignLength()
	if err != nil {
		return 0, err
	}
	return pos + alnLen - 1, nil
}

// MappingQuality returns the record's raw MAPQ byte (255 means missing; see
// HasMappingQuality).
func (r *Record) MappingQuality() (uint8, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	return r.mapQ, nil
}

// HasMappingQuality reports whether MAPQ carries a real value (is not the
// 255 missing sentinel).
func (r *Record) HasMappingQuality() (bool, error) {
	mapQ, err := r.MappingQuality()
	if err != nil {
		return false, err
	}
	return mapQ != 255, nil
}

// TemplateLength returns the signed template (insert) length.
func (r *Record) TemplateLength() (int32, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	return r.tLen, nil
}

// StoredBin returns the indexing bin stored in the record's header, without
// recomputing it. See Bin for the recomputed value.
func (r *Record) StoredBin() (uint16, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	return r.bin, nil
}

// TemplateName returns the NUL-terminated read name with its terminator
// removed.
func (r *Record) TemplateName() (string, error) {
	if err := r.requireFilled(); err != nil {
		return "", err
	}
	n := int(r.lReadName) - 1
	if n < 0 {
		n = 0
	}
	if n > len(r.payload) {
		n = len(r.payload)
	}
	return string(r.payload[:n]), nil
}

// SeqLength returns l_seq, the number of bases in the record (0 if the
// sequence is absent).
func (r *Record) SeqLength() (int64, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	return int64(r.lSeq), nil
}

// Sequence decodes the packed 4-bit sequence, or returns nil if l_seq == 0.
func (r *Record) Sequence() (*seq.Packed, error) {
	if err := r.requireFilled(); err != nil {
		return nil, err
	}
	if r.lSeq == 0 {
		return nil, nil
	}
	seqOff, qualOff, _, _ := r.fieldOffsets()
	packed := seq.FromWireNibbles(r.payload[seqOff:qualOff], int(r.lSeq))
	return &packed, nil
}

// Quality returns a fresh copy of the l_seq quality bytes (0xFF-filled when
// absent upstream).
func (r *Record) Quality() ([]byte, error) {
	if err := r.requireFilled(); err != nil {
		return nil, err
	}
	_, qualOff, auxOff, _ := r.fieldOffsets()
	q := make([]byte, auxOff-qualOff)
	copy(q, r.payload[qualOff:auxOff])
	return q, nil
}

// fieldOffsets returns the same values as offsets(), reordered as (seq,
// qual, aux, cigar) for call sites that only need the trailing regions;
// kept as a thin wrapper so offsets() remains the single source of truth.
func (r *Record) fieldOffsets() (seqOff, qualOff, auxOff, cigarOff int) {
	c, s, q, a := r.offsets()
	return s, q, a, c
}

// AuxData decodes the full auxiliary tag dictionary.
func (r *Record) AuxData() (*aux.Dict, error) {
	if err := r.requireFilled(); err != nil {
		return nil, err
	}
	_, _, auxOff, _ := r.fieldOffsets()
	return aux.DecodeBinary(r.payload[auxOff:])
}

// Get returns the decoded value of tag.
func (r *Record) Get(tag aux.Tag) (aux.Value, error) {
	if err := r.requireFilled(); err != nil {
		return aux.Value{}, err
	}
	_, _, auxOff, _ := r.fieldOffsets()
	val, ok, err := aux.FindBinary(r.payload[auxOff:], tag)
	if err != nil {
		return aux.Value{}, err
	}
	if !ok {
		return aux.Value{}, fmt.Errorf("bam: tag %s: %w", tag, rerr.ErrUnknownTag)
	}
	return val, nil
}

// Has reports whether tag is present in the aux region.
func (r *Record) Has(tag aux.Tag) (bool, error) {
	_, err := r.Get(tag)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, rerr.ErrUnknownTag):
		return false, nil
	default:
		return false, err
	}
}

// Keys returns the aux region's tags in physical order.
func (r *Record) Keys() ([]aux.Tag, error) {
	d, err := r.AuxData()
	if err != nil {
		return nil, err
	}
	return d.Keys(), nil
}

// Values returns the aux region's values in physical order, matching Keys.
func (r *Record) Values() ([]aux.Value, error) {
	d, err := r.AuxData()
	if err != nil {
		return nil, err
	}
	return d.Values(), nil
}

// Copy returns a deep copy of r: a fresh owned payload buffer, sharing only
// the (read-only, non-owning) attached ReferenceDict.
func (r *Record) Copy() *Record {
	cp := *r
	cp.payload = append([]byte(nil), r.payload...)
	return &cp
}

// Bytes serializes r back to its exact original wire encoding.
func (r *Record) Bytes() ([]byte, error) {
	if err := r.requireFilled(); err != nil {
		return nil, err
	}
	out := make([]byte, fixedHeaderSize+len(r.payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(r.blockSize))
	binary.LittleEndian.PutUint32(out[4:8], uint32(r.refID))
	binary.LittleEndian.PutUint32(out[8:12], uint32(r.pos))
	out[12] = r.lReadName
	out[13] = r.mapQ
	binary.LittleEndian.PutUint16(out[14:16], r.bin)
	binary.LittleEndian.PutUint16(out[16:18], r.nCigarOp)
	binary.LittleEndian.PutUint16(out[18:20], r.flag)
	binary.LittleEndian.PutUint32(out[20:24], uint32(r.lSeq))
	binary.LittleEndian.PutUint32(out[24:28], uint32(r.nextRefID))
	binary.LittleEndian.PutUint32(out[28:32], uint32(r.nextPos))
	binary.LittleEndian.PutUint32(out[32:36], uint32(r.tLen))
	copy(out[fixedHeaderSize:], r.payload)
	return out, nil
}

// Equal reports whether a and b have identical header fields and payload
// bytes. Two unfilled records are equal.
func Equal(a, b *Record) bool {
	if a.filled != b.filled {
		return false
	}
	if !a.filled {
		return true
	}
	if a.blockSize != b.blockSize || a.refID != b.refID || a.pos != b.pos ||
		a.lReadName != b.lReadName || a.mapQ != b.mapQ || a.bin != b.bin ||
		a.nCigarOp != b.nCigarOp || a.flag != b.flag || a.lSeq != b.lSeq ||
		a.nextRefID != b.nextRefID || a.nextPos != b.nextPos || a.tLen != b.tLen {
		return false
	}
	if len(a.payload) != len(b.payload) {
		return false
	}
	for i := range a.payload {
		if a.payload[i] != b.payload[i] {
			return false
		}
	}
	return true
}

