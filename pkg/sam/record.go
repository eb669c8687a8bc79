// Package sam implements TxtRecord: the tab-separated text alignment record
// format described by spec.md §4.2. A Record owns a copy of its source line
// and indexes the byte ranges of its mandatory fields once at parse time;
// accessors slice into the owned line rather than re-splitting it.
package sam

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/scttfrdmn/htsrecord/pkg/auxtag"
	"github.com/scttfrdmn/htsrecord/pkg/cigar"
	"github.com/scttfrdmn/htsrecord/pkg/rerr"
	"github.com/scttfrdmn/htsrecord/pkg/seq"
)

// mandatoryFields is the number of required, positional tab-separated
// fields preceding any optional aux fields.
const mandatoryFields = 11

const (
	fQName = iota
	fFlag
	fRName
	fPos
	fMapQ
	fCigar
	fRNext
	fPNext
	fTLen
	fSeq
	fQual
)

// Record is a single TXT (tab-separated text) alignment record.
type Record struct {
	filled bool

	line   []byte
	ranges [mandatoryFields][2]int
	aux    [][2]int // byte ranges of raw optional fields, in line order
}

// New returns an empty Record.
func New() *Record { return &Record{} }

// IsFilled reports whether the record has been populated by FromBytes.
func (r *Record) IsFilled() bool { return r.filled }

// Empty resets r to its zero, unfilled state.
func (r *Record) Empty() { *r = Record{} }

// FromBytes parses a single tab-separated line (without its trailing
// newline) into r. FromBytes copies the bytes it needs, so line may be
// reused by the caller afterwards.
func (r *Record) FromBytes(line []byte) error {
	line = bytes.TrimRight(line, "\r\n")
	owned := append([]byte(nil), line...)

	var ranges [mandatoryFields][2]int
	var auxRanges [][2]int
	start := 0
	field := 0
	for i := 0; i <= len(owned); i++ {
		if i < len(owned) && owned[i] != '\t' {
			continue
		}
		span := [2]int{start, i}
		if field < mandatoryFields {
			ranges[field] = span
		} else {
			auxRanges = append(auxRanges, span)
		}
		field++
		start = i + 1
	}
	if field < mandatoryFields {
		return fmt.Errorf("sam: got %d fields: %w", field, rerr.ErrMalformedLine)
	}

	*r = Record{
		filled: true,
		line:   owned,
		ranges: ranges,
		aux:    auxRanges,
	}
	return nil
}

func (r *Record) requireFilled() error {
	if !r.filled {
		return rerr.ErrNotFilled
	}
	return nil
}

func (r *Record) field(i int) []byte {
	rg := r.ranges[i]
	return r.line[rg[0]:rg[1]]
}

// HasTemplateName reports whether QNAME carries a real value (is not the
// "*" missing sentinel).
func (r *Record) HasTemplateName() (bool, error) {
	if err := r.requireFilled(); err != nil {
		return false, err
	}
	return string(r.field(fQName)) != "*", nil
}

// TemplateName returns the QNAME field, or ErrMissing if it is "*".
func (r *Record) TemplateName() (string, error) {
	has, err := r.HasTemplateName()
	if err != nil {
		return "", err
	}
	if !has {
		return "", rerr.ErrMissing
	}
	return string(r.field(fQName)), nil
}

// Flag returns the parsed FLAG field.
func (r *Record) Flag() (uint16, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(string(r.field(fFlag)), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("sam: bad FLAG: %w", err)
	}
	return uint16(v), nil
}

const (
	flagUnmapped                 = 0x0004
	flagSecondaryOrSupplementary = 0x0900
	flagReverse                  = 0x0010
)

// IsMapped reports whether the record's Unmapped flag bit is clear.
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

// RefName returns the RNAME field, or ErrMissing if it is the "*" sentinel.
func (r *Record) RefName() (string, error) {
	if err := r.requireFilled(); err != nil {
		return "", err
	}
	name := string(r.field(fRName))
	if name == "*" {
		return "", rerr.ErrMissing
	}
	return name, nil
}

// NextRefName returns the RNEXT field, resolving the "=" shorthand to
// RefName and "*" to ErrMissing.
func (r *Record) NextRefName() (string, error) {
	if err := r.requireFilled(); err != nil {
		return "", err
	}
	name := string(r.field(fRNext))
	switch name {
	case "*":
		return "", rerr.ErrMissing
	case "=":
		return r.RefName()
	default:
		return name, nil
	}
}

// HasPosition reports whether the POS field carries a real coordinate. The
// format encodes "no position" as the literal single byte '0'; any other
// value, including malformed ones, is treated as present so a downstream
// parse failure is surfaced as an error rather than silently swallowed.
func (r *Record) HasPosition() (bool, error) {
	if err := r.requireFilled(); err != nil {
		return false, err
	}
	f := r.field(fPos)
	return !(len(f) == 1 && f[0] == '0'), nil
}

// Position returns the 1-based POS field.
func (r *Record) Position() (int64, error) {
	has, err := r.HasPosition()
	if err != nil {
		return 0, err
	}
	if !has {
		return 0, rerr.ErrMissing
	}
	v, err := strconv.ParseInt(string(r.field(fPos)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sam: bad POS: %w", err)
	}
	return v, nil
}

// NextPosition returns the 1-based PNEXT field.
func (r *Record) NextPosition() (int64, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	f := r.field(fPNext)
	if len(f) == 1 && f[0] == '0' {
		return 0, rerr.ErrMissing
	}
	v, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sam: bad PNEXT: %w", err)
	}
	return v, nil
}

// MappingQuality returns the parsed MAPQ field, or ErrMissing if it is 255.
func (r *Record) MappingQuality() (uint8, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(string(r.field(fMapQ)), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("sam: bad MAPQ: %w", err)
	}
	if v == 255 {
		return 0, rerr.ErrMissing
	}
	return uint8(v), nil
}

// HasMappingQuality reports whether MAPQ carries a real value.
func (r *Record) HasMappingQuality() (bool, error) {
	_, err := r.MappingQuality()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, rerr.ErrMissing) {
		return false, nil
	}
	return false, err
}

// Cigar returns the CIGAR field rendered as text. A "*" field (no CIGAR) is
// deliberately reported as an empty string rather than an error.
func (r *Record) Cigar() (string, error) {
	if err := r.requireFilled(); err != nil {
		return "", err
	}
	f := r.field(fCigar)
	if string(f) == "*" {
		return "", nil
	}
	return string(f), nil
}

// CigarRLE parses the CIGAR field into run-length operations. A "*" field
// yields an empty, non-error Ops slice.
func (r *Record) CigarRLE() (cigar.Ops, error) {
	if err := r.requireFilled(); err != nil {
		return nil, err
	}
	f := r.field(fCigar)
	if string(f) == "*" {
		return nil, nil
	}
	return cigar.ParseString(f)
}

// AlignLength returns the number of reference bases the alignment consumes.
func (r *Record) AlignLength() (int64, error) {
	ops, err := r.CigarRLE()
	if err != nil {
		return 0, err
	}
	ref, _ := ops.Lengths()
	return ref, nil
}

// TemplateLength returns the signed TLEN field. TLEN is stored as the
// literal byte '0' when unavailable, which this reports as ErrMissing.
func (r *Record) TemplateLength() (int64, error) {
	if err := r.requireFilled(); err != nil {
		return 0, err
	}
	f := r.field(fTLen)
	if len(f) == 1 && f[0] == '0' {
		return 0, rerr.ErrMissing
	}
	v, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sam: bad TLEN: %w", err)
	}
	return v, nil
}

// HasSequence reports whether SEQ carries real bases (is not the "*"
// missing sentinel).
func (r *Record) HasSequence() (bool, error) {
	if err := r.requireFilled(); err != nil {
		return false, err
	}
	return string(r.field(fSeq)) != "*", nil
}

// Sequence returns the raw SEQ field text, or ErrMissing if it is "*".
func (r *Record) Sequence() (string, error) {
	has, err := r.HasSequence()
	if err != nil {
		return "", err
	}
	if !has {
		return "", rerr.ErrMissing
	}
	return string(r.field(fSeq)), nil
}

// SequencePacked decodes SEQ into the same 4-bit packed representation a
// BIN record's Sequence accessor produces, or nil if SEQ is "*".
func (r *Record) SequencePacked() (*seq.Packed, error) {
	has, err := r.HasSequence()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, nil
	}
	packed := seq.FromASCII(r.field(fSeq))
	return &packed, nil
}

// QualityString returns the raw QUAL field text ("*" means absent).
func (r *Record) QualityString() (string, error) {
	if err := r.requireFilled(); err != nil {
		return "", err
	}
	return string(r.field(fQual)), nil
}

// Quality decodes QUAL into per-base Phred scores (QUAL byte - 33), or nil
// if QUAL is the "*" sentinel.
func (r *Record) Quality() ([]byte, error) {
	q, err := r.QualityString()
	if err != nil {
		return nil, err
	}
	if q == "*" {
		return nil, nil
	}
	out := make([]byte, len(q))
	for i := 0; i < len(q); i++ {
		out[i] = q[i] - 33
	}
	return out, nil
}

func (r *Record) auxField(i int) []byte {
	rg := r.aux[i]
	return r.line[rg[0]:rg[1]]
}

func (r *Record) auxFieldSlices() [][]byte {
	fields := make([][]byte, len(r.aux))
	for i := range r.aux {
		fields[i] = r.auxField(i)
	}
	return fields
}

// AuxData decodes the full set of optional fields.
func (r *Record) AuxData() (*aux.Dict, error) {
	if err := r.requireFilled(); err != nil {
		return nil, err
	}
	return aux.DecodeText(r.auxFieldSlices())
}

// Get returns the decoded value of tag.
func (r *Record) Get(tag aux.Tag) (aux.Value, error) {
	if err := r.requireFilled(); err != nil {
		return aux.Value{}, err
	}
	val, ok, err := aux.FindText(r.auxFieldSlices(), tag)
	if err != nil {
		return aux.Value{}, err
	}
	if !ok {
		return aux.Value{}, fmt.Errorf("sam: tag %s: %w", tag, rerr.ErrUnknownTag)
	}
	return val, nil
}

// Copy returns a deep copy of r.
func (r *Record) Copy() *Record {
	cp := *r
	cp.line = append([]byte(nil), r.line...)
	cp.aux = append([][2]int(nil), r.aux...)
	return &cp
}

// Bytes serializes r back to its exact original tab-separated line, without
// a trailing newline.
func (r *Record) Bytes() ([]byte, error) {
	if err := r.requireFilled(); err != nil {
		return nil, err
	}
	return append([]byte(nil), r.line...), nil
}

// Equal reports whether a and b have identical source lines. Two unfilled
// records are equal.
func Equal(a, b *Record) bool {
	if a.filled != b.filled {
		return false
	}
	if !a.filled {
		return true
	}
	return bytes.Equal(a.line, b.line)
}
