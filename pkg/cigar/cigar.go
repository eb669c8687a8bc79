// Package cigar implements the CIGAR operation model shared by the BIN and TXT
// record formats: operation codes, run-length pairs, and the wire and ASCII
// encodings of both.
package cigar

import (
	"fmt"
	"strconv"
)

// Op identifies a single CIGAR operation type.
type Op byte

// CIGAR operation types, in their BAM wire-encoding order.
const (
	Match     Op = iota // M: alignment match (sequence match or mismatch)
	Insertion           // I: insertion to the reference
	Deletion            // D: deletion from the reference
	Skipped             // N: skipped region from the reference
	SoftClip            // S: soft clipping (clipped bases present in SEQ)
	HardClip            // H: hard clipping (clipped bases absent from SEQ)
	Padded              // P: padding (silent deletion from padded reference)
	Equal               // =: sequence match
	Mismatch            // X: sequence mismatch
	Back                // B: backward skip (rare, CG-proposed operation)
	numOps
)

var opChars = [numOps]byte{'M', 'I', 'D', 'N', 'S', 'H', 'P', '=', 'X', 'B'}

// String returns the single-character CIGAR code for op, or "?" if op is not
// one of the defined operation types.
func (op Op) String() string {
	if op < 0 || op >= numOps {
		return "?"
	}
	return string(opChars[op])
}

var opLookup [256]Op

func init() {
	for i := range opLookup {
		opLookup[i] = numOps
	}
	for op, c := range opChars {
		opLookup[c] = Op(op)
	}
}

func opFromByte(b byte) (Op, bool) {
	op := opLookup[b]
	return op, op != numOps
}

func opFromWire(w uint32) Op {
	return Op(w & 0xf)
}

// Consume describes how many query and reference bases an operation of this
// type advances per unit length.
type Consume struct {
	Query, Reference int
}

// consumeTable follows spec.md §4.3: reference-consuming ops are M, D, N, =, X;
// query-consuming ops are M, I, S, =, X. Padded, HardClip and Back consume
// neither (Back's upstream negative-reference-skip convention is not part of
// this spec's consuming sets and is intentionally not modeled).
var consumeTable = [numOps]Consume{
	Match:     {Query: 1, Reference: 1},
	Insertion: {Query: 1, Reference: 0},
	Deletion:  {Query: 0, Reference: 1},
	Skipped:   {Query: 0, Reference: 1},
	SoftClip:  {Query: 1, Reference: 0},
	HardClip:  {Query: 0, Reference: 0},
	Padded:    {Query: 0, Reference: 0},
	Equal:     {Query: 1, Reference: 1},
	Mismatch:  {Query: 1, Reference: 1},
	Back:      {Query: 0, Reference: 0},
}

// Consumes reports the query/reference consumption characteristics of op.
func (op Op) Consumes() Consume {
	if op < 0 || op >= numOps {
		return Consume{}
	}
	return consumeTable[op]
}

// ConsumesReference reports whether op advances the reference coordinate.
func (op Op) ConsumesReference() bool { return op.Consumes().Reference != 0 }

// ConsumesQuery reports whether op advances the query (sequence) coordinate.
func (op Op) ConsumesQuery() bool { return op.Consumes().Query != 0 }

// RunLength is a single CIGAR operation paired with its run length.
type RunLength struct {
	Op  Op
	Len int
}

// String renders a run-length pair as "<len><op>", e.g. "10M".
func (r RunLength) String() string {
	return strconv.Itoa(r.Len) + r.Op.String()
}

// wire packs r into the BAM on-wire u32 encoding: op in the low 4 bits, length
// in the high 28.
func (r RunLength) wire() uint32 {
	return uint32(r.Op) | uint32(r.Len)<<4
}

func runLengthFromWire(w uint32) RunLength {
	return RunLength{Op: opFromWire(w), Len: int(w >> 4)}
}

// Ops is an ordered sequence of CIGAR run-length pairs.
type Ops []RunLength

// String renders the full CIGAR string, or "*" for an empty/nil Ops.
func (o Ops) String() string {
	if len(o) == 0 {
		return "*"
	}
	b := make([]byte, 0, len(o)*4)
	for _, r := range o {
		b = append(b, r.String()...)
	}
	return string(b)
}

// AlignLength returns the sum of lengths of reference-consuming operations:
// the alignment's length on the reference.
func (o Ops) AlignLength() int64 {
	var total int64
	for _, r := range o {
		if r.Op.ConsumesReference() {
			total += int64(r.Len)
		}
	}
	return total
}

// Lengths returns the total reference-consumed and query-consumed base counts
// in one pass.
func (o Ops) Lengths() (ref, query int64) {
	for _, r := range o {
		if r.Op.ConsumesReference() {
			ref += int64(r.Len)
		}
		if r.Op.ConsumesQuery() {
			query += int64(r.Len)
		}
	}
	return ref, query
}

// DecodeWire decodes a slice of packed BAM CIGAR op-words (as found in a BIN
// record's CIGAR region, or inside a CG:B,I escape tag) into Ops.
func DecodeWire(words []uint32) Ops {
	if len(words) == 0 {
		return nil
	}
	ops := make(Ops, len(words))
	for i, w := range words {
		ops[i] = runLengthFromWire(w)
	}
	return ops
}

// EncodeWire packs ops into BAM wire-format op-words.
func EncodeWire(ops Ops) []uint32 {
	if len(ops) == 0 {
		return nil
	}
	words := make([]uint32, len(ops))
	for i, r := range ops {
		words[i] = r.wire()
	}
	return words
}

// ParseString parses an ASCII CIGAR string such as "8M2I4M1D3M". A single "*"
// parses to a nil (empty) Ops, matching the TXT missing-value convention.
func ParseString(b []byte) (Ops, error) {
	if len(b) == 1 && b[0] == '*' {
		return nil, nil
	}
	var ops Ops
	length := 0
	haveDigits := false
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c >= '0' && c <= '9' {
			length = length*10 + int(c-'0')
			haveDigits = true
			continue
		}
		op, ok := opFromByte(c)
		if !ok || !haveDigits {
			return nil, fmt.Errorf("cigar: invalid operation %q at byte %d in %q", c, i, b)
		}
		ops = append(ops, RunLength{Op: op, Len: length})
		length = 0
		haveDigits = false
	}
	if haveDigits {
		return nil, fmt.Errorf("cigar: trailing run length with no operation in %q", b)
	}
	return ops, nil
}
