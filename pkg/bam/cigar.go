package bam

import (
	"encoding/binary"
	"fmt"

	"github.com/scttfrdmn/htsrecord/pkg/auxtag"
	"github.com/scttfrdmn/htsrecord/pkg/cigar"
	"github.com/scttfrdmn/htsrecord/pkg/rerr"
)

// cgTag is the auxiliary tag under which an oversized CIGAR is escaped when
// n_cigar_op would overflow its 16-bit field.
var cgTag = aux.NewTag("CG")

// rawCigarWords decodes the n_cigar_op little-endian uint32 words stored
// directly in the payload's cigar region, i.e. the stored (possibly
// CG-escaped pseudo-) CIGAR.
func (r *Record) rawCigarWords() []uint32 {
	cigarOff, seqOff, _, _ := r.offsets()
	n := int(r.nCigarOp)
	words := make([]uint32, n)
	for i := 0; i < n; i++ {
		off := cigarOff + 4*i
		if off+4 > seqOff {
			break
		}
		words[i] = binary.LittleEndian.Uint32(r.payload[off : off+4])
	}
	return words
}

// cgEscapeArray reports whether this record uses the CG-escape convention
// (n_cigar_op == 2; first stored word is a soft-clip of exactly l_seq bases;
// a "CG" aux tag holding a B,I array is present) and, if so, returns that
// array's value. See spec.md §4.1.1.
func (r *Record) cgEscapeArray() (aux.Value, bool, error) {
	if r.nCigarOp != 2 {
		return aux.Value{}, false, nil
	}
	words := r.rawCigarWords()
	if len(words) != 2 {
		return aux.Value{}, false, nil
	}
	if words[0] != uint32(r.lSeq)<<4|4 {
		return aux.Value{}, false, nil
	}
	_, _, _, auxOff := r.offsets()
	val, ok, err := aux.FindBinary(r.payload[auxOff:], cgTag)
	if err != nil {
		return aux.Value{}, false, err
	}
	if !ok || val.Type != aux.Array || val.ArrayElem != 'I' {
		return aux.Value{}, false, nil
	}
	return val, true, nil
}

// CigarRLE decodes the CIGAR operation array. When checkCG is true (the
// usual case) and the §4.1.1 CG-escape conditions hold, the true CIGAR is
// read from the "CG" aux tag instead of the stored, truncated pseudo-CIGAR.
func (r *Record) CigarRLE(checkCG bool) (cigar.Ops, error) {
	if err := r.requireFilled(); err != nil {
		return nil, err
	}
	if checkCG {
		if cg, escaped, err := r.cgEscapeArray(); err != nil {
			return nil, err
		} else if escaped {
			words := make([]uint32, len(cg.ArrayInt))
			for i, v := range cg.ArrayInt {
				words[i] = uint32(v)
			}
			return cigar.DecodeWire(words), nil
		}
	}
	return cigar.DecodeWire(r.rawCigarWords()), nil
}

// Cigar renders the CIGAR resolved by checkCG (see CigarRLE) as text, e.g.
// "35M2I100M".
func (r *Record) Cigar(checkCG bool) (string, error) {
	ops, err := r.CigarRLE(checkCG)
	if err != nil {
		return "", err
	}
	return ops.String(), nil
}

// NCigarOp returns the number of CIGAR operations resolved by checkCG (see
// CigarRLE): the true op count when the CG-escape is in effect and checkCG
// is true, otherwise the stored header count.
func (r *Record) NCigarOp(checkCG bool) (int, error) {
	ops, err := r.CigarRLE(checkCG)
	if err != nil {
		return 0, err
	}
	return len(ops), nil
}

// AlignLength returns the number of reference bases the alignment consumes,
// computed over the stored (pseudo) CIGAR — it deliberately bypasses the
// CG escape, matching the source's own choice to call n_cigar_op/cigar_rle
// with check_cg=false here.
func (r *Record) AlignLength() (int64, error) {
	ops, err := r.CigarRLE(false)
	if err != nil {
		return 0, err
	}
	ref, _ := ops.Lengths()
	return ref, nil
}

// AnchorOp identifies what produced an Anchor in an Alignment walk.
type AnchorOp byte

const (
	// AnchorStart is the synthetic first anchor preceding any CIGAR op.
	AnchorStart AnchorOp = iota
	AnchorMatch
	AnchorInsertion
	AnchorDeletion
)

// Anchor is one step of an Alignment walk: the query (sequence), reference
// and alignment coordinates reached after applying Op.
type Anchor struct {
	SeqPos int64
	RefPos int64
	AlnPos int64
	Op     AnchorOp
}

// Alignment walks the record's true CIGAR (checkCG=true), returning the
// anchor sequence spec.md's alignment() describes: a synthetic
// (0, position()-1, 0, START) anchor followed by one anchor per operation.
// Only match, insertion and deletion operations are walkable; any other
// operation fails with ErrUnsupportedCigarOp. An unmapped record yields no
// anchors at all, not even the synthetic start.
func (r *Record) Alignment() ([]Anchor, error) {
	mapped, err := r.IsMapped()
	if err != nil {
		return nil, err
	}
	if !mapped {
		return nil, nil
	}
	pos, err := r.Position()
	if err != nil {
		return nil, err
	}
	ops, err := r.CigarRLE(true)
	if err != nil {
		return nil, err
	}

	anchors := make([]Anchor, 0, len(ops)+1)
	seqPos, refPos, alnPos := int64(0), pos-1, int64(0)
	anchors = append(anchors, Anchor{SeqPos: seqPos, RefPos: refPos, AlnPos: alnPos, Op: AnchorStart})

	for _, rl := range ops {
		var op AnchorOp
		switch rl.Op {
		case cigar.Match:
			op = AnchorMatch
			seqPos += int64(rl.Len)
			refPos += int64(rl.Len)
		case cigar.Insertion:
			op = AnchorInsertion
			seqPos += int64(rl.Len)
		case cigar.Deletion:
			op = AnchorDeletion
			refPos += int64(rl.Len)
		default:
			return nil, fmt.Errorf("bam: op %s: %w", rl.Op, rerr.ErrUnsupportedCigarOp)
		}
		alnPos += int64(rl.Len)
		anchors = append(anchors, Anchor{SeqPos: seqPos, RefPos: refPos, AlnPos: alnPos, Op: op})
	}
	return anchors, nil
}

// Bin recomputes the indexing bin from Position and AlignLength, following
// the same reg2bin scheme samtools uses. Compare against StoredBin to check
// header/content consistency.
func (r *Record) Bin() (uint16, error) {
	mapped, err := r.IsMapped()
	if err != nil {
		return 0, err
	}
	if !mapped {
		return 4680, nil
	}
	pos, err := r.Position()
	if err != nil {
		return 0, err
	}
	end, err := r.RightPosition()
	if err != nil {
		return 0, err
	}
	return reg2bin(pos-1, end), nil
}

// reg2bin computes the samtools indexing bin for the half-open, 0-based
// interval [beg, end).
func reg2bin(beg, end int64) uint16 {
	end--
	switch {
	case beg>>14 == end>>14:
		return uint16(((1<<15)-1)/7 + beg>>14)
	case beg>>17 == end>>17:
		return uint16(((1<<12)-1)/7 + beg>>17)
	case beg>>20 == end>>20:
		return uint16(((1<<9)-1)/7 + beg>>20)
	case beg>>23 == end>>23:
		return uint16(((1<<6)-1)/7 + beg>>23)
	case beg>>26 == end>>26:
		return uint16(((1<<3)-1)/7 + beg>>26)
	default:
		return 0
	}
}
