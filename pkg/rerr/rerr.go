// Package rerr defines the sentinel error values shared by the bam, sam and
// aux packages, so callers can distinguish error kinds with errors.Is instead
// of string-matching. The teacher and the rest of the retrieval pack favor ad
// hoc fmt.Errorf/errors.New at each call site; a dedicated, shared taxonomy is
// introduced here specifically because the record formats define a closed set
// of named failure kinds (missing field, unmapped, short buffer, ...) that
// downstream code is expected to branch on, which no single caller-local error
// value can express.
package rerr

import "errors"

var (
	// ErrNotFilled is returned by any accessor called on an empty record.
	ErrNotFilled = errors.New("htsrecord: record is not filled")

	// ErrShortBuffer is returned when a byte buffer handed to FromBytes is
	// smaller than the record's own header claims it should be.
	ErrShortBuffer = errors.New("htsrecord: buffer shorter than record claims")

	// ErrMalformedLine is returned when a TXT line has fewer than the 11
	// mandatory tab-separated fields.
	ErrMalformedLine = errors.New("htsrecord: fewer than 11 mandatory fields")

	// ErrMissing is returned by an accessor whose field is present in the
	// record but carries the format's explicit missing-value sentinel.
	ErrMissing = errors.New("htsrecord: field is missing")

	// ErrUnmapped is returned by an accessor that requires a reference on a
	// record whose stored reference id is -1 (no reference).
	ErrUnmapped = errors.New("htsrecord: record is unmapped")

	// ErrNoReader is returned by name/length resolution when no reference
	// dictionary has been attached to the record.
	ErrNoReader = errors.New("htsrecord: no reference dictionary attached")

	// ErrUnknownTag is returned by a tag lookup that finds no matching tag.
	ErrUnknownTag = errors.New("htsrecord: unknown aux tag")

	// ErrUnknownAuxType is returned when an aux type byte is not one of the
	// six defined type codes.
	ErrUnknownAuxType = errors.New("htsrecord: unknown aux type code")

	// ErrUnsupportedCigarOp is returned when an alignment walk encounters a
	// CIGAR operation outside match/insertion/deletion.
	ErrUnsupportedCigarOp = errors.New("htsrecord: unsupported cigar operation in alignment walk")
)
