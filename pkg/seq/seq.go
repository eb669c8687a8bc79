// Package seq implements the 4-bit nucleotide alphabet shared by the BIN and
// TXT record formats, and the packed in-memory representation both decode
// into.
package seq

// alphabet is the 16-symbol BAM nucleotide code table, indexed by the 4-bit
// wire code.
var alphabet = [16]byte{'=', 'A', 'C', 'M', 'G', 'R', 'S', 'V', 'T', 'W', 'Y', 'H', 'K', 'D', 'B', 'N'}

var codeOf [256]byte

func init() {
	for i := range codeOf {
		codeOf[i] = 0xf // N: unrecognised input bases decode as N
	}
	for code, c := range alphabet {
		codeOf[c] = byte(code)
	}
}

// Packed is an owned, 4-bit-per-base nucleotide sequence: two bases per byte,
// low nibble first. Both BinRecord and TxtRecord decode into this single
// representation so downstream code never has to care which wire format a
// sequence came from.
type Packed struct {
	Length int
	Bytes  []byte
}

// FromWireNibbles builds a Packed from a BIN record's packed sequence bytes.
// BIN stores two 4-bit codes per byte, high nibble first; FromWireNibbles
// swaps the nibbles of each source byte while copying, to land in the
// low-nibble-first layout Packed always uses.
func FromWireNibbles(wire []byte, length int) Packed {
	out := make([]byte, len(wire))
	for i, b := range wire {
		out[i] = b<<4 | b>>4
	}
	return Packed{Length: length, Bytes: out}
}

// FromASCII packs raw ASCII base letters, as found in a TXT record's SEQ
// field, into low-nibble-first 4-bit form.
func FromASCII(b []byte) Packed {
	out := make([]byte, (len(b)+1)/2)
	for i, c := range b {
		code := codeOf[c]
		if i&1 == 0 {
			out[i>>1] = code
		} else {
			out[i>>1] |= code << 4
		}
	}
	return Packed{Length: len(b), Bytes: out}
}

// Expand decodes p back to one ASCII base letter per position.
func (p Packed) Expand() []byte {
	out := make([]byte, p.Length)
	for i := range out {
		var code byte
		if i&1 == 0 {
			code = p.Bytes[i>>1] & 0xf
		} else {
			code = p.Bytes[i>>1] >> 4
		}
		out[i] = alphabet[code]
	}
	return out
}

// String returns the expanded ASCII representation.
func (p Packed) String() string {
	return string(p.Expand())
}
