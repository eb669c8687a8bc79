// Package aux decodes the auxiliary ("optional field") tag dictionary shared
// by BIN and TXT records. BIN and TXT encode the same logical tag->value
// pairs in different wire formats (a packed binary blob vs. ASCII
// "XX:T:VALUE" fields); this package resolves both into one Value
// representation so record accessors never need to know which format a tag
// came from.
package aux

import (
	"fmt"

	"github.com/scttfrdmn/htsrecord/pkg/rerr"
)

// Tag is a two-character auxiliary field identifier, e.g. "NM" or "CG".
type Tag [2]byte

func (t Tag) String() string { return string(t[:]) }

// NewTag builds a Tag from a two-byte name.
func NewTag(name string) Tag {
	var t Tag
	copy(t[:], name)
	return t
}

// Type is one of the six auxiliary value type codes defined by the format.
type Type byte

const (
	Char   Type = 'A' // single character
	Int    Type = 'i' // signed integer, widened to int64 on read
	Float  Type = 'f' // 32-bit float
	String Type = 'Z' // zero-terminated / tab-terminated string
	Hex    Type = 'H' // hex-encoded byte array
	Array  Type = 'B' // typed numeric array
)

func (t Type) valid() bool {
	switch t {
	case Char, Int, Float, String, Hex, Array:
		return true
	default:
		return false
	}
}

// Value is a decoded auxiliary field value. Exactly the fields matching its
// Type are meaningful; the rest are zero.
type Value struct {
	Type Type

	Char  byte    // Type == Char
	Int   int64   // Type == Int
	Float float32 // Type == Float
	Str   string  // Type == String
	Hex   []byte  // Type == Hex

	// ArrayElem is the element type letter (one of c,C,s,S,i,I,f) when
	// Type == Array. ArrayInt holds widened integer elements for every
	// element type except 'f', in which case ArrayFloat is used instead.
	ArrayElem  byte
	ArrayInt   []int64
	ArrayFloat []float32
}

// Entry is a decoded (tag, value) pair, as found in a Dict in insertion
// order.
type Entry struct {
	Tag   Tag
	Value Value
}

// Dict is an ordered tag->value dictionary, preserving the physical
// (BIN) or textual-field (TXT) order of the source record.
type Dict struct {
	entries []Entry
}

// Len returns the number of tags in the dictionary.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Get returns the value for tag and true, or the zero Value and false if tag
// is not present.
func (d *Dict) Get(tag Tag) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	for _, e := range d.entries {
		if e.Tag == tag {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether tag is present in the dictionary.
func (d *Dict) Has(tag Tag) bool {
	_, ok := d.Get(tag)
	return ok
}

// Keys returns the dictionary's tags in insertion order.
func (d *Dict) Keys() []Tag {
	if d == nil {
		return nil
	}
	keys := make([]Tag, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Tag
	}
	return keys
}

// Values returns the dictionary's values in insertion order, matching Keys.
func (d *Dict) Values() []Value {
	if d == nil {
		return nil
	}
	values := make([]Value, len(d.entries))
	for i, e := range d.entries {
		values[i] = e.Value
	}
	return values
}

func unknownTypeErr(t byte) error {
	return fmt.Errorf("aux: %w: %q", rerr.ErrUnknownAuxType, t)
}
