package aux

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// fixedWidth returns the on-wire byte width of a primitive or array-element
// type code, or false if t isn't one.
func fixedWidth(t byte) (int, bool) {
	switch t {
	case 'A', 'c', 'C':
		return 1, true
	case 's', 'S':
		return 2, true
	case 'i', 'I', 'f':
		return 4, true
	}
	return 0, false
}

func decodeArrayElem(elem byte, b []byte) int64 {
	switch elem {
	case 'c':
		return int64(int8(b[0]))
	case 'C':
		return int64(b[0])
	case 's':
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case 'S':
		return int64(binary.LittleEndian.Uint16(b))
	case 'i':
		return int64(int32(binary.LittleEndian.Uint32(b)))
	case 'I':
		return int64(binary.LittleEndian.Uint32(b))
	}
	return 0
}

// decodeOneBinary decodes the tagged field starting at b[0] (2 tag bytes, 1
// type byte, then the value), returning the tag, the decoded value and the
// number of bytes consumed.
func decodeOneBinary(b []byte) (Tag, Value, int, error) {
	if len(b) < 3 {
		return Tag{}, Value{}, 0, fmt.Errorf("aux: truncated tag header")
	}
	tag := Tag{b[0], b[1]}
	typ := b[2]
	rest := b[3:]
	switch Type(typ) {
	case Char:
		if len(rest) < 1 {
			return tag, Value{}, 0, fmt.Errorf("aux: truncated A value for tag %s", tag)
		}
		return tag, Value{Type: Char, Char: rest[0]}, 4, nil

	case Int:
		if len(rest) < 4 {
			return tag, Value{}, 0, fmt.Errorf("aux: truncated i value for tag %s", tag)
		}
		v := int32(binary.LittleEndian.Uint32(rest[:4]))
		return tag, Value{Type: Int, Int: int64(v)}, 7, nil

	case Float:
		if len(rest) < 4 {
			return tag, Value{}, 0, fmt.Errorf("aux: truncated f value for tag %s", tag)
		}
		bits := binary.LittleEndian.Uint32(rest[:4])
		return tag, Value{Type: Float, Float: math.Float32frombits(bits)}, 7, nil

	case String, Hex:
		n := bytes.IndexByte(rest, 0)
		if n < 0 {
			return tag, Value{}, 0, fmt.Errorf("aux: unterminated %c value for tag %s", typ, tag)
		}
		raw := rest[:n]
		consumed := 3 + n + 1
		if Type(typ) == String {
			return tag, Value{Type: String, Str: string(raw)}, consumed, nil
		}
		hb, err := hex.DecodeString(string(raw))
		if err != nil {
			return tag, Value{}, 0, fmt.Errorf("aux: bad H value for tag %s: %w", tag, err)
		}
		return tag, Value{Type: Hex, Hex: hb}, consumed, nil

	case Array:
		if len(rest) < 5 {
			return tag, Value{}, 0, fmt.Errorf("aux: truncated B header for tag %s", tag)
		}
		elem := rest[0]
		width, ok := fixedWidth(elem)
		if !ok || elem == 'A' {
			return tag, Value{}, 0, unknownTypeErr(elem)
		}
		count := int(binary.LittleEndian.Uint32(rest[1:5]))
		data := rest[5:]
		if len(data) < count*width {
			return tag, Value{}, 0, fmt.Errorf("aux: truncated B array for tag %s", tag)
		}
		val := Value{Type: Array, ArrayElem: elem}
		if elem == 'f' {
			val.ArrayFloat = make([]float32, count)
			for i := 0; i < count; i++ {
				bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
				val.ArrayFloat[i] = math.Float32frombits(bits)
			}
		} else {
			val.ArrayInt = make([]int64, count)
			for i := 0; i < count; i++ {
				val.ArrayInt[i] = decodeArrayElem(elem, data[i*width:i*width+width])
			}
		}
		return tag, val, 3 + 5 + count*width, nil

	default:
		return tag, Value{}, 0, unknownTypeErr(typ)
	}
}

// DecodeBinary decodes a full BIN auxiliary region (the byte range following
// a record's quality block) into an ordered Dict.
func DecodeBinary(b []byte) (*Dict, error) {
	d := &Dict{}
	for i := 0; i < len(b); {
		tag, val, n, err := decodeOneBinary(b[i:])
		if err != nil {
			return nil, err
		}
		d.entries = append(d.entries, Entry{Tag: tag, Value: val})
		i += n
	}
	return d, nil
}

// FindBinary scans a BIN auxiliary region for a single tag without building
// a full Dict, returning the decoded value and true if found. Used by the
// CG-escape check, which only ever needs to look up the "CG" tag.
func FindBinary(b []byte, tag Tag) (Value, bool, error) {
	for i := 0; i < len(b); {
		t, val, n, err := decodeOneBinary(b[i:])
		if err != nil {
			return Value{}, false, err
		}
		if t == tag {
			return val, true, nil
		}
		i += n
	}
	return Value{}, false, nil
}
