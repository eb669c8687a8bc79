package aux

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
)

// ParseTextField parses a single TXT auxiliary field of the form
// "XX:T:VALUE".
func ParseTextField(field []byte) (Tag, Value, error) {
	if len(field) < 5 || field[2] != ':' || field[4] != ':' {
		return Tag{}, Value{}, fmt.Errorf("aux: malformed field %q", field)
	}
	tag := Tag{field[0], field[1]}
	typ := field[3]
	raw := field[5:]
	switch Type(typ) {
	case Char:
		if len(raw) != 1 {
			return tag, Value{}, fmt.Errorf("aux: malformed A value %q", raw)
		}
		return tag, Value{Type: Char, Char: raw[0]}, nil

	case Int:
		v, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return tag, Value{}, fmt.Errorf("aux: bad i value %q: %w", raw, err)
		}
		return tag, Value{Type: Int, Int: v}, nil

	case Float:
		v, err := strconv.ParseFloat(string(raw), 32)
		if err != nil {
			return tag, Value{}, fmt.Errorf("aux: bad f value %q: %w", raw, err)
		}
		return tag, Value{Type: Float, Float: float32(v)}, nil

	case String:
		return tag, Value{Type: String, Str: string(raw)}, nil

	case Hex:
		hb, err := hex.DecodeString(string(raw))
		if err != nil {
			return tag, Value{}, fmt.Errorf("aux: bad H value %q: %w", raw, err)
		}
		return tag, Value{Type: Hex, Hex: hb}, nil

	case Array:
		return parseTextArray(tag, raw)

	default:
		return tag, Value{}, unknownTypeErr(typ)
	}
}

func parseTextArray(tag Tag, raw []byte) (Tag, Value, error) {
	parts := bytes.Split(raw, []byte{','})
	if len(parts) < 1 || len(parts[0]) != 1 {
		return tag, Value{}, fmt.Errorf("aux: malformed B value %q", raw)
	}
	elem := parts[0][0]
	nums := parts[1:]
	val := Value{Type: Array, ArrayElem: elem}
	if elem == 'f' {
		val.ArrayFloat = make([]float32, len(nums))
		for i, n := range nums {
			f, err := strconv.ParseFloat(string(n), 32)
			if err != nil {
				return tag, Value{}, fmt.Errorf("aux: bad B,f element %q: %w", n, err)
			}
			val.ArrayFloat[i] = float32(f)
		}
		return tag, val, nil
	}
	val.ArrayInt = make([]int64, len(nums))
	for i, n := range nums {
		v, err := strconv.ParseInt(string(n), 10, 64)
		if err != nil {
			return tag, Value{}, fmt.Errorf("aux: bad B,%c element %q: %w", elem, n, err)
		}
		val.ArrayInt[i] = v
	}
	return tag, val, nil
}

// DecodeText decodes a record's TXT auxiliary fields (each already split on
// tabs) into an ordered Dict.
func DecodeText(fields [][]byte) (*Dict, error) {
	d := &Dict{}
	for _, f := range fields {
		tag, val, err := ParseTextField(f)
		if err != nil {
			return nil, err
		}
		d.entries = append(d.entries, Entry{Tag: tag, Value: val})
	}
	return d, nil
}

// matchesPrefix reports whether field begins with "TT:", i.e. is the
// encoding of tag.
func matchesPrefix(field []byte, tag Tag) bool {
	return len(field) >= 3 && field[0] == tag[0] && field[1] == tag[1] && field[2] == ':'
}

// FindText scans a record's raw TXT auxiliary field ranges for tag, decoding
// only the one matching field.
func FindText(fields [][]byte, tag Tag) (Value, bool, error) {
	for _, f := range fields {
		if !matchesPrefix(f, tag) {
			continue
		}
		_, val, err := ParseTextField(f)
		if err != nil {
			return Value{}, false, err
		}
		return val, true, nil
	}
	return Value{}, false, nil
}
