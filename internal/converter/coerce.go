package converter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/nconklindev/sheetshift/internal/types"
)

// MaxCellChars is the most characters a single xlsx cell can hold, counted in UTF-16 units.
const MaxCellChars = 32767

var (
	errNotFinite   = errors.New("number is not finite")
	errCellTooLong = fmt.Errorf("text exceeds %d characters", MaxCellChars)
	errInvalidUTF8 = errors.New("text is not valid UTF-8")
)

// CellFromValue converts a record value into a tagged cell.
// Numbers stay numeric, booleans stay boolean, nil becomes an empty cell,
// and nested values become their compact JSON text.
func CellFromValue(v any) (types.Cell, error) {
	switch val := v.(type) {
	case nil:
		return types.EmptyCell(), nil
	case bool:
		return types.BoolCell(val), nil
	case string:
		return textCell(val)
	case json.Number:
		f, err := strconv.ParseFloat(string(val), 64)
		if err != nil {
			return types.Cell{}, err
		}
		return numberCell(f)
	case float64:
		return numberCell(val)
	case float32:
		return numberCell(float64(val))
	case int, int8, int16, int32, int64:
		return numberCell(float64(reflect.ValueOf(val).Int()))
	case uint, uint8, uint16, uint32, uint64:
		return numberCell(float64(reflect.ValueOf(val).Uint()))
	case json.RawMessage:
		return rawCell(val)
	default:
		b, err := marshalJSON(val)
		if err != nil {
			return types.Cell{}, err
		}
		return textCell(string(b))
	}
}

func numberCell(f float64) (types.Cell, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return types.Cell{}, errNotFinite
	}
	return types.NumberCell(f), nil
}

func textCell(s string) (types.Cell, error) {
	if !utf8.ValidString(s) {
		return types.Cell{}, errInvalidUTF8
	}
	for i, r := range s {
		if !isXMLChar(r) {
			return types.Cell{}, fmt.Errorf("character %U at byte %d cannot be stored in a sheet", r, i)
		}
	}
	if utf16Len(s)+escapeSeqLen*countEscapeSeqs(s) > MaxCellChars {
		return types.Cell{}, errCellTooLong
	}
	return types.StringCell(s), nil
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// isXMLChar reports whether r is allowed in XML 1.0 text.
func isXMLChar(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= utf8.MaxRune
}

// rawCell handles undecoded JSON. Scalars are typed like their decoded form,
// objects and arrays are kept as compact text.
func rawCell(raw json.RawMessage) (types.Cell, error) {
	v, err := valueFromRaw(raw)
	if err != nil {
		return types.Cell{}, err
	}
	if nested, ok := v.(json.RawMessage); ok {
		return textCell(string(nested))
	}
	return CellFromValue(v)
}

// valueFromRaw decodes a JSON scalar into nil, bool, json.Number or string.
// Objects and arrays are returned as compacted json.RawMessage.
func valueFromRaw(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty JSON value")
	}

	switch trimmed[0] {
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return nil, err
		}
		return json.RawMessage(buf.Bytes()), nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}
