package converter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/nconklindev/sheetshift/internal/types"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultIndent is the indent used for JSON output.
const DefaultIndent = "  "

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadRecords parses a JSON array of objects. Key order inside each object is kept,
// and nested objects or arrays are kept as raw JSON so they render as text cells.
// Any malformed input yields a *ParseError.
func ReadRecords(r io.Reader) (types.RecordSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))

	if len(data) == 0 {
		return nil, &ParseError{Index: -1, Err: errors.New("input is empty")}
	}
	if data[0] != '[' {
		return nil, &ParseError{Index: -1, Err: errors.New("expected a JSON array of objects")}
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, &ParseError{Index: -1, Err: err}
	}

	records := make(types.RecordSet, 0, len(elements))
	for i, element := range elements {
		record, err := decodeRecord(element)
		if err != nil {
			return nil, &ParseError{Index: i, Err: err}
		}
		records = append(records, record)
	}

	return records, nil
}

func decodeRecord(element json.RawMessage) (*types.Record, error) {
	trimmed := bytes.TrimSpace(element)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("expected an object, got %s", describeJSON(trimmed))
	}

	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(trimmed, raw); err != nil {
		return nil, err
	}

	record := types.NewRecord()
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		value, err := valueFromRaw(pair.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", pair.Key, err)
		}
		record.Set(pair.Key, value)
	}
	return record, nil
}

func describeJSON(v []byte) string {
	if len(v) == 0 {
		return "nothing"
	}
	switch v[0] {
	case '[':
		return "an array"
	case '"':
		return "a string"
	case 't', 'f':
		return "a boolean"
	case 'n':
		return "null"
	default:
		return "a number"
	}
}

// WriteRecords writes records as an indented JSON array followed by a newline.
// An empty indent falls back to DefaultIndent. Field order is kept and text is
// not HTML-escaped.
func WriteRecords(w io.Writer, records types.RecordSet, indent string) error {
	if indent == "" {
		indent = DefaultIndent
	}

	var compact bytes.Buffer
	compact.WriteByte('[')
	for i, record := range records {
		if i > 0 {
			compact.WriteByte(',')
		}
		if err := appendJSON(&compact, record); err != nil {
			return fmt.Errorf("encode records: record %d: %w", i, err)
		}
	}
	compact.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", indent); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}

// marshalJSON is json.Marshal without HTML escaping that keeps record field order.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := appendJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendJSON(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case *types.Record:
		if val == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			if pair != val.Oldest() {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, pair.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := appendJSON(buf, pair.Value); err != nil {
				return fmt.Errorf("field %q: %w", pair.Key, err)
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		if val == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates each value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
