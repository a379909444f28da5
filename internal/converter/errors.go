package converter

import (
	"errors"
	"fmt"
)

// ErrParse indicates the input text is not a JSON array of objects.
var ErrParse = errors.New("parse error")

// ErrValueEncoding indicates a record value has no cell representation.
var ErrValueEncoding = errors.New("value cannot be encoded as a cell")

// ErrSchema indicates the header row of a sheet cannot be used as field names.
var ErrSchema = errors.New("schema error")

// ParseError reports malformed record-set text.
type ParseError struct {
	// Index is the position of the offending element, or -1 when the whole document is at fault.
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("parse records: %v", e.Err)
	}
	return fmt.Sprintf("parse records: element %d: %v", e.Index, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// HeaderRow is the ValueEncodingError row for a field name that cannot be a header cell.
const HeaderRow = -1

// ValueEncodingError reports a record value that could not be turned into a cell.
type ValueEncodingError struct {
	// Row is the zero-based index of the record in its RecordSet, or HeaderRow.
	Row   int
	Field string
	Value any
	Err   error
}

func (e *ValueEncodingError) Error() string {
	if e.Row == HeaderRow {
		return fmt.Sprintf("header %q: %v", truncateName(e.Field), e.Err)
	}
	return fmt.Sprintf("record %d field %q: cannot encode %T: %v", e.Row, e.Field, e.Value, e.Err)
}

func truncateName(name string) string {
	const limit = 32
	runes := []rune(name)
	if len(runes) <= limit {
		return name
	}
	return string(runes[:limit]) + "..."
}

func (e *ValueEncodingError) Unwrap() error {
	return e.Err
}

func (e *ValueEncodingError) Is(target error) bool {
	return target == ErrValueEncoding
}

// SchemaError reports a duplicate field name in a header row.
type SchemaError struct {
	Field string
	// Columns holds the zero-based indices of the first two columns sharing Field.
	Columns [2]int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("duplicate header %q in columns %d and %d", e.Field, e.Columns[0]+1, e.Columns[1]+1)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}
