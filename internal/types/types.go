package types

import (
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is one entity: field names mapped to values, in the order they were read.
type Record = orderedmap.OrderedMap[string, any]

// RecordSet is an ordered sequence of records. Order maps to row order.
type RecordSet []*Record

// FieldOrder is the de-duplicated list of field names used as sheet columns.
type FieldOrder []string

// NewRecord returns an empty record.
func NewRecord() *Record {
	return orderedmap.New[string, any]()
}

// CellKind tags the scalar carried by a Cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
	CellBool
)

func (k CellKind) String() string {
	switch k {
	case CellString:
		return "string"
	case CellNumber:
		return "number"
	case CellBool:
		return "bool"
	default:
		return "empty"
	}
}

// Cell is a single typed value in a Grid row. Only the field matching Kind is meaningful.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Bool   bool
}

func EmptyCell() Cell { return Cell{Kind: CellEmpty} }
func StringCell(s string) Cell { return Cell{Kind: CellString, Text: s} }
func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, Number: f} }
func BoolCell(b bool) Cell { return Cell{Kind: CellBool, Bool: b} }

// IsEmpty reports whether the cell holds nothing worth reading back.
// A zero-length string counts as empty.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty || (c.Kind == CellString && c.Text == "")
}

// Value returns the Go value for the cell: string, float64, bool, or nil.
func (c Cell) Value() any {
	switch c.Kind {
	case CellString:
		return c.Text
	case CellNumber:
		return c.Number
	case CellBool:
		return c.Bool
	default:
		return nil
	}
}

// String renders the cell as text the way a spreadsheet would display it.
func (c Cell) String() string {
	switch c.Kind {
	case CellString:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellBool:
		if c.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// Grid is a header row followed by data rows.
type Grid [][]Cell

// Header returns row 0, or nil for a grid with no rows.
func (g Grid) Header() []Cell {
	if len(g) == 0 {
		return nil
	}
	return g[0]
}

// DataRows returns every row after the header.
func (g Grid) DataRows() [][]Cell {
	if len(g) < 2 {
		return nil
	}
	return g[1:]
}

type ConversionResult struct {
	InputFile        string
	OutputFile       string
	Fields           []string
	RecordsProcessed int
}

// FileData is a preview of an input file: its column names and the first few rows as text.
type FileData struct {
	Headers   []string
	Rows      [][]string
	TotalRows int
}
