package converter

import (
	"fmt"

	"github.com/nconklindev/sheetshift/internal/types"
)

// EmptyHeaderPrefix names columns whose header cell is blank.
const EmptyHeaderPrefix = "__EMPTY"

// ReadOptions tunes how a grid is read back into records.
type ReadOptions struct {
	// SkipBlankRows drops data rows in which every cell is empty.
	SkipBlankRows bool
}

// ToRecords reads a grid with default options.
func ToRecords(grid types.Grid) (types.RecordSet, error) {
	return ToRecordsWithOptions(grid, ReadOptions{})
}

// ToRecordsWithOptions turns each data row into a record keyed by the header row.
//
// Cells are typed by their own tag, never by sniffing their text. Empty cells are
// left out of the record, so a field written as an empty cell does not come back.
// Short rows read as if padded with empty cells; cells beyond the header are ignored.
// A grid with no rows is an empty record set, not an error.
func ToRecordsWithOptions(grid types.Grid, opts ReadOptions) (types.RecordSet, error) {
	if len(grid) == 0 {
		return types.RecordSet{}, nil
	}

	fields, err := headerFields(grid.Header())
	if err != nil {
		return nil, err
	}

	records := make(types.RecordSet, 0, len(grid)-1)
	for _, row := range grid.DataRows() {
		if opts.SkipBlankRows && isBlankRow(row, len(fields)) {
			continue
		}

		record := types.NewRecord()
		for i, name := range fields {
			if i >= len(row) {
				break
			}
			cell := row[i]
			if cell.IsEmpty() {
				continue
			}
			record.Set(name, cell.Value())
		}
		records = append(records, record)
	}

	return records, nil
}

// headerFields turns the header row into field names, naming blank cells
// __EMPTY, __EMPTY_1, ... and rejecting duplicates.
func headerFields(header []types.Cell) (types.FieldOrder, error) {
	fields := make(types.FieldOrder, len(header))
	seen := make(map[string]int, len(header))
	blanks := 0

	for i, cell := range header {
		name := cell.String()
		if name == "" {
			name = EmptyHeaderPrefix
			if blanks > 0 {
				name = fmt.Sprintf("%s_%d", EmptyHeaderPrefix, blanks)
			}
			blanks++
		}

		if first, dup := seen[name]; dup {
			return nil, &SchemaError{Field: name, Columns: [2]int{first, i}}
		}
		seen[name] = i
		fields[i] = name
	}

	return fields, nil
}

func isBlankRow(row []types.Cell, width int) bool {
	for i, cell := range row {
		if i >= width {
			break
		}
		if !cell.IsEmpty() {
			return false
		}
	}
	return true
}
