package converter

import "github.com/nconklindev/sheetshift/internal/types"

// ToGrid lays records out as a header row of field names followed by one row per record.
// Every data row has exactly len(fields) cells; a field missing from a record is an
// empty cell. An empty field list with no records yields a grid with no rows.
//
// The first field name or value that cannot be represented aborts the conversion with a
// *ValueEncodingError and no grid is returned.
func ToGrid(records types.RecordSet, fields types.FieldOrder) (types.Grid, error) {
	if len(fields) == 0 && len(records) == 0 {
		return types.Grid{}, nil
	}

	grid := make(types.Grid, 0, len(records)+1)

	header := make([]types.Cell, len(fields))
	for i, name := range fields {
		cell, err := textCell(name)
		if err != nil {
			return nil, &ValueEncodingError{Row: HeaderRow, Field: name, Value: name, Err: err}
		}
		header[i] = cell
	}
	grid = append(grid, header)

	for rowIdx, record := range records {
		row := make([]types.Cell, len(fields))
		for colIdx, name := range fields {
			if record == nil {
				row[colIdx] = types.EmptyCell()
				continue
			}
			value, ok := record.Get(name)
			if !ok {
				row[colIdx] = types.EmptyCell()
				continue
			}
			cell, err := CellFromValue(value)
			if err != nil {
				return nil, &ValueEncodingError{Row: rowIdx, Field: name, Value: value, Err: err}
			}
			row[colIdx] = cell
		}
		grid = append(grid, row)
	}

	return grid, nil
}
