package converter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nconklindev/sheetshift/internal/types"

	"github.com/xuri/excelize/v2"
)

// DefaultSheetName is the name of the single sheet written to new workbooks.
const DefaultSheetName = "Sheet1"

// DecodeXLSX reads the first sheet of a workbook into a grid. Each cell is tagged
// from the type stored in the workbook, so text that looks like a number stays text.
func DecodeXLSX(r io.Reader) (types.Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return types.Grid{}, nil
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}

	grid := make(types.Grid, 0, len(rows))
	for rowIdx, row := range rows {
		cells := make([]types.Cell, len(row))
		for colIdx, raw := range row {
			if raw == "" {
				cells[colIdx] = types.EmptyCell()
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return nil, err
			}
			cellType, err := f.GetCellType(sheetName, cellName)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", cellName, err)
			}
			cells[colIdx] = xlsxCell(cellType, raw)
		}
		grid = append(grid, cells)
	}

	return grid, nil
}

// xlsxCell tags a raw cell value. Cells without an explicit type are numbers in OOXML.
func xlsxCell(cellType excelize.CellType, raw string) types.Cell {
	switch cellType {
	case excelize.CellTypeBool:
		return types.BoolCell(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return types.NumberCell(f)
		}
		return types.StringCell(raw)
	default:
		return types.StringCell(raw)
	}
}

// EncodeXLSX writes grid as the only sheet of a new workbook. Empty cells are not written.
func EncodeXLSX(w io.Writer, grid types.Grid, sheetName string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	if sheetName != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, sheetName); err != nil {
			return fmt.Errorf("name sheet %q: %w", sheetName, err)
		}
	}

	for rowIdx, row := range grid {
		for colIdx, cell := range row {
			if cell.IsEmpty() {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return err
			}
			switch cell.Kind {
			case types.CellNumber:
				err = f.SetCellFloat(sheetName, cellName, cell.Number, -1, 64)
			case types.CellBool:
				err = f.SetCellBool(sheetName, cellName, cell.Bool)
			default:
				text := escapeXLSXText(cell.Text)
				if utf16Len(text) > MaxCellChars {
					return fmt.Errorf("write cell %s: %w", cellName, errCellTooLong)
				}
				err = f.SetCellStr(sheetName, cellName, text)
			}
			if err != nil {
				return fmt.Errorf("write cell %s: %w", cellName, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// escapeXLSXText protects literal "_xHHHH_" text, which readers decode as an
// escaped character, by prefixing each occurrence with the escaped underscore "_x005F".
func escapeXLSXText(s string) string {
	if !strings.Contains(s, "_x") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + escapeSeqLen*countEscapeSeqs(s))
	for i := 0; i < len(s); i++ {
		if isEscapeSeq(s[i:]) {
			b.WriteString("_x005F")
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// escapeSeqLen is the length added by escapeXLSXText per escaped sequence.
const escapeSeqLen = len("_x005F")

func countEscapeSeqs(s string) int {
	n := 0
	for i := strings.Index(s, "_x"); i >= 0 && i < len(s); i++ {
		if isEscapeSeq(s[i:]) {
			n++
		}
	}
	return n
}

func isEscapeSeq(s string) bool {
	if len(s) < 7 || s[0] != '_' || s[1] != 'x' || s[6] != '_' {
		return false
	}
	for i := 2; i < 6; i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// DecodeCSV reads CSV into a grid. CSV has no cell types, so every non-empty field
// is a string cell. Rows may have differing lengths.
func DecodeCSV(r io.Reader) (types.Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	grid := make(types.Grid, 0, len(records))
	for _, record := range records {
		cells := make([]types.Cell, len(record))
		for i, field := range record {
			if field == "" {
				cells[i] = types.EmptyCell()
			} else {
				cells[i] = types.StringCell(field)
			}
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// EncodeCSV writes grid as CSV using each cell's display text.
func EncodeCSV(w io.Writer, grid types.Grid) error {
	writer := csv.NewWriter(w)
	for _, row := range grid {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = cell.String()
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// IsSheetFile reports whether path has an extension ReadSheet understands.
func IsSheetFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

// ReadSheet decodes a .xlsx/.xlsm or .csv file into a grid.
func ReadSheet(filePath string) (types.Grid, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if !IsSheetFile(filePath) {
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if ext == ".csv" {
		return DecodeCSV(file)
	}
	return DecodeXLSX(file)
}

// encodeSheet picks the encoder for the output file's extension.
func encodeSheet(w io.Writer, filePath string, grid types.Grid, sheetName string) error {
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".csv":
		return EncodeCSV(w, grid)
	case ".xlsx":
		return EncodeXLSX(w, grid, sheetName)
	default:
		return fmt.Errorf("unsupported file type: %s", ext)
	}
}
