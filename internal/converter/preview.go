package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/sheetshift/internal/types"
)

const RowPreviewLimit = 10

// ReadFileData reads an input file and returns its columns and up to limit rows as text.
// JSON input is previewed as the grid it would become.
func ReadFileData(filePath string, limit int) (*types.FileData, error) {
	if limit <= 0 {
		limit = RowPreviewLimit
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	var (
		grid types.Grid
		err  error
	)
	switch {
	case ext == ".json":
		grid, err = readJSONGrid(filePath)
	case IsSheetFile(filePath):
		grid, err = ReadSheet(filePath)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
	if err != nil {
		return nil, err
	}

	return previewGrid(grid, limit), nil
}

func readJSONGrid(filePath string) (types.Grid, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := ReadRecords(file)
	if err != nil {
		return nil, err
	}
	return ToGrid(records, InferFields(records))
}

func previewGrid(grid types.Grid, limit int) *types.FileData {
	data := &types.FileData{}
	if len(grid) == 0 {
		return data
	}

	for _, cell := range grid.Header() {
		data.Headers = append(data.Headers, cell.String())
	}

	rows := grid.DataRows()
	data.TotalRows = len(rows)
	for i := 0; i < len(rows) && i < limit; i++ {
		// pad or cut to the header width so previews stay rectangular
		row := make([]string, len(data.Headers))
		for j := range row {
			if j < len(rows[i]) {
				row[j] = rows[i][j].String()
			}
		}
		data.Rows = append(data.Rows, row)
	}

	return data
}
