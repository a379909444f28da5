package converter

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/sheetshift/internal/testutil"
	"github.com/nconklindev/sheetshift/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleJSON = `[
  {"name": "Alice", "age": 30, "admin": true},
  {"name": "Bob", "email": "bob@example.com"},
  {"name": "Carol", "age": 41.5, "tags": ["a", "b"]}
]`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestConverter_JSONToSheetAndBack(t *testing.T) {
	c := New(Options{}, testutil.NewTestLogger(t))

	input := writeTemp(t, "people.json", peopleJSON)
	xlsxFile := filepath.Join(filepath.Dir(input), "people.xlsx")

	progress := make(chan float64, 10)
	result, err := c.JSONToSheet(input, xlsxFile, progress)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "admin", "email", "tags"}, result.Fields)
	assert.Equal(t, 3, result.RecordsProcessed)
	assert.Equal(t, xlsxFile, result.OutputFile)

	var last float64
	for len(progress) > 0 {
		last = <-progress
	}
	assert.Equal(t, 1.0, last)

	jsonFile := filepath.Join(filepath.Dir(input), "back.json")
	back, err := c.SheetToJSON(xlsxFile, jsonFile, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, back.RecordsProcessed)
	assert.Equal(t, result.Fields, back.Fields)

	out, err := os.ReadFile(jsonFile)
	require.NoError(t, err)
	expected := `[
  {
    "name": "Alice",
    "age": 30,
    "admin": true
  },
  {
    "name": "Bob",
    "email": "bob@example.com"
  },
  {
    "name": "Carol",
    "age": 41.5,
    "tags": "[\"a\",\"b\"]"
  }
]
`
	assert.Equal(t, expected, string(out))
}

func TestConverter_JSONToCSV(t *testing.T) {
	c := New(Options{}, nil)

	input := writeTemp(t, "people.json", peopleJSON)
	output := filepath.Join(filepath.Dir(input), "people.csv")

	_, err := c.JSONToSheet(input, output, nil)
	require.NoError(t, err)

	out, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "name,age,admin,email,tags\nAlice,30,TRUE,,\nBob,,,bob@example.com,\nCarol,41.5,,,\"[\"\"a\"\",\"\"b\"\"]\"\n", string(out))
}

func TestConverter_FailureWritesNothing(t *testing.T) {
	c := New(Options{}, testutil.NewTestLogger(t))

	input := writeTemp(t, "bad.json", `[{"a": 1}, {"a": 1e400}]`)
	output := filepath.Join(filepath.Dir(input), "bad.xlsx")

	result, err := c.JSONToSheet(input, output, nil)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrValueEncoding))

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no partial output file expected")
}

func TestConverter_ParseError(t *testing.T) {
	c := New(Options{}, nil)

	input := writeTemp(t, "bad.json", `{"not": "an array"}`)
	_, err := c.JSONToSheet(input, filepath.Join(filepath.Dir(input), "out.xlsx"), nil)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestConverter_SchemaError(t *testing.T) {
	c := New(Options{}, nil)

	input := writeTemp(t, "dup.csv", "id,id\n1,2\n")
	output := filepath.Join(filepath.Dir(input), "dup.json")

	_, err := c.SheetToJSON(input, output, nil)
	assert.True(t, errors.Is(err, ErrSchema))

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConverter_SheetToStdout(t *testing.T) {
	c := New(Options{Indent: "\t", SkipBlankRows: true}, nil)
	var stdout bytes.Buffer
	c.Stdout = &stdout

	input := writeTemp(t, "in.csv", "a,b\n1,x\n,\n2,\n")
	result, err := c.SheetToJSON(input, StdoutPath, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RecordsProcessed)
	assert.Equal(t, "[\n\t{\n\t\t\"a\": \"1\",\n\t\t\"b\": \"x\"\n\t},\n\t{\n\t\t\"a\": \"2\"\n\t}\n]\n", stdout.String())
}

func TestConverter_SheetName(t *testing.T) {
	c := New(Options{SheetName: "Data"}, nil)

	input := writeTemp(t, "in.json", `[{"a": 1}]`)
	output := filepath.Join(filepath.Dir(input), "out.xlsx")
	_, err := c.JSONToSheet(input, output, nil)
	require.NoError(t, err)

	grid, err := ReadSheet(output)
	require.NoError(t, err)
	assert.Equal(t, types.Grid{{types.StringCell("a")}, {types.NumberCell(1)}}, grid)
}

func TestConverter_EmptyArray(t *testing.T) {
	c := New(Options{}, nil)

	input := writeTemp(t, "empty.json", `[]`)
	dir := filepath.Dir(input)

	_, err := c.JSONToSheet(input, filepath.Join(dir, "empty.xlsx"), nil)
	require.NoError(t, err)

	result, err := c.SheetToJSON(filepath.Join(dir, "empty.xlsx"), filepath.Join(dir, "empty_back.json"), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.RecordsProcessed)

	out, err := os.ReadFile(filepath.Join(dir, "empty_back.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(out))
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		outputDir string
		ext       string
		expected  string
	}{
		{"Next to input", filepath.Join("data", "people.json"), "", ".xlsx", filepath.Join("data", "people.xlsx")},
		{"Output dir", filepath.Join("data", "people.xlsx"), "out", ".json", filepath.Join("out", "people.json")},
		{"Same extension", filepath.Join("data", "people.csv"), "", ".csv", filepath.Join("data", "people_converted.csv")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, OutputPath(tt.input, tt.outputDir, tt.ext))
		})
	}
}
