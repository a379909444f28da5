package converter

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/nconklindev/sheetshift/internal/testutil"
	"github.com/nconklindev/sheetshift/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rec = testutil.RecordOf

func TestInferFields(t *testing.T) {
	tests := []struct {
		name     string
		records  types.RecordSet
		expected types.FieldOrder
	}{
		{"Empty set", types.RecordSet{}, types.FieldOrder{}},
		{"Nil set", nil, types.FieldOrder{}},
		{"Single record", types.RecordSet{rec("b", 1, "a", 2)}, types.FieldOrder{"b", "a"}},
		{
			"First seen order across records",
			types.RecordSet{rec("a", 1), rec("c", 1, "a", 2, "b", 3), rec("b", 1, "d", 2)},
			types.FieldOrder{"a", "c", "b", "d"},
		},
		{"Nil records skipped", types.RecordSet{nil, rec("x", 1), nil}, types.FieldOrder{"x"}},
		{"Empty records", types.RecordSet{rec(), rec()}, types.FieldOrder{}},
		{
			"Nested value is one field",
			types.RecordSet{rec("user", map[string]any{"id": 1, "name": "x"})},
			types.FieldOrder{"user"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InferFields(tt.records))
		})
	}
}

func TestInferFields_StableAndValueIndependent(t *testing.T) {
	a := types.RecordSet{rec("id", 1, "name", "Alice"), rec("id", 2, "email", "b@example.com")}
	b := types.RecordSet{rec("id", "x", "name", nil), rec("id", true, "email", []any{1, 2})}

	first := InferFields(a)
	assert.Equal(t, first, InferFields(a))
	assert.Equal(t, first, InferFields(b))
	assert.Equal(t, types.FieldOrder{"id", "name", "email"}, first)
}

func TestToGrid_Empty(t *testing.T) {
	grid, err := ToGrid(types.RecordSet{}, types.FieldOrder{})
	require.NoError(t, err)
	assert.Len(t, grid, 0)
}

func TestToGrid_HeaderOnly(t *testing.T) {
	grid, err := ToGrid(nil, types.FieldOrder{"a", "b"})
	require.NoError(t, err)
	require.Len(t, grid, 1)
	assert.Equal(t, []types.Cell{types.StringCell("a"), types.StringCell("b")}, grid[0])
}

func TestToGrid_CellTypes(t *testing.T) {
	records := types.RecordSet{
		rec(
			"str", "hello",
			"num", json.Number("42"),
			"float", 1.5,
			"int", 7,
			"bool", false,
			"null", nil,
			"nested", json.RawMessage(`{"x":1,"y":[1,2]}`),
			"list", []any{"a", "b"},
			"inner", rec("z", 1, "a", 2),
		),
	}
	fields := InferFields(records)

	grid, err := ToGrid(records, fields)
	require.NoError(t, err)
	require.Len(t, grid, 2)

	assert.Equal(t, []types.Cell{
		types.StringCell("hello"),
		types.NumberCell(42),
		types.NumberCell(1.5),
		types.NumberCell(7),
		types.BoolCell(false),
		types.EmptyCell(),
		types.StringCell(`{"x":1,"y":[1,2]}`),
		types.StringCell(`["a","b"]`),
		types.StringCell(`{"z":1,"a":2}`),
	}, grid[1])
}

func TestToGrid_Rectangular(t *testing.T) {
	records := types.RecordSet{
		rec("a", 1),
		rec("b", 2, "c", 3),
		rec(),
		nil,
		rec("c", 1, "a", 2, "b", 3),
	}
	fields := InferFields(records)

	grid, err := ToGrid(records, fields)
	require.NoError(t, err)
	require.Len(t, grid, len(records)+1)
	for i, row := range grid {
		assert.Len(t, row, len(fields), "row %d", i)
	}
	assert.Equal(t, types.CellEmpty, grid[1][1].Kind)
	assert.Equal(t, types.CellEmpty, grid[3][0].Kind)
	assert.Equal(t, types.NumberCell(2), grid[5][0])
}

func TestToGrid_ValueEncodingError(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"NaN", math.NaN()},
		{"Infinity", math.Inf(1)},
		{"Out of range number", json.Number("1e400")},
		{"Invalid raw JSON", json.RawMessage(`{"a":`)},
		{"Func value", func() {}},
		{"Channel in nested map", map[string]any{"c": make(chan int)}},
		{"Text over cell limit", strings.Repeat("x", MaxCellChars+1)},
		{"Astral text over cell limit", strings.Repeat("😀", MaxCellChars/2+1)},
		{"Escaped text over cell limit", strings.Repeat("_x0041_", MaxCellChars/7)},
		{"Control character", "x\x01y"},
		{"Vertical tab", "a\x0bb"},
		{"Noncharacter", "a\uFFFEb"},
		{"Invalid UTF-8", "a\xffb"},
		{"Control character in raw JSON", json.RawMessage(`"bell\u0007"`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := types.RecordSet{rec("ok", 1), rec("ok", 2, "bad", tt.value)}

			grid, err := ToGrid(records, InferFields(records))
			require.Error(t, err)
			assert.Nil(t, grid)
			assert.True(t, errors.Is(err, ErrValueEncoding))

			var encErr *ValueEncodingError
			require.True(t, errors.As(err, &encErr))
			assert.Equal(t, 1, encErr.Row)
			assert.Equal(t, "bad", encErr.Field)
		})
	}
}

func TestToGrid_HeaderEncodingError(t *testing.T) {
	tests := []struct {
		name  string
		field string
	}{
		{"Name over cell limit", strings.Repeat("k", MaxCellChars+5)},
		{"Control character", "id\x02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := types.RecordSet{rec(tt.field, 1)}

			grid, err := ToGrid(records, InferFields(records))
			require.Error(t, err)
			assert.Nil(t, grid)
			assert.True(t, errors.Is(err, ErrValueEncoding))

			var encErr *ValueEncodingError
			require.True(t, errors.As(err, &encErr))
			assert.Equal(t, HeaderRow, encErr.Row)
			assert.Equal(t, tt.field, encErr.Field)
			assert.Less(t, len(err.Error()), 200)
		})
	}
}

func TestToGrid_TextWithAllowedWhitespace(t *testing.T) {
	grid, err := ToGrid(types.RecordSet{rec("t", "a\tb\r\nc")}, types.FieldOrder{"t"})
	require.NoError(t, err)
	assert.Equal(t, types.StringCell("a\tb\r\nc"), grid[1][0])
}

func TestToGrid_TextAtCellLimit(t *testing.T) {
	long := strings.Repeat("é", MaxCellChars)
	grid, err := ToGrid(types.RecordSet{rec("t", long)}, types.FieldOrder{"t"})
	require.NoError(t, err)
	assert.Equal(t, long, grid[1][0].Text)
}

func TestToRecords_Empty(t *testing.T) {
	records, err := ToRecords(types.Grid{})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Len(t, records, 0)

	records, err = ToRecords(nil)
	require.NoError(t, err)
	assert.Len(t, records, 0)
}

func TestToRecords_HeaderOnly(t *testing.T) {
	records, err := ToRecords(types.Grid{{types.StringCell("a"), types.StringCell("b")}})
	require.NoError(t, err)
	assert.Len(t, records, 0)
}

func TestToRecords_Rows(t *testing.T) {
	grid := types.Grid{
		{types.StringCell("name"), types.StringCell("age"), types.StringCell("active")},
		{types.StringCell("Alice"), types.NumberCell(30), types.BoolCell(true)},
		{types.StringCell("Bob")},
		{types.StringCell("Carol"), types.NumberCell(41), types.BoolCell(false), types.StringCell("extra")},
		{types.EmptyCell(), types.StringCell(""), types.NumberCell(0)},
	}

	records, err := ToRecords(grid)
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"name", "age", "active"}, testutil.RecordKeys(records[0]))
	assert.Equal(t, map[string]any{"name": "Alice", "age": 30.0, "active": true}, testutil.RecordMap(records[0]))
	assert.Equal(t, map[string]any{"name": "Bob"}, testutil.RecordMap(records[1]))
	assert.Equal(t, map[string]any{"name": "Carol", "age": 41.0, "active": false}, testutil.RecordMap(records[2]))
	assert.Equal(t, map[string]any{"active": 0.0}, testutil.RecordMap(records[3]))
}

func TestToRecords_DuplicateHeader(t *testing.T) {
	grid := types.Grid{
		{types.StringCell("name"), types.StringCell("name")},
		{types.StringCell("a"), types.StringCell("b")},
	}

	records, err := ToRecords(grid)
	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, errors.Is(err, ErrSchema))

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "name", schemaErr.Field)
	assert.Equal(t, [2]int{0, 1}, schemaErr.Columns)
}

func TestToRecords_DuplicateNumericHeader(t *testing.T) {
	grid := types.Grid{{types.NumberCell(2024), types.StringCell("2024")}}

	_, err := ToRecords(grid)
	assert.True(t, errors.Is(err, ErrSchema))
}

func TestToRecords_BlankHeaders(t *testing.T) {
	grid := types.Grid{
		{types.EmptyCell(), types.StringCell("b"), types.StringCell(""), types.NumberCell(7)},
		{types.NumberCell(1), types.NumberCell(2), types.NumberCell(3), types.NumberCell(4)},
	}

	records, err := ToRecords(grid)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"__EMPTY", "b", "__EMPTY_1", "7"}, testutil.RecordKeys(records[0]))
}

func TestToRecords_SkipBlankRows(t *testing.T) {
	grid := types.Grid{
		{types.StringCell("a")},
		{types.NumberCell(1)},
		{},
		{types.EmptyCell(), types.StringCell("beyond header")},
		{types.NumberCell(2)},
	}

	all, err := ToRecords(grid)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, 0, all[1].Len())

	skipped, err := ToRecordsWithOptions(grid, ReadOptions{SkipBlankRows: true})
	require.NoError(t, err)
	require.Len(t, skipped, 2)
	assert.Equal(t, map[string]any{"a": 2.0}, testutil.RecordMap(skipped[1]))
}

func TestMissingFieldIsDroppedOnReadBack(t *testing.T) {
	records := types.RecordSet{rec("a", 1), rec("a", 1, "b", 2)}

	fields := InferFields(records)
	assert.Equal(t, types.FieldOrder{"a", "b"}, fields)

	grid, err := ToGrid(records, fields)
	require.NoError(t, err)
	assert.Equal(t, types.CellEmpty, grid[1][1].Kind)

	back, err := ToRecords(grid)
	require.NoError(t, err)
	require.Len(t, back, 2)

	_, hasB := back[0].Get("b")
	assert.False(t, hasB, "empty cell must not come back as a field")
	assert.Equal(t, map[string]any{"a": 1.0}, testutil.RecordMap(back[0]))
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, testutil.RecordMap(back[1]))
}

func TestNullValueIsDroppedOnReadBack(t *testing.T) {
	grid, err := ToGrid(types.RecordSet{rec("a", nil, "b", "x")}, types.FieldOrder{"a", "b"})
	require.NoError(t, err)

	back, err := ToRecords(grid)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, testutil.RecordKeys(back[0]))
}

func TestRoundTrip(t *testing.T) {
	records := types.RecordSet{
		rec("id", 1.0, "name", "Alice", "admin", true, "score", 12.75),
		rec("name", "Bob", "id", 2.0, "score", -3.0, "admin", false),
		rec("admin", true, "score", 0.0, "id", 3.0, "name", "42"),
	}

	grid, err := ToGrid(records, InferFields(records))
	require.NoError(t, err)

	back, err := ToRecords(grid)
	require.NoError(t, err)
	require.Len(t, back, len(records))
	for i := range records {
		assert.Equal(t, testutil.RecordMap(records[i]), testutil.RecordMap(back[i]), "record %d", i)
	}
}

func TestTypeCoercionFollowsCellTag(t *testing.T) {
	grid := types.Grid{
		{types.StringCell("code"), types.StringCell("flag")},
		{types.StringCell("abc"), types.StringCell("true")},
		{types.StringCell("42"), types.BoolCell(true)},
		{types.NumberCell(42), types.StringCell("TRUE")},
		{types.StringCell("007"), types.StringCell("1")},
	}

	records, err := ToRecords(grid)
	require.NoError(t, err)
	require.Len(t, records, 4)

	tests := []struct {
		row   int
		field string
		want  any
	}{
		{0, "flag", "true"},
		{1, "code", "42"},
		{1, "flag", true},
		{2, "code", 42.0},
		{2, "flag", "TRUE"},
		{3, "code", "007"},
		{3, "flag", "1"},
	}
	for _, tt := range tests {
		got, ok := records[tt.row].Get(tt.field)
		require.True(t, ok, "row %d field %s", tt.row, tt.field)
		assert.Equal(t, tt.want, got, "row %d field %s", tt.row, tt.field)
	}
}
