package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nconklindev/sheetshift/internal/converter"
	"github.com/nconklindev/sheetshift/internal/types"
)

func newToSheetCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "to-sheet <input.json>",
		Short: "Convert a JSON array of objects into a .xlsx or .csv sheet",
		Long: `Convert a JSON array of objects into a single sheet.

Columns are every field seen across the records, in first-seen order. Fields
missing from a record become empty cells. Nested objects and arrays are written
as JSON text in one cell; they are not flattened into sub-columns.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if err := checkInput(input); err != nil {
				return err
			}
			if output == "" {
				output = converter.OutputPath(input, a.cfg.OutputDir, ".xlsx")
			}

			result, err := a.converter(cmd.OutOrStdout()).JSONToSheet(input, output, nil)
			if err != nil {
				return fmt.Errorf("conversion failed: %w", err)
			}
			printSummary(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, .xlsx or .csv (default: <input>.xlsx)")
	return cmd
}

func newToJSONCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "to-json <input.xlsx|input.csv>",
		Short: "Convert the first sheet of a workbook into JSON",
		Long: `Convert the first sheet of a workbook into a JSON array of objects.

The first row names the fields and must not repeat a name. Each later row becomes
one object. Empty cells are left out of the object, so a field that was written as
an empty cell does not come back. Use -o - to write to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if err := checkInput(input); err != nil {
				return err
			}
			if output == "" {
				output = converter.OutputPath(input, a.cfg.OutputDir, ".json")
			}

			result, err := a.converter(cmd.OutOrStdout()).SheetToJSON(input, output, nil)
			if err != nil {
				return fmt.Errorf("conversion failed: %w", err)
			}
			if output != converter.StdoutPath {
				printSummary(cmd, result)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, or - for stdout (default: <input>.json)")
	return cmd
}

func checkInput(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", path)
	}
	return nil
}

func printSummary(cmd *cobra.Command, result *types.ConversionResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d record(s) to %s\n", result.RecordsProcessed, result.OutputFile)
	if len(result.Fields) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Fields: %s\n", strings.Join(result.Fields, ", "))
	}
}
