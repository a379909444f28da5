package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/nconklindev/sheetshift/internal/converter"
	"github.com/nconklindev/sheetshift/internal/types"
)

func newPreviewCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show the columns and first rows of a JSON, .xlsx or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkInput(args[0]); err != nil {
				return err
			}

			data, err := converter.ReadFileData(args[0], limit)
			if err != nil {
				return err
			}
			a.logger.Debug("preview loaded", "file", args[0], "rows", data.TotalRows)

			renderPreview(cmd.OutOrStdout(), data)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", converter.RowPreviewLimit, "Number of rows to show")
	return cmd
}

func renderPreview(w io.Writer, data *types.FileData) {
	if len(data.Headers) == 0 {
		_, _ = fmt.Fprintln(w, "(empty)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault

	headerRow := make(table.Row, len(data.Headers))
	for i, h := range data.Headers {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range data.Rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		t.AppendRow(r)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "%d of %d row(s)\n", len(data.Rows), data.TotalRows)
}
