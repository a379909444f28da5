package converter

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/sheetshift/internal/types"
)

// StdoutPath as an output file writes to the converter's Stdout instead of a file.
const StdoutPath = "-"

// Options controls the file-level conversions.
type Options struct {
	SheetName     string
	Indent        string
	SkipBlankRows bool
}

// Converter runs whole-file conversions around the pure grid/record functions.
// Output files are only written once the conversion has fully succeeded.
type Converter struct {
	opts   Options
	logger *slog.Logger

	// Stdout receives output when the output file is StdoutPath.
	Stdout io.Writer
}

func New(opts Options, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.SheetName == "" {
		opts.SheetName = DefaultSheetName
	}
	if opts.Indent == "" {
		opts.Indent = DefaultIndent
	}
	return &Converter{opts: opts, logger: logger, Stdout: os.Stdout}
}

// JSONToSheet converts a JSON array of objects into a .xlsx or .csv file.
func (c *Converter) JSONToSheet(inputFile, outputFile string, progressChan chan<- float64) (*types.ConversionResult, error) {
	report := progressReporter(progressChan)
	log := c.logger.With("input", inputFile, "output", outputFile)

	inFile, err := os.Open(inputFile)
	if err != nil {
		return nil, err
	}
	defer inFile.Close()

	records, err := ReadRecords(inFile)
	if err != nil {
		return nil, err
	}
	report(0.25)
	log.Debug("records read", "count", len(records))

	fields := InferFields(records)
	report(0.5)
	log.Debug("fields inferred", "fields", len(fields))

	grid, err := ToGrid(records, fields)
	if err != nil {
		return nil, err
	}
	report(0.75)

	err = c.writeOutput(outputFile, func(w io.Writer) error {
		return encodeSheet(w, outputFile, grid, c.opts.SheetName)
	})
	if err != nil {
		return nil, err
	}
	report(1)
	log.Info("sheet written", "records", len(records), "fields", len(fields))

	return &types.ConversionResult{
		InputFile:        inputFile,
		OutputFile:       outputFile,
		Fields:           fields,
		RecordsProcessed: len(records),
	}, nil
}

// SheetToJSON converts the first sheet of a .xlsx or .csv file into indented JSON.
func (c *Converter) SheetToJSON(inputFile, outputFile string, progressChan chan<- float64) (*types.ConversionResult, error) {
	report := progressReporter(progressChan)
	log := c.logger.With("input", inputFile, "output", outputFile)

	grid, err := ReadSheet(inputFile)
	if err != nil {
		return nil, err
	}
	report(0.4)
	log.Debug("sheet read", "rows", len(grid))

	records, err := ToRecordsWithOptions(grid, ReadOptions{SkipBlankRows: c.opts.SkipBlankRows})
	if err != nil {
		return nil, err
	}
	report(0.8)

	err = c.writeOutput(outputFile, func(w io.Writer) error {
		return WriteRecords(w, records, c.opts.Indent)
	})
	if err != nil {
		return nil, err
	}
	report(1)
	log.Info("json written", "records", len(records))

	var fields []string
	for _, cell := range grid.Header() {
		fields = append(fields, cell.String())
	}

	return &types.ConversionResult{
		InputFile:        inputFile,
		OutputFile:       outputFile,
		Fields:           fields,
		RecordsProcessed: len(records),
	}, nil
}

// writeOutput encodes into memory first so a failed encode never leaves a partial file.
func (c *Converter) writeOutput(outputFile string, encode func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		return err
	}

	if outputFile == StdoutPath {
		_, err := buf.WriteTo(c.Stdout)
		return err
	}

	if err := os.WriteFile(outputFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", outputFile, err)
	}
	return nil
}

// progressReporter returns a func doing non-blocking sends on ch, or a no-op for nil ch.
func progressReporter(ch chan<- float64) func(float64) {
	return func(p float64) {
		if ch == nil {
			return
		}
		select {
		case ch <- p:
		default:
		}
	}
}

// OutputPath derives the output file for inputFile with the given extension,
// placed in outputDir when set and next to the input otherwise.
func OutputPath(inputFile, outputDir, ext string) string {
	base := strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
	dir := filepath.Dir(inputFile)
	if outputDir != "" {
		dir = outputDir
	}
	out := filepath.Join(dir, base+ext)
	if filepath.Clean(out) == filepath.Clean(inputFile) {
		out = filepath.Join(dir, base+"_converted"+ext)
	}
	return out
}
