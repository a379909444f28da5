// Package cli provides the sheetshift command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nconklindev/sheetshift/internal/config"
	"github.com/nconklindev/sheetshift/internal/converter"
	"github.com/nconklindev/sheetshift/internal/ui"
)

// BuildInfo is stamped into the binary at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// app is the per-invocation state shared by all subcommands.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
	logFile io.Closer
}

func (a *app) converter(stdout io.Writer) *converter.Converter {
	c := converter.New(a.cfg.ConverterOptions(), a.logger)
	c.Stdout = stdout
	return c
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

// NewRootCmd creates the root command. Without a subcommand it starts the interactive converter.
func NewRootCmd(info BuildInfo) *cobra.Command {
	a := &app{}
	return newRootCmd(info, a)
}

func newRootCmd(info BuildInfo, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetshift",
		Short: "Convert between JSON record files and spreadsheets",
		Long: `sheetshift converts a JSON array of objects into a single-sheet workbook
(.xlsx or .csv) and reads the first sheet of a workbook back into JSON.

Run without arguments for the interactive converter.`,
		Version: info.Version,
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(a.cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			a.cfg = cfg

			// the TUI owns the terminal, so it only logs to a file
			interactive := cmd == cmd.Root()
			logger, closer, err := newLogger(cfg, cmd.ErrOrStderr(), interactive)
			if err != nil {
				return err
			}
			a.logger = logger
			a.logFile = closer

			if cfg.FileUsed != "" {
				logger.Debug("using config file", "path", cfg.FileUsed)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := tea.NewProgram(ui.InitialModel(a.converter(io.Discard), a.cfg.OutputDir),
				tea.WithAltScreen(), tea.WithMouseCellMotion())
			_, err := p.Run()
			return err
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("sheetshift %s\ncommit: %s\nbuilt: %s\n", info.Version, info.Commit, info.Date))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./"+config.DefaultConfigFile+")")
	flags.String("sheet-name", "", "Name of the sheet written to new workbooks (default: Sheet1)")
	flags.Int("indent", config.DefaultIndent, "Spaces per indent level in JSON output")
	flags.Bool("skip-blank-rows", false, "Drop sheet rows whose cells are all empty")
	flags.String("output-dir", "", "Directory for output files (default: next to the input)")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.String("log-file", "", "Append logs to this file instead of stderr")
	flags.BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newToSheetCommand(a))
	rootCmd.AddCommand(newToJSONCommand(a))
	rootCmd.AddCommand(newPreviewCommand(a))
	rootCmd.AddCommand(newVersionCommand(info))

	return rootCmd
}

// Execute runs the root command and prints any error once.
func Execute(info BuildInfo) error {
	a := &app{}
	defer a.close()

	if err := newRootCmd(info, a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "sheetshift %s\ncommit: %s\nbuilt: %s\n", info.Version, info.Commit, info.Date)
			return err
		},
	}
}
