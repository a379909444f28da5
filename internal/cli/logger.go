package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nconklindev/sheetshift/internal/config"
)

// newLogger builds the process logger. A configured log file always wins; otherwise
// logs go to stderr, or nowhere when quiet is set. The returned closer may be nil.
func newLogger(cfg *config.Config, stderr io.Writer, quiet bool) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: cfg.Level()}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return slog.New(slog.NewTextHandler(f, opts)), f, nil
	}

	if quiet {
		return slog.New(slog.DiscardHandler), nil, nil
	}
	return slog.New(slog.NewTextHandler(stderr, opts)), nil, nil
}
