// Package config loads sheetshift settings from defaults, an optional YAML file and CLI flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/nconklindev/sheetshift/internal/converter"
)

// DefaultConfigFile is looked up in the working directory when no --config is given.
const DefaultConfigFile = "sheetshift.yaml"

const (
	DefaultIndent   = 2
	DefaultLogLevel = "info"
	maxSheetName    = 31
)

type Config struct {
	SheetName     string `koanf:"sheet_name"`
	Indent        int    `koanf:"indent"`
	SkipBlankRows bool   `koanf:"skip_blank_rows"`
	OutputDir     string `koanf:"output_dir"`
	LogLevel      string `koanf:"log_level"`
	LogFile       string `koanf:"log_file"`
	Verbose       bool   `koanf:"verbose"`

	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"sheet_name":      converter.DefaultSheetName,
		"indent":          DefaultIndent,
		"skip_blank_rows": false,
		"output_dir":      "",
		"log_level":       DefaultLogLevel,
		"log_file":        "",
		"verbose":         false,
	}
}

// Load builds the configuration. Precedence (highest to lowest): flags > config file > defaults.
// Only flags that were explicitly set override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	known := defaults()

	if err := k.Load(confmap.Provider(known, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	fileUsed := cfgFile
	if fileUsed == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			fileUsed = DefaultConfigFile
		}
	}
	if fileUsed != "" {
		if err := k.Load(file.Provider(fileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", fileUsed, err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, ok := known[key]; !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = fileUsed

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a conversion.
func (c *Config) Validate() error {
	if c.SheetName == "" {
		return errors.New("sheet_name is required")
	}
	if len([]rune(c.SheetName)) > maxSheetName {
		return fmt.Errorf("sheet_name %q exceeds %d characters", c.SheetName, maxSheetName)
	}
	if strings.ContainsAny(c.SheetName, `[]:*?/\`) {
		return fmt.Errorf("sheet_name %q contains one of []:*?/\\", c.SheetName)
	}
	if c.Indent < 1 || c.Indent > 8 {
		return fmt.Errorf("indent must be between 1 and 8, got %d", c.Indent)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ConverterOptions maps the config onto converter settings.
func (c *Config) ConverterOptions() converter.Options {
	return converter.Options{
		SheetName:     c.SheetName,
		Indent:        strings.Repeat(" ", c.Indent),
		SkipBlankRows: c.SkipBlankRows,
	}
}

// Level returns the slog level, forced to debug when Verbose is set.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
