package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"splatconv/internal/config"
)

// LogFileName is the file created under the configured log directory.
const LogFileName = "splatconv.log"

// Options describes logger construction parameters.
type Options struct {
	Level    string
	Format   string
	FilePath string
	Console  io.Writer
}

// New constructs a slog logger using the provided options. Console
// output honors the requested format; when a file path is set the same
// records are fanned out to it as JSON so the file stays parseable.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	addSource := level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	var consoleSink slog.Handler
	switch format {
	case "json":
		consoleSink = newJSONHandler(console, levelVar, addSource)
	case "console":
		consoleSink = newConsoleHandler(console, levelVar, addSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	fileSink, err := newFileSink(opts.FilePath, levelVar, addSource)
	if err != nil {
		return nil, err
	}

	return slog.New(newFanoutHandler(consoleSink, fileSink)), nil
}

// NewFromConfig creates a logger using application config defaults. When a log
// directory is configured the logger tees console output into a log file there.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}

	filePath := ""
	if cfg.Paths.LogDir != "" {
		if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		filePath = filepath.Join(cfg.Paths.LogDir, LogFileName)
	}

	return New(Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		FilePath: filePath,
	})
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}

// newFileSink returns nil when no file path is configured.
func newFileSink(filePath string, lvl *slog.LevelVar, addSource bool) (slog.Handler, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return nil, nil
	}
	if dir := filepath.Dir(filePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", filePath, err)
	}
	return newJSONHandler(file, lvl, addSource), nil
}
