package logging

import (
	"io"
	"log/slog"
	"strings"

	"mit.edu/dsg/godf/common"
)

// Config represents logging configuration.
type Config struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// DefaultConfig returns default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
	}
}

// ParseLevel parses a level name. Unknown names are a ConfigurationError.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, common.Errorf(common.ConfigurationError, "unknown log level '%s'", level)
}

// Validate checks the level and format names.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case "", "text", "json", "none":
		return nil
	}
	return common.Errorf(common.ConfigurationError, "unknown log format '%s'", c.Format)
}

// FromConfig builds a logger that writes to w.
func FromConfig(cfg Config, w io.Writer) (Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := ParseLevel(cfg.Level)
	switch strings.ToLower(cfg.Format) {
	case "json":
		return NewJSONLogger(w, level), nil
	case "none":
		return Nop(), nil
	default:
		return NewTextLogger(w, level), nil
	}
}
