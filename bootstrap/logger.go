package bootstrap

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/artpar/wildgate/config"
)

// NewLogger builds the process logger. With cfg.File set the log goes to a
// rotated file, otherwise to stdout. The returned closer releases the file.
func NewLogger(cfg config.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	if err := SetLevel(cfg.Level); err != nil {
		return zerolog.Nop(), nil, err
	}

	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		out, closer = rotating, rotating
	}

	return newLogger(out, cfg.Format), closer, nil
}

func newLogger(out io.Writer, format string) zerolog.Logger {
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Str("service", "wildgate").Logger()
}

// SetLevel applies a level to every logger in the process.
func SetLevel(level string) error {
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(l)
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
