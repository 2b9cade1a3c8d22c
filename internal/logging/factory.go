package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// Options selects and tunes a Logger backend.
type Options struct {
	Backend string // "slog" (default) or "zap"
	Level   string // debug, info, warn, error
	JSON    bool
	Output  io.Writer // slog only; zap writes to stderr
}

// New builds a Logger for the given options.
func New(opts Options) (Logger, error) {
	level := strings.ToLower(opts.Level)
	if level == "" {
		level = "info"
	}

	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	switch opts.Backend {
	case "", BackendSlog:
		var l slog.Level
		if err := l.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		if opts.JSON {
			return NewJSONLogger(opts.Output, l), nil
		}
		return NewTextLogger(opts.Output, l), nil
	case BackendZap:
		return NewZapProduction(level, !opts.JSON)
	default:
		return nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}
