// Package reporting is the side channel for failures that must not interrupt
// the caller, such as background reconciliation errors.
package reporting

import (
	"context"

	"github.com/dmitrijs2005/marsha-uploader/internal/logging"
)

// Reporter records a failure with optional context fields.
type Reporter interface {
	Report(ctx context.Context, err error, fields map[string]any)
}

// LogReporter writes reports to a Logger at error level.
type LogReporter struct {
	logger logging.Logger
}

func NewLogReporter(logger logging.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(ctx context.Context, err error, fields map[string]any) {
	r.logger.Error(ctx, err.Error(), flatten(fields)...)
}

func flatten(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
