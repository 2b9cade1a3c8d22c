package reporting

import (
	"context"

	"github.com/dmitrijs2005/marsha-uploader/internal/logging"
	"github.com/rollbar/rollbar-go"
)

// RollbarConfig configures the process-wide rollbar notifier.
type RollbarConfig struct {
	Token       string
	Environment string
	CodeVersion string
	ServerHost  string
}

// RollbarReporter sends reports to rollbar and mirrors them to the logger.
type RollbarReporter struct {
	logger logging.Logger
}

// NewRollbarReporter configures rollbar. Without a token nothing is sent and
// reports only reach the logger.
func NewRollbarReporter(conf RollbarConfig, logger logging.Logger) *RollbarReporter {
	rollbar.SetToken(conf.Token)
	rollbar.SetEnvironment(conf.Environment)
	rollbar.SetCodeVersion(conf.CodeVersion)
	rollbar.SetServerHost(conf.ServerHost)
	rollbar.SetEnabled(conf.Token != "")
	return &RollbarReporter{logger: logger}
}

func (r *RollbarReporter) Report(ctx context.Context, err error, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	rollbar.Error(err, fields)
	r.logger.Error(ctx, err.Error(), flatten(fields)...)
}

// Close waits for queued items to be sent.
func (r *RollbarReporter) Close() {
	rollbar.Wait()
}

// New returns a RollbarReporter when a token is configured and a LogReporter
// otherwise.
func New(conf RollbarConfig, logger logging.Logger) Reporter {
	if conf.Token == "" {
		return NewLogReporter(logger)
	}
	return NewRollbarReporter(conf, logger)
}
