package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, slog.LevelInfo)
	ctx := context.Background()

	log.Debug(ctx, "chunk sent", "percent", 10)
	log.Info(ctx, "upload started", "object_id", "v1")
	log.Warn(ctx, "poll failed", "attempt", 2)
	log.Error(ctx, "upload failed", "status", 403)

	out := buf.String()
	assert.NotContains(t, out, "chunk sent", "debug is below the configured level")
	for _, want := range []string{
		`level=INFO msg="upload started" object_id=v1`,
		`level=WARN msg="poll failed" attempt=2`,
		`level=ERROR msg="upload failed" status=403`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestTextLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, slog.LevelDebug).With("module", "uploads")

	log.Info(context.Background(), "done", "kind", "videos")

	assert.Contains(t, buf.String(), `msg=done module=uploads kind=videos`)
}

func TestNew_SlogJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Backend: BackendSlog, Level: "debug", JSON: true, Output: &buf})
	require.NoError(t, err)

	l.Debug(context.Background(), "progress", "percent", 42)

	assert.Contains(t, buf.String(), `"msg":"progress"`)
	assert.Contains(t, buf.String(), `"percent":42`)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.ErrorContains(t, err, `invalid log level "loud"`)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().With("k", "v").Error(context.TODO(), "dropped")
	})
}
