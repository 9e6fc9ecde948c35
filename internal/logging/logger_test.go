package logging

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	cblog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidLevel(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Level: "loud"})
	require.Error(t, err)
}

func TestLoggerEmitsFieldsAndCorrelationID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := New(Options{
		Writer:    &buf,
		Level:     "debug",
		Formatter: cblog.LogfmtFormatter,
		Component: "runner",
	})
	require.NoError(t, err)

	ctx := WithCorrelationID(context.Background(), "abc-123")
	log.Info(ctx, "pipeline started", "suite", "demo")

	out := buf.String()
	require.Contains(t, out, "pipeline started")
	require.Contains(t, out, "component=runner")
	require.Contains(t, out, "suite=demo")
	require.Contains(t, out, "correlation_id=abc-123")
}

func TestWithAccumulatesFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base, err := New(Options{Writer: &buf, Formatter: cblog.LogfmtFormatter})
	require.NoError(t, err)

	derived := base.With("component", "watcher", "suite", "demo")
	derived.Warn(context.Background(), "change detected", "path", "specs/site.yaml")

	out := buf.String()
	require.Contains(t, out, "component=watcher")
	require.Contains(t, out, "suite=demo")
	require.Contains(t, out, "path=specs/site.yaml")
}

func TestLaterFieldsWinOnDuplicateKeys(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base, err := New(Options{Writer: &buf, Formatter: cblog.LogfmtFormatter, Component: "runner"})
	require.NoError(t, err)

	base.Info(context.Background(), "msg", "component", "override")

	require.Contains(t, buf.String(), "component=override")
	require.NotContains(t, buf.String(), "component=runner")
}

func TestGenerateCorrelationIDShape(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

	seen := make(map[string]bool)
	for i := 0; i < 8; i++ {
		id := GenerateCorrelationID()
		require.Regexp(t, pattern, id)
		require.False(t, seen[id], "correlation ids must not repeat")
		seen[id] = true
	}
}

func TestNoOpLoggerIsSafe(t *testing.T) {
	t.Parallel()

	var log Logger = NoOpLogger{}
	log = log.With("component", "x")
	log.Debug(context.Background(), "ignored")
	log.Error(nil, "also ignored") //nolint:staticcheck
}
