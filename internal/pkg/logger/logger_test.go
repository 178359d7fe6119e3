package logger

import (
	"bytes"
	"context"
	log "log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	lines := make([]map[string]any, 0)
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal(line, &m))
		lines = append(lines, m)
	}
	return lines
}

func TestContextHandler_AddsTraceID(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&ContextHandler{log.NewJSONHandler(&buf, nil)})

	l.InfoContext(WithTraceID(context.Background(), "abc"), "traced")
	l.InfoContext(context.Background(), "plain")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "abc", lines[0][TraceIDKey])
	assert.NotContains(t, lines[1], TraceIDKey)
}

func TestTeeHandler_RemoteOnlyGetsTracedRecords(t *testing.T) {
	var local, remote bytes.Buffer
	h := &TeeHandler{handlers: []log.Handler{
		log.NewJSONHandler(&local, nil),
		&RemoteFilterHandler{next: log.NewJSONHandler(&remote, &log.HandlerOptions{Level: log.LevelWarn})},
	}}
	l := log.New(&ContextHandler{h}).With("app", "inkwell")
	ctx := WithTraceID(context.Background(), "req-1")

	l.InfoContext(ctx, "info traced")
	l.WarnContext(ctx, "warn traced")
	l.WarnContext(context.Background(), "warn job")

	assert.Len(t, decodeLines(t, &local), 3)
	remoteLines := decodeLines(t, &remote)
	require.Len(t, remoteLines, 1)
	assert.Equal(t, "warn traced", remoteLines[0]["msg"])
	assert.Equal(t, "inkwell", remoteLines[0]["app"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, log.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, log.LevelError, ParseLevel("error"))
	assert.Equal(t, log.LevelInfo, ParseLevel(""))
}

func TestTraceID_NilContext(t *testing.T) {
	assert.Empty(t, TraceID(nil))
}
