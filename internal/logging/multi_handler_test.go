package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	log := slog.New(h)
	log.Info("hello", "key", "value")

	assert.Contains(t, a.String(), `"msg":"hello"`)
	assert.Contains(t, b.String(), `"key":"value"`)
}

func TestMultiHandler_RespectsPerHandlerLevel(t *testing.T) {
	var info, errOnly bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errOnly, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	log := slog.New(h)
	log.Info("routine")
	log.Error("broken")

	assert.Contains(t, info.String(), "routine")
	assert.Contains(t, info.String(), "broken")
	assert.NotContains(t, errOnly.String(), "routine")
	assert.Contains(t, errOnly.String(), "broken")
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(slog.NewJSONHandler(&buf, nil))

	log := slog.New(h).With("request_id", "abc123")
	log.Info("handled")

	assert.Contains(t, buf.String(), `"request_id":"abc123"`)
}
