package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// captureConsole redirects console output into a buffer for one test.
func captureConsole(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := console
	console = &buf
	t.Cleanup(func() { console = prev })
	return &buf
}

func TestSetup_Destination(t *testing.T) {
	con := captureConsole(t)
	var file bytes.Buffer

	m := NewSlogManager()
	m.Setup(&file, "info", nil)
	m.Logger().Info("stroke committed")
	assert.Contains(t, file.String(), "stroke committed")
	assert.Empty(t, con.String())

	m.Setup(nil, "info", nil)
	m.Logger().Info("caption committed")
	assert.Contains(t, con.String(), "caption committed")
	assert.NotContains(t, file.String(), "caption committed")
}

func TestSetup_Levels(t *testing.T) {
	for level, wantDebug := range map[string]bool{
		"debug": true,
		"DEBUG": true,
		"info":  false,
		"warn":  false,
		"":      false,
		"loud":  false,
	} {
		t.Run(level, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(&buf, level, nil)
			m.Logger().Debug("pointer moved")
			assert.Equal(t, wantDebug, bytes.Contains(buf.Bytes(), []byte("pointer moved")))
		})
	}
	assert.Equal(t, slog.LevelError, parseLevel("Error"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
}

func TestSetup_TimestampsAreUTC(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", nil)
	m.Logger().Info("tick")

	assert.Regexp(t, regexp.MustCompile(`time=\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z `), buf.String())
}

func TestSetup_ContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.SetContextProvider(func() []slog.Attr {
		return []slog.Attr{{}, slog.Int("editors", 2), slog.String("edited_bookmark", "b-1")}
	})
	m.Setup(&buf, "info", nil)

	m.Logger().Info("status")
	out := buf.String()
	assert.Contains(t, out, "editors=2")
	assert.Contains(t, out, "edited_bookmark=b-1")
	assert.NotContains(t, out, "=<nil>")
}

func TestSetServiceName(t *testing.T) {
	m := NewSlogManager()
	m.SetServiceName("")
	assert.Equal(t, DefaultServiceName, m.serviceName)
	m.SetServiceName("annotator-review")
	assert.Equal(t, "annotator-review", m.serviceName)
}

func TestWriteLog(t *testing.T) {
	// no logger yet: dropped
	NewSlogManager().WriteLog("coordinator", "ignored", "info")

	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "debug", nil)
	for _, level := range []string{"debug", "info", "warn", "error", "verbose"} {
		m.WriteLog("dispatcher", level+" line", level)
	}

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG msg=\"debug line\" component=dispatcher")
	assert.Contains(t, out, "level=WARN msg=\"warn line\"")
	assert.Contains(t, out, "level=ERROR msg=\"error line\"")
	assert.Contains(t, out, "level=INFO msg=\"verbose line\"")
}

func TestSetup_OTelProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", provider)
	m.Logger().Info("exported")

	assert.Contains(t, buf.String(), "exported")
	assert.NoError(t, m.Flush(context.Background()))
	assert.NoError(t, NewSlogManager().Flush(context.Background()))
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("sink closed")
}

func TestMultiHandler(t *testing.T) {
	var info, debug bytes.Buffer
	infoH := slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugH := slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug})

	multi := NewMultiHandler(nil, infoH, debugH, nil)
	require.Len(t, multi.handlers, 2)
	assert.True(t, multi.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, NewMultiHandler(infoH).Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelInfo))

	slog.New(multi.WithAttrs([]slog.Attr{slog.String("viewport", "main")}).WithGroup("paint")).
		Info("start", "tool", "Draw")
	for _, out := range []string{info.String(), debug.String()} {
		assert.Contains(t, out, "viewport=main paint.tool=Draw")
	}
	assert.Equal(t, multi, multi.WithGroup(""))

	// a failing sink does not starve the others
	debug.Reset()
	withFailure := NewMultiHandler(failingHandler{}, debugH)
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "after failure", 0)
	assert.Error(t, withFailure.Handle(context.Background(), r))
	assert.Contains(t, debug.String(), "after failure")
}
