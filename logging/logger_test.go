package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTextFormatter(t *testing.T) {
	f := NewTextFormatter()
	entry := &LogEntry{
		Time:     time.Now(),
		Level:    LogLevelInfo,
		Category: "Test",
		Message:  "Hello",
		Fields:   []Field{{Key: "key", Value: "val"}},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)

	str := string(out)
	assert.Contains(t, str, "INFO")
	assert.Contains(t, str, "[Test]")
	assert.Contains(t, str, "Hello")
	assert.Contains(t, str, "{key=val}")
	assert.True(t, strings.HasSuffix(str, "\n"))
}

func TestJsonFormatter(t *testing.T) {
	f := NewJsonFormatter()
	entry := &LogEntry{
		Time:     time.Now(),
		Level:    LogLevelWarn,
		Category: "Test",
		Message:  "Hello",
		Fields:   []Field{F("key", "val"), Err(errors.New("boom"))},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)

	var data map[string]any
	require.NoError(t, json.Unmarshal(out, &data))
	assert.Equal(t, "WARN", data["level"])
	assert.Equal(t, "Test", data["category"])
	assert.Equal(t, "Hello", data["msg"])

	fields, ok := data["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "val", fields["key"])
	assert.Equal(t, "boom", fields["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LogLevelNone, ParseLevel("off"))
	assert.Equal(t, LogLevelInfo, ParseLevel("unknown"))
}

// 测试控制台日志经由格式化器输出，并遵守最小级别
func TestConsoleProvider(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewTextFormatter()
	formatter.IncludeTimestamp = false

	factory := NewLoggingBuilder().
		SetMinimumLevel(LogLevelDebug).
		AddConsole(ConsoleLoggerOptions{Formatter: formatter, Output: &buf}).
		Build()
	logger := factory.CreateLogger("kernel")

	logger.Trace("hidden")
	logger.Debug("binding added", F("service", "Weapon"))

	assert.Equal(t, "DEBUG [kernel] binding added {service=Weapon}\n", buf.String())
}

// 测试 WithFields 派生的记录器互不影响
func TestWithFieldsIsolation(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewTextFormatter()
	formatter.IncludeTimestamp = false

	logger := NewLoggingBuilder().
		AddConsole(ConsoleLoggerOptions{Formatter: formatter, Output: &buf}).
		Build().
		CreateLogger("")

	base := logger.WithFields(F("a", 1))
	left := base.WithFields(F("b", 2))
	right := base.WithFields(F("c", 3))

	left.Info("left")
	right.Info("right")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "INFO left {a=1, b=2}", lines[0])
	assert.Equal(t, "INFO right {a=1, c=3}", lines[1])
}

func TestWithCategory(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewTextFormatter()
	formatter.IncludeTimestamp = false

	logger := NewLoggingBuilder().
		AddConsole(ConsoleLoggerOptions{Formatter: formatter, Output: &buf}).
		Build().
		CreateLogger("app")

	logger.WithCategory("di").Info("ready")
	assert.Equal(t, "INFO [di] ready\n", buf.String())
}

func TestZapProvider(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	provider := NewZapLoggerProviderFrom(zap.New(core))

	factory := NewLoggingBuilder().
		SetMinimumLevel(LogLevelTrace).
		AddProvider(provider).
		Build()
	logger := factory.CreateLogger("di")

	logger.Trace("trace as debug")
	logger.Warn("deactivation failed", Err(errors.New("close")), F("instance", "*redis.Client"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "di", entries[0].LoggerName)

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	ctx := entries[1].ContextMap()
	assert.Equal(t, "close", ctx["error"])
	assert.Equal(t, "*redis.Client", ctx["instance"])
}

func TestZapProviderMinimumLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	provider := NewZapLoggerProviderFrom(zap.New(core))
	provider.SetMinimumLevel(LogLevelError)

	logger := provider.CreateLogger("")
	logger.Info("dropped")
	logger.Error("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewTextFormatter()
	formatter.IncludeTimestamp = false

	logger := NewLoggingBuilder().
		SetMinimumLevel(LogLevelDebug).
		AddConsole(ConsoleLoggerOptions{Formatter: formatter, Output: &buf}).
		Build().
		CreateLogger("")

	cl := NewCronLogger(logger)
	cl.Info("start", "entry", 1)
	cl.Error(errors.New("panic"), "job failed", "odd")

	out := buf.String()
	assert.Contains(t, out, "DEBUG [cron] start {entry=1}")
	assert.Contains(t, out, "ERROR [cron] job failed {odd=<nil>, error=panic}")
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	assert.NotPanics(t, func() {
		logger.WithCategory("x").WithFields(F("k", "v")).Info("nothing")
	})
}
