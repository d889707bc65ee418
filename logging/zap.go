package logging

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLoggerOptions zap 日志选项
type ZapLoggerOptions struct {
	// Development 使用开发配置（console 编码、调用栈更详细）
	Development bool
	// Encoding "json" 或 "console"，为空时沿用配置默认值
	Encoding string
	// OutputPaths 为空时输出到 stderr
	OutputPaths []string
}

// ZapLoggerProvider 以 zap 为后端的日志提供者
type ZapLoggerProvider struct {
	base         *zap.Logger
	level        zap.AtomicLevel
	minimumLevel atomic.Int32
}

// NewZapLoggerProvider 按选项构建 zap 记录器
func NewZapLoggerProvider(options ZapLoggerOptions) (*ZapLoggerProvider, error) {
	cfg := zap.NewProductionConfig()
	if options.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	if options.Encoding != "" {
		cfg.Encoding = options.Encoding
	}
	if len(options.OutputPaths) > 0 {
		cfg.OutputPaths = options.OutputPaths
	}
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.Level = level

	// Fatal 的退出由 Logger.Fatal 负责，zap 只写入
	base, err := cfg.Build(zap.WithFatalHook(zapcore.WriteThenNoop))
	if err != nil {
		return nil, err
	}
	p := &ZapLoggerProvider{base: base, level: level}
	p.SetMinimumLevel(LogLevelInfo)
	return p, nil
}

// NewZapLoggerProviderFrom 包装已有的 zap 记录器
func NewZapLoggerProviderFrom(base *zap.Logger) *ZapLoggerProvider {
	p := &ZapLoggerProvider{
		base:  base.WithOptions(zap.WithFatalHook(zapcore.WriteThenNoop)),
		level: zap.NewAtomicLevelAt(zapcore.DebugLevel),
	}
	p.SetMinimumLevel(LogLevelInfo)
	return p
}

func (p *ZapLoggerProvider) CreateLogger(category string) Logger {
	z := p.base
	if category != "" {
		z = z.Named(category)
	}
	return &zapLogger{provider: p, z: z}
}

func (p *ZapLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.minimumLevel.Store(int32(level))
	p.level.SetLevel(zapLevel(level))
}

// Sync 刷新缓冲
func (p *ZapLoggerProvider) Sync() error {
	return p.base.Sync()
}

func zapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LogLevelTrace, LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelFatal:
		return zapcore.FatalLevel
	default:
		// LogLevelNone
		return zapcore.FatalLevel + 1
	}
}

func zapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			out = append(out, zap.NamedError(f.Key, err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

// zapLogger zap 日志实现
type zapLogger struct {
	provider *ZapLoggerProvider
	z        *zap.Logger
}

func (l *zapLogger) Trace(msg string, fields ...Field) {
	l.Log(LogLevelTrace, msg, fields...)
}

func (l *zapLogger) Debug(msg string, fields ...Field) {
	l.Log(LogLevelDebug, msg, fields...)
}

func (l *zapLogger) Info(msg string, fields ...Field) {
	l.Log(LogLevelInfo, msg, fields...)
}

func (l *zapLogger) Warn(msg string, fields ...Field) {
	l.Log(LogLevelWarn, msg, fields...)
}

func (l *zapLogger) Error(msg string, fields ...Field) {
	l.Log(LogLevelError, msg, fields...)
}

func (l *zapLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	_ = l.z.Sync()
	os.Exit(1)
}

func (l *zapLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level < LogLevel(l.provider.minimumLevel.Load()) {
		return
	}
	if ce := l.z.Check(zapLevel(level), msg); ce != nil {
		ce.Write(zapFields(fields)...)
	}
}

func (l *zapLogger) WithFields(fields ...Field) Logger {
	return &zapLogger{provider: l.provider, z: l.z.With(zapFields(fields)...)}
}

func (l *zapLogger) WithCategory(category string) Logger {
	return &zapLogger{provider: l.provider, z: l.provider.base.Named(category)}
}
