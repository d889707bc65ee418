package logging

import (
	"os"
	"sync"
)

// LoggingBuilder 日志构建器
type LoggingBuilder struct {
	providers    []LoggerProvider
	minimumLevel LogLevel
	err          error
	mu           sync.RWMutex
}

// NewLoggingBuilder 创建日志构建器
func NewLoggingBuilder() *LoggingBuilder {
	return &LoggingBuilder{
		minimumLevel: LogLevelInfo,
	}
}

// SetMinimumLevel 设置最小日志级别
func (b *LoggingBuilder) SetMinimumLevel(level LogLevel) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minimumLevel = level
	return b
}

// AddProvider 添加日志提供者
func (b *LoggingBuilder) AddProvider(provider LoggerProvider) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	provider.SetMinimumLevel(b.minimumLevel)
	b.providers = append(b.providers, provider)
	return b
}

// AddConsole 添加控制台日志，默认带颜色的文本格式输出到 stdout
func (b *LoggingBuilder) AddConsole(options ...ConsoleLoggerOptions) *LoggingBuilder {
	opts := ConsoleLoggerOptions{Output: os.Stdout}
	if len(options) > 0 {
		opts = options[0]
	}
	return b.AddProvider(NewConsoleLoggerProvider(opts))
}

// AddZap 添加 zap 日志，构建失败时错误在 Build 时返回
func (b *LoggingBuilder) AddZap(options ZapLoggerOptions) *LoggingBuilder {
	p, err := NewZapLoggerProvider(options)
	if err != nil {
		b.mu.Lock()
		b.err = err
		b.mu.Unlock()
		return b
	}
	return b.AddProvider(p)
}

// Build 构建日志工厂
func (b *LoggingBuilder) Build() LoggerFactory {
	factory, _ := b.TryBuild()
	return factory
}

// TryBuild 构建日志工厂，并返回添加提供者时的错误
func (b *LoggingBuilder) TryBuild() (LoggerFactory, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	factory := &loggerFactory{minimumLevel: b.minimumLevel}
	for _, provider := range b.providers {
		factory.AddProvider(provider)
	}
	return factory, b.err
}

// NewLogger 创建一个默认的控制台 Logger（便于测试使用）
func NewLogger() Logger {
	return NewLoggingBuilder().AddConsole().Build().CreateLogger("default")
}
