package logging

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// cronLogger 将 Logger 适配为 cron.Logger，键值对参数转为字段
type cronLogger struct {
	logger Logger
}

// NewCronLogger 适配 cron 调度器的日志
func NewCronLogger(logger Logger) cron.Logger {
	return &cronLogger{logger: logger.WithCategory("cron")}
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, kvFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(kvFields(keysAndValues), Err(err))...)
}

func kvFields(keysAndValues []any) []Field {
	fields := make([]Field, 0, len(keysAndValues)/2+1)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 < len(keysAndValues) {
			fields = append(fields, Field{Key: key, Value: keysAndValues[i+1]})
		} else {
			fields = append(fields, Field{Key: key})
		}
	}
	return fields
}
