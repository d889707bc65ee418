package logging

import (
	"fmt"
	"strings"
)

// TextFormatter 文本格式化器：时间 级别 [类别] 消息 {k=v, ...}
type TextFormatter struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
}

// NewTextFormatter 创建文本格式化器
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		TimestampFormat:  "2006-01-02 15:04:05",
	}
}

// Format 格式化日志
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	var sb strings.Builder

	if f.IncludeTimestamp {
		sb.WriteString(entry.Time.Format(f.TimestampFormat))
		sb.WriteByte(' ')
	}

	level := entry.Level.String()
	if f.ColorOutput {
		level = colorize(entry.Level, level)
	}
	sb.WriteString(level)

	if entry.Category != "" {
		sb.WriteString(" [")
		sb.WriteString(entry.Category)
		sb.WriteByte(']')
	}

	sb.WriteByte(' ')
	sb.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		sb.WriteString(" {")
		for i, field := range entry.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", field.Key, field.Value)
		}
		sb.WriteByte('}')
	}

	sb.WriteByte('\n')
	return []byte(sb.String()), nil
}
