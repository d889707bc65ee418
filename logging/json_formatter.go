package logging

import (
	"encoding/json"
)

// JsonFormatter JSON 格式化器，每条日志一行
type JsonFormatter struct {
	TimestampFormat string
}

// NewJsonFormatter 创建 JSON 格式化器
func NewJsonFormatter() *JsonFormatter {
	return &JsonFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

// Format 格式化日志
func (f *JsonFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := map[string]any{
		"time":  entry.Time.Format(f.TimestampFormat),
		"level": entry.Level.String(),
		"msg":   entry.Message,
	}
	if entry.Category != "" {
		data["category"] = entry.Category
	}

	if len(entry.Fields) > 0 {
		fields := make(map[string]any, len(entry.Fields))
		for _, field := range entry.Fields {
			// error 没有导出字段，直接序列化会得到 {}
			if err, ok := field.Value.(error); ok {
				fields[field.Key] = err.Error()
				continue
			}
			fields[field.Key] = field.Value
		}
		data["fields"] = fields
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
