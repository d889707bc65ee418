package config

import (
	"reflect"
	"strings"
)

// Load 将配置节绑定到新的 T，section 为空时绑定整个配置
func Load[T any](cfg Configuration, section string) (T, error) {
	var t T
	err := cfg.Bind(section, &t)
	return t, err
}

func targetType(target any) reflect.Type {
	t := reflect.TypeOf(target)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// alignKeys 把配置键改写为目标类型的 yaml 字段名，大小写不敏感
func alignKeys(data any, t reflect.Type) any {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return data
	}

	switch v := data.(type) {
	case map[string]any:
		switch t.Kind() {
		case reflect.Struct:
			fields := yamlFields(t)
			out := make(map[string]any, len(v))
			for key, val := range v {
				if f, ok := fields[strings.ToLower(key)]; ok {
					out[f.name] = alignKeys(val, f.typ)
					continue
				}
				out[key] = val
			}
			return out
		case reflect.Map:
			out := make(map[string]any, len(v))
			for key, val := range v {
				out[key] = alignKeys(val, t.Elem())
			}
			return out
		}
	case []any:
		if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
			out := make([]any, len(v))
			for i, val := range v {
				out[i] = alignKeys(val, t.Elem())
			}
			return out
		}
	}
	return data
}

type yamlField struct {
	name string
	typ  reflect.Type
}

// yamlFields 按 yaml.v3 的命名规则列出字段：标签名优先，否则为小写字段名
func yamlFields(t reflect.Type) map[string]yamlField {
	fields := make(map[string]yamlField)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			continue
		}
		if strings.Contains(opts, "inline") {
			ft := f.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				for k, v := range yamlFields(ft) {
					fields[k] = v
				}
			}
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		fields[strings.ToLower(name)] = yamlField{name: name, typ: f.Type}
	}
	return fields
}
