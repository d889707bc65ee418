package di

import (
	"fmt"
	"reflect"
	"strings"
)

// PropertyInfo 可注入的结构体字段
type PropertyInfo struct {
	Name        string
	Type        reflect.Type
	Index       []int
	Offset      uintptr
	Exported    bool
	ServiceName string
	Optional    bool
	Markers     []string
}

// MethodInfo 可注入的方法
type MethodInfo struct {
	Name   string
	Method reflect.Method
	Params []ParamInfo
}

// Introspector 类型内省能力：发现构造函数、可注入字段与可注入方法
type Introspector interface {
	Constructors(t reflect.Type) ([]*ConstructorInfo, error)
	Properties(t reflect.Type, settings *Settings) []*PropertyInfo
	Methods(t reflect.Type, settings *Settings) []*MethodInfo
}

// reflectIntrospector 基于 reflect 与 TypeRegistry 的默认实现
type reflectIntrospector struct {
	registry *TypeRegistry
}

// NewReflectIntrospector 创建默认内省器
func NewReflectIntrospector(registry *TypeRegistry) Introspector {
	return &reflectIntrospector{registry: registry}
}

func (r *reflectIntrospector) Constructors(t reflect.Type) ([]*ConstructorInfo, error) {
	if ctors := r.registry.Constructors(t); len(ctors) > 0 {
		return ctors, nil
	}
	if isStructPointer(t) {
		return []*ConstructorInfo{allocatorFor(t)}, nil
	}
	return nil, nil
}

func (r *reflectIntrospector) Properties(t reflect.Type, settings *Settings) []*PropertyInfo {
	if !isStructPointer(t) {
		return nil
	}

	var props []*PropertyInfo
	for _, field := range reflect.VisibleFields(t.Elem()) {
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			continue
		}
		offset, ok := fieldOffset(t.Elem(), field.Index)
		if !ok {
			// 经过嵌入指针的字段无法安全寻址
			continue
		}

		tag, hasTag := field.Tag.Lookup("di")
		if tag == "-" {
			continue
		}
		if !hasTag && !(settings.InjectUnmarkedProperties && field.IsExported() && isReferenceLike(field.Type)) {
			continue
		}

		if !field.IsExported() {
			if !settings.InjectNonPublic {
				continue
			}
			if len(field.Index) > 1 && !settings.InjectParentPrivateProperties {
				continue
			}
		}

		prop := &PropertyInfo{
			Name:     field.Name,
			Type:     field.Type,
			Index:    field.Index,
			Offset:   offset,
			Exported: field.IsExported(),
		}
		if hasTag {
			prop.ServiceName, prop.Optional, prop.Markers = parseTag(tag)
		} else {
			prop.Optional = true
		}
		props = append(props, prop)
	}
	return props
}

func (r *reflectIntrospector) Methods(t reflect.Type, settings *Settings) []*MethodInfo {
	if !isStructPointer(t) {
		return nil
	}

	prefix := settings.methodPrefix()
	var methods []*MethodInfo
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !strings.HasPrefix(m.Name, prefix) || len(m.Name) == len(prefix) {
			continue
		}
		mt := m.Type
		if mt.IsVariadic() {
			continue
		}
		if mt.NumOut() > 1 || (mt.NumOut() == 1 && mt.Out(0) != errorType) {
			continue
		}

		info := &MethodInfo{Name: m.Name, Method: m}
		// 第 0 个入参是接收者
		for j := 1; j < mt.NumIn(); j++ {
			info.Params = append(info.Params, ParamInfo{
				Name: fmt.Sprintf("arg%d", j-1),
				Type: mt.In(j),
			})
		}
		methods = append(methods, info)
	}
	return methods
}

// parseTag 解析 di 标签："name,?"、"?"、"optional"、"name,optional,marker"
func parseTag(tag string) (name string, optional bool, markers []string) {
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])

	// "di:?" 或 "di:optional" 时名称为空
	if name == "?" || name == "optional" {
		name = ""
		optional = true
	}

	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		switch part {
		case "":
		case "?", "optional":
			optional = true
		default:
			markers = append(markers, part)
		}
	}
	return name, optional, markers
}

func fieldOffset(t reflect.Type, index []int) (uintptr, bool) {
	var offset uintptr
	for i, idx := range index {
		f := t.Field(idx)
		offset += f.Offset
		if i < len(index)-1 {
			if f.Type.Kind() != reflect.Struct {
				return 0, false
			}
			t = f.Type
		}
	}
	return offset, true
}

func isStructPointer(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct
}

func isReferenceLike(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface:
		return true
	default:
		return false
	}
}

// isSelfBindable 没有绑定时能否直接构造该类型
func isSelfBindable(registry *TypeRegistry, t reflect.Type) bool {
	if t == nil {
		return false
	}
	if registry.HasConstructors(t) {
		return true
	}
	return isStructPointer(t)
}
