package di

import (
	"fmt"
	"reflect"
)

// TargetKind 注入点的种类
type TargetKind int

const (
	TargetParameter TargetKind = iota
	TargetProperty
	TargetMethodParameter
)

// Target 一个注入点：构造函数形参、字段或方法形参
type Target struct {
	Kind TargetKind
	Name string
	Type reflect.Type
	// Member 所属成员：构造函数名、字段名或方法名
	Member string
	// Owner 正在构造的具体类型
	Owner       reflect.Type
	HasDefault  bool
	Default     any
	Optional    bool
	ServiceName string
	Markers     []string
}

func newParameterTarget(kind TargetKind, owner reflect.Type, member string, p ParamInfo) *Target {
	return &Target{
		Kind:        kind,
		Name:        p.Name,
		Type:        p.Type,
		Member:      member,
		Owner:       owner,
		HasDefault:  p.HasDefault,
		Default:     p.Default,
		Optional:    p.Optional,
		ServiceName: p.ServiceName,
		Markers:     p.Markers,
	}
}

func newPropertyTarget(owner reflect.Type, p *PropertyInfo) *Target {
	return &Target{
		Kind:        TargetProperty,
		Name:        p.Name,
		Type:        p.Type,
		Member:      p.Name,
		Owner:       owner,
		Optional:    p.Optional,
		ServiceName: p.ServiceName,
		Markers:     p.Markers,
	}
}

// HasMarker 注入点是否带有指定标记
func (t *Target) HasMarker(marker string) bool {
	for _, m := range t.Markers {
		if m == marker {
			return true
		}
	}
	return false
}

// Constraint 注入点对绑定元数据的约束
func (t *Target) Constraint() func(*BindingMetadata) bool {
	if t.ServiceName == "" {
		return nil
	}
	name := t.ServiceName
	return func(m *BindingMetadata) bool {
		return m.Name == name
	}
}

// IsOptional 无法解析时是否允许跳过
func (t *Target) IsOptional() bool {
	return t.Optional || t.HasDefault
}

func (t *Target) String() string {
	switch t.Kind {
	case TargetProperty:
		return fmt.Sprintf("property %s of type %s", t.Name, formatType(t.Owner))
	case TargetMethodParameter:
		return fmt.Sprintf("parameter %s of method %s of type %s", t.Name, t.Member, formatType(t.Owner))
	default:
		return fmt.Sprintf("parameter %s of constructor of type %s", t.Name, formatType(t.Owner))
	}
}

// collectionElem 切片注入点的元素类型（[]byte 不算集合）
func collectionElem(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Slice || t.Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	return t.Elem(), true
}

// ResolveWithin 在父上下文中解析注入点的值
func (t *Target) ResolveWithin(parent *Context) (reflect.Value, error) {
	k := parent.Kernel

	if elem, ok := collectionElem(t.Type); ok && !k.hasBindings(t.Type) {
		req := parent.Request.CreateChild(elem, parent, t)
		req.IsUnique = false
		req.IsOptional = true
		items, err := k.Resolve(req)
		if err != nil {
			return reflect.Value{}, err
		}
		slice := reflect.MakeSlice(t.Type, 0, len(items))
		for _, item := range items {
			slice = reflect.Append(slice, valueFor(elem, item))
		}
		return slice, nil
	}

	req := parent.Request.CreateChild(t.Type, parent, t)
	req.IsOptional = t.IsOptional()
	results, err := k.Resolve(req)
	if err != nil {
		return reflect.Value{}, err
	}
	if len(results) == 0 {
		if t.HasDefault {
			return valueFor(t.Type, t.Default), nil
		}
		return reflect.Zero(t.Type), nil
	}
	return valueFor(t.Type, results[0]), nil
}

// valueFor 将实例转换为可赋给 typ 的 reflect.Value，nil 转为零值
func valueFor(typ reflect.Type, v any) reflect.Value {
	if v == nil {
		return reflect.Zero(typ)
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != typ && rv.Type().ConvertibleTo(typ) && !rv.Type().AssignableTo(typ) {
		return rv.Convert(typ)
	}
	return rv
}
