package di

import (
	"reflect"
)

// Parameter 解析时的参数覆盖
type Parameter interface {
	Name() string
	// ShouldInherit 是否传递给子请求
	ShouldInherit() bool
	Value(ctx *Context, target *Target) (any, error)
}

// ConstructorArgumentParameter 可作用于构造函数形参的参数
type ConstructorArgumentParameter interface {
	Parameter
	AppliesToTarget(ctx *Context, target *Target) bool
}

// ValueFunc 延迟计算的参数值
type ValueFunc func(ctx *Context, target *Target) (any, error)

func constantValue(v any) ValueFunc {
	return func(*Context, *Target) (any, error) { return v, nil }
}

// ConstructorArgument 按形参名称覆盖构造参数
type ConstructorArgument struct {
	name    string
	value   ValueFunc
	inherit bool
}

// NewConstructorArgument 按名称提供构造参数
func NewConstructorArgument(name string, value any) *ConstructorArgument {
	return &ConstructorArgument{name: name, value: constantValue(value)}
}

// NewConstructorArgumentFunc 按名称提供延迟计算的构造参数
func NewConstructorArgumentFunc(name string, fn ValueFunc) *ConstructorArgument {
	return &ConstructorArgument{name: name, value: fn}
}

// Inherited 标记为可继承，子请求同名形参也会使用该值
func (a *ConstructorArgument) Inherited() *ConstructorArgument {
	a.inherit = true
	return a
}

func (a *ConstructorArgument) Name() string        { return a.name }
func (a *ConstructorArgument) ShouldInherit() bool { return a.inherit }

func (a *ConstructorArgument) Value(ctx *Context, target *Target) (any, error) {
	return a.value(ctx, target)
}

func (a *ConstructorArgument) AppliesToTarget(_ *Context, target *Target) bool {
	return target.Kind == TargetParameter && target.Name == a.name
}

// TypeMatchingConstructorArgument 按形参类型覆盖构造参数
type TypeMatchingConstructorArgument struct {
	typ     reflect.Type
	value   ValueFunc
	inherit bool
}

// NewTypeMatchingConstructorArgument 为类型为 typ 的形参提供值
func NewTypeMatchingConstructorArgument(typ reflect.Type, value any) *TypeMatchingConstructorArgument {
	return &TypeMatchingConstructorArgument{typ: typ, value: constantValue(value)}
}

func (a *TypeMatchingConstructorArgument) Name() string        { return formatType(a.typ) }
func (a *TypeMatchingConstructorArgument) ShouldInherit() bool { return a.inherit }

func (a *TypeMatchingConstructorArgument) Value(ctx *Context, target *Target) (any, error) {
	return a.value(ctx, target)
}

func (a *TypeMatchingConstructorArgument) AppliesToTarget(_ *Context, target *Target) bool {
	return target.Kind == TargetParameter && target.Type == a.typ
}

// PropertyValue 按字段名覆盖属性注入的值
type PropertyValue struct {
	name  string
	value ValueFunc
}

// NewPropertyValue 为字段 name 提供值
func NewPropertyValue(name string, value any) *PropertyValue {
	return &PropertyValue{name: name, value: constantValue(value)}
}

// NewPropertyValueFunc 为字段 name 提供延迟计算的值
func NewPropertyValueFunc(name string, fn ValueFunc) *PropertyValue {
	return &PropertyValue{name: name, value: fn}
}

func (p *PropertyValue) Name() string        { return p.name }
func (p *PropertyValue) ShouldInherit() bool { return false }

func (p *PropertyValue) Value(ctx *Context, target *Target) (any, error) {
	return p.value(ctx, target)
}

// constructorArgumentFor 查找作用于该形参的构造参数
func constructorArgumentFor(ctx *Context, target *Target) ConstructorArgumentParameter {
	for _, p := range ctx.Parameters {
		if ca, ok := p.(ConstructorArgumentParameter); ok && ca.AppliesToTarget(ctx, target) {
			return ca
		}
	}
	return nil
}
