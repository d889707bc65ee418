package di

import (
	"fmt"
	"reflect"
)

// BindingOption 绑定配置选项
type BindingOption func(*BindingConfiguration)

// To 绑定到实现类型 T
func To[T any]() BindingOption {
	return ToType(TypeOf[T]())
}

// ToType 绑定到实现类型
func ToType(impl reflect.Type) BindingOption {
	return func(c *BindingConfiguration) {
		c.Target = BindType
		c.Implementation = impl
		c.ProviderCallback = func(ctx *Context) (Provider, error) {
			return NewStandardProvider(impl, ctx.Kernel.scorer), nil
		}
	}
}

// ToSelf 绑定到服务类型本身。开放泛型绑定时使用请求的封闭类型。
func ToSelf() BindingOption {
	return func(c *BindingConfiguration) {
		c.Target = BindSelf
		c.Implementation = nil
		c.ProviderCallback = selfProvider
	}
}

func selfProvider(ctx *Context) (Provider, error) {
	return NewStandardProvider(ctx.Request.Service, ctx.Kernel.scorer), nil
}

// ToConstant 绑定到常量，默认单例作用域
func ToConstant(value any) BindingOption {
	return func(c *BindingConfiguration) {
		c.Target = BindConstant
		c.Implementation = reflect.TypeOf(value)
		provider := NewConstantProvider(value)
		c.ProviderCallback = func(*Context) (Provider, error) { return provider, nil }
		c.ScopeCallback = singletonScope
		c.scope = scopeSingleton
	}
}

// ToMethod 绑定到回调
func ToMethod(fn func(ctx *Context) (any, error)) BindingOption {
	return func(c *BindingConfiguration) {
		c.Target = BindMethod
		c.Implementation = nil
		c.ProviderCallback = func(ctx *Context) (Provider, error) {
			return NewCallbackProvider(ctx.Request.Service, fn), nil
		}
	}
}

// ToProvider 绑定到自定义提供者
func ToProvider(p Provider) BindingOption {
	return func(c *BindingConfiguration) {
		c.Target = BindProvider
		c.Implementation = p.Type()
		c.ProviderCallback = func(*Context) (Provider, error) { return p, nil }
	}
}

// ToConstructor 绑定到指定构造函数，不参与构造函数打分
func ToConstructor(fn any, opts ...ConstructorOption) BindingOption {
	return func(c *BindingConfiguration) {
		c.Target = BindConstructor
		ctor, err := NewConstructorInfo(fn, opts...)
		if err != nil {
			c.err = err
			return
		}
		c.Implementation = ctor.Type
		provider := NewConstructorProvider(ctor)
		c.ProviderCallback = func(*Context) (Provider, error) { return provider, nil }
	}
}

// ToOpenGeneric 开放泛型绑定到另一个开放泛型实现，实现的实例化类型需在 TypeRegistry 中登记
func ToOpenGeneric(impl GenericDefinition) BindingOption {
	return func(c *BindingConfiguration) {
		c.Target = BindType
		c.OpenImplementation = impl
		c.ProviderCallback = func(ctx *Context) (Provider, error) {
			return openGenericProvider(ctx, impl)
		}
	}
}

// InSingletonScope 内核生命周期内单例
func InSingletonScope() BindingOption {
	return inScope(scopeSingleton, singletonScope)
}

// InTransientScope 每次解析都创建新实例
func InTransientScope() BindingOption {
	return inScope(scopeTransient, nil)
}

// InThreadScope 每个 goroutine 一个实例
func InThreadScope() BindingOption {
	return inScope(scopeThread, threadScope)
}

// InScope 自定义作用域，回调返回的对象必须可比较
func InScope(scope func(*Context) any) BindingOption {
	return inScope(scopeCustom, scope)
}

func inScope(kind scopeKind, scope func(*Context) any) BindingOption {
	return func(c *BindingConfiguration) {
		c.scope = kind
		c.ScopeCallback = scope
	}
}

// Named 绑定名称
func Named(name string) BindingOption {
	return func(c *BindingConfiguration) {
		c.Metadata.Name = name
	}
}

// WithMetadata 附加元数据
func WithMetadata(key string, value any) BindingOption {
	return func(c *BindingConfiguration) {
		c.Metadata.Set(key, value)
	}
}

// WithWeight 设置权重，其余优先级相同时权重高者胜出
func WithWeight(weight int) BindingOption {
	return func(c *BindingConfiguration) {
		c.Metadata.Weight = weight
	}
}

// WithConstructorArgument 按形参名提供构造参数
func WithConstructorArgument(name string, value any) BindingOption {
	return WithParameter(NewConstructorArgument(name, value))
}

// WithPropertyValue 按字段名提供属性值
func WithPropertyValue(name string, value any) BindingOption {
	return WithParameter(NewPropertyValue(name, value))
}

// WithParameter 附加参数
func WithParameter(p Parameter) BindingOption {
	return func(c *BindingConfiguration) {
		c.Parameters = append(c.Parameters, p)
	}
}

// OnActivation 激活动作，在初始化之前执行
func OnActivation(fn func(ctx *Context, instance any) error) BindingOption {
	return func(c *BindingConfiguration) {
		c.ActivationActions = append(c.ActivationActions, fn)
	}
}

// OnDeactivation 反激活动作，在 Stop 之后、Dispose 之前执行
func OnDeactivation(fn func(ctx *Context, instance any) error) BindingOption {
	return func(c *BindingConfiguration) {
		c.DeactivationActions = append(c.DeactivationActions, fn)
	}
}

// buildConfiguration 默认绑定到自身、瞬态作用域
func buildConfiguration(opts []BindingOption) *BindingConfiguration {
	c := newBindingConfiguration()
	ToSelf()(c)
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func newBindings(services []reflect.Type, opts []BindingOption) ([]*Binding, error) {
	if len(services) == 0 {
		return nil, fmt.Errorf("at least one service type is required")
	}
	config := buildConfiguration(opts)
	bindings := make([]*Binding, 0, len(services))
	for _, svc := range services {
		b := &Binding{Service: svc, BindingConfiguration: config}
		if err := b.validate(); err != nil {
			return nil, newError(KindInvalidBinding, fmt.Sprintf("invalid binding for %s: %v", formatType(svc), err), nil)
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

func newOpenGenericBinding(def GenericDefinition, opts []BindingOption) (*Binding, error) {
	if def.IsZero() {
		return nil, newError(KindInvalidBinding, "invalid open generic binding: empty definition", nil)
	}
	b := &Binding{Generic: def, BindingConfiguration: buildConfiguration(opts)}
	if err := b.validate(); err != nil {
		return nil, newError(KindInvalidBinding, fmt.Sprintf("invalid binding for %s: %v", def, err), nil)
	}
	return b, nil
}
