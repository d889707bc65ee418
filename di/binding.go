package di

import (
	"fmt"
	"reflect"
)

// BindingTarget 绑定的目标类别
type BindingTarget int

const (
	BindSelf BindingTarget = iota
	BindType
	BindProvider
	BindMethod
	BindConstant
	BindConstructor
)

func (t BindingTarget) String() string {
	switch t {
	case BindSelf:
		return "self"
	case BindType:
		return "type"
	case BindProvider:
		return "provider"
	case BindMethod:
		return "method"
	case BindConstant:
		return "constant"
	case BindConstructor:
		return "constructor"
	default:
		return "unknown"
	}
}

// BindingMetadata 绑定元数据：名称、权重与任意键值
type BindingMetadata struct {
	Name   string
	Weight int
	values map[string]any
}

// Get 读取元数据
func (m *BindingMetadata) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has 是否存在指定键
func (m *BindingMetadata) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Set 写入元数据，仅在绑定配置阶段使用
func (m *BindingMetadata) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	m.values[key] = value
}

// BindingConfiguration 绑定配置。BindAll 绑定的多个服务共享同一个配置，
// 作用域缓存以配置为键，因此它们共享同一个实例。
type BindingConfiguration struct {
	Metadata   *BindingMetadata
	Target     BindingTarget
	IsImplicit bool
	// Condition 为 nil 表示无条件绑定
	Condition           func(*Request) bool
	ProviderCallback    func(*Context) (Provider, error)
	ScopeCallback       func(*Context) any
	Parameters          []Parameter
	ActivationActions   []func(*Context, any) error
	DeactivationActions []func(*Context, any) error
	// Implementation 目标类型，仅用于错误信息与依赖图
	Implementation reflect.Type
	// OpenImplementation ToOpenGeneric 的实现定义
	OpenImplementation GenericDefinition

	// seq 声明顺序
	seq   uint64
	scope scopeKind
	err   error
}

func newBindingConfiguration() *BindingConfiguration {
	return &BindingConfiguration{Metadata: &BindingMetadata{}}
}

// GetScope 计算作用域对象，nil 表示瞬态
func (c *BindingConfiguration) GetScope(ctx *Context) any {
	if c.ScopeCallback == nil {
		return nil
	}
	return c.ScopeCallback(ctx)
}

// Binding 服务到配置的映射。开放泛型绑定的 Service 为 nil，Generic 为其定义。
type Binding struct {
	Service reflect.Type
	Generic GenericDefinition
	*BindingConfiguration
}

// IsConditional 是否带有条件
func (b *Binding) IsConditional() bool {
	return b.Condition != nil
}

// IsOpenGeneric 是否来自开放泛型绑定。封闭请求看到的是 Service 已填充的副本。
func (b *Binding) IsOpenGeneric() bool {
	return !b.Generic.IsZero()
}

// Matches 条件是否满足
func (b *Binding) Matches(r *Request) bool {
	return b.Condition == nil || b.Condition(r)
}

func (b *Binding) serviceName() string {
	if b.Service == nil {
		return b.Generic.String()
	}
	return formatType(b.Service)
}

func (b *Binding) String() string {
	return formatBinding(b)
}

// validate 检查绑定目标与服务类型兼容
func (b *Binding) validate() error {
	if b.err != nil {
		return b.err
	}
	if b.Service == nil {
		if b.Generic.IsZero() {
			return fmt.Errorf("binding has no service type")
		}
		return nil
	}
	switch b.Target {
	case BindSelf:
		if b.Service.Kind() == reflect.Interface {
			return fmt.Errorf("cannot self-bind interface %s, use To or ToMethod", formatType(b.Service))
		}
	case BindType, BindConstructor:
		if b.Implementation != nil && !b.Implementation.AssignableTo(b.Service) {
			return fmt.Errorf("%s is not assignable to %s", formatType(b.Implementation), formatType(b.Service))
		}
	}
	return nil
}

// compareBindings 绑定优先级比较，返回正数表示 x 优先。
// 依次比较：非空、有条件、封闭泛型、显式、权重。
func compareBindings(x, y *Binding) int {
	if x == y {
		return 0
	}
	if c := compareBool(x != nil, y != nil); c != 0 {
		return c
	}
	if x == nil {
		return 0
	}
	if c := compareBool(x.IsConditional(), y.IsConditional()); c != 0 {
		return c
	}
	if c := compareBool(!x.IsOpenGeneric(), !y.IsOpenGeneric()); c != 0 {
		return c
	}
	if c := compareBool(!x.IsImplicit, !y.IsImplicit); c != 0 {
		return c
	}
	switch {
	case x.Metadata.Weight > y.Metadata.Weight:
		return 1
	case x.Metadata.Weight < y.Metadata.Weight:
		return -1
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}
