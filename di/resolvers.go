package di

import (
	"reflect"
)

// BindingMap 内核的绑定表，按服务类型与开放泛型定义分组
type BindingMap struct {
	closed map[reflect.Type][]*Binding
	open   map[GenericDefinition][]*Binding
}

func newBindingMap() *BindingMap {
	return &BindingMap{
		closed: make(map[reflect.Type][]*Binding),
		open:   make(map[GenericDefinition][]*Binding),
	}
}

// Of 服务类型的绑定
func (m *BindingMap) Of(service reflect.Type) []*Binding {
	return m.closed[service]
}

// OfGeneric 开放泛型定义的绑定
func (m *BindingMap) OfGeneric(def GenericDefinition) []*Binding {
	return m.open[def]
}

func (m *BindingMap) add(b *Binding) {
	if b.Service == nil {
		m.open[b.Generic] = append(m.open[b.Generic], b)
		return
	}
	m.closed[b.Service] = append(m.closed[b.Service], b)
}

func (m *BindingMap) remove(b *Binding) bool {
	if b.Service == nil {
		list, ok := removeBinding(m.open[b.Generic], b)
		if ok {
			m.open[b.Generic] = list
		}
		return ok
	}
	list, ok := removeBinding(m.closed[b.Service], b)
	if ok {
		m.closed[b.Service] = list
	}
	return ok
}

func (m *BindingMap) all() []*Binding {
	var out []*Binding
	for _, list := range m.closed {
		out = append(out, list...)
	}
	for _, list := range m.open {
		out = append(out, list...)
	}
	return out
}

func removeBinding(list []*Binding, b *Binding) ([]*Binding, bool) {
	for i, existing := range list {
		if existing == b {
			out := make([]*Binding, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...), true
		}
	}
	return list, false
}

// BindingResolver 为服务类型提供候选绑定
type BindingResolver interface {
	Resolve(bindings *BindingMap, service reflect.Type) []*Binding
}

// StandardBindingResolver 按服务类型直接查找
type StandardBindingResolver struct{}

func (StandardBindingResolver) Resolve(bindings *BindingMap, service reflect.Type) []*Binding {
	return bindings.Of(service)
}

// OpenGenericBindingResolver 封闭泛型请求同时看到其定义上的开放绑定
type OpenGenericBindingResolver struct{}

func (OpenGenericBindingResolver) Resolve(bindings *BindingMap, service reflect.Type) []*Binding {
	def, _, ok := GenericOf(service)
	if !ok {
		return nil
	}
	open := bindings.OfGeneric(def)
	out := make([]*Binding, 0, len(open))
	for _, b := range open {
		out = append(out, &Binding{Service: service, Generic: b.Generic, BindingConfiguration: b.BindingConfiguration})
	}
	return out
}

// MissingBindingResolver 没有可用绑定时尝试合成隐式绑定
type MissingBindingResolver interface {
	Resolve(k *Kernel, req *Request) []*Binding
}

const defaultValueKey = "di.defaultValue"

// DefaultValueBindingResolver 注入点带默认值时，合成返回默认值的条件绑定
type DefaultValueBindingResolver struct{}

func (DefaultValueBindingResolver) Resolve(k *Kernel, req *Request) []*Binding {
	if req.Target == nil || !req.Target.HasDefault || req.Target.Default == nil {
		return nil
	}
	for _, b := range k.GetBindings(req.Service) {
		if b.Metadata.Has(defaultValueKey) {
			return nil
		}
	}

	config := newBindingConfiguration()
	config.Target = BindMethod
	config.Metadata.Set(defaultValueKey, true)
	config.Condition = func(r *Request) bool {
		return r.Target != nil && r.Target.HasDefault && r.Target.Default != nil
	}
	config.ProviderCallback = func(ctx *Context) (Provider, error) {
		return NewCallbackProvider(ctx.Request.Service, func(c *Context) (any, error) {
			return c.Request.Target.Default, nil
		}), nil
	}
	return []*Binding{{Service: req.Service, BindingConfiguration: config}}
}

// SelfBindingResolver 可直接构造的类型（结构体指针或登记了构造函数的类型）自绑定。
// 可选注入点不会触发自绑定；每个类型最多合成一次，与请求的名称约束无关。
type SelfBindingResolver struct{}

func (SelfBindingResolver) Resolve(k *Kernel, req *Request) []*Binding {
	if req.Target != nil && req.Target.Optional {
		return nil
	}
	if !isSelfBindable(k.registry, req.Service) {
		return nil
	}
	for _, b := range k.GetBindings(req.Service) {
		if b.IsImplicit && !b.Metadata.Has(defaultValueKey) {
			return nil
		}
	}
	config := buildConfiguration(nil)
	return []*Binding{{Service: req.Service, BindingConfiguration: config}}
}

func defaultBindingResolvers() []BindingResolver {
	return []BindingResolver{StandardBindingResolver{}, OpenGenericBindingResolver{}}
}

func defaultMissingBindingResolvers() []MissingBindingResolver {
	return []MissingBindingResolver{DefaultValueBindingResolver{}, SelfBindingResolver{}}
}
