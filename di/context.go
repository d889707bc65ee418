package di

import (
	"fmt"
	"reflect"
	"strings"
)

// InstanceReference 在激活管线中传递的实例，策略可以替换其中的实例
type InstanceReference struct {
	Instance any
}

// Context 一次 (请求, 绑定) 的激活上下文
type Context struct {
	Kernel  *Kernel
	Request *Request
	Binding *Binding
	Plan    *Plan
	// Parameters 请求参数在前，绑定参数在后
	Parameters       []Parameter
	GenericArguments []string

	scope            any
	scopeComputed    bool
	scopeFromBinding bool
	provider         Provider
}

func newContext(k *Kernel, req *Request, b *Binding) *Context {
	ctx := &Context{Kernel: k, Request: req, Binding: b}
	ctx.Parameters = make([]Parameter, 0, len(req.Parameters)+len(b.Parameters))
	ctx.Parameters = append(ctx.Parameters, req.Parameters...)
	ctx.Parameters = append(ctx.Parameters, b.Parameters...)
	if b.IsOpenGeneric() {
		if _, args, ok := GenericOf(req.Service); ok {
			ctx.GenericArguments = args
		}
	}
	return ctx
}

// HasInferredGenericArguments 是否由开放泛型绑定推导出类型实参
func (c *Context) HasInferredGenericArguments() bool {
	return len(c.GenericArguments) > 0
}

// GetScope 绑定作用域优先；瞬态绑定落入请求级作用域（激活块），
// 但被带作用域的实例持有的瞬态依赖仍然是瞬态的。结果在上下文内缓存。
func (c *Context) GetScope() any {
	if !c.scopeComputed {
		c.scope = c.Binding.GetScope(c)
		c.scopeFromBinding = c.scope != nil
		if c.scope == nil && !c.ownedByScopedAncestor() {
			c.scope = c.Request.GetScope(c)
		}
		c.scopeComputed = true
	}
	return c.scope
}

// detach 返回供作用域缓存保存的副本。副本不再引用作用域对象与父上下文，
// 缓存条目因此不会让作用域对象保持可达；反激活只用到绑定、计划与请求链。
func (c *Context) detach() *Context {
	d := *c
	d.scope = nil
	d.scopeComputed = true
	d.Request = c.Request.detach()
	return &d
}

func (c *Context) ownedByScopedAncestor() bool {
	for ctx := c.Request.ParentContext; ctx != nil; ctx = ctx.Request.ParentContext {
		if ctx.scopeFromBinding {
			return true
		}
	}
	return false
}

// GetProvider 返回绑定的提供者
func (c *Context) GetProvider() (Provider, error) {
	if c.provider != nil {
		return c.provider, nil
	}
	if c.Binding.ProviderCallback == nil {
		return nil, errInvalidBinding(c, fmt.Errorf("binding has no provider"))
	}
	p, err := c.Binding.ProviderCallback(c)
	if err != nil {
		return nil, errInvalidBinding(c, err)
	}
	c.provider = p
	return p, nil
}

// Get 在当前上下文中解析依赖，供 ToMethod 回调使用。
// 子请求继承作用域与激活链，因此循环依赖与激活块都能正确处理。
func (c *Context) Get(service reflect.Type, params ...Parameter) (any, error) {
	req := c.Request.CreateChild(service, c, nil)
	req.Parameters = append(req.Parameters, params...)
	results, err := c.Kernel.Resolve(req)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (c *Context) cacheKey() cacheKey {
	return cacheKey{config: c.Binding.BindingConfiguration, generic: strings.Join(c.GenericArguments, ",")}
}

// Resolve 创建或复用实例并执行激活管线
func (c *Context) Resolve() (any, error) {
	if c.Request.isActive(c.Binding) {
		return nil, errCircular(c)
	}

	scope := c.GetScope()
	if scope == nil {
		return c.resolveInternal(nil)
	}
	if !isComparable(scope) {
		return nil, errInvalidBinding(c, fmt.Errorf("scope object of type %T is not comparable", scope))
	}

	lock := c.Kernel.cache.lockFor(scope)
	lock.Lock()
	defer lock.Unlock()
	return c.resolveInternal(scope)
}

func (c *Context) resolveInternal(scope any) (any, error) {
	cache := c.Kernel.cache
	if scope != nil {
		if instance, ok := cache.TryGet(c); ok {
			return instance, nil
		}
	}

	provider, err := c.GetProvider()
	if err != nil {
		return nil, err
	}

	c.Request.pushActive(c.Binding)
	instance, err := provider.Create(c)
	c.Request.popActive()
	if err != nil {
		return nil, err
	}

	if isNil(instance) {
		if !c.Kernel.settings.AllowNullInjection {
			return nil, errNullInjection(c)
		}
		return nil, nil
	}

	ref := &InstanceReference{Instance: instance}
	// 缓存必须在属性/方法注入之前写入，循环的属性引用才能拿到同一个实例
	if scope != nil {
		cache.Remember(c, ref)
	}

	if c.Plan == nil || c.Plan.Type != reflect.TypeOf(instance) {
		plan, err := c.Kernel.planner.GetPlan(reflect.TypeOf(instance))
		if err != nil {
			return nil, errInvalidBinding(c, err)
		}
		c.Plan = plan
	}

	if err := c.Kernel.pipeline.Activate(c, ref); err != nil {
		if scope != nil {
			cache.forget(c)
		}
		return nil, err
	}
	return ref.Instance, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
