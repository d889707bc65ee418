package di

import "reflect"

// Request 一次解析请求。根请求由 CreateRequest 创建，
// 子请求在解析注入点时由父请求派生。
type Request struct {
	Service reflect.Type
	Parent  *Request
	// ParentContext 创建本请求的上下文，根请求为 nil
	ParentContext *Context
	Target        *Target
	Constraint    func(*BindingMetadata) bool
	Parameters    []Parameter
	// ScopeCallback 请求级作用域（激活块），子请求继承
	ScopeCallback func(*Context) any
	IsOptional    bool
	IsUnique      bool
	ForceUnique   bool
	Depth         int
	// ActiveBindings 当前正在执行构造的绑定链，用于检测构造函数循环依赖
	ActiveBindings []*Binding
}

// NewRequest 创建根请求
func NewRequest(service reflect.Type, constraint func(*BindingMetadata) bool, params []Parameter, scope func(*Context) any, isOptional, isUnique bool) *Request {
	return &Request{
		Service:       service,
		Constraint:    constraint,
		Parameters:    params,
		ScopeCallback: scope,
		IsOptional:    isOptional,
		IsUnique:      isUnique,
	}
}

// CreateChild 派生子请求，继承可继承参数、作用域回调与激活链
func (r *Request) CreateChild(service reflect.Type, parent *Context, target *Target) *Request {
	child := &Request{
		Service:       service,
		Parent:        r,
		ParentContext: parent,
		Target:        target,
		IsUnique:      true,
		Depth:         r.Depth + 1,
	}
	if target != nil {
		child.Constraint = target.Constraint()
	}
	if parent != nil {
		for _, p := range parent.Parameters {
			if p.ShouldInherit() {
				child.Parameters = append(child.Parameters, p)
			}
		}
	}
	child.ActiveBindings = make([]*Binding, len(r.ActiveBindings))
	copy(child.ActiveBindings, r.ActiveBindings)
	return child
}

// detach 复制请求链，去掉父上下文与作用域回调
func (r *Request) detach() *Request {
	if r == nil {
		return nil
	}
	d := *r
	d.Parent = r.Parent.detach()
	d.ParentContext = nil
	d.ScopeCallback = nil
	return &d
}

// Matches 绑定元数据是否满足请求约束
func (r *Request) Matches(b *Binding) bool {
	if r.Constraint == nil {
		return true
	}
	return r.Constraint(b.Metadata)
}

// GetScope 请求级作用域，未设置时沿父请求查找
func (r *Request) GetScope(ctx *Context) any {
	for req := r; req != nil; req = req.Parent {
		if req.ScopeCallback != nil {
			return req.ScopeCallback(ctx)
		}
	}
	return nil
}

func (r *Request) isActive(b *Binding) bool {
	for _, active := range r.ActiveBindings {
		if active.BindingConfiguration == b.BindingConfiguration && active.Service == b.Service {
			return true
		}
	}
	return false
}

func (r *Request) pushActive(b *Binding) {
	r.ActiveBindings = append(r.ActiveBindings, b)
}

func (r *Request) popActive() {
	if n := len(r.ActiveBindings); n > 0 {
		r.ActiveBindings = r.ActiveBindings[:n-1]
	}
}
