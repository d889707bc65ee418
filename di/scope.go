package di

import (
	"reflect"
	"sync"
	"sync/atomic"
)

type scopeKind int

const (
	scopeTransient scopeKind = iota
	scopeSingleton
	scopeThread
	scopeCustom
)

func singletonScope(ctx *Context) any {
	return ctx.Kernel
}

func threadScope(ctx *Context) any {
	return ctx.Kernel.goroutines.current()
}

// ActivationBlock 激活块：通过它解析的瞬态实例缓存在块内，
// Dispose 时统一反激活。常用于一次 HTTP 请求或一个工作单元。
type ActivationBlock struct {
	kernel   *Kernel
	disposed atomic.Bool

	mu        sync.Mutex
	listeners []func()
}

// BeginBlock 创建激活块
func (k *Kernel) BeginBlock() *ActivationBlock {
	return &ActivationBlock{kernel: k}
}

// Kernel 返回所属内核
func (b *ActivationBlock) Kernel() *Kernel {
	return b.kernel
}

func (b *ActivationBlock) scope(*Context) any {
	return b
}

// CreateRequest 创建以本块为作用域的请求
func (b *ActivationBlock) CreateRequest(service reflect.Type, constraint func(*BindingMetadata) bool, params []Parameter, isOptional, isUnique bool) *Request {
	return NewRequest(service, constraint, params, b.scope, isOptional, isUnique)
}

// Resolve 解析请求
func (b *ActivationBlock) Resolve(req *Request) ([]any, error) {
	if b.disposed.Load() {
		return nil, newError(KindDisposed, "activation block has been disposed", nil)
	}
	return b.kernel.Resolve(req)
}

// CanResolve 请求能否被解析
func (b *ActivationBlock) CanResolve(req *Request, ignoreImplicit bool) bool {
	return b.kernel.CanResolve(req, ignoreImplicit)
}

// Inject 对已有实例执行注入
func (b *ActivationBlock) Inject(instance any, params ...Parameter) error {
	return b.kernel.Inject(instance, params...)
}

// Release 释放实例
func (b *ActivationBlock) Release(instance any) (bool, error) {
	return b.kernel.Release(instance)
}

// OnDisposed 订阅释放通知
func (b *ActivationBlock) OnDisposed(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// IsAlive 块尚未释放
func (b *ActivationBlock) IsAlive() bool {
	return !b.disposed.Load()
}

// Dispose 反激活块内缓存的全部实例，重复调用无副作用
func (b *ActivationBlock) Dispose() error {
	if !b.disposed.CompareAndSwap(false, true) {
		return nil
	}
	err := b.kernel.cache.Clear(b)

	b.mu.Lock()
	listeners := b.listeners
	b.listeners = nil
	b.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
	return err
}
