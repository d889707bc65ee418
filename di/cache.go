package di

import (
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
)

// DisposeNotifier 释放时通知订阅者的作用域对象
type DisposeNotifier interface {
	OnDisposed(fn func())
}

// Liveness 可报告存活状态的作用域对象，清理任务会移除已失效的作用域
type Liveness interface {
	IsAlive() bool
}

type cacheKey struct {
	config  *BindingConfiguration
	generic string
}

type cacheEntry struct {
	ctx *Context
	ref *InstanceReference
	seq uint64
}

// scopeBucket 一个作用域对象的缓存条目。
// mu 保护 entries；lock 是解析时持有的可重入作用域锁。
// 指针类型的作用域只被弱持有，对象回收后桶在下一次清理时反激活。
type scopeBucket struct {
	scope   handle
	lock    *reentrantMutex
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
}

// Cache 作用域缓存：(绑定配置, 作用域对象) -> 实例
type Cache struct {
	pipeline *Pipeline
	mu       sync.RWMutex
	buckets  map[any]*scopeBucket
	// orphans 作用域已回收、地址又被新对象占用的桶，等待清理
	orphans []*scopeBucket
	// notified 已订阅释放通知的作用域
	notified map[any]handle
	seq      atomic.Uint64
}

// NewCache 创建作用域缓存，释放实例时通过 pipeline 反激活
func NewCache(pipeline *Pipeline) *Cache {
	return &Cache{
		pipeline: pipeline,
		buckets:  make(map[any]*scopeBucket),
		notified: make(map[any]handle),
	}
}

func (c *Cache) bucket(scope any, create bool) *scopeBucket {
	key := keyOf(scope)
	c.mu.RLock()
	b := c.buckets[key]
	c.mu.RUnlock()
	if b != nil && b.scope.refersTo(scope) {
		return b
	}
	if !create {
		return nil
	}

	c.mu.Lock()
	b = c.buckets[key]
	if b != nil && !b.scope.refersTo(scope) {
		c.orphans = append(c.orphans, b)
		b = nil
	}
	if b == nil {
		b = &scopeBucket{
			scope:   newHandle(scope),
			lock:    newReentrantMutex(),
			entries: make(map[cacheKey]*cacheEntry),
		}
		c.buckets[key] = b
	}
	subscribe := false
	if _, ok := scope.(DisposeNotifier); ok {
		if h, seen := c.notified[key]; !seen || !h.refersTo(scope) {
			c.notified[key] = newHandle(scope)
			subscribe = true
		}
	}
	c.mu.Unlock()

	if subscribe {
		scope.(DisposeNotifier).OnDisposed(func() {
			_ = c.Clear(scope)
		})
	}
	return b
}

// lockFor 作用域的解析锁
func (c *Cache) lockFor(scope any) *reentrantMutex {
	return c.bucket(scope, true).lock
}

// TryGet 查找上下文对应的缓存实例
func (c *Cache) TryGet(ctx *Context) (any, bool) {
	b := c.bucket(ctx.GetScope(), false)
	if b == nil {
		return nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.entries[ctx.cacheKey()]; ok {
		return e.ref.Instance, true
	}
	return nil, false
}

// Remember 记录上下文创建的实例
func (c *Cache) Remember(ctx *Context, ref *InstanceReference) {
	b := c.bucket(ctx.GetScope(), true)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[ctx.cacheKey()] = &cacheEntry{ctx: ctx.detach(), ref: ref, seq: c.seq.Add(1)}
}

// forget 移除条目但不反激活，用于激活失败的实例
func (c *Cache) forget(ctx *Context) {
	b := c.bucket(ctx.GetScope(), false)
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, ctx.cacheKey())
}

// Release 按引用相等查找实例，移除并反激活，返回是否找到
func (c *Cache) Release(instance any) (bool, error) {
	var removed []*cacheEntry
	for _, b := range c.snapshot() {
		b.mu.Lock()
		for key, e := range b.entries {
			if sameInstance(e.ref.Instance, instance) {
				removed = append(removed, e)
				delete(b.entries, key)
			}
		}
		b.mu.Unlock()
	}
	return len(removed) > 0, c.deactivate(removed)
}

// Clear 移除并反激活某个作用域的全部实例
func (c *Cache) Clear(scope any) error {
	if scope == nil || !isComparable(scope) {
		return nil
	}
	key := keyOf(scope)
	c.mu.Lock()
	b := c.buckets[key]
	if b == nil || !b.scope.refersTo(scope) {
		c.mu.Unlock()
		return nil
	}
	delete(c.buckets, key)
	c.mu.Unlock()
	return c.deactivate(b.drain())
}

// ClearAll 移除并反激活全部实例
func (c *Cache) ClearAll() error {
	c.mu.Lock()
	buckets := c.buckets
	orphans := c.orphans
	c.buckets = make(map[any]*scopeBucket)
	c.orphans = nil
	c.notified = make(map[any]handle)
	c.mu.Unlock()

	var entries []*cacheEntry
	for _, b := range buckets {
		entries = append(entries, b.drain()...)
	}
	for _, b := range orphans {
		entries = append(entries, b.drain()...)
	}
	return c.deactivate(entries)
}

// Prune 清理已失效的作用域：已被回收、报告失效或在 extraDead 中的作用域。
// 正在解析中的作用域本轮跳过。
func (c *Cache) Prune(extraDead ...any) (int, error) {
	dead := make(map[any]struct{}, len(extraDead))
	for _, s := range extraDead {
		dead[keyOf(s)] = struct{}{}
	}

	var victims []*scopeBucket
	c.mu.Lock()
	for key, b := range c.buckets {
		if !b.isDead(dead, key) || !b.lock.TryLock() {
			continue
		}
		delete(c.buckets, key)
		victims = append(victims, b)
	}
	orphans := c.orphans[:0]
	for _, b := range c.orphans {
		if b.lock.TryLock() {
			victims = append(victims, b)
		} else {
			orphans = append(orphans, b)
		}
	}
	c.orphans = orphans
	for key, h := range c.notified {
		if !h.alive() {
			delete(c.notified, key)
		}
	}
	c.mu.Unlock()

	var entries []*cacheEntry
	for _, b := range victims {
		entries = append(entries, b.drain()...)
		b.lock.Unlock()
	}
	return len(entries), c.deactivate(entries)
}

func (b *scopeBucket) isDead(dead map[any]struct{}, key any) bool {
	if _, ok := dead[key]; ok {
		return true
	}
	scope, ok := b.scope.get()
	if !ok {
		return true
	}
	if l, ok := scope.(Liveness); ok && !l.IsAlive() {
		return true
	}
	return false
}

// Count 缓存条目总数
func (c *Cache) Count() int {
	n := 0
	for _, b := range c.snapshot() {
		b.mu.Lock()
		n += len(b.entries)
		b.mu.Unlock()
	}
	return n
}

func (c *Cache) snapshot() []*scopeBucket {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*scopeBucket, 0, len(c.buckets)+len(c.orphans))
	for _, b := range c.buckets {
		out = append(out, b)
	}
	return append(out, c.orphans...)
}

func (b *scopeBucket) drain() []*cacheEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*cacheEntry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	b.entries = make(map[cacheKey]*cacheEntry)
	return out
}

// deactivate 按创建顺序倒序反激活。实例本身也可能是其他实例的作用域，
// 所以先级联清理以该实例为作用域的条目。
func (c *Cache) deactivate(entries []*cacheEntry) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })
	var errs error
	for _, e := range entries {
		if hasIdentity(e.ref.Instance) {
			errs = multierr.Append(errs, c.Clear(e.ref.Instance))
		}
		errs = multierr.Append(errs, c.pipeline.Deactivate(e.ctx, e.ref))
	}
	return errs
}

// sameInstance 引用相等：同类型且指向同一地址，值类型没有引用身份
func sameInstance(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	default:
		return false
	}
}

func hasIdentity(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Ptr, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

func isComparable(v any) bool {
	if v == nil {
		return false
	}
	return reflect.ValueOf(v).Comparable()
}
