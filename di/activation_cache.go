package di

import (
	"reflect"
	"sync"
)

type identity struct {
	typ reflect.Type
	ptr uintptr
}

func identityOf(v any) (identity, bool) {
	if !hasIdentity(v) {
		return identity{}, false
	}
	rv := reflect.ValueOf(v)
	return identity{typ: rv.Type(), ptr: rv.Pointer()}, true
}

// ActivationCache 记录已激活与已反激活的实例，避免重复执行激活管线。
// 以引用身份区分实例；指针实例只被弱持有，不会因为被记录而无法回收。
type ActivationCache struct {
	disabled    bool
	mu          sync.RWMutex
	activated   map[identity]handle
	deactivated map[identity]handle
}

// NewActivationCache 创建激活缓存，disabled 为 true 时不记录任何实例
func NewActivationCache(disabled bool) *ActivationCache {
	return &ActivationCache{
		disabled:    disabled,
		activated:   make(map[identity]handle),
		deactivated: make(map[identity]handle),
	}
}

// AddActivated 记录已激活实例
func (c *ActivationCache) AddActivated(instance any) {
	c.add(c.activated, instance)
}

// AddDeactivated 记录已反激活实例
func (c *ActivationCache) AddDeactivated(instance any) {
	c.add(c.deactivated, instance)
}

// IsActivated 实例是否已激活
func (c *ActivationCache) IsActivated(instance any) bool {
	return c.has(c.activated, instance)
}

// IsDeactivated 实例是否已反激活
func (c *ActivationCache) IsDeactivated(instance any) bool {
	return c.has(c.deactivated, instance)
}

func (c *ActivationCache) add(set map[identity]handle, instance any) {
	if c.disabled {
		return
	}
	id, ok := identityOf(instance)
	if !ok {
		return
	}
	h := newHandle(instance)
	c.mu.Lock()
	set[id] = h
	c.mu.Unlock()
}

func (c *ActivationCache) has(set map[identity]handle, instance any) bool {
	if c.disabled {
		return false
	}
	id, ok := identityOf(instance)
	if !ok {
		return false
	}
	c.mu.RLock()
	h, found := set[id]
	c.mu.RUnlock()
	return found && h.refersTo(instance)
}

// Prune 移除已被回收的实例记录，返回移除数
func (c *ActivationCache) Prune() int {
	if c.disabled {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, set := range []map[identity]handle{c.activated, c.deactivated} {
		for id, h := range set {
			if !h.alive() {
				delete(set, id)
				n++
			}
		}
	}
	return n
}

// Clear 清空全部记录
func (c *ActivationCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activated = make(map[identity]handle)
	c.deactivated = make(map[identity]handle)
}

// Count 已激活与已反激活记录数，包括尚未清理的已回收实例
func (c *ActivationCache) Count() (activated, deactivated int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.activated), len(c.deactivated)
}
