package config

import (
	"sync"

	"gopkg.in/yaml.v3"
)

// Option 静态配置选项，首次解析后不再变化
type Option[T any] interface {
	Value() T
}

// OptionSnapshot 快照配置选项，每次解析得到当时配置的副本
type OptionSnapshot[T any] interface {
	Value() T
}

// OptionMonitor 监听配置选项，总是返回最新的配置值
type OptionMonitor[T any] interface {
	Value() T
}

// OptionsCache 配置缓存，配置重新加载时自动刷新
type OptionsCache[T any] struct {
	config  Configuration
	section string

	mu      sync.RWMutex
	current T
	err     error
}

// NewOptionsCache 创建配置缓存，配置节不存在时使用零值
func NewOptionsCache[T any](config Configuration, section string) *OptionsCache[T] {
	cache := &OptionsCache[T]{
		config:  config,
		section: section,
	}
	cache.reload()

	if rc, ok := config.(interface{ OnReload(func()) }); ok {
		rc.OnReload(cache.reload)
	}
	return cache
}

// reload 绑定失败时保留旧值，错误通过 Err 暴露
func (c *OptionsCache[T]) reload() {
	value, err := Load[T](c.config, c.section)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	if err == nil {
		c.current = value
	}
}

// Get 获取当前配置值
func (c *OptionsCache[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Err 最近一次绑定的错误
func (c *OptionsCache[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Snapshot 返回当前配置的深拷贝
func (c *OptionsCache[T]) Snapshot() T {
	current := c.Get()

	data, err := yaml.Marshal(current)
	if err != nil {
		return current
	}
	var snapshot T
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return current
	}
	return snapshot
}

type option[T any] struct {
	value T
}

func (o *option[T]) Value() T { return o.value }

// NewOption 创建静态配置选项
func NewOption[T any](value T) Option[T] {
	return &option[T]{value: value}
}

type optionSnapshot[T any] struct {
	snapshot T
}

func (o *optionSnapshot[T]) Value() T { return o.snapshot }

// NewOptionSnapshot 创建快照配置选项
func NewOptionSnapshot[T any](snapshot T) OptionSnapshot[T] {
	return &optionSnapshot[T]{snapshot: snapshot}
}

type optionMonitor[T any] struct {
	cache *OptionsCache[T]
}

func (o *optionMonitor[T]) Value() T { return o.cache.Get() }

// NewOptionMonitor 创建监听配置选项
func NewOptionMonitor[T any](cache *OptionsCache[T]) OptionMonitor[T] {
	return &optionMonitor[T]{cache: cache}
}
