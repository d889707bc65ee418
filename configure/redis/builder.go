package redis

import (
	"errors"
	"fmt"
)

// Builder Redis 客户端配置构建器
type Builder struct {
	configs []RedisClientOptions
	errs    []error
}

// NewBuilder 创建 Redis 构建器
func NewBuilder() *Builder {
	return &Builder{}
}

// AddClient 添加一个 Redis 客户端配置
func (b *Builder) AddClient(name string, configure func(*RedisClientOptions)) *Builder {
	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}
	return b.AddOptions(*opts)
}

// AddOptions 添加完整的客户端配置，通常来自配置文件
func (b *Builder) AddOptions(opts RedisClientOptions) *Builder {
	if err := opts.Validate(); err != nil {
		b.errs = append(b.errs, fmt.Errorf("invalid redis configuration for '%s': %w", opts.Name, err))
		return b
	}
	for _, existing := range b.configs {
		if existing.Name == opts.Name {
			b.errs = append(b.errs, fmt.Errorf("redis client '%s' already registered", opts.Name))
			return b
		}
	}
	b.configs = append(b.configs, opts)
	return b
}

// Build 校验并返回全部客户端配置
func (b *Builder) Build() ([]RedisClientOptions, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return b.configs, nil
}
