package etcd

import (
	"errors"
	"fmt"
)

// Builder Etcd 客户端配置构建器
type Builder struct {
	configs []EtcdClientOptions
	errors  []error
}

// NewBuilder 创建 Etcd 构建器
func NewBuilder() *Builder {
	return &Builder{}
}

// AddClient 添加一个 etcd 客户端配置
func (b *Builder) AddClient(name string, configure func(*EtcdClientOptions)) *Builder {
	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}
	return b.AddOptions(*opts)
}

// AddOptions 添加完整的客户端配置
func (b *Builder) AddOptions(opts EtcdClientOptions) *Builder {
	for _, existing := range b.configs {
		if existing.Name == opts.Name {
			b.errors = append(b.errors, fmt.Errorf("etcd client '%s' already configured", opts.Name))
			return b
		}
	}
	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid etcd configuration for '%s': %w", opts.Name, err))
		return b
	}
	b.configs = append(b.configs, opts)
	return b
}

// Build 校验并返回全部客户端配置
func (b *Builder) Build() ([]EtcdClientOptions, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("etcd configuration errors: %w", errors.Join(b.errors...))
	}
	return b.configs, nil
}
