package mongodb

import (
	"errors"
	"fmt"
)

// Builder MongoDB 配置构建器
type Builder struct {
	configs []MongoOptions
	errors  []error
}

// NewBuilder 创建构建器
func NewBuilder() *Builder {
	return &Builder{}
}

// Add 添加 MongoDB 客户端配置
func (b *Builder) Add(name string, uri string, configure func(*MongoOptions)) *Builder {
	opts := NewDefaultOptions(name, uri)
	if configure != nil {
		configure(opts)
	}
	return b.AddOptions(*opts)
}

// AddOptions 添加完整的客户端配置
func (b *Builder) AddOptions(opts MongoOptions) *Builder {
	for _, existing := range b.configs {
		if existing.Name == opts.Name {
			b.errors = append(b.errors, fmt.Errorf("mongo client '%s' already configured", opts.Name))
			return b
		}
	}
	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid mongo configuration for '%s': %w", opts.Name, err))
		return b
	}
	b.configs = append(b.configs, opts)
	return b
}

// Build 校验并返回全部客户端配置
func (b *Builder) Build() ([]MongoOptions, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("mongo configuration errors: %w", errors.Join(b.errors...))
	}
	return b.configs, nil
}
