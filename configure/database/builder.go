package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Builder 数据库配置构建器
type Builder struct {
	configs []DatabaseOptions
	errors  []error
}

// NewBuilder 创建构建器
func NewBuilder() *Builder {
	return &Builder{}
}

// Add 添加数据库配置
// name: 实例名称
// dialector: GORM 驱动 (e.g. sqlite.Open(dsn))
// configure: 可选的配置函数
func (b *Builder) Add(name string, dialector gorm.Dialector, configure func(*DatabaseOptions)) *Builder {
	for _, existing := range b.configs {
		if existing.Name == name {
			b.errors = append(b.errors, fmt.Errorf("database '%s' already configured", name))
			return b
		}
	}

	opts := NewDefaultOptions(name, dialector)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid configuration for '%s': %w", name, err))
		return b
	}

	b.configs = append(b.configs, *opts)
	return b
}

// Build 校验并返回全部数据库配置
func (b *Builder) Build() ([]DatabaseOptions, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("database configuration errors: %w", errors.Join(b.errors...))
	}
	return b.configs, nil
}
