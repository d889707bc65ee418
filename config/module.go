package config

import (
	"fmt"

	"github.com/gocrud/inject/di"
)

// SectionBinding 把一个配置节绑定为内核中的类型化服务
type SectionBinding interface {
	Section() string
	bind(m *di.ModuleKernel, cfg Configuration) error
}

type sectionBinding[T any] struct {
	section string
}

// Section 声明配置节 section 绑定到 T，同时提供 Option[T]、OptionSnapshot[T]、OptionMonitor[T]
//
//	config.NewModule(cfg, config.Section[ServerOptions]("server"))
func Section[T any](section string) SectionBinding {
	return sectionBinding[T]{section: section}
}

func (s sectionBinding[T]) Section() string { return s.section }

func (s sectionBinding[T]) bind(m *di.ModuleKernel, cfg Configuration) error {
	cache := NewOptionsCache[T](cfg, s.section)
	if err := cache.Err(); err != nil && cfg.Exists(s.section) {
		return err
	}

	if err := di.Bind[*OptionsCache[T]](m, di.ToConstant(cache)); err != nil {
		return err
	}
	// T 按值注入，每次解析取最新配置
	if err := di.Bind[T](m, di.ToMethod(func(*di.Context) (any, error) {
		return cache.Get(), nil
	})); err != nil {
		return err
	}
	if err := di.Bind[Option[T]](m, di.ToMethod(func(*di.Context) (any, error) {
		return NewOption(cache.Get()), nil
	}), di.InSingletonScope()); err != nil {
		return err
	}
	if err := di.Bind[OptionSnapshot[T]](m, di.ToMethod(func(*di.Context) (any, error) {
		return NewOptionSnapshot(cache.Snapshot()), nil
	})); err != nil {
		return err
	}
	return di.Bind[OptionMonitor[T]](m, di.ToConstant(NewOptionMonitor(cache)))
}

// Module 把 Configuration 与声明的配置节注册到内核
type Module struct {
	cfg      Configuration
	sections []SectionBinding
}

// NewModule 创建配置模块
func NewModule(cfg Configuration, sections ...SectionBinding) *Module {
	return &Module{cfg: cfg, sections: sections}
}

func (m *Module) Name() string { return "config" }

func (m *Module) Load(k *di.ModuleKernel) error {
	if err := di.Bind[Configuration](k, di.ToConstant(m.cfg)); err != nil {
		return err
	}
	for _, s := range m.sections {
		if err := s.bind(k, m.cfg); err != nil {
			return fmt.Errorf("config: bind section %q: %w", s.Section(), err)
		}
	}
	return nil
}
