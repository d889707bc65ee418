package config

import (
	"errors"
	"fmt"

	"github.com/gocrud/inject/di"
)

// LoadSettings 在 di.DefaultSettings 之上叠加配置节，节不存在时返回默认设置
func LoadSettings(cfg Configuration, section string) (di.Settings, error) {
	settings := di.DefaultSettings()
	if err := cfg.Bind(section, &settings); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return settings, nil
		}
		return settings, fmt.Errorf("config: failed to bind section '%s': %w", section, err)
	}
	return settings, nil
}

// KernelOptions 返回按配置创建内核所需的选项，并加载绑定了 cfg 的配置模块
func KernelOptions(cfg Configuration, section string, sections ...SectionBinding) ([]di.KernelOption, error) {
	settings, err := LoadSettings(cfg, section)
	if err != nil {
		return nil, err
	}
	return []di.KernelOption{
		di.WithSettings(settings),
		di.WithModules(NewModule(cfg, sections...)),
	}, nil
}
