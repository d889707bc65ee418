package di

import "time"

// Settings 内核行为设置
type Settings struct {
	// InjectNonPublic 是否注入未导出字段
	InjectNonPublic bool `yaml:"injectNonPublic" json:"injectNonPublic"`
	// InjectParentPrivateProperties 是否注入嵌入结构体中的未导出字段（需同时开启 InjectNonPublic）
	InjectParentPrivateProperties bool `yaml:"injectParentPrivateProperties" json:"injectParentPrivateProperties"`
	// InjectUnmarkedProperties 没有 di 标签的导出字段也作为可选注入点
	InjectUnmarkedProperties bool `yaml:"injectUnmarkedProperties" json:"injectUnmarkedProperties"`
	// AllowNullInjection 允许提供者返回 nil
	AllowNullInjection bool `yaml:"allowNullInjection" json:"allowNullInjection"`
	// ActivationCacheDisabled 关闭激活缓存
	ActivationCacheDisabled bool `yaml:"activationCacheDisabled" json:"activationCacheDisabled"`
	// MethodInjection 启用方法注入
	MethodInjection bool `yaml:"methodInjection" json:"methodInjection"`
	// PropertyInjection 启用属性（字段）注入
	PropertyInjection bool `yaml:"propertyInjection" json:"propertyInjection"`
	// UseReflectionBasedInjection 使用纯反射注入器，而不是预计算偏移量的注入器
	UseReflectionBasedInjection bool `yaml:"useReflectionBasedInjection" json:"useReflectionBasedInjection"`
	// CachePruningInterval 缓存清理周期，0 表示不启动后台清理
	CachePruningInterval time.Duration `yaml:"cachePruningInterval" json:"cachePruningInterval"`
	// CheckForUselessConstructorArgument 构造参数未被使用时报错
	CheckForUselessConstructorArgument bool `yaml:"checkForUselessConstructorArgument" json:"checkForUselessConstructorArgument"`
	// ThrowOnUnmatchedPropertyValue 属性值参数没有对应属性时报错
	ThrowOnUnmatchedPropertyValue bool `yaml:"throwOnUnmatchedPropertyValue" json:"throwOnUnmatchedPropertyValue"`
	// InjectMethodPrefix 注入方法的名称前缀
	InjectMethodPrefix string `yaml:"injectMethodPrefix" json:"injectMethodPrefix"`
}

// DefaultSettings 返回默认设置
func DefaultSettings() Settings {
	return Settings{
		MethodInjection:               true,
		PropertyInjection:             true,
		CachePruningInterval:          30 * time.Second,
		ThrowOnUnmatchedPropertyValue: true,
		InjectMethodPrefix:            "Inject",
	}
}

func (s *Settings) methodPrefix() string {
	if s.InjectMethodPrefix == "" {
		return "Inject"
	}
	return s.InjectMethodPrefix
}
