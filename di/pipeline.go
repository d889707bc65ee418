package di

import (
	"go.uber.org/multierr"
)

// ActivationStrategy 激活管线中的一个阶段
type ActivationStrategy interface {
	Activate(ctx *Context, ref *InstanceReference) error
	Deactivate(ctx *Context, ref *InstanceReference) error
}

// Pipeline 按声明顺序激活，按相反顺序反激活
type Pipeline struct {
	strategies      []ActivationStrategy
	activationCache *ActivationCache
}

// NewPipeline 创建激活管线
func NewPipeline(activationCache *ActivationCache, strategies ...ActivationStrategy) *Pipeline {
	return &Pipeline{strategies: strategies, activationCache: activationCache}
}

// Strategies 返回管线中的策略
func (p *Pipeline) Strategies() []ActivationStrategy {
	return p.strategies
}

// Activate 执行激活，已激活的实例直接跳过
func (p *Pipeline) Activate(ctx *Context, ref *InstanceReference) error {
	if p.activationCache.IsActivated(ref.Instance) {
		return nil
	}
	for _, s := range p.strategies {
		if err := s.Activate(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate 执行反激活，单个策略失败不会中断其余策略
func (p *Pipeline) Deactivate(ctx *Context, ref *InstanceReference) error {
	if p.activationCache.IsDeactivated(ref.Instance) {
		return nil
	}
	var errs error
	for i := len(p.strategies) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, p.strategies[i].Deactivate(ctx, ref))
	}
	return errs
}

// defaultStrategies 内置策略的声明顺序：
// 激活缓存、释放、属性注入、方法注入、绑定动作、初始化、启动。
func defaultStrategies(settings *Settings, activationCache *ActivationCache) []ActivationStrategy {
	strategies := []ActivationStrategy{
		&activationCacheStrategy{cache: activationCache},
		disposableStrategy{},
	}
	if settings.PropertyInjection {
		strategies = append(strategies, propertyInjectionStrategy{})
	}
	if settings.MethodInjection {
		strategies = append(strategies, methodInjectionStrategy{})
	}
	return append(strategies,
		bindingActionStrategy{},
		initializableStrategy{},
		startableStrategy{},
	)
}
