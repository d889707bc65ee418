package di

import (
	"reflect"
	"sync"
)

// ConstructorDirective 一个候选构造函数及其形参注入点
type ConstructorDirective struct {
	Constructor *ConstructorInfo
	Targets     []*Target
}

// HasInject 是否带有 inject 标记
func (d *ConstructorDirective) HasInject() bool {
	return d.Constructor.HasInject
}

// PropertyDirective 字段注入
type PropertyDirective struct {
	Property *PropertyInfo
	Target   *Target
	Injector PropertyInjector
}

// MethodDirective 方法注入
type MethodDirective struct {
	Method   *MethodInfo
	Targets  []*Target
	Injector MethodInjector
}

// Plan 类型的激活计划，按类型缓存并共享，构建后不再修改
type Plan struct {
	Type         reflect.Type
	Constructors []*ConstructorDirective
	Properties   []*PropertyDirective
	Methods      []*MethodDirective
}

// Property 按字段名查找字段指令
func (p *Plan) Property(name string) *PropertyDirective {
	for _, d := range p.Properties {
		if d.Property.Name == name {
			return d
		}
	}
	return nil
}

// PlanningStrategy 规划策略，向计划追加指令
type PlanningStrategy interface {
	Execute(plan *Plan) error
}

// constructorPlanning 发现构造函数
type constructorPlanning struct {
	introspector Introspector
}

func (s *constructorPlanning) Execute(plan *Plan) error {
	ctors, err := s.introspector.Constructors(plan.Type)
	if err != nil {
		return err
	}
	for _, ctor := range ctors {
		d := &ConstructorDirective{Constructor: ctor}
		for _, p := range ctor.Params {
			d.Targets = append(d.Targets, newParameterTarget(TargetParameter, plan.Type, ctor.Label, p))
		}
		plan.Constructors = append(plan.Constructors, d)
	}
	return nil
}

// propertyPlanning 发现可注入字段
type propertyPlanning struct {
	introspector Introspector
	settings     *Settings
	injectors    InjectorFactory
}

func (s *propertyPlanning) Execute(plan *Plan) error {
	for _, prop := range s.introspector.Properties(plan.Type, s.settings) {
		plan.Properties = append(plan.Properties, &PropertyDirective{
			Property: prop,
			Target:   newPropertyTarget(plan.Type, prop),
			Injector: s.injectors.PropertyInjector(prop),
		})
	}
	return nil
}

// methodPlanning 发现注入方法
type methodPlanning struct {
	introspector Introspector
	settings     *Settings
	injectors    InjectorFactory
}

func (s *methodPlanning) Execute(plan *Plan) error {
	for _, m := range s.introspector.Methods(plan.Type, s.settings) {
		d := &MethodDirective{Method: m, Injector: s.injectors.MethodInjector(m)}
		for _, p := range m.Params {
			d.Targets = append(d.Targets, newParameterTarget(TargetMethodParameter, plan.Type, m.Name, p))
		}
		plan.Methods = append(plan.Methods, d)
	}
	return nil
}

// Planner 按类型构建并缓存激活计划
type Planner struct {
	strategies []PlanningStrategy
	mu         sync.RWMutex
	plans      map[reflect.Type]*Plan
}

// NewPlanner 按设置组装规划策略
func NewPlanner(introspector Introspector, settings *Settings) *Planner {
	injectors := NewInjectorFactory(settings)
	strategies := []PlanningStrategy{&constructorPlanning{introspector: introspector}}
	if settings.PropertyInjection {
		strategies = append(strategies, &propertyPlanning{introspector: introspector, settings: settings, injectors: injectors})
	}
	if settings.MethodInjection {
		strategies = append(strategies, &methodPlanning{introspector: introspector, settings: settings, injectors: injectors})
	}
	return &Planner{
		strategies: strategies,
		plans:      make(map[reflect.Type]*Plan),
	}
}

// GetPlan 返回类型的计划，首次调用时构建
func (p *Planner) GetPlan(t reflect.Type) (*Plan, error) {
	p.mu.RLock()
	plan, ok := p.plans[t]
	p.mu.RUnlock()
	if ok {
		return plan, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// 双重检查
	if plan, ok := p.plans[t]; ok {
		return plan, nil
	}

	plan = &Plan{Type: t}
	for _, s := range p.strategies {
		if err := s.Execute(plan); err != nil {
			return nil, err
		}
	}
	p.plans[t] = plan
	return plan, nil
}
