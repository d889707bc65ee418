package di

import (
	"fmt"
	"reflect"
)

// Provider 创建实例
type Provider interface {
	// Type 提供的实例类型，未知时为 nil
	Type() reflect.Type
	Create(ctx *Context) (any, error)
}

// StandardProvider 依据激活计划选择构造函数并解析形参
type StandardProvider struct {
	typ    reflect.Type
	scorer ConstructorScorer
}

// NewStandardProvider 为类型 t 创建标准提供者
func NewStandardProvider(t reflect.Type, scorer ConstructorScorer) *StandardProvider {
	return &StandardProvider{typ: t, scorer: scorer}
}

func (p *StandardProvider) Type() reflect.Type { return p.typ }

func (p *StandardProvider) Create(ctx *Context) (any, error) {
	if ctx.Plan == nil {
		plan, err := ctx.Kernel.planner.GetPlan(p.typ)
		if err != nil {
			return nil, errInvalidBinding(ctx, err)
		}
		ctx.Plan = plan
	}

	directive, err := p.selectConstructor(ctx)
	if err != nil {
		return nil, err
	}
	return invokeDirective(ctx, directive)
}

func (p *StandardProvider) selectConstructor(ctx *Context) (*ConstructorDirective, error) {
	directives := ctx.Plan.Constructors
	if len(directives) == 0 {
		return nil, errNoConstructors(ctx, p.typ)
	}

	var marked *ConstructorDirective
	for _, d := range directives {
		if !d.HasInject() {
			continue
		}
		if marked != nil {
			return nil, errAmbiguousConstructor(ctx, p.typ)
		}
		marked = d
	}
	if marked != nil {
		return marked, nil
	}

	// 分数相同时保留先声明的构造函数
	best := directives[0]
	bestScore := p.scorer.Score(ctx, best)
	for _, d := range directives[1:] {
		if score := p.scorer.Score(ctx, d); score > bestScore {
			best, bestScore = d, score
		}
	}
	return best, nil
}

// invokeDirective 解析构造函数形参并调用
func invokeDirective(ctx *Context, d *ConstructorDirective) (any, error) {
	if ctx.Kernel.settings.CheckForUselessConstructorArgument {
		if err := checkUselessArguments(ctx, d); err != nil {
			return nil, err
		}
	}

	args := make([]reflect.Value, len(d.Targets))
	for i, target := range d.Targets {
		v, err := resolveTargetValue(ctx, target)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	instance, err := d.Constructor.Invoke(args)
	if err != nil {
		return nil, errActivation(ctx, "Constructor "+d.Constructor.Label, err)
	}
	return instance, nil
}

// resolveTargetValue 参数覆盖优先，否则向内核发起子请求
func resolveTargetValue(ctx *Context, target *Target) (reflect.Value, error) {
	if arg := constructorArgumentFor(ctx, target); arg != nil {
		v, err := arg.Value(ctx, target)
		if err != nil {
			return reflect.Value{}, errActivation(ctx, "Constructor argument "+arg.Name(), err)
		}
		return valueFor(target.Type, v), nil
	}
	return target.ResolveWithin(ctx)
}

func checkUselessArguments(ctx *Context, d *ConstructorDirective) error {
	for _, p := range ctx.Parameters {
		ca, ok := p.(*ConstructorArgument)
		if !ok || ca.ShouldInherit() {
			continue
		}
		used := false
		for _, t := range d.Targets {
			if ca.AppliesToTarget(ctx, t) {
				used = true
				break
			}
		}
		if !used {
			return errUselessArgument(ctx, ca.Name())
		}
	}
	return nil
}

// ConstantProvider 总是返回同一个值
type ConstantProvider struct {
	value any
}

// NewConstantProvider 创建常量提供者
func NewConstantProvider(value any) *ConstantProvider {
	return &ConstantProvider{value: value}
}

func (p *ConstantProvider) Type() reflect.Type { return reflect.TypeOf(p.value) }

func (p *ConstantProvider) Create(*Context) (any, error) {
	return p.value, nil
}

// CallbackProvider 调用回调创建实例
type CallbackProvider struct {
	typ reflect.Type
	fn  func(*Context) (any, error)
}

// NewCallbackProvider 创建回调提供者
func NewCallbackProvider(typ reflect.Type, fn func(*Context) (any, error)) *CallbackProvider {
	return &CallbackProvider{typ: typ, fn: fn}
}

func (p *CallbackProvider) Type() reflect.Type { return p.typ }

func (p *CallbackProvider) Create(ctx *Context) (any, error) {
	instance, err := p.fn(ctx)
	if err != nil {
		if _, ok := err.(*ActivationError); ok {
			return nil, err
		}
		return nil, errActivation(ctx, "Method", err)
	}
	return instance, nil
}

// ConstructorProvider 使用绑定时指定的构造函数，不参与构造函数选择
type ConstructorProvider struct {
	directive *ConstructorDirective
}

// NewConstructorProvider 为 ToConstructor 绑定创建提供者
func NewConstructorProvider(ctor *ConstructorInfo) *ConstructorProvider {
	d := &ConstructorDirective{Constructor: ctor}
	for _, p := range ctor.Params {
		d.Targets = append(d.Targets, newParameterTarget(TargetParameter, ctor.Type, ctor.Label, p))
	}
	return &ConstructorProvider{directive: d}
}

func (p *ConstructorProvider) Type() reflect.Type { return p.directive.Constructor.Type }

func (p *ConstructorProvider) Create(ctx *Context) (any, error) {
	return invokeDirective(ctx, p.directive)
}

// openGenericProvider 为 ToOpenGeneric 绑定查找登记的实例化类型
func openGenericProvider(ctx *Context, def GenericDefinition) (Provider, error) {
	t, ok := ctx.Kernel.registry.FindInstantiation(def, ctx.GenericArguments)
	if !ok {
		return nil, fmt.Errorf("no registered instantiation of %s with type arguments %v", def, ctx.GenericArguments)
	}
	return NewStandardProvider(t, ctx.Kernel.scorer), nil
}
