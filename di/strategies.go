package di

import (
	"io"
	"reflect"
)

// Initializable 属性与方法注入完成后调用
type Initializable interface {
	Initialize() error
}

// Startable 激活时启动，反激活时停止
type Startable interface {
	Start() error
	Stop() error
}

// Disposable 反激活的最后一步释放资源，io.Closer 同样被接受
type Disposable interface {
	Dispose() error
}

func wrapStage(ctx *Context, stage string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*ActivationError); ok {
		return err
	}
	return errActivation(ctx, stage, err)
}

type activationCacheStrategy struct {
	cache *ActivationCache
}

func (s *activationCacheStrategy) Activate(_ *Context, ref *InstanceReference) error {
	s.cache.AddActivated(ref.Instance)
	return nil
}

func (s *activationCacheStrategy) Deactivate(_ *Context, ref *InstanceReference) error {
	s.cache.AddDeactivated(ref.Instance)
	return nil
}

type disposableStrategy struct{}

func (disposableStrategy) Activate(*Context, *InstanceReference) error { return nil }

func (disposableStrategy) Deactivate(ctx *Context, ref *InstanceReference) error {
	switch d := ref.Instance.(type) {
	case Disposable:
		return wrapStage(ctx, "Dispose", d.Dispose())
	case io.Closer:
		return wrapStage(ctx, "Close", d.Close())
	}
	return nil
}

type propertyInjectionStrategy struct{}

func (propertyInjectionStrategy) Activate(ctx *Context, ref *InstanceReference) error {
	plan := ctx.Plan
	instance := reflect.ValueOf(ref.Instance)

	values := make(map[string]*PropertyValue)
	for _, p := range ctx.Parameters {
		if pv, ok := p.(*PropertyValue); ok {
			values[pv.Name()] = pv
		}
	}

	for _, d := range plan.Properties {
		if pv, ok := values[d.Property.Name]; ok {
			delete(values, d.Property.Name)
			v, err := pv.Value(ctx, d.Target)
			if err != nil {
				return wrapStage(ctx, "Property value "+pv.Name(), err)
			}
			d.Injector(instance, valueFor(d.Property.Type, v))
			continue
		}

		v, err := d.Target.ResolveWithin(ctx)
		if err != nil {
			return err
		}
		if d.Target.Optional && v.IsZero() {
			// 可选字段未解析到值时保留原值
			continue
		}
		d.Injector(instance, v)
	}

	if len(values) > 0 && ctx.Kernel.settings.ThrowOnUnmatchedPropertyValue {
		for name := range values {
			return errUnresolvableProperty(ctx, name)
		}
	}
	return nil
}

func (propertyInjectionStrategy) Deactivate(*Context, *InstanceReference) error { return nil }

type methodInjectionStrategy struct{}

func (methodInjectionStrategy) Activate(ctx *Context, ref *InstanceReference) error {
	instance := reflect.ValueOf(ref.Instance)
	for _, d := range ctx.Plan.Methods {
		args := make([]reflect.Value, len(d.Targets))
		for i, target := range d.Targets {
			v, err := target.ResolveWithin(ctx)
			if err != nil {
				return err
			}
			args[i] = v
		}
		if err := d.Injector(instance, args); err != nil {
			return wrapStage(ctx, "Method "+d.Method.Name, err)
		}
	}
	return nil
}

func (methodInjectionStrategy) Deactivate(*Context, *InstanceReference) error { return nil }

type bindingActionStrategy struct{}

func (bindingActionStrategy) Activate(ctx *Context, ref *InstanceReference) error {
	if ctx.Binding == nil {
		return nil
	}
	for _, action := range ctx.Binding.ActivationActions {
		if err := action(ctx, ref.Instance); err != nil {
			return wrapStage(ctx, "Activation action", err)
		}
	}
	return nil
}

func (bindingActionStrategy) Deactivate(ctx *Context, ref *InstanceReference) error {
	if ctx.Binding == nil {
		return nil
	}
	for _, action := range ctx.Binding.DeactivationActions {
		if err := action(ctx, ref.Instance); err != nil {
			return wrapStage(ctx, "Deactivation action", err)
		}
	}
	return nil
}

type initializableStrategy struct{}

func (initializableStrategy) Activate(ctx *Context, ref *InstanceReference) error {
	if i, ok := ref.Instance.(Initializable); ok {
		return wrapStage(ctx, "Initialize", i.Initialize())
	}
	return nil
}

func (initializableStrategy) Deactivate(*Context, *InstanceReference) error { return nil }

type startableStrategy struct{}

func (startableStrategy) Activate(ctx *Context, ref *InstanceReference) error {
	if s, ok := ref.Instance.(Startable); ok {
		return wrapStage(ctx, "Start", s.Start())
	}
	return nil
}

func (startableStrategy) Deactivate(ctx *Context, ref *InstanceReference) error {
	if s, ok := ref.Instance.(Startable); ok {
		return wrapStage(ctx, "Stop", s.Stop())
	}
	return nil
}
