package di

import (
	"reflect"
	"unsafe"
)

// PropertyInjector 将值写入 instance（结构体指针）的字段
type PropertyInjector func(instance reflect.Value, value reflect.Value)

// MethodInjector 在 instance 上调用注入方法
type MethodInjector func(instance reflect.Value, args []reflect.Value) error

// InjectorFactory 为字段与方法创建注入器
type InjectorFactory interface {
	PropertyInjector(p *PropertyInfo) PropertyInjector
	MethodInjector(m *MethodInfo) MethodInjector
}

// NewInjectorFactory 根据 UseReflectionBasedInjection 选择实现，两者行为一致
func NewInjectorFactory(settings *Settings) InjectorFactory {
	if settings.UseReflectionBasedInjection {
		return reflectionInjectorFactory{}
	}
	return offsetInjectorFactory{}
}

// reflectionInjectorFactory 每次注入都通过反射定位字段与方法
type reflectionInjectorFactory struct{}

func (reflectionInjectorFactory) PropertyInjector(p *PropertyInfo) PropertyInjector {
	index := p.Index
	exported := p.Exported
	return func(instance reflect.Value, value reflect.Value) {
		field := instance.Elem().FieldByIndex(index)
		if !exported {
			field = reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem()
		}
		field.Set(value)
	}
}

func (reflectionInjectorFactory) MethodInjector(m *MethodInfo) MethodInjector {
	name := m.Name
	return func(instance reflect.Value, args []reflect.Value) error {
		return callResult(instance.MethodByName(name).Call(args))
	}
}

// offsetInjectorFactory 预先计算字段偏移量与方法值
type offsetInjectorFactory struct{}

func (offsetInjectorFactory) PropertyInjector(p *PropertyInfo) PropertyInjector {
	offset := p.Offset
	typ := p.Type
	return func(instance reflect.Value, value reflect.Value) {
		ptr := unsafe.Add(instance.UnsafePointer(), offset)
		reflect.NewAt(typ, ptr).Elem().Set(value)
	}
}

func (offsetInjectorFactory) MethodInjector(m *MethodInfo) MethodInjector {
	fn := m.Method.Func
	return func(instance reflect.Value, args []reflect.Value) error {
		in := make([]reflect.Value, 0, len(args)+1)
		in = append(in, instance)
		in = append(in, args...)
		return callResult(fn.Call(in))
	}
}

func callResult(results []reflect.Value) error {
	if len(results) == 1 && !results[0].IsNil() {
		return results[0].Interface().(error)
	}
	return nil
}
