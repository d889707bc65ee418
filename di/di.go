package di

import (
	"fmt"
	"reflect"
)

// ResolutionRoot 可以发起解析的对象：内核或激活块
type ResolutionRoot interface {
	CreateRequest(service reflect.Type, constraint func(*BindingMetadata) bool, params []Parameter, isOptional, isUnique bool) *Request
	Resolve(req *Request) ([]any, error)
	CanResolve(req *Request, ignoreImplicit bool) bool
	Inject(instance any, params ...Parameter) error
	Release(instance any) (bool, error)
}

// BindingRoot 可以声明绑定的对象：内核或模块内核
type BindingRoot interface {
	Bind(service reflect.Type, opts ...BindingOption) error
	BindAll(services []reflect.Type, opts ...BindingOption) error
	BindOpenGeneric(def GenericDefinition, opts ...BindingOption) error
	Rebind(service reflect.Type, opts ...BindingOption) error
	Unbind(service reflect.Type) error
}

// Bind 绑定服务类型 T
//
//	di.Bind[Weapon](k, di.To[*Sword](), di.InSingletonScope())
func Bind[T any](root BindingRoot, opts ...BindingOption) error {
	return root.Bind(TypeOf[T](), opts...)
}

// Get 解析 T 的唯一实例
func Get[T any](root ResolutionRoot, params ...Parameter) (T, error) {
	return get[T](root, root.CreateRequest(TypeOf[T](), nil, params, false, true))
}

// GetNamed 解析名为 name 的 T
func GetNamed[T any](root ResolutionRoot, name string, params ...Parameter) (T, error) {
	return get[T](root, root.CreateRequest(TypeOf[T](), nameConstraint(name), params, false, true))
}

// MustGet 解析失败时 panic，仅用于程序启动阶段
func MustGet[T any](root ResolutionRoot, params ...Parameter) T {
	v, err := Get[T](root, params...)
	if err != nil {
		panic(err)
	}
	return v
}

// TryGet 任何解析错误（包括歧义）都返回 false
func TryGet[T any](root ResolutionRoot, params ...Parameter) (T, bool) {
	var zero T
	req := root.CreateRequest(TypeOf[T](), nil, params, true, true)
	results, err := root.Resolve(req)
	if err != nil || len(results) == 0 {
		return zero, false
	}
	v, ok := results[0].(T)
	return v, ok
}

// GetAll 解析 T 的全部实例，按绑定优先级排列
func GetAll[T any](root ResolutionRoot, params ...Parameter) ([]T, error) {
	req := root.CreateRequest(TypeOf[T](), nil, params, true, false)
	results, err := root.Resolve(req)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(results))
	for _, r := range results {
		v, ok := r.(T)
		if !ok {
			return nil, fmt.Errorf("di: resolved value is %T, expected %v", r, TypeOf[T]())
		}
		out = append(out, v)
	}
	return out, nil
}

func get[T any](root ResolutionRoot, req *Request) (T, error) {
	var zero T
	results, err := root.Resolve(req)
	if err != nil {
		return zero, err
	}
	if len(results) == 0 || results[0] == nil {
		return zero, nil
	}
	v, ok := results[0].(T)
	if !ok {
		return zero, fmt.Errorf("di: resolved value is %T, expected %v", results[0], req.Service)
	}
	return v, nil
}

func nameConstraint(name string) func(*BindingMetadata) bool {
	return func(m *BindingMetadata) bool {
		return m.Name == name
	}
}
