package di

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ParamInfo 构造函数形参的元数据
type ParamInfo struct {
	Name        string
	Type        reflect.Type
	ServiceName string
	Optional    bool
	HasDefault  bool
	Default     any
	Markers     []string
}

// ConstructorInfo 一个可用于创建实例的构造函数
type ConstructorInfo struct {
	// Type 构造出的类型
	Type reflect.Type
	// Label 用于错误信息
	Label  string
	Params []ParamInfo
	// HasInject 是否带有 inject 标记
	HasInject    bool
	ReturnsError bool

	fn reflect.Value
	// alloc 为 true 时没有构造函数，直接 reflect.New
	alloc bool
}

// Invoke 使用给定实参调用构造函数
func (c *ConstructorInfo) Invoke(args []reflect.Value) (any, error) {
	if c.alloc {
		return reflect.New(c.Type.Elem()).Interface(), nil
	}
	results := c.fn.Call(args)
	if c.ReturnsError {
		if errVal := results[1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
	}
	return results[0].Interface(), nil
}

// ConstructorOption 构造函数选项
type ConstructorOption func(*ConstructorInfo)

// MarkInject 标记为首选构造函数
func MarkInject() ConstructorOption {
	return func(c *ConstructorInfo) {
		c.HasInject = true
	}
}

// ParamNames 设置形参名称（用于 ConstructorArgument 按名匹配）
func ParamNames(names ...string) ConstructorOption {
	return func(c *ConstructorInfo) {
		for i, name := range names {
			if i < len(c.Params) {
				c.Params[i].Name = name
			}
		}
	}
}

// ParamNamed 第 i 个形参只接受指定名称的绑定
func ParamNamed(i int, service string) ConstructorOption {
	return func(c *ConstructorInfo) {
		if i >= 0 && i < len(c.Params) {
			c.Params[i].ServiceName = service
		}
	}
}

// ParamOptional 第 i 个形参可选，无法解析时传零值
func ParamOptional(i int) ConstructorOption {
	return func(c *ConstructorInfo) {
		if i >= 0 && i < len(c.Params) {
			c.Params[i].Optional = true
		}
	}
}

// ParamDefault 第 i 个形参的默认值
func ParamDefault(i int, value any) ConstructorOption {
	return func(c *ConstructorInfo) {
		if i >= 0 && i < len(c.Params) {
			c.Params[i].HasDefault = true
			c.Params[i].Default = value
		}
	}
}

// ParamMarkers 第 i 个形参的标记，供 WhenTargetHas 条件使用
func ParamMarkers(i int, markers ...string) ConstructorOption {
	return func(c *ConstructorInfo) {
		if i >= 0 && i < len(c.Params) {
			c.Params[i].Markers = append(c.Params[i].Markers, markers...)
		}
	}
}

// NewConstructorInfo 从函数构建构造函数元数据。
// fn 必须形如 func(deps...) T 或 func(deps...) (T, error)。
func NewConstructorInfo(fn any, opts ...ConstructorOption) (*ConstructorInfo, error) {
	fnVal := reflect.ValueOf(fn)
	if !fnVal.IsValid() || fnVal.Kind() != reflect.Func || fnVal.IsNil() {
		return nil, fmt.Errorf("constructor must be a non-nil function, got %T", fn)
	}
	fnType := fnVal.Type()
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("constructor %s must not be variadic", fnType)
	}

	info := &ConstructorInfo{fn: fnVal, Label: funcName(fnVal)}
	switch fnType.NumOut() {
	case 1:
	case 2:
		if fnType.Out(1) != errorType {
			return nil, fmt.Errorf("constructor %s: second result must be error", fnType)
		}
		info.ReturnsError = true
	default:
		return nil, fmt.Errorf("constructor %s must return T or (T, error)", fnType)
	}
	info.Type = fnType.Out(0)

	info.Params = make([]ParamInfo, fnType.NumIn())
	for i := range info.Params {
		info.Params[i] = ParamInfo{Name: fmt.Sprintf("arg%d", i), Type: fnType.In(i)}
	}
	for _, opt := range opts {
		opt(info)
	}
	return info, nil
}

func allocatorFor(t reflect.Type) *ConstructorInfo {
	return &ConstructorInfo{Type: t, Label: "new(" + t.Elem().String() + ")", alloc: true}
}

func funcName(v reflect.Value) string {
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return v.Type().String()
	}
	name := f.Name()
	return name[strings.LastIndexByte(name, '/')+1:]
}

// TypeRegistry 类型登记表：构造函数与泛型实例化类型。
// 由调用方显式创建并传给内核，多个内核可以共享同一个登记表。
type TypeRegistry struct {
	mu        sync.RWMutex
	ctors     map[reflect.Type][]*ConstructorInfo
	instances map[GenericDefinition][]reflect.Type
}

// NewTypeRegistry 创建空的类型登记表
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		ctors:     make(map[reflect.Type][]*ConstructorInfo),
		instances: make(map[GenericDefinition][]reflect.Type),
	}
}

// RegisterConstructor 登记构造函数，按登记顺序参与构造函数选择
func (r *TypeRegistry) RegisterConstructor(fn any, opts ...ConstructorOption) error {
	info, err := NewConstructorInfo(fn, opts...)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[info.Type] = append(r.ctors[info.Type], info)
	r.registerTypeLocked(info.Type)
	return nil
}

// RegisterType 登记泛型实例化类型，供 ToOpenGeneric 查找
func (r *TypeRegistry) RegisterType(types ...reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		r.registerTypeLocked(t)
	}
}

func (r *TypeRegistry) registerTypeLocked(t reflect.Type) {
	def, _, ok := GenericOf(t)
	if !ok {
		return
	}
	for _, existing := range r.instances[def] {
		if existing == t {
			return
		}
	}
	r.instances[def] = append(r.instances[def], t)
}

// Constructors 返回类型登记的构造函数
func (r *TypeRegistry) Constructors(t reflect.Type) []*ConstructorInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ctors[t]
}

// HasConstructors 类型是否登记了构造函数
func (r *TypeRegistry) HasConstructors(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ctors[t]) > 0
}

// FindInstantiation 按类型实参查找泛型定义的实例化类型
func (r *TypeRegistry) FindInstantiation(def GenericDefinition, args []string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.instances[def] {
		_, targs, _ := GenericOf(t)
		if equalStrings(targs, args) {
			return t, true
		}
	}
	return nil, false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
