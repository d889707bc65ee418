package di

import (
	"fmt"
	"reflect"

	"github.com/gocrud/inject/logging"
)

// Module 一组绑定声明，按名称加载与卸载
type Module interface {
	Name() string
	Load(k *ModuleKernel) error
}

// ModuleUnloader 卸载时需要额外清理的模块
type ModuleUnloader interface {
	Unload(k *ModuleKernel) error
}

// ModuleRequirer 依赖其他模块的模块，全部模块加载后校验
type ModuleRequirer interface {
	Requires() []string
}

// ModuleKernel 模块加载期间使用的绑定入口，记录模块声明的绑定以便卸载
type ModuleKernel struct {
	kernel   *Kernel
	module   Module
	bindings []*Binding
}

// Kernel 返回所属内核
func (m *ModuleKernel) Kernel() *Kernel {
	return m.kernel
}

// Module 返回正在加载的模块
func (m *ModuleKernel) Module() Module {
	return m.module
}

// Bindings 模块声明的绑定
func (m *ModuleKernel) Bindings() []*Binding {
	return m.bindings
}

func (m *ModuleKernel) Bind(service reflect.Type, opts ...BindingOption) error {
	return m.BindAll([]reflect.Type{service}, opts...)
}

func (m *ModuleKernel) BindAll(services []reflect.Type, opts ...BindingOption) error {
	bindings, err := m.kernel.bind(services, opts)
	if err != nil {
		return err
	}
	m.bindings = append(m.bindings, bindings...)
	return nil
}

func (m *ModuleKernel) BindOpenGeneric(def GenericDefinition, opts ...BindingOption) error {
	b, err := m.kernel.bindOpenGeneric(def, opts)
	if err != nil {
		return err
	}
	m.bindings = append(m.bindings, b)
	return nil
}

func (m *ModuleKernel) Rebind(service reflect.Type, opts ...BindingOption) error {
	if err := m.Unbind(service); err != nil {
		return err
	}
	return m.Bind(service, opts...)
}

func (m *ModuleKernel) Unbind(service reflect.Type) error {
	removed, err := m.kernel.unbind(service)
	if err != nil {
		return err
	}
	for _, b := range removed {
		m.bindings, _ = removeBinding(m.bindings, b)
	}
	return nil
}

// Load 加载模块。模块名称必须唯一；全部加载后校验 Requires。
func (k *Kernel) Load(modules ...Module) error {
	if err := k.checkWritable(); err != nil {
		return err
	}
	for _, module := range modules {
		if err := k.loadModule(module); err != nil {
			return err
		}
	}

	k.modulesMu.RLock()
	defer k.modulesMu.RUnlock()
	for _, module := range modules {
		r, ok := module.(ModuleRequirer)
		if !ok {
			continue
		}
		for _, name := range r.Requires() {
			if _, loaded := k.modules[name]; !loaded {
				return fmt.Errorf("di: module %q requires module %q, which is not loaded", module.Name(), name)
			}
		}
	}
	return nil
}

func (k *Kernel) loadModule(module Module) error {
	name := module.Name()
	if name == "" {
		return fmt.Errorf("di: module %T has no name", module)
	}

	k.modulesMu.Lock()
	if _, exists := k.modules[name]; exists {
		k.modulesMu.Unlock()
		return fmt.Errorf("di: module %q is already loaded", name)
	}
	mk := &ModuleKernel{kernel: k, module: module}
	k.modules[name] = mk
	k.moduleOrder = append(k.moduleOrder, name)
	k.modulesMu.Unlock()

	if err := module.Load(mk); err != nil {
		k.removeModuleBindings(mk)
		k.forgetModule(name)
		return fmt.Errorf("di: load module %q: %w", name, err)
	}
	k.logger.Debug("module loaded",
		logging.Field{Key: "module", Value: name},
		logging.Field{Key: "bindings", Value: len(mk.bindings)},
	)
	return nil
}

// Unload 卸载模块并移除它声明的绑定
func (k *Kernel) Unload(name string) error {
	if err := k.checkWritable(); err != nil {
		return err
	}
	k.modulesMu.RLock()
	mk, ok := k.modules[name]
	k.modulesMu.RUnlock()
	if !ok {
		return fmt.Errorf("di: module %q is not loaded", name)
	}

	if u, ok := mk.module.(ModuleUnloader); ok {
		if err := u.Unload(mk); err != nil {
			return fmt.Errorf("di: unload module %q: %w", name, err)
		}
	}
	k.removeModuleBindings(mk)
	k.forgetModule(name)
	k.logger.Debug("module unloaded", logging.Field{Key: "module", Value: name})
	return nil
}

func (k *Kernel) removeModuleBindings(mk *ModuleKernel) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, b := range mk.bindings {
		k.bindings.remove(b)
	}
	mk.bindings = nil
	k.invalidateLocked()
}

func (k *Kernel) forgetModule(name string) {
	k.modulesMu.Lock()
	defer k.modulesMu.Unlock()
	delete(k.modules, name)
	for i, n := range k.moduleOrder {
		if n == name {
			k.moduleOrder = append(k.moduleOrder[:i], k.moduleOrder[i+1:]...)
			break
		}
	}
}

// HasModule 模块是否已加载
func (k *Kernel) HasModule(name string) bool {
	k.modulesMu.RLock()
	defer k.modulesMu.RUnlock()
	_, ok := k.modules[name]
	return ok
}

// GetModules 已加载模块的名称，按加载顺序
func (k *Kernel) GetModules() []string {
	k.modulesMu.RLock()
	defer k.modulesMu.RUnlock()
	out := make([]string, len(k.moduleOrder))
	copy(out, k.moduleOrder)
	return out
}

// ModuleFunc 以函数声明的模块
type ModuleFunc struct {
	name string
	load func(k *ModuleKernel) error
}

// NewModule 用函数创建模块
func NewModule(name string, load func(k *ModuleKernel) error) *ModuleFunc {
	return &ModuleFunc{name: name, load: load}
}

func (m *ModuleFunc) Name() string { return m.name }

func (m *ModuleFunc) Load(k *ModuleKernel) error { return m.load(k) }
