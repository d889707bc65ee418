package di

import (
	"reflect"
	"sort"

	"github.com/gocrud/inject/logging"
)

// dependencyGraph 单例绑定之间的依赖图，Build 按拓扑序预激活单例
type dependencyGraph struct {
	kernel *Kernel
	nodes  []*Binding
	byType map[reflect.Type][]*Binding
}

func newDependencyGraph(k *Kernel, nodes []*Binding) *dependencyGraph {
	g := &dependencyGraph{kernel: k, nodes: nodes, byType: make(map[reflect.Type][]*Binding)}
	for _, b := range nodes {
		g.byType[b.Service] = append(g.byType[b.Service], b)
	}
	return g
}

// buildOrder 返回依赖在前的激活顺序。
// 环不在这里报错：属性注入的环是合法的，构造函数的环在解析时检测。
func (g *dependencyGraph) buildOrder() []*Binding {
	dependencies := make(map[*Binding][]*Binding, len(g.nodes))
	for _, b := range g.nodes {
		dependencies[b] = g.inspectDependencies(b)
	}

	visited := make(map[*Binding]bool, len(g.nodes))
	order := make([]*Binding, 0, len(g.nodes))

	var visit func(*Binding)
	visit = func(u *Binding) {
		visited[u] = true
		for _, v := range dependencies[u] {
			if !visited[v] {
				visit(v)
			}
		}
		order = append(order, u)
	}
	for _, b := range g.nodes {
		if !visited[b] {
			visit(b)
		}
	}
	return order
}

// inspectDependencies 从构造函数形参、必需字段与注入方法形参中收集依赖
func (g *dependencyGraph) inspectDependencies(b *Binding) []*Binding {
	var targets []*Target
	switch b.Target {
	case BindConstructor:
		if p, err := b.ProviderCallback(nil); err == nil {
			if cp, ok := p.(*ConstructorProvider); ok {
				targets = append(targets, cp.directive.Targets...)
			}
		}
	case BindSelf, BindType:
		impl := b.Implementation
		if impl == nil {
			impl = b.Service
		}
		plan, err := g.kernel.planner.GetPlan(impl)
		if err != nil {
			return nil
		}
		for _, d := range plan.Constructors {
			targets = append(targets, d.Targets...)
		}
		targets = append(targets, g.memberTargets(plan)...)
	case BindConstant:
		if impl := b.Implementation; impl != nil {
			if plan, err := g.kernel.planner.GetPlan(impl); err == nil {
				targets = append(targets, g.memberTargets(plan)...)
			}
		}
	}

	var deps []*Binding
	for _, t := range targets {
		typ := t.Type
		if elem, ok := collectionElem(typ); ok && len(g.byType[typ]) == 0 {
			typ = elem
		}
		for _, candidate := range g.byType[typ] {
			if candidate != b && (t.ServiceName == "" || candidate.Metadata.Name == t.ServiceName) {
				deps = append(deps, candidate)
			}
		}
	}
	return deps
}

func (g *dependencyGraph) memberTargets(plan *Plan) []*Target {
	var targets []*Target
	for _, d := range plan.Properties {
		if !d.Target.Optional {
			targets = append(targets, d.Target)
		}
	}
	for _, d := range plan.Methods {
		targets = append(targets, d.Targets...)
	}
	return targets
}

// eagerBindings 显式、无条件、封闭类型的单例绑定，按声明顺序
func (k *Kernel) eagerBindings() []*Binding {
	k.mu.RLock()
	defer k.mu.RUnlock()
	var out []*Binding
	for _, b := range k.bindings.all() {
		if b.scope == scopeSingleton && !b.IsImplicit && !b.IsConditional() && b.Service != nil {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Build 按依赖顺序预激活全部单例，成功后内核变为只读，不再接受绑定与模块变更
func (k *Kernel) Build() error {
	if err := k.checkWritable(); err != nil {
		return err
	}

	order := newDependencyGraph(k, k.eagerBindings()).buildOrder()
	for _, b := range order {
		req := k.CreateRequest(b.Service, nil, nil, false, true)
		if _, err := newContext(k, req, b).Resolve(); err != nil {
			return err
		}
	}

	k.readOnly.Store(true)
	k.logger.Debug("kernel built", logging.Field{Key: "singletons", Value: len(order)})
	return nil
}
