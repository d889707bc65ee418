package di

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gocrud/inject/logging"
)

// KernelOption 内核选项
type KernelOption func(*kernelOptions)

type kernelOptions struct {
	settings         Settings
	logger           logging.Logger
	registry         *TypeRegistry
	introspector     Introspector
	scorer           ConstructorScorer
	strategies       []ActivationStrategy
	bindingResolvers []BindingResolver
	missingResolvers []MissingBindingResolver
	modules          []Module
}

// WithSettings 替换默认设置
func WithSettings(s Settings) KernelOption {
	return func(o *kernelOptions) {
		o.settings = s
	}
}

// WithLogger 内核日志，默认不输出
func WithLogger(l logging.Logger) KernelOption {
	return func(o *kernelOptions) {
		o.logger = l
	}
}

// WithRegistry 使用给定的类型登记表
func WithRegistry(r *TypeRegistry) KernelOption {
	return func(o *kernelOptions) {
		o.registry = r
	}
}

// WithIntrospector 替换默认的反射内省器
func WithIntrospector(i Introspector) KernelOption {
	return func(o *kernelOptions) {
		o.introspector = i
	}
}

// WithScorer 替换构造函数打分器
func WithScorer(s ConstructorScorer) KernelOption {
	return func(o *kernelOptions) {
		o.scorer = s
	}
}

// WithStrategies 在内置策略之后追加激活策略
func WithStrategies(strategies ...ActivationStrategy) KernelOption {
	return func(o *kernelOptions) {
		o.strategies = append(o.strategies, strategies...)
	}
}

// WithBindingResolvers 追加绑定解析器
func WithBindingResolvers(resolvers ...BindingResolver) KernelOption {
	return func(o *kernelOptions) {
		o.bindingResolvers = append(o.bindingResolvers, resolvers...)
	}
}

// WithMissingBindingResolvers 替换缺失绑定解析器链
func WithMissingBindingResolvers(resolvers ...MissingBindingResolver) KernelOption {
	return func(o *kernelOptions) {
		o.missingResolvers = resolvers
	}
}

// WithModules 创建内核时加载模块
func WithModules(modules ...Module) KernelOption {
	return func(o *kernelOptions) {
		o.modules = append(o.modules, modules...)
	}
}

// Kernel 依赖注入内核
type Kernel struct {
	settings         Settings
	logger           logging.Logger
	registry         *TypeRegistry
	planner          *Planner
	scorer           ConstructorScorer
	activationCache  *ActivationCache
	pipeline         *Pipeline
	cache            *Cache
	goroutines       *goroutineScopes
	bindingResolvers []BindingResolver
	missingResolvers []MissingBindingResolver

	mu           sync.RWMutex
	bindings     *BindingMap
	seq          atomic.Uint64
	generation   atomic.Uint64
	bindingCache atomic.Pointer[map[reflect.Type][]*Binding]
	missingMu    sync.Mutex

	modulesMu   sync.RWMutex
	modules     map[string]*ModuleKernel
	moduleOrder []string

	pruner   *pruner
	readOnly atomic.Bool
	disposed atomic.Bool
}

// NewKernel 创建内核
func NewKernel(opts ...KernelOption) (*Kernel, error) {
	o := &kernelOptions{settings: DefaultSettings()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewNopLogger()
	}
	if o.registry == nil {
		o.registry = NewTypeRegistry()
	}
	if o.introspector == nil {
		o.introspector = NewReflectIntrospector(o.registry)
	}
	if o.scorer == nil {
		o.scorer = NewStandardScorer()
	}
	if o.missingResolvers == nil {
		o.missingResolvers = defaultMissingBindingResolvers()
	}

	k := &Kernel{
		settings:         o.settings,
		logger:           o.logger.WithCategory("di"),
		registry:         o.registry,
		scorer:           o.scorer,
		goroutines:       newGoroutineScopes(),
		bindingResolvers: append(defaultBindingResolvers(), o.bindingResolvers...),
		missingResolvers: o.missingResolvers,
		bindings:         newBindingMap(),
		modules:          make(map[string]*ModuleKernel),
	}
	k.planner = NewPlanner(o.introspector, &k.settings)
	k.activationCache = NewActivationCache(k.settings.ActivationCacheDisabled)
	strategies := append(defaultStrategies(&k.settings, k.activationCache), o.strategies...)
	k.pipeline = NewPipeline(k.activationCache, strategies...)
	k.cache = NewCache(k.pipeline)
	k.bindingCache.Store(&map[reflect.Type][]*Binding{})

	// 内核自身以瞬态常量绑定，不会被缓存或反激活
	self := []reflect.Type{TypeOf[*Kernel](), TypeOf[ResolutionRoot]()}
	if err := k.BindAll(self, ToConstant(k), InTransientScope()); err != nil {
		return nil, err
	}

	if len(o.modules) > 0 {
		if err := k.Load(o.modules...); err != nil {
			return nil, err
		}
	}

	if k.settings.CachePruningInterval > 0 {
		p, err := newPruner(k, k.settings.CachePruningInterval)
		if err != nil {
			return nil, err
		}
		k.pruner = p
	}
	return k, nil
}

// Settings 返回内核设置的副本
func (k *Kernel) Settings() Settings {
	return k.settings
}

// Logger 返回内核日志
func (k *Kernel) Logger() logging.Logger {
	return k.logger
}

// Registry 返回类型登记表
func (k *Kernel) Registry() *TypeRegistry {
	return k.registry
}

func (k *Kernel) checkWritable() error {
	if k.disposed.Load() {
		return newError(KindDisposed, "kernel has been disposed", nil)
	}
	if k.readOnly.Load() {
		return newError(KindReadOnly, "kernel is read-only after Build", nil)
	}
	return nil
}

// AddBinding 注册绑定
func (k *Kernel) AddBinding(b *Binding) error {
	if err := k.checkWritable(); err != nil {
		return err
	}
	if err := b.validate(); err != nil {
		return newError(KindInvalidBinding, fmt.Sprintf("invalid %s: %v", formatBinding(b), err), nil)
	}
	k.addBinding(b)
	return nil
}

func (k *Kernel) addBinding(b *Binding) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if b.seq == 0 {
		b.seq = k.seq.Add(1)
	}
	k.bindings.add(b)
	k.invalidateLocked()
}

// RemoveBinding 移除绑定，返回是否存在
func (k *Kernel) RemoveBinding(b *Binding) (bool, error) {
	if err := k.checkWritable(); err != nil {
		return false, err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	removed := k.bindings.remove(b)
	if removed {
		k.invalidateLocked()
	}
	return removed, nil
}

func (k *Kernel) invalidateLocked() {
	k.generation.Add(1)
	k.bindingCache.Store(&map[reflect.Type][]*Binding{})
}

// Bind 为服务类型注册绑定，默认绑定到自身、瞬态作用域
func (k *Kernel) Bind(service reflect.Type, opts ...BindingOption) error {
	_, err := k.bind([]reflect.Type{service}, opts)
	return err
}

// BindAll 多个服务共享同一份绑定配置，单例作用域下共享同一个实例
func (k *Kernel) BindAll(services []reflect.Type, opts ...BindingOption) error {
	_, err := k.bind(services, opts)
	return err
}

func (k *Kernel) bind(services []reflect.Type, opts []BindingOption) ([]*Binding, error) {
	if err := k.checkWritable(); err != nil {
		return nil, err
	}
	bindings, err := newBindings(services, opts)
	if err != nil {
		return nil, err
	}
	for _, b := range bindings {
		k.addBinding(b)
	}
	return bindings, nil
}

// BindOpenGeneric 为开放泛型定义注册绑定，所有封闭实例化类型的请求都能看到它
func (k *Kernel) BindOpenGeneric(def GenericDefinition, opts ...BindingOption) error {
	_, err := k.bindOpenGeneric(def, opts)
	return err
}

func (k *Kernel) bindOpenGeneric(def GenericDefinition, opts []BindingOption) (*Binding, error) {
	if err := k.checkWritable(); err != nil {
		return nil, err
	}
	b, err := newOpenGenericBinding(def, opts)
	if err != nil {
		return nil, err
	}
	k.addBinding(b)
	return b, nil
}

// Unbind 移除服务类型的全部绑定
func (k *Kernel) Unbind(service reflect.Type) error {
	_, err := k.unbind(service)
	return err
}

func (k *Kernel) unbind(service reflect.Type) ([]*Binding, error) {
	if err := k.checkWritable(); err != nil {
		return nil, err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	removed := k.bindings.closed[service]
	delete(k.bindings.closed, service)
	k.invalidateLocked()
	return removed, nil
}

// Rebind 移除已有绑定后重新绑定
func (k *Kernel) Rebind(service reflect.Type, opts ...BindingOption) error {
	if err := k.Unbind(service); err != nil {
		return err
	}
	return k.Bind(service, opts...)
}

// GetBindings 返回服务的候选绑定，按优先级从高到低排列，声明顺序作为最终次序。
// 结果按服务类型缓存，绑定表变更时整体失效。
func (k *Kernel) GetBindings(service reflect.Type) []*Binding {
	if cached := k.bindingCache.Load(); cached != nil {
		if bindings, ok := (*cached)[service]; ok {
			return bindings
		}
	}

	k.mu.RLock()
	gen := k.generation.Load()
	var bindings []*Binding
	for _, r := range k.bindingResolvers {
		bindings = append(bindings, r.Resolve(k.bindings, service)...)
	}
	k.mu.RUnlock()

	sort.SliceStable(bindings, func(i, j int) bool {
		if c := compareBindings(bindings[i], bindings[j]); c != 0 {
			return c > 0
		}
		return bindings[i].seq < bindings[j].seq
	})

	// 写时复制：失效会替换指针，CAS 失败后重新检查代数
	for {
		old := k.bindingCache.Load()
		if k.generation.Load() != gen {
			break
		}
		next := make(map[reflect.Type][]*Binding, len(*old)+1)
		for t, bs := range *old {
			next[t] = bs
		}
		next[service] = bindings
		if k.bindingCache.CompareAndSwap(old, &next) {
			break
		}
	}
	return bindings
}

func (k *Kernel) hasBindings(service reflect.Type) bool {
	return len(k.GetBindings(service)) > 0
}

func (k *Kernel) satisfiedBindings(req *Request) []*Binding {
	var out []*Binding
	for _, b := range k.GetBindings(req.Service) {
		if req.Matches(b) && b.Matches(req) {
			out = append(out, b)
		}
	}
	return out
}

// CreateRequest 创建根请求
func (k *Kernel) CreateRequest(service reflect.Type, constraint func(*BindingMetadata) bool, params []Parameter, isOptional, isUnique bool) *Request {
	return NewRequest(service, constraint, params, nil, isOptional, isUnique)
}

// CanResolve 请求是否存在满足条件的绑定，ignoreImplicit 时只看显式绑定
func (k *Kernel) CanResolve(req *Request, ignoreImplicit bool) bool {
	for _, b := range k.satisfiedBindings(req) {
		if !ignoreImplicit || !b.IsImplicit {
			return true
		}
	}
	return false
}

// Resolve 解析请求，唯一请求最多返回一个实例
func (k *Kernel) Resolve(req *Request) ([]any, error) {
	if k.disposed.Load() {
		return nil, newError(KindDisposed, "kernel has been disposed", nil)
	}

	bindings, err := k.selectBindings(req)
	if err != nil || len(bindings) == 0 {
		return nil, err
	}

	results := make([]any, 0, len(bindings))
	for _, b := range bindings {
		instance, err := newContext(k, req, b).Resolve()
		if err != nil {
			return nil, err
		}
		results = append(results, instance)
	}
	return results, nil
}

func (k *Kernel) selectBindings(req *Request) ([]*Binding, error) {
	bindings := k.satisfiedBindings(req)
	if len(bindings) == 0 && k.handleMissingBinding(req) {
		bindings = k.satisfiedBindings(req)
	}
	if len(bindings) == 0 {
		if req.IsOptional {
			return nil, nil
		}
		return nil, errCouldNotResolve(req)
	}

	if req.IsUnique {
		if len(bindings) > 1 && compareBindings(bindings[0], bindings[1]) == 0 {
			if req.IsOptional && !req.ForceUnique {
				return nil, nil
			}
			tied := bindings[:1]
			for _, b := range bindings[1:] {
				if compareBindings(bindings[0], b) != 0 {
					break
				}
				tied = append(tied, b)
			}
			return nil, errAmbiguous(req, tied)
		}
		return bindings[:1], nil
	}

	// 显式绑定出现后，不再产出排在其后的隐式绑定
	out := make([]*Binding, 0, len(bindings))
	explicit := false
	for _, b := range bindings {
		if b.IsImplicit && explicit {
			continue
		}
		if !b.IsImplicit {
			explicit = true
		}
		out = append(out, b)
	}
	return out, nil
}

// handleMissingBinding 依次询问缺失绑定解析器，第一个给出结果的生效
func (k *Kernel) handleMissingBinding(req *Request) bool {
	k.missingMu.Lock()
	defer k.missingMu.Unlock()

	// 双重检查：其他 goroutine 可能已经合成了绑定。
	// 已合成但不满足约束时，解析器不会重复合成。
	if len(k.satisfiedBindings(req)) > 0 {
		return true
	}
	for _, r := range k.missingResolvers {
		bindings := r.Resolve(k, req)
		if len(bindings) == 0 {
			continue
		}
		for _, b := range bindings {
			b.IsImplicit = true
			k.addBinding(b)
		}
		k.logger.Debug("synthesized implicit binding",
			logging.Field{Key: "service", Value: formatType(req.Service)},
			logging.Field{Key: "resolver", Value: fmt.Sprintf("%T", r)},
		)
		return true
	}
	return false
}

// Get 解析服务的唯一实例
func (k *Kernel) Get(service reflect.Type, params ...Parameter) (any, error) {
	return k.getOne(k.CreateRequest(service, nil, params, false, true))
}

// GetNamed 解析指定名称的实例
func (k *Kernel) GetNamed(service reflect.Type, name string, params ...Parameter) (any, error) {
	return k.getOne(k.CreateRequest(service, nameConstraint(name), params, false, true))
}

// GetAll 解析服务的全部实例
func (k *Kernel) GetAll(service reflect.Type, params ...Parameter) ([]any, error) {
	return k.Resolve(k.CreateRequest(service, nil, params, true, false))
}

// TryGet 解析失败（包括歧义）时返回 false
func (k *Kernel) TryGet(service reflect.Type, params ...Parameter) (any, bool) {
	results, err := k.Resolve(k.CreateRequest(service, nil, params, true, true))
	if err != nil || len(results) == 0 {
		return nil, false
	}
	return results[0], true
}

// TryGetAndThrowOnInvalidBinding 没有绑定时返回 nil，绑定歧义或激活失败时返回错误
func (k *Kernel) TryGetAndThrowOnInvalidBinding(service reflect.Type, params ...Parameter) (any, error) {
	req := k.CreateRequest(service, nil, params, true, true)
	req.ForceUnique = true
	return k.getOne(req)
}

func (k *Kernel) getOne(req *Request) (any, error) {
	results, err := k.Resolve(req)
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return results[0], nil
}

// Inject 对已有实例执行激活管线（属性注入、方法注入、初始化等）
func (k *Kernel) Inject(instance any, params ...Parameter) error {
	if instance == nil {
		return fmt.Errorf("di: cannot inject into nil")
	}
	t := reflect.TypeOf(instance)
	plan, err := k.planner.GetPlan(t)
	if err != nil {
		return err
	}
	binding := &Binding{Service: t, BindingConfiguration: newBindingConfiguration()}
	binding.Target = BindConstant
	binding.Implementation = t
	ctx := newContext(k, k.CreateRequest(t, nil, params, false, true), binding)
	ctx.Plan = plan
	return k.pipeline.Activate(ctx, &InstanceReference{Instance: instance})
}

// Release 从作用域缓存中移除实例并反激活，返回是否找到
func (k *Kernel) Release(instance any) (bool, error) {
	return k.cache.Release(instance)
}

// ReleaseScope 反激活某个作用域对象下的全部实例
func (k *Kernel) ReleaseScope(scope any) error {
	return k.cache.Clear(scope)
}

// Prune 清理已退出 goroutine 与已失效作用域的缓存，返回反激活的实例数
func (k *Kernel) Prune() (int, error) {
	dead := k.goroutines.dead()
	extra := make([]any, 0, len(dead))
	for _, s := range dead {
		extra = append(extra, s)
	}
	n, err := k.cache.Prune(extra...)
	k.activationCache.Prune()
	return n, err
}

// Dispose 停止清理任务并反激活全部缓存实例，之后内核不可再用
func (k *Kernel) Dispose() error {
	if !k.disposed.CompareAndSwap(false, true) {
		return nil
	}
	if k.pruner != nil {
		k.pruner.Stop()
	}
	err := k.cache.ClearAll()
	k.activationCache.Clear()
	if err != nil {
		k.logger.Warn("deactivation failed during dispose", logging.Field{Key: "error", Value: err})
	}
	k.logger.Debug("kernel disposed")
	return err
}

// IsDisposed 内核是否已释放
func (k *Kernel) IsDisposed() bool {
	return k.disposed.Load()
}

// IsReadOnly 内核是否已构建为只读
func (k *Kernel) IsReadOnly() bool {
	return k.readOnly.Load()
}
