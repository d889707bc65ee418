package di

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Pool struct {
	Conn *Connection `di:""`
}

type session struct {
	id    int
	alive atomic.Bool
}

func newSession(id int) *session {
	s := &session{id: id}
	s.alive.Store(true)
	return s
}

func (s *session) IsAlive() bool { return s.alive.Load() }

// 测试激活块：瞬态实例在块内共享，块释放时反激活
func TestActivationBlock(t *testing.T) {
	k := newTestKernel(t)
	require.NoError(t, Bind[*Connection](k))

	block := k.BeginBlock()
	assert.Same(t, k, block.Kernel())

	c1, err := Get[*Connection](block)
	require.NoError(t, err)
	c2, err := Get[*Connection](block)
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	c3, err := Get[*Connection](k)
	require.NoError(t, err)
	assert.NotSame(t, c1, c3)

	var notified atomic.Int32
	block.OnDisposed(func() { notified.Add(1) })

	require.NoError(t, block.Dispose())
	assert.False(t, block.IsAlive())
	assert.Equal(t, 1, c1.Disposed())
	assert.Equal(t, 0, c3.Disposed())
	assert.Equal(t, int32(1), notified.Load())

	_, err = Get[*Connection](block)
	assert.ErrorIs(t, err, ErrDisposed)

	require.NoError(t, block.Dispose())
	assert.Equal(t, 1, c1.Disposed())
}

// 测试激活块内的单例仍是内核单例，单例持有的瞬态依赖不随块释放
func TestActivationBlockKeepsSingletons(t *testing.T) {
	k := newTestKernel(t)
	require.NoError(t, Bind[*Connection](k))
	require.NoError(t, Bind[*Pool](k, InSingletonScope()))

	block := k.BeginBlock()
	p1, err := Get[*Pool](block)
	require.NoError(t, err)
	p2, err := Get[*Pool](k)
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	require.NoError(t, block.Dispose())
	assert.Equal(t, 0, p1.Conn.Disposed())
}

// 测试不同激活块相互隔离
func TestActivationBlocksIsolated(t *testing.T) {
	k := newTestKernel(t)
	require.NoError(t, Bind[*Connection](k))

	a, b := k.BeginBlock(), k.BeginBlock()
	ca, err := Get[*Connection](a)
	require.NoError(t, err)
	cb, err := Get[*Connection](b)
	require.NoError(t, err)
	assert.NotSame(t, ca, cb)

	require.NoError(t, a.Dispose())
	assert.Equal(t, 1, ca.Disposed())
	assert.Equal(t, 0, cb.Disposed())
	require.NoError(t, b.Dispose())
}

// 测试自定义作用域失效后被清理
func TestCustomScopePrune(t *testing.T) {
	k := newTestKernel(t)
	sess := newSession(1)
	require.NoError(t, Bind[*Connection](k, InScope(func(*Context) any { return sess })))

	c1, err := Get[*Connection](k)
	require.NoError(t, err)
	c2, err := Get[*Connection](k)
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	n, err := k.Prune()
	require.NoError(t, err)
	assert.Zero(t, n)

	sess.alive.Store(false)
	n, err = k.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, c1.Disposed())
}

type requestScope struct{ name string }

// 测试作用域对象被回收后，清理任务反激活其缓存实例
func TestCollectedScopePruned(t *testing.T) {
	k := newTestKernel(t)
	scope := &requestScope{name: "req-1"}
	require.NoError(t, Bind[*Connection](k, InScope(func(*Context) any { return scope })))

	c, err := Get[*Connection](k)
	require.NoError(t, err)
	again, err := Get[*Connection](k)
	require.NoError(t, err)
	assert.Same(t, c, again)
	assert.Equal(t, 1, k.cache.Count())

	n, err := k.Prune()
	require.NoError(t, err)
	assert.Zero(t, n)

	scope = nil
	require.Eventually(t, func() bool {
		runtime.GC()
		_, err := k.Prune()
		return err == nil && c.Disposed() == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, k.cache.Count())
}

type notifyingScope struct {
	mu        sync.Mutex
	listeners []func()
}

func (s *notifyingScope) OnDisposed(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *notifyingScope) fire() {
	s.mu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (s *notifyingScope) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// 测试同一个通知作用域只订阅一次，缓存桶重建后也不会重复订阅
func TestDisposeNotifierSubscribedOnce(t *testing.T) {
	k := newTestKernel(t)
	scope := &notifyingScope{}
	require.NoError(t, Bind[*Connection](k, InScope(func(*Context) any { return scope })))

	var conns []*Connection
	for i := 0; i < 3; i++ {
		c, err := Get[*Connection](k)
		require.NoError(t, err)
		conns = append(conns, c)
		require.NoError(t, k.ReleaseScope(scope))
		assert.Equal(t, 1, c.Disposed())
	}
	assert.Equal(t, 1, scope.subscribers())

	c, err := Get[*Connection](k)
	require.NoError(t, err)
	scope.fire()
	assert.Equal(t, 1, c.Disposed())
	assert.Zero(t, k.cache.Count())
	assert.Equal(t, 1, scope.subscribers())
	for _, prev := range conns {
		assert.Equal(t, 1, prev.Disposed())
	}
}

// 测试激活缓存不阻止瞬态实例被回收，存活实例仍被识别
func TestActivationCacheHoldsInstancesWeakly(t *testing.T) {
	k := newTestKernel(t)
	require.NoError(t, Bind[*Sword](k, InSingletonScope()))
	kept, err := Get[*Sword](k)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		_, err := Get[*Dagger](k)
		require.NoError(t, err)
	}
	activated, _ := k.activationCache.Count()
	assert.GreaterOrEqual(t, activated, 100)

	require.Eventually(t, func() bool {
		runtime.GC()
		k.activationCache.Prune()
		activated, _ := k.activationCache.Count()
		return activated <= 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, k.activationCache.IsActivated(kept))
	runtime.KeepAlive(kept)
}

// 测试弱引用在地址复用时不会误认实例
func TestWeakRefRefersTo(t *testing.T) {
	a := &Sword{Name: "a"}
	ref, ok := makeWeakRef(a)
	require.True(t, ok)
	assert.True(t, ref.refersTo(a))
	assert.False(t, ref.refersTo(&Sword{Name: "a"}))
	assert.False(t, ref.refersTo(&Dagger{}))
	got, ok := ref.get()
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = makeWeakRef(Sword{})
	assert.False(t, ok)
	var nilSword *Sword
	_, ok = makeWeakRef(nilSword)
	assert.False(t, ok)

	assert.Equal(t, "scope", keyOf("scope"))
	assert.Equal(t, keyOf(a), keyOf(a))
	assert.NotEqual(t, keyOf(a), keyOf(&Sword{}))
	runtime.KeepAlive(a)
}

// 测试 ReleaseScope 与以实例为作用域的级联释放
func TestReleaseScopeCascades(t *testing.T) {
	k := newTestKernel(t)
	owner := &Sword{Name: "owner"}
	require.NoError(t, Bind[*Sword](k, ToConstant(owner)))
	require.NoError(t, Bind[*Connection](k, InScope(func(*Context) any { return owner })))

	_, err := Get[*Sword](k)
	require.NoError(t, err)
	c, err := Get[*Connection](k)
	require.NoError(t, err)

	found, err := k.Release(owner)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, c.Disposed())

	sess := newSession(2)
	require.NoError(t, k.Rebind(TypeOf[*Connection](), InScope(func(*Context) any { return sess })))
	c2, err := Get[*Connection](k)
	require.NoError(t, err)
	require.NoError(t, k.ReleaseScope(sess))
	assert.Equal(t, 1, c2.Disposed())
}

// 测试不可比较的作用域对象被拒绝
func TestScopeMustBeComparable(t *testing.T) {
	k := newTestKernel(t)
	require.NoError(t, Bind[*Connection](k, InScope(func(*Context) any { return []int{1} })))

	_, err := Get[*Connection](k)
	assert.ErrorIs(t, err, ErrInvalidBinding)
}

// 测试可重入锁：同一 goroutine 可重复获取，其他 goroutine 无法 TryLock
func TestReentrantMutex(t *testing.T) {
	m := newReentrantMutex()
	m.Lock()
	m.Lock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.False(t, m.TryLock())
	}()
	wg.Wait()

	m.Unlock()
	m.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.True(t, m.TryLock())
		m.Unlock()
	}()
	wg.Wait()
}

// 测试 goroutine ID 的解析
func TestGoroutineID(t *testing.T) {
	id := goroutineID()
	assert.Positive(t, id)

	var other int64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		other = goroutineID()
	}()
	wg.Wait()
	assert.NotEqual(t, id, other)
	assert.Contains(t, liveGoroutines(), id)
}
