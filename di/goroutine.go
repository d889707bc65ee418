package di

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// goroutineID 从 runtime.Stack 的首行 "goroutine 123 [running]:" 中解析 ID
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	line := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(line, ' '); i > 0 {
		line = line[:i]
	}
	id, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return -1
	}
	return id
}

// liveGoroutines 返回当前所有存活 goroutine 的 ID
func liveGoroutines() map[int64]struct{} {
	buf := make([]byte, 1<<16)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			buf = buf[:n]
			break
		}
		buf = make([]byte, len(buf)*2)
	}

	live := make(map[int64]struct{})
	prefix := []byte("goroutine ")
	for _, line := range bytes.Split(buf, []byte("\n")) {
		if !bytes.HasPrefix(line, prefix) {
			continue
		}
		rest := line[len(prefix):]
		if i := bytes.IndexByte(rest, ' '); i > 0 {
			rest = rest[:i]
		}
		if id, err := strconv.ParseInt(string(rest), 10, 64); err == nil {
			live[id] = struct{}{}
		}
	}
	return live
}

// GoroutineScope 线程作用域对象，每个 goroutine 一个
type GoroutineScope struct {
	id int64
}

// ID 返回所属 goroutine 的 ID
func (s *GoroutineScope) ID() int64 {
	return s.id
}

// goroutineScopes 保证同一个 goroutine 总是得到同一个作用域对象
type goroutineScopes struct {
	mu     sync.Mutex
	scopes map[int64]*GoroutineScope
}

func newGoroutineScopes() *goroutineScopes {
	return &goroutineScopes{scopes: make(map[int64]*GoroutineScope)}
}

func (g *goroutineScopes) current() *GoroutineScope {
	id := goroutineID()
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.scopes[id]
	if !ok {
		s = &GoroutineScope{id: id}
		g.scopes[id] = s
	}
	return s
}

// dead 移除并返回所属 goroutine 已退出的作用域
func (g *goroutineScopes) dead() []*GoroutineScope {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.scopes) == 0 {
		return nil
	}
	live := liveGoroutines()
	var out []*GoroutineScope
	for id, s := range g.scopes {
		if _, ok := live[id]; !ok {
			out = append(out, s)
			delete(g.scopes, id)
		}
	}
	return out
}

// reentrantMutex 可被同一 goroutine 重复获取的互斥锁。
// 属性注入的循环引用会在持有作用域锁时再次进入同一作用域。
type reentrantMutex struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner int64
	count int
}

func newReentrantMutex() *reentrantMutex {
	m := &reentrantMutex{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *reentrantMutex) Lock() {
	id := goroutineID()
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.count > 0 && m.owner != id {
		m.cond.Wait()
	}
	m.owner = id
	m.count++
}

// TryLock 非阻塞获取，供清理任务使用
func (m *reentrantMutex) TryLock() bool {
	id := goroutineID()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.count > 0 && m.owner != id {
		return false
	}
	m.owner = id
	m.count++
	return true
}

func (m *reentrantMutex) Unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count--
	if m.count <= 0 {
		m.count = 0
		m.owner = 0
		m.cond.Broadcast()
	}
}
