package hosting

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocrud/inject/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) has(event string) bool {
	for _, e := range r.snapshot() {
		if e == event {
			return true
		}
	}
	return false
}

type fakeService struct {
	name     string
	rec      *recorder
	startErr error
}

func (s *fakeService) Start(ctx context.Context) error {
	s.rec.add("start " + s.name)
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *fakeService) Stop(context.Context) error {
	s.rec.add("stop " + s.name)
	return nil
}

func newKernel(t *testing.T, services ...HostedService) *di.Kernel {
	t.Helper()
	settings := di.DefaultSettings()
	settings.CachePruningInterval = 0
	k, err := di.NewKernel(di.WithSettings(settings))
	require.NoError(t, err)
	for _, svc := range services {
		require.NoError(t, di.Bind[HostedService](k, di.ToConstant(svc)))
	}
	t.Cleanup(func() { _ = k.Dispose() })
	return k
}

// 测试服务并发启动、逆序停止并释放内核
func TestHostStartStop(t *testing.T) {
	rec := &recorder{}
	k := newKernel(t, &fakeService{name: "a", rec: rec}, &fakeService{name: "b", rec: rec})
	host := NewHost(k)
	assert.Same(t, k, host.Kernel())

	_, err := host.Start(context.Background())
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return rec.has("start a") && rec.has("start b")
	}, time.Second, 5*time.Millisecond)

	_, err = host.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)

	require.NoError(t, host.Stop(context.Background()))
	events := rec.snapshot()
	assert.Equal(t, []string{"stop b", "stop a"}, events[len(events)-2:])
	assert.True(t, k.IsDisposed())
}

// 测试服务失败时 Run 返回错误并关闭
func TestHostRunServiceFailure(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{}
	k := newKernel(t, &fakeService{name: "ok", rec: rec}, &fakeService{name: "bad", rec: rec, startErr: boom})

	err := NewHost(k, WithShutdownTimeout(time.Second)).Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, rec.has("stop ok"))
	assert.True(t, k.IsDisposed())
}

// 测试上下文取消时 Run 正常返回
func TestHostRunCancelled(t *testing.T) {
	rec := &recorder{}
	k := newKernel(t, &fakeService{name: "a", rec: rec})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewHost(k).Run(ctx) }()

	assert.Eventually(t, func() bool { return rec.has("start a") }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.True(t, rec.has("stop a"))
}

// 测试没有托管服务时 Host 仍可启动与停止
func TestHostWithoutServices(t *testing.T) {
	k := newKernel(t)
	host := NewHost(k)
	_, err := host.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, host.Stop(context.Background()))
	assert.True(t, k.IsDisposed())
}

func TestTimedHostedService(t *testing.T) {
	var runs atomic.Int32
	svc := NewTimedHostedService("ticker", 10*time.Millisecond, func(context.Context) error {
		if runs.Add(1) == 1 {
			return errors.New("first run fails")
		}
		return nil
	}, nil)
	assert.Equal(t, "ticker", svc.Name())

	host := NewHost(newKernel(t, svc))
	_, err := host.Start(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, host.Stop(context.Background()))
	assert.True(t, svc.ShouldStop())
}

func TestBackgroundServiceStopTimeout(t *testing.T) {
	svc := NewBackgroundService("idle", nil)
	assert.False(t, svc.ShouldStop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Stop(ctx), context.DeadlineExceeded)
	assert.True(t, svc.ShouldStop())

	// 重复 Stop 不会 panic
	svc.Done()
	assert.NoError(t, svc.Stop(context.Background()))

	select {
	case <-svc.StopChan():
	default:
		t.Fatal("stop channel should be closed")
	}
}
