package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/hosting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SimpleController 普通控制器
type SimpleController struct {
	Check string
}

func (c *SimpleController) RegisterRoutes(router gin.IRouter) {
	router.GET("/simple", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "simple")
	})
}

// DepService 模拟依赖服务
type DepService struct {
	Value string
}

// ControllerWithDep 构造函数注入
type ControllerWithDep struct {
	Svc *DepService
}

func NewControllerWithDep(svc *DepService) *ControllerWithDep {
	return &ControllerWithDep{Svc: svc}
}

func (c *ControllerWithDep) RegisterRoutes(router gin.IRouter) {
	router.GET("/dep", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, c.Svc.Value)
	})
}

// ControllerWithTag 字段注入
type ControllerWithTag struct {
	Svc *DepService `di:""`
}

func (c *ControllerWithTag) RegisterRoutes(router gin.IRouter) {
	router.GET("/tag", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "tag:"+c.Svc.Value)
	})
}

// RequestState 每个请求一个实例，请求结束时释放
type RequestState struct {
	id       int64
	disposed *atomic.Int64
}

func (s *RequestState) Dispose() error {
	s.disposed.Add(1)
	return nil
}

func newKernel(t *testing.T) *di.Kernel {
	t.Helper()
	settings := di.DefaultSettings()
	settings.CachePruningInterval = 0
	k, err := di.NewKernel(di.WithSettings(settings))
	require.NoError(t, err)
	require.NoError(t, di.Bind[*DepService](k, di.ToConstant(&DepService{Value: "injected-value"})))
	t.Cleanup(func() { _ = k.Dispose() })
	return k
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.ServeHTTP(w, req)
	return w
}

func TestWebModule_Controllers(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.Load(Configure(func(b *Builder) {
		b.AddControllers(NewControllerWithDep, &ControllerWithTag{}, &SimpleController{})
		b.Get("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	})))

	server, err := di.Get[*Server](k)
	require.NoError(t, err)
	hosted, err := di.GetAll[hosting.HostedService](k)
	require.NoError(t, err)
	require.Len(t, hosted, 1)
	assert.Same(t, server, hosted[0])

	engine, err := di.Get[*gin.Engine](k)
	require.NoError(t, err)
	assert.Same(t, engine, server.Handler())

	tests := []struct {
		path string
		body string
	}{
		{"/simple", "simple"},
		{"/dep", "injected-value"},
		{"/tag", "tag:injected-value"},
		{"/ping", "pong"},
	}
	for _, tt := range tests {
		w := get(t, server.Handler(), tt.path)
		assert.Equal(t, http.StatusOK, w.Code, tt.path)
		assert.Equal(t, tt.body, w.Body.String(), tt.path)
	}
}

// 测试请求作用域：同一请求内复用，请求结束释放
func TestWebModule_RequestScope(t *testing.T) {
	k := newKernel(t)
	var disposed, nextID atomic.Int64
	require.NoError(t, di.Bind[*RequestState](k, di.ToMethod(func(*di.Context) (any, error) {
		return &RequestState{id: nextID.Add(1), disposed: &disposed}, nil
	})))

	require.NoError(t, k.Load(Configure(func(b *Builder) {
		b.Get("/state", func(c *gin.Context) {
			first := MustResolve[*RequestState](c)
			second, err := Resolve[*RequestState](c)
			if err != nil || first != second {
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, gin.H{"id": first.id})
		})
		b.Get("/missing", func(c *gin.Context) {
			MustResolve[io.Reader](c)
		})
	})))
	server, err := di.Get[*Server](k)
	require.NoError(t, err)

	w := get(t, server.Handler(), "/state")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1}`, w.Body.String())
	w = get(t, server.Handler(), "/state")
	assert.JSONEq(t, `{"id":2}`, w.Body.String())
	assert.Equal(t, int64(2), disposed.Load())

	w = get(t, server.Handler(), "/missing")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestResolveWithoutScope(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, err := Resolve[*DepService](c)
	assert.ErrorIs(t, err, ErrNoRequestScope)
	_, ok := Block(c)
	assert.False(t, ok)
}

// 测试服务器作为托管服务运行
func TestWebModule_Hosted(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.Load(Configure(func(b *Builder) {
		b.UseAddr("127.0.0.1:0")
		b.AddControllers(&SimpleController{})
	})))
	server, err := di.Get[*Server](k)
	require.NoError(t, err)
	assert.Empty(t, server.Addr())

	host := hosting.NewHost(k)
	_, err = host.Start(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return server.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + server.Addr() + "/simple")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "simple", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, host.Stop(ctx))
	assert.True(t, k.IsDisposed())
}

func TestWebBuilder_Errors(t *testing.T) {
	k := newKernel(t)
	err := k.Load(Configure(func(b *Builder) {
		b.AddControllers(nil, "not a controller", func() int { return 0 })
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "controller is nil")
	assert.Contains(t, err.Error(), "does not implement Controller")
	assert.Contains(t, err.Error(), "does not return a Controller")
	assert.False(t, k.HasModule("web"))
}
