package web

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/di"
)

// Controller 控制器在服务器构建时注册自己的路由
type Controller interface {
	RegisterRoutes(router gin.IRouter)
}

// Builder Web 服务器构建器（基于 Gin）
type Builder struct {
	addr        string
	engine      *gin.Engine
	controllers []any
	errors      []error
}

// NewBuilder 创建 Web 构建器。kernel 非空时所有路由都经过 RequestScope 中间件。
func NewBuilder(kernel *di.Kernel) *Builder {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	if kernel != nil {
		engine.Use(RequestScope(kernel, kernel.Logger().WithCategory("web")))
	}

	return &Builder{
		addr:   ":8080",
		engine: engine,
	}
}

// UsePort 设置端口，0 表示由系统分配
func (b *Builder) UsePort(port int) *Builder {
	b.addr = fmt.Sprintf(":%d", port)
	return b
}

// UseAddr 设置监听地址
func (b *Builder) UseAddr(addr string) *Builder {
	b.addr = addr
	return b
}

// AddControllers 添加控制器。
// 可以是构造函数 func(deps...) *T（参数由内核解析），也可以是控制器实例指针（di 标签字段会被注入）。
func (b *Builder) AddControllers(controllers ...any) *Builder {
	controllerType := reflect.TypeOf((*Controller)(nil)).Elem()
	for _, c := range controllers {
		t := reflect.TypeOf(c)
		switch {
		case t == nil:
			b.errors = append(b.errors, fmt.Errorf("controller is nil"))
		case t.Kind() == reflect.Func:
			if t.NumOut() == 0 || !t.Out(0).Implements(controllerType) {
				b.errors = append(b.errors, fmt.Errorf("constructor %v does not return a Controller", t))
				continue
			}
			b.controllers = append(b.controllers, c)
		case t.Implements(controllerType):
			b.controllers = append(b.controllers, c)
		default:
			b.errors = append(b.errors, fmt.Errorf("%v does not implement Controller", t))
		}
	}
	return b
}

// Get 注册 GET 路由
func (b *Builder) Get(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.GET(path, handlers...)
	return b
}

// Post 注册 POST 路由
func (b *Builder) Post(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.POST(path, handlers...)
	return b
}

// Put 注册 PUT 路由
func (b *Builder) Put(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.PUT(path, handlers...)
	return b
}

// Delete 注册 DELETE 路由
func (b *Builder) Delete(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.DELETE(path, handlers...)
	return b
}

// Patch 注册 PATCH 路由
func (b *Builder) Patch(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.PATCH(path, handlers...)
	return b
}

// Any 注册任意方法路由
func (b *Builder) Any(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.Any(path, handlers...)
	return b
}

// Group 创建路由组
func (b *Builder) Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return b.engine.Group(relativePath, handlers...)
}

// Use 使用全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.engine.Use(middleware...)
	return b
}

// Static 服务静态文件
func (b *Builder) Static(relativePath, root string) *Builder {
	b.engine.Static(relativePath, root)
	return b
}

// StaticFS 服务静态文件系统
func (b *Builder) StaticFS(relativePath string, fs http.FileSystem) *Builder {
	b.engine.StaticFS(relativePath, fs)
	return b
}

// NoRoute 处理 404
func (b *Builder) NoRoute(handlers ...gin.HandlerFunc) *Builder {
	b.engine.NoRoute(handlers...)
	return b
}

// Engine 获取 Gin 引擎（用于高级定制）
func (b *Builder) Engine() *gin.Engine {
	return b.engine
}
