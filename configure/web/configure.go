package web

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/hosting"
)

// Configure 返回 Web 模块。
// 模块绑定 *gin.Engine、全部 Controller，以及作为 hosting.HostedService 的 *Server。
// 每个请求在独立的激活块中解析服务，见 Resolve。
func Configure(options func(*Builder)) di.Module {
	return di.NewModule("web", func(m *di.ModuleKernel) error {
		builder := NewBuilder(m.Kernel())
		if options != nil {
			options(builder)
		}
		if len(builder.errors) > 0 {
			return fmt.Errorf("web configuration errors: %w", errors.Join(builder.errors...))
		}

		for _, c := range builder.controllers {
			var opt di.BindingOption
			if reflect.TypeOf(c).Kind() == reflect.Func {
				opt = di.ToConstructor(c)
			} else {
				opt = di.ToConstant(c)
			}
			if err := di.Bind[Controller](m, opt, di.InSingletonScope()); err != nil {
				return err
			}
		}

		engine := builder.engine
		if err := di.Bind[*gin.Engine](m, di.ToConstant(engine)); err != nil {
			return err
		}

		logger := m.Kernel().Logger().WithCategory("web")
		return m.BindAll(
			[]reflect.Type{di.TypeOf[*Server](), di.TypeOf[hosting.HostedService]()},
			di.ToMethod(func(ctx *di.Context) (any, error) {
				controllers, err := di.GetAll[Controller](ctx.Kernel)
				if err != nil {
					return nil, fmt.Errorf("failed to resolve controllers: %w", err)
				}
				for _, c := range controllers {
					c.RegisterRoutes(engine)
				}
				return newServer(builder.addr, engine, logger), nil
			}),
			di.InSingletonScope(),
		)
	})
}
