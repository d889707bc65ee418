package web

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
)

const blockKey = "di.activationBlock"

// ErrNoRequestScope 请求没有经过 RequestScope 中间件
var ErrNoRequestScope = errors.New("web: request has no activation block")

// RequestScope 为每个请求开启一个激活块，请求结束后释放块内的实例
func RequestScope(kernel *di.Kernel, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		block := kernel.BeginBlock()
		c.Set(blockKey, block)
		defer func() {
			if err := block.Dispose(); err != nil {
				logger.Warn("request scope cleanup failed",
					logging.F("path", c.FullPath()), logging.Err(err))
			}
		}()
		c.Next()
	}
}

// Block 返回请求的激活块
func Block(c *gin.Context) (*di.ActivationBlock, bool) {
	v, ok := c.Get(blockKey)
	if !ok {
		return nil, false
	}
	block, ok := v.(*di.ActivationBlock)
	return block, ok
}

// Resolve 在请求的激活块内解析 T，同一请求内的实例被复用
func Resolve[T any](c *gin.Context) (T, error) {
	block, ok := Block(c)
	if !ok {
		var zero T
		return zero, ErrNoRequestScope
	}
	return di.Get[T](block)
}

// MustResolve 解析失败时 panic，由 gin.Recovery 转为 500
func MustResolve[T any](c *gin.Context) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(fmt.Errorf("web: resolve %v: %w", di.TypeOf[T](), err))
	}
	return v
}
