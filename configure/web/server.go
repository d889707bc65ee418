package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/logging"
)

// Server Web 服务器，实现 hosting.HostedService
type Server struct {
	engine *gin.Engine
	server *http.Server
	logger logging.Logger

	mu       sync.Mutex
	listener net.Listener
}

func newServer(addr string, engine *gin.Engine, logger logging.Logger) *Server {
	return &Server{
		engine: engine,
		server: &http.Server{Addr: addr, Handler: engine},
		logger: logger,
	}
}

// Handler 返回 HTTP 处理器
func (s *Server) Handler() http.Handler { return s.engine }

// Addr 返回实际监听地址，未启动时为空
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start 监听并服务，阻塞到 ctx 取消或服务器出错
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.logger.Info("web server started", logging.F("address", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("web server error", logging.Err(err))
		}
		return err
	case <-ctx.Done():
		return nil
	}
}

// Stop 优雅关闭
func (s *Server) Stop(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("failed to shutdown web server gracefully", logging.Err(err))
		return err
	}
	s.logger.Info("web server stopped")
	return nil
}
