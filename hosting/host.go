package hosting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"go.uber.org/multierr"
)

// ErrAlreadyStarted Host 只能启动一次
var ErrAlreadyStarted = errors.New("hosting: host already started")

// Host 运行内核中绑定的全部 HostedService，关闭时逆序停止并释放内核
type Host struct {
	kernel          *di.Kernel
	logger          logging.Logger
	shutdownTimeout time.Duration

	mu       sync.Mutex
	services []HostedService
	started  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// HostOption Host 选项
type HostOption func(*Host)

// WithLogger 设置日志记录器，默认使用内核的日志记录器
func WithLogger(logger logging.Logger) HostOption {
	return func(h *Host) { h.logger = logger }
}

// WithShutdownTimeout 设置 Run 的关闭时限，默认 5 秒
func WithShutdownTimeout(d time.Duration) HostOption {
	return func(h *Host) { h.shutdownTimeout = d }
}

// NewHost 创建 Host
func NewHost(kernel *di.Kernel, opts ...HostOption) *Host {
	h := &Host{
		kernel:          kernel,
		logger:          kernel.Logger(),
		shutdownTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithCategory("hosting")
	return h
}

// Kernel 返回 Host 使用的内核
func (h *Host) Kernel() *di.Kernel { return h.kernel }

// Start 解析全部 HostedService，每个服务在独立的 goroutine 中运行。
// 返回的通道接收服务的非取消类错误。
func (h *Host) Start(ctx context.Context) (<-chan error, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return nil, ErrAlreadyStarted
	}

	services, err := di.GetAll[HostedService](h.kernel)
	if err != nil {
		return nil, fmt.Errorf("hosting: resolve hosted services: %w", err)
	}
	h.services = services
	h.started = true

	runCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	errCh := make(chan error, len(services))

	h.logger.Info("starting hosted services", logging.F("count", len(services)))
	for i, svc := range services {
		h.wg.Add(1)
		go func(index int, svc HostedService) {
			defer h.wg.Done()
			err := svc.Start(runCtx)
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				h.logger.Debug("hosted service returned", logging.F("index", index))
				return
			}
			h.logger.Error("hosted service failed", logging.F("index", index), logging.Err(err))
			errCh <- err
		}(i, svc)
	}
	return errCh, nil
}

// Stop 逆序停止服务，等待 Start 返回后释放内核，错误合并返回
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	services := h.services
	cancel := h.cancel
	h.services = nil
	h.mu.Unlock()

	var err error
	for i := len(services) - 1; i >= 0; i-- {
		if stopErr := services[i].Stop(ctx); stopErr != nil {
			h.logger.Error("failed to stop hosted service", logging.F("index", i), logging.Err(stopErr))
			err = multierr.Append(err, fmt.Errorf("hosting: stop service %d: %w", i, stopErr))
		}
	}
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		err = multierr.Append(err, fmt.Errorf("hosting: waiting for services: %w", ctx.Err()))
	}

	err = multierr.Append(err, h.kernel.Dispose())
	h.logger.Info("host stopped")
	return err
}

// Run 启动服务并阻塞，直到 ctx 取消、收到退出信号或某个服务失败，然后优雅关闭
func (h *Host) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh, err := h.Start(ctx)
	if err != nil {
		return multierr.Append(err, h.kernel.Dispose())
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	return multierr.Append(runErr, h.Stop(shutdownCtx))
}
