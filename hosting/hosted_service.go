package hosting

import (
	"context"
	"sync"
	"time"

	"github.com/gocrud/inject/logging"
)

// HostedService 托管服务接口（类似于 .NET Core IHostedService）
type HostedService interface {
	// Start 启动服务，阻塞直到 ctx 被取消或发生错误。Host 在独立的 goroutine 中调用。
	Start(ctx context.Context) error

	// Stop 执行优雅关闭逻辑，ctx 限定关闭时限
	Stop(ctx context.Context) error
}

// BackgroundService 后台服务基类，Start 阻塞到 Stop 或 ctx 取消
type BackgroundService struct {
	name   string
	logger logging.Logger

	stopOnce sync.Once
	doneOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewBackgroundService 创建后台服务
func NewBackgroundService(name string, logger logging.Logger) *BackgroundService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &BackgroundService{
		name:   name,
		logger: logger.WithFields(logging.F("service", name)),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Name 服务名称
func (s *BackgroundService) Name() string { return s.name }

// Start 启动后台服务
func (s *BackgroundService) Start(ctx context.Context) error {
	defer s.Done()
	s.logger.Info("background service starting")

	select {
	case <-s.stopCh:
		s.logger.Info("background service stopped by signal")
	case <-ctx.Done():
		s.logger.Info("background service context cancelled")
	}
	return nil
}

// Stop 发出停止信号并等待 Start 返回
func (s *BackgroundService) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })

	select {
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		s.logger.Warn("background service stop timeout")
		return ctx.Err()
	}
}

// ShouldStop 是否已收到停止信号
func (s *BackgroundService) ShouldStop() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// StopChan 返回停止通道，用于在 select 中监听
func (s *BackgroundService) StopChan() <-chan struct{} {
	return s.stopCh
}

// Done 标记服务完成
func (s *BackgroundService) Done() {
	s.doneOnce.Do(func() { close(s.doneCh) })
}

// TimedHostedService 按固定周期执行任务的托管服务
type TimedHostedService struct {
	*BackgroundService
	interval time.Duration
	task     func(ctx context.Context) error
}

// NewTimedHostedService 创建定时托管服务
func NewTimedHostedService(name string, interval time.Duration, task func(ctx context.Context) error, logger logging.Logger) *TimedHostedService {
	return &TimedHostedService{
		BackgroundService: NewBackgroundService(name, logger),
		interval:          interval,
		task:              task,
	}
}

// Start 周期执行任务，任务失败只记录日志
func (s *TimedHostedService) Start(ctx context.Context) error {
	defer s.Done()
	s.logger.Info("timed service running", logging.F("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.task(ctx); err != nil {
				s.logger.Error("timed service task failed", logging.Err(err))
			}
		case <-s.stopCh:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
