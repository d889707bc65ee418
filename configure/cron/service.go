package cron

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"github.com/robfig/cron/v3"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Scheduler 定时任务调度器。
// 实现 di.Startable：激活时启动，内核释放时等待正在运行的任务结束后停止。
type Scheduler struct {
	cron        *cron.Cron
	kernel      *di.Kernel
	logger      logging.Logger
	stopTimeout time.Duration

	mu   sync.RWMutex
	jobs map[string]cron.EntryID
}

func newScheduler(kernel *di.Kernel, logger logging.Logger, b *Builder) (*Scheduler, error) {
	loc, err := time.LoadLocation(b.location)
	if err != nil {
		return nil, fmt.Errorf("invalid cron location '%s': %w", b.location, err)
	}

	cronLogger := logging.NewCronLogger(logger)
	cronOpts := []cron.Option{
		cron.WithLocation(loc),
		cron.WithParser(b.parser()),
		cron.WithChain(cron.Recover(cronLogger)),
	}
	if b.enableCronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(cronLogger))
	}

	return &Scheduler{
		cron:        cron.New(cronOpts...),
		kernel:      kernel,
		logger:      logger,
		stopTimeout: b.stopTimeout,
		jobs:        make(map[string]cron.EntryID),
	}, nil
}

// AddFunc 添加简单任务
func (s *Scheduler) AddFunc(spec, name string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("cron job '%s' already registered", name)
	}
	entryID, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug("cron job started", logging.F("job", name))
		defer s.logger.Debug("cron job completed", logging.F("job", name))
		job()
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job '%s': %w", name, err)
	}

	s.jobs[name] = entryID
	s.logger.Info("cron job registered", logging.F("job", name), logging.F("spec", spec))
	return nil
}

// AddJob 添加依赖注入任务，handler 的参数在每次运行时从新的激活块解析，运行结束后释放
func (s *Scheduler) AddJob(spec, name string, handler any) error {
	fn, err := s.wrapHandler(name, handler)
	if err != nil {
		return err
	}
	return s.AddFunc(spec, name, fn)
}

// wrapHandler 包装处理器，注入依赖
func (s *Scheduler) wrapHandler(name string, handler any) (func(), error) {
	if err := validateHandler(handler); err != nil {
		return nil, fmt.Errorf("cron job '%s': %w", name, err)
	}
	handlerValue := reflect.ValueOf(handler)
	handlerType := handlerValue.Type()

	return func() {
		block := s.kernel.BeginBlock()
		defer func() {
			if err := block.Dispose(); err != nil {
				s.logger.Warn("cron job cleanup failed", logging.F("job", name), logging.Err(err))
			}
		}()

		args := make([]reflect.Value, handlerType.NumIn())
		for i := range args {
			paramType := handlerType.In(i)
			req := block.CreateRequest(paramType, nil, nil, false, true)
			results, err := block.Resolve(req)
			if err != nil {
				s.logger.Error("failed to resolve cron job parameter",
					logging.F("job", name), logging.F("index", i), logging.Err(err))
				return
			}
			args[i] = reflect.New(paramType).Elem()
			if len(results) > 0 && results[0] != nil {
				args[i].Set(reflect.ValueOf(results[0]))
			}
		}

		out := handlerValue.Call(args)
		if len(out) == 1 && !out[0].IsNil() {
			s.logger.Error("cron job failed", logging.F("job", name), logging.Err(out[0].Interface().(error)))
		}
	}, nil
}

func validateHandler(handler any) error {
	if handler == nil {
		return errors.New("handler is nil")
	}
	t := reflect.TypeOf(handler)
	if t.Kind() != reflect.Func {
		return fmt.Errorf("handler must be a function, got %v", t.Kind())
	}
	if t.IsVariadic() {
		return errors.New("handler must not be variadic")
	}
	switch {
	case t.NumOut() == 0:
	case t.NumOut() == 1 && t.Out(0) == errorType:
	default:
		return errors.New("handler must return nothing or error")
	}
	return nil
}

// Remove 移除定时任务
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, exists := s.jobs[name]
	if !exists {
		return false
	}
	s.cron.Remove(entryID)
	delete(s.jobs, name)
	s.logger.Info("cron job removed", logging.F("job", name))
	return true
}

// Jobs 已注册的任务名称
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entry 返回任务的调度条目，可用于查看下次运行时间
func (s *Scheduler) Entry(name string) (cron.Entry, bool) {
	s.mu.RLock()
	entryID, exists := s.jobs[name]
	s.mu.RUnlock()
	if !exists {
		return cron.Entry{}, false
	}
	entry := s.cron.Entry(entryID)
	return entry, entry.Valid()
}

// Trigger 在当前 goroutine 立即运行一次任务
func (s *Scheduler) Trigger(name string) error {
	entry, ok := s.Entry(name)
	if !ok {
		return fmt.Errorf("cron job '%s' not found", name)
	}
	entry.WrappedJob.Run()
	return nil
}

// Start 启动调度
func (s *Scheduler) Start() error {
	s.logger.Info("cron scheduler starting", logging.F("jobs", len(s.Jobs())))
	s.cron.Start()
	return nil
}

// Stop 停止调度并等待正在运行的任务完成
func (s *Scheduler) Stop() error {
	stopCtx := s.cron.Stop()

	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("cron scheduler stopped")
		return nil
	case <-timer.C:
		return fmt.Errorf("cron scheduler stop timeout after %v", s.stopTimeout)
	}
}
