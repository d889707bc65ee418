package cron

import (
	"fmt"

	"github.com/gocrud/inject/di"
)

// Configure 返回绑定 *Scheduler 的内核模块。
// 调度器为单例，首次解析（或 Kernel.Build）时注册任务并启动。
func Configure(options func(*Builder)) di.Module {
	return di.NewModule("cron", func(m *di.ModuleKernel) error {
		builder := NewBuilder()
		if options != nil {
			options(builder)
		}
		if err := builder.validate(); err != nil {
			return err
		}

		logger := m.Kernel().Logger().WithCategory("cron")
		return di.Bind[*Scheduler](m, di.ToMethod(func(ctx *di.Context) (any, error) {
			s, err := newScheduler(ctx.Kernel, logger, builder)
			if err != nil {
				return nil, err
			}
			for _, job := range builder.jobs {
				if fn, ok := job.handler.(func()); ok {
					err = s.AddFunc(job.spec, job.name, fn)
				} else {
					err = s.AddJob(job.spec, job.name, job.handler)
				}
				if err != nil {
					return nil, fmt.Errorf("failed to add job '%s': %w", job.name, err)
				}
			}
			return s, nil
		}), di.InSingletonScope())
	})
}
