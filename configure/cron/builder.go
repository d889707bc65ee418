package cron

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Builder Cron 配置构建器
type Builder struct {
	enableSeconds    bool
	enableCronLogger bool
	location         string
	stopTimeout      time.Duration
	jobs             []jobDefinition
}

// jobDefinition 任务定义
type jobDefinition struct {
	spec    string
	name    string
	handler any // func() 或参数由内核解析的函数
}

// NewBuilder 创建 Cron 构建器
func NewBuilder() *Builder {
	return &Builder{
		location:    "UTC",
		stopTimeout: 30 * time.Second,
	}
}

// WithSeconds 启用秒级精度
func (b *Builder) WithSeconds() *Builder {
	b.enableSeconds = true
	return b
}

// WithLocation 设置时区
func (b *Builder) WithLocation(location string) *Builder {
	b.location = location
	return b
}

// WithStopTimeout 设置停止时等待运行中任务的时限
func (b *Builder) WithStopTimeout(d time.Duration) *Builder {
	b.stopTimeout = d
	return b
}

// EnableCronLogger 启用 cron 库的内部调度日志
func (b *Builder) EnableCronLogger() *Builder {
	b.enableCronLogger = true
	return b
}

// AddJob 添加简单任务（无依赖注入）
func (b *Builder) AddJob(spec, name string, handler func()) *Builder {
	b.jobs = append(b.jobs, jobDefinition{spec: spec, name: name, handler: handler})
	return b
}

// AddJobWithDI 添加带依赖注入的任务，参数在每次运行时从内核解析
//
// 示例：
//
//	builder.AddJobWithDI("*/5 * * * *", "sync-data", func(svc *DataService, logger logging.Logger) error {
//	    return svc.Sync()
//	})
func (b *Builder) AddJobWithDI(spec, name string, handler any) *Builder {
	b.jobs = append(b.jobs, jobDefinition{spec: spec, name: name, handler: handler})
	return b
}

func (b *Builder) parser() cron.Parser {
	if b.enableSeconds {
		return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	}
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// validate 在模块加载时检查表达式、名称与处理器签名
func (b *Builder) validate() error {
	var errs []error
	if _, err := time.LoadLocation(b.location); err != nil {
		errs = append(errs, fmt.Errorf("invalid cron location '%s': %w", b.location, err))
	}
	if b.stopTimeout <= 0 {
		errs = append(errs, errors.New("cron stop timeout must be positive"))
	}

	parser := b.parser()
	seen := make(map[string]bool, len(b.jobs))
	for _, job := range b.jobs {
		if job.name == "" {
			errs = append(errs, errors.New("cron job name is required"))
			continue
		}
		if seen[job.name] {
			errs = append(errs, fmt.Errorf("cron job '%s' already registered", job.name))
		}
		seen[job.name] = true
		if _, err := parser.Parse(job.spec); err != nil {
			errs = append(errs, fmt.Errorf("cron job '%s': invalid spec '%s': %w", job.name, job.spec, err))
		}
		if err := validateHandler(job.handler); err != nil {
			errs = append(errs, fmt.Errorf("cron job '%s': %w", job.name, err))
		}
	}
	return errors.Join(errs...)
}
