package di

import (
	"fmt"
	"time"

	"github.com/gocrud/inject/logging"
	"github.com/robfig/cron/v3"
)

// pruner 周期性清理已退出 goroutine 与已失效作用域的缓存条目
type pruner struct {
	kernel *Kernel
	cron   *cron.Cron
}

func newPruner(k *Kernel, interval time.Duration) (*pruner, error) {
	logger := logging.NewCronLogger(k.logger)
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	p := &pruner{kernel: k, cron: c}
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), p.run); err != nil {
		return nil, fmt.Errorf("di: schedule cache pruning: %w", err)
	}
	c.Start()
	return p, nil
}

func (p *pruner) run() {
	n, err := p.kernel.Prune()
	if err != nil {
		p.kernel.logger.Warn("deactivation failed during prune", logging.Field{Key: "error", Value: err})
	}
	if n > 0 {
		p.kernel.logger.Debug("cache pruned", logging.Field{Key: "released", Value: n})
	}
}

// Stop 停止调度并等待正在执行的清理完成
func (p *pruner) Stop() {
	<-p.cron.Stop().Done()
}
