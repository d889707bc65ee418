package etcd

import (
	"fmt"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Configure 返回绑定 etcd 客户端的内核模块。
// 客户端为命名单例，首次解析时创建；客户端实现 io.Closer，内核释放时关闭。
func Configure(options func(*Builder)) di.Module {
	return di.NewModule("etcd", func(m *di.ModuleKernel) error {
		builder := NewBuilder()
		if options != nil {
			options(builder)
		}
		configs, err := builder.Build()
		if err != nil {
			return err
		}

		logger := m.Kernel().Logger().WithCategory("etcd")
		for _, opts := range configs {
			weight := 0
			if opts.Name == DefaultClientName {
				weight = 1
			}
			err := di.Bind[*clientv3.Client](m,
				di.ToMethod(func(*di.Context) (any, error) {
					client, err := clientv3.New(opts.clientConfig())
					if err != nil {
						return nil, fmt.Errorf("failed to create etcd client '%s': %w", opts.Name, err)
					}
					logger.Info("etcd client created",
						logging.F("name", opts.Name),
						logging.F("endpoints", fmt.Sprintf("%v", opts.Endpoints)))
					return client, nil
				}),
				di.InSingletonScope(),
				di.Named(opts.Name),
				di.WithWeight(weight),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
