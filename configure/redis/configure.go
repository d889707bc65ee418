package redis

import (
	"context"
	"fmt"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"github.com/redis/go-redis/v9"
)

// Configure 返回绑定 Redis 客户端的内核模块。
// 每个客户端绑定为命名单例，首次解析时创建，内核释放时关闭。
//
//	k.Load(redis.Configure(func(b *redis.Builder) { b.AddClient("cache", nil) }))
func Configure(options func(*Builder)) di.Module {
	return di.NewModule("redis", func(m *di.ModuleKernel) error {
		builder := NewBuilder()
		if options != nil {
			options(builder)
		}
		configs, err := builder.Build()
		if err != nil {
			return err
		}

		logger := m.Kernel().Logger().WithCategory("redis")
		names := make([]string, 0, len(configs))
		for _, opts := range configs {
			if err := bindClient(m, opts, logger); err != nil {
				return fmt.Errorf("failed to register redis client '%s': %w", opts.Name, err)
			}
			names = append(names, opts.Name)
		}

		return di.Bind[*RedisClientFactory](m, di.ToMethod(func(ctx *di.Context) (any, error) {
			return &RedisClientFactory{root: ctx.Kernel, names: names}, nil
		}), di.InSingletonScope())
	})
}

func bindClient(m *di.ModuleKernel, opts RedisClientOptions, logger logging.Logger) error {
	bindOpts := []di.BindingOption{
		di.ToMethod(func(*di.Context) (any, error) {
			return redis.NewClient(opts.clientOptions()), nil
		}),
		di.InSingletonScope(),
		di.Named(opts.Name),
		di.OnActivation(func(_ *di.Context, instance any) error {
			logger.Info("redis client created",
				logging.F("name", opts.Name),
				logging.F("addr", opts.Addr),
				logging.F("db", opts.DB))
			if !opts.PingOnStart {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
			defer cancel()
			client := instance.(*redis.Client)
			if err := client.Ping(ctx).Err(); err != nil {
				_ = client.Close()
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			return nil
		}),
	}
	if opts.Name == DefaultClientName {
		bindOpts = append(bindOpts, di.WithWeight(1))
	}
	return di.Bind[*redis.Client](m, bindOpts...)
}
