package mongodb

import (
	"context"
	"fmt"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"github.com/gocrud/mgo"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Configure 返回绑定 MongoDB 客户端的内核模块。
// 客户端为命名单例，默认客户端权重更高；内核释放时断开连接。
func Configure(options func(*Builder)) di.Module {
	return di.NewModule("mongodb", func(m *di.ModuleKernel) error {
		builder := NewBuilder()
		if options != nil {
			options(builder)
		}
		configs, err := builder.Build()
		if err != nil {
			return err
		}

		logger := m.Kernel().Logger().WithCategory("mongodb")
		for _, opts := range configs {
			if err := bindClient(m, opts, logger); err != nil {
				return err
			}
		}
		return nil
	})
}

func bindClient(m *di.ModuleKernel, opts MongoOptions, logger logging.Logger) error {
	weight := 0
	if opts.Name == DefaultClientName {
		weight = 1
	}

	err := di.Bind[*mongo.Client](m,
		di.ToMethod(func(*di.Context) (any, error) {
			client, err := opts.connect()
			if err != nil {
				return nil, err
			}
			logger.Info("mongo client created", logging.F("name", opts.Name))
			return client, nil
		}),
		di.InSingletonScope(),
		di.Named(opts.Name),
		di.WithWeight(weight),
		di.OnDeactivation(func(_ *di.Context, instance any) error {
			ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
			defer cancel()
			if err := instance.(*mongo.Client).Disconnect(ctx); err != nil {
				return fmt.Errorf("failed to close mongo client '%s': %w", opts.Name, err)
			}
			logger.Info("mongo client closed", logging.F("name", opts.Name))
			return nil
		}),
	)
	if err != nil {
		return err
	}
	if err := bindMgoClient(m, opts, weight, logger); err != nil {
		return err
	}
	if opts.Database == "" {
		return nil
	}

	return di.Bind[*mongo.Database](m,
		di.ToMethod(func(ctx *di.Context) (any, error) {
			client, err := di.GetNamed[*mongo.Client](ctx.Kernel, opts.Name)
			if err != nil {
				return nil, err
			}
			return client.Database(opts.Database), nil
		}),
		di.InSingletonScope(),
		di.Named(opts.Name),
		di.WithWeight(weight),
	)
}

// bindMgoClient 绑定同名的 mgo 客户端，与原生驱动客户端并存。
func bindMgoClient(m *di.ModuleKernel, opts MongoOptions, weight int, logger logging.Logger) error {
	return di.Bind[*mgo.Client](m,
		di.ToMethod(func(*di.Context) (any, error) {
			client, err := opts.connectMgo()
			if err != nil {
				return nil, err
			}
			logger.Info("mgo client created", logging.F("name", opts.Name))
			return client, nil
		}),
		di.InSingletonScope(),
		di.Named(opts.Name),
		di.WithWeight(weight),
		di.OnDeactivation(func(_ *di.Context, instance any) error {
			ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
			defer cancel()
			if err := instance.(*mgo.Client).Disconnect(ctx); err != nil {
				return fmt.Errorf("failed to close mgo client '%s': %w", opts.Name, err)
			}
			return nil
		}),
	)
}
