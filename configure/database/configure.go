package database

import (
	"fmt"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"gorm.io/gorm"
)

// Configure 返回绑定 *gorm.DB 的内核模块。
// 实例为命名单例，激活时执行自动迁移，反激活时关闭连接池。
func Configure(options func(*Builder)) di.Module {
	return di.NewModule("database", func(m *di.ModuleKernel) error {
		builder := NewBuilder()
		if options != nil {
			options(builder)
		}
		configs, err := builder.Build()
		if err != nil {
			return err
		}

		logger := m.Kernel().Logger().WithCategory("database")
		names := make([]string, 0, len(configs))
		for _, opts := range configs {
			if err := bindDatabase(m, opts, logger); err != nil {
				return err
			}
			names = append(names, opts.Name)
		}

		return di.Bind[*DatabaseFactory](m, di.ToMethod(func(ctx *di.Context) (any, error) {
			return &DatabaseFactory{root: ctx.Kernel, names: names}, nil
		}), di.InSingletonScope())
	})
}

func bindDatabase(m *di.ModuleKernel, opts DatabaseOptions, logger logging.Logger) error {
	weight := 0
	if opts.Name == DefaultDatabaseName {
		weight = 1
	}

	return di.Bind[*gorm.DB](m,
		di.ToMethod(func(*di.Context) (any, error) {
			return opts.open()
		}),
		di.InSingletonScope(),
		di.Named(opts.Name),
		di.WithWeight(weight),
		di.OnActivation(func(_ *di.Context, instance any) error {
			db := instance.(*gorm.DB)
			if len(opts.AutoMigrate) > 0 {
				if err := db.AutoMigrate(opts.AutoMigrate...); err != nil {
					return fmt.Errorf("auto migrate failed for '%s': %w", opts.Name, err)
				}
			}
			logger.Info("database opened",
				logging.F("name", opts.Name),
				logging.F("dialector", opts.Dialector.Name()),
				logging.F("migrated", len(opts.AutoMigrate)))
			return nil
		}),
		di.OnDeactivation(func(_ *di.Context, instance any) error {
			sqlDB, err := instance.(*gorm.DB).DB()
			if err != nil {
				return fmt.Errorf("failed to get sql.DB for '%s': %w", opts.Name, err)
			}
			if err := sqlDB.Close(); err != nil {
				return fmt.Errorf("failed to close database '%s': %w", opts.Name, err)
			}
			logger.Info("database closed", logging.F("name", opts.Name))
			return nil
		}),
	)
}
