package database

import (
	"fmt"
	"sort"
	"time"

	"github.com/gocrud/inject/di"
	"gorm.io/gorm"
)

// DefaultDatabaseName 默认数据库名称
const DefaultDatabaseName = "default"

// DatabaseOptions 数据库配置选项
type DatabaseOptions struct {
	Name         string
	Dialector    gorm.Dialector
	GormConfig   *gorm.Config
	MaxIdleConns int
	MaxOpenConns int
	MaxLifetime  time.Duration
	AutoMigrate  []any // 激活时自动迁移的模型
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string, dialector gorm.Dialector) *DatabaseOptions {
	return &DatabaseOptions{
		Name:         name,
		Dialector:    dialector,
		GormConfig:   &gorm.Config{},
		MaxIdleConns: 10,
		MaxOpenConns: 100,
		MaxLifetime:  time.Hour,
	}
}

// Validate 验证配置
func (o *DatabaseOptions) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if o.Dialector == nil {
		return fmt.Errorf("database dialector is required")
	}
	return nil
}

// open 打开连接并配置连接池
func (o *DatabaseOptions) open() (*gorm.DB, error) {
	config := o.GormConfig
	if config == nil {
		config = &gorm.Config{}
	}
	db, err := gorm.Open(o.Dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open database '%s': %w", o.Name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB for '%s': %w", o.Name, err)
	}
	sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(o.MaxLifetime)
	return db, nil
}

// DatabaseFactory 按名称从内核解析数据库实例
type DatabaseFactory struct {
	root  di.ResolutionRoot
	names []string
}

// Get 获取指定名称的数据库实例
func (f *DatabaseFactory) Get(name string) (*gorm.DB, error) {
	db, err := di.GetNamed[*gorm.DB](f.root, name)
	if err != nil {
		return nil, fmt.Errorf("database '%s' not found: %w", name, err)
	}
	return db, nil
}

// Each 依名称顺序遍历全部数据库实例，尚未创建的实例会被创建
func (f *DatabaseFactory) Each(fn func(name string, db *gorm.DB)) error {
	names := append([]string(nil), f.names...)
	sort.Strings(names)
	for _, name := range names {
		db, err := f.Get(name)
		if err != nil {
			return err
		}
		fn(name, db)
	}
	return nil
}
