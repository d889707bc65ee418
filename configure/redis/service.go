package redis

import (
	"fmt"
	"sort"
	"time"

	"github.com/gocrud/inject/di"
	"github.com/redis/go-redis/v9"
)

// DefaultClientName 默认客户端名称，未指定名称的请求优先得到它
const DefaultClientName = "default"

// RedisClientOptions Redis 客户端配置选项
type RedisClientOptions struct {
	Name         string        `yaml:"name"`         // 客户端名称
	Addr         string        `yaml:"addr"`         // Redis 服务器地址 (host:port)
	Password     string        `yaml:"password"`     // 密码（可选）
	DB           int           `yaml:"db"`           // 数据库编号
	DialTimeout  time.Duration `yaml:"dialTimeout"`  // 连接超时时间
	ReadTimeout  time.Duration `yaml:"readTimeout"`  // 读取超时时间
	WriteTimeout time.Duration `yaml:"writeTimeout"` // 写入超时时间
	PoolSize     int           `yaml:"poolSize"`     // 连接池大小
	MinIdleConns int           `yaml:"minIdleConns"` // 最小空闲连接数
	MaxRetries   int           `yaml:"maxRetries"`   // 最大重试次数
	PingOnStart  bool          `yaml:"pingOnStart"`  // 激活时 Ping 一次，失败则激活失败
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *RedisClientOptions {
	return &RedisClientOptions{
		Name:         name,
		Addr:         "localhost:6379",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	}
}

// Validate 验证配置
func (o *RedisClientOptions) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("redis client name is required")
	}
	if o.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if o.DB < 0 {
		return fmt.Errorf("redis database number must be non-negative")
	}
	if o.DialTimeout <= 0 {
		return fmt.Errorf("redis dial timeout must be positive")
	}
	return nil
}

func (o *RedisClientOptions) clientOptions() *redis.Options {
	return &redis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  o.DialTimeout,
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
		PoolSize:     o.PoolSize,
		MinIdleConns: o.MinIdleConns,
		MaxRetries:   o.MaxRetries,
	}
}

// RedisClientFactory 按名称从内核解析 Redis 客户端
type RedisClientFactory struct {
	root  di.ResolutionRoot
	names []string
}

// Get 获取指定名称的 Redis 客户端，首次获取时才创建
func (f *RedisClientFactory) Get(name string) (*redis.Client, error) {
	client, err := di.GetNamed[*redis.Client](f.root, name)
	if err != nil {
		return nil, fmt.Errorf("redis client '%s' not found: %w", name, err)
	}
	return client, nil
}

// Names 已配置的客户端名称
func (f *RedisClientFactory) Names() []string {
	names := append([]string(nil), f.names...)
	sort.Strings(names)
	return names
}
