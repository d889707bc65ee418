package etcd

import (
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// DefaultClientName 默认客户端名称
const DefaultClientName = "default"

// EtcdClientOptions etcd 客户端配置选项
type EtcdClientOptions struct {
	Name               string        `yaml:"name"`               // 客户端名称
	Endpoints          []string      `yaml:"endpoints"`          // etcd 服务器地址列表
	DialTimeout        time.Duration `yaml:"dialTimeout"`        // 连接超时时间
	Username           string        `yaml:"username"`           // 用户名（可选）
	Password           string        `yaml:"password"`           // 密码（可选）
	AutoSyncInterval   time.Duration `yaml:"autoSyncInterval"`   // 自动同步间隔（可选）
	MaxCallSendMsgSize int           `yaml:"maxCallSendMsgSize"` // 最大发送消息大小（可选）
	MaxCallRecvMsgSize int           `yaml:"maxCallRecvMsgSize"` // 最大接收消息大小（可选）
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *EtcdClientOptions {
	return &EtcdClientOptions{
		Name:        name,
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: 5 * time.Second,
	}
}

// Validate 验证配置
func (o *EtcdClientOptions) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("etcd client name is required")
	}
	if len(o.Endpoints) == 0 {
		return fmt.Errorf("etcd endpoints are required")
	}
	if o.DialTimeout <= 0 {
		return fmt.Errorf("etcd dial timeout must be positive")
	}
	return nil
}

func (o *EtcdClientOptions) clientConfig() clientv3.Config {
	return clientv3.Config{
		Endpoints:          o.Endpoints,
		DialTimeout:        o.DialTimeout,
		Username:           o.Username,
		Password:           o.Password,
		AutoSyncInterval:   o.AutoSyncInterval,
		MaxCallSendMsgSize: o.MaxCallSendMsgSize,
		MaxCallRecvMsgSize: o.MaxCallRecvMsgSize,
	}
}
