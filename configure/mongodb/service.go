package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/gocrud/mgo"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultClientName 默认客户端名称
const DefaultClientName = "default"

// MongoOptions MongoDB 客户端配置选项
type MongoOptions struct {
	Name        string        `yaml:"name"`
	Uri         string        `yaml:"uri"`
	Database    string        `yaml:"database"` // 非空时同时绑定同名的 *mongo.Database
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	MaxPoolSize uint64        `yaml:"maxPoolSize"`
	MinPoolSize uint64        `yaml:"minPoolSize"`
	Timeout     time.Duration `yaml:"timeout"`
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string, uri string) *MongoOptions {
	return &MongoOptions{
		Name:        name,
		Uri:         uri,
		MaxPoolSize: 100,
		Timeout:     10 * time.Second,
	}
}

// Validate 验证配置
func (o *MongoOptions) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("mongo client name is required")
	}
	if o.Uri == "" {
		return fmt.Errorf("mongo uri is required")
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("mongo timeout must be positive")
	}
	if o.MinPoolSize > o.MaxPoolSize && o.MaxPoolSize > 0 {
		return fmt.Errorf("mongo min pool size exceeds max pool size")
	}
	return nil
}

func (o *MongoOptions) clientOptions() *options.ClientOptions {
	clientOpts := options.Client().ApplyURI(o.Uri)
	if o.Username != "" || o.Password != "" {
		clientOpts.SetAuth(options.Credential{
			Username: o.Username,
			Password: o.Password,
		})
	}
	if o.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(o.MinPoolSize)
	}
	if o.Timeout > 0 {
		clientOpts.SetConnectTimeout(o.Timeout)
		clientOpts.SetServerSelectionTimeout(o.Timeout)
	}
	return clientOpts
}

// connect 创建客户端。驱动在后台建立连接，这里不访问服务器。
func (o *MongoOptions) connect() (*mongo.Client, error) {
	client, err := mongo.Connect(o.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client '%s': %w", o.Name, err)
	}
	return client, nil
}

func (o *MongoOptions) connectMgo() (*mgo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), o.Timeout)
	defer cancel()
	client, err := mgo.NewClient(ctx, o.Uri, o.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create mgo client '%s': %w", o.Name, err)
	}
	return client, nil
}
