package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// ErrKeyNotFound 配置键不存在
var ErrKeyNotFound = errors.New("config: key not found")

// Configuration 配置接口（类似于 .NET Core IConfiguration）
type Configuration interface {
	// Get 获取配置值
	Get(key string) string
	// GetWithDefault 获取配置值，如果不存在则返回默认值
	GetWithDefault(key, defaultValue string) string
	// GetInt 获取整数配置值
	GetInt(key string) (int, error)
	// GetBool 获取布尔配置值
	GetBool(key string) (bool, error)
	// GetDuration 获取时长，字符串按 time.ParseDuration 解析，数字按秒计
	GetDuration(key string) (time.Duration, error)
	// GetSection 获取配置节
	GetSection(key string) Configuration
	// Exists 键是否存在
	Exists(key string) bool
	// Bind 绑定配置到结构体
	Bind(key string, target any) error
	// GetAll 获取所有配置
	GetAll() map[string]any
}

// Reloadable 可以重新加载全部配置源的配置
type Reloadable interface {
	Configuration
	Reload() error
	OnReload(fn func())
}

// ConfigurationBuilder 配置构建器
type ConfigurationBuilder struct {
	sources []ConfigurationSource
	mu      sync.RWMutex
}

// ConfigurationSource 配置源接口
type ConfigurationSource interface {
	Load() (map[string]any, error)
	Name() string
}

// NewConfigurationBuilder 创建配置构建器
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{
		sources: make([]ConfigurationSource, 0),
	}
}

// Add 添加配置源
func (b *ConfigurationBuilder) Add(source ConfigurationSource) *ConfigurationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = append(b.sources, source)
	return b
}

// AddJsonFile 添加 JSON 文件配置源
func (b *ConfigurationBuilder) AddJsonFile(path string, optional ...bool) *ConfigurationBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&JsonFileSource{Path: path, Optional: isOptional})
}

// AddYamlFile 添加 YAML 文件配置源
func (b *ConfigurationBuilder) AddYamlFile(path string, optional ...bool) *ConfigurationBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&YamlFileSource{Path: path, Optional: isOptional})
}

// AddEnvironmentVariables 添加环境变量配置源
func (b *ConfigurationBuilder) AddEnvironmentVariables(prefix string) *ConfigurationBuilder {
	return b.Add(&EnvironmentVariableSource{Prefix: prefix})
}

// AddDotEnv 添加 .env 文件配置源，不存在的文件被跳过，真实环境变量优先
func (b *ConfigurationBuilder) AddDotEnv(prefix string, files ...string) *ConfigurationBuilder {
	if len(files) == 0 {
		files = []string{".env"}
	}
	return b.Add(&DotEnvSource{Prefix: prefix, Files: files})
}

// AddInMemory 添加内存配置源
func (b *ConfigurationBuilder) AddInMemory(data map[string]any) *ConfigurationBuilder {
	return b.Add(&InMemorySource{Data: data})
}

// EtcdOptions etcd 配置选项
type EtcdOptions struct {
	Endpoints   []string      // etcd 服务器地址列表
	Username    string        // 用户名（可选）
	Password    string        // 密码（可选）
	Prefix      string        // 键前缀（可选）
	Timeout     time.Duration // 读取超时时间（默认 5 秒）
	DialTimeout time.Duration // 拨号超时时间（默认 5 秒）
}

// AddEtcd 添加 etcd 配置源
func (b *ConfigurationBuilder) AddEtcd(opts EtcdOptions) *ConfigurationBuilder {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return b.Add(&EtcdSource{Options: opts})
}

// Build 构建配置，后添加的配置源覆盖先添加的
func (b *ConfigurationBuilder) Build() (Reloadable, error) {
	b.mu.RLock()
	sources := make([]ConfigurationSource, len(b.sources))
	copy(sources, b.sources)
	b.mu.RUnlock()

	config := &configuration{store: NewValueStore(), sources: sources}
	if err := config.Reload(); err != nil {
		return nil, err
	}
	return config, nil
}

// configuration 配置实现，读取无锁，Reload 整体替换快照
type configuration struct {
	store   *ValueStore
	sources []ConfigurationSource

	mu        sync.Mutex
	listeners []func()
}

func loadSources(sources []ConfigurationSource) (map[string]any, error) {
	data := make(map[string]any)
	for _, source := range sources {
		loaded, err := source.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config source %s: %w", source.Name(), err)
		}
		mergeMaps(data, loaded)
	}
	return data, nil
}

// Reload 重新加载全部配置源并通知订阅者
func (c *configuration) Reload() error {
	data, err := loadSources(c.sources)
	if err != nil {
		return err
	}
	c.store.Store(data)

	c.mu.Lock()
	listeners := make([]func(), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
	return nil
}

// OnReload 订阅重新加载通知
func (c *configuration) OnReload(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Get 获取配置值
func (c *configuration) Get(key string) string {
	value := c.getByPath(key)
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetWithDefault 获取配置值，如果不存在则返回默认值
func (c *configuration) GetWithDefault(key, defaultValue string) string {
	value := c.Get(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetInt 获取整数配置值
func (c *configuration) GetInt(key string) (int, error) {
	value := c.getByPath(key)
	if value == nil {
		return 0, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("cannot convert %v to int", value)
	}
}

// GetBool 获取布尔配置值
func (c *configuration) GetBool(key string) (bool, error) {
	value := c.getByPath(key)
	if value == nil {
		return false, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("cannot convert %v to bool", value)
	}
}

// GetDuration 获取时长配置值
func (c *configuration) GetDuration(key string) (time.Duration, error) {
	value := c.getByPath(key)
	if value == nil {
		return 0, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	switch v := value.(type) {
	case string:
		return time.ParseDuration(v)
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("cannot convert %v to duration", value)
	}
}

// GetSection 获取配置节，不存在时返回空配置
func (c *configuration) GetSection(key string) Configuration {
	section := &configuration{store: NewValueStore()}
	if m, ok := c.getByPath(key).(map[string]any); ok {
		section.store.Store(m)
	}
	return section
}

// Exists 键是否存在
func (c *configuration) Exists(key string) bool {
	return c.getByPath(key) != nil
}

// Bind 绑定配置到结构体。经 yaml 往返转换，time.Duration 可以写成 "30s"；
// 键与 yaml 字段名不区分大小写匹配。
func (c *configuration) Bind(key string, target any) error {
	data := c.getByPath(key)
	if data == nil {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	out, err := yaml.Marshal(alignKeys(data, targetType(target)))
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := yaml.Unmarshal(out, target); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

// GetAll 获取所有配置的副本
func (c *configuration) GetAll() map[string]any {
	result := make(map[string]any)
	mergeMaps(result, c.store.Load())
	return result
}

// getByPath 通过路径获取值（支持 "a:b:c" 或 "a.b.c"）
func (c *configuration) getByPath(path string) any {
	data := c.store.Load()
	if path == "" {
		return data
	}

	current := any(data)
	for _, part := range globalPathCache.GetPathSegments(path) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		if current, ok = lookupKey(m, part); !ok {
			return nil
		}
	}
	return current
}

// mergeMaps 深度合并，src 中的嵌套 map 会被复制
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		if dstMap, ok := dst[k].(map[string]any); ok && srcIsMap {
			mergeMaps(dstMap, srcMap)
			continue
		}
		if srcIsMap {
			copied := make(map[string]any, len(srcMap))
			mergeMaps(copied, srcMap)
			dst[k] = copied
			continue
		}
		dst[k] = v
	}
}

// JsonFileSource JSON 文件配置源
type JsonFileSource struct {
	Path     string
	Optional bool
}

func (s *JsonFileSource) Name() string {
	return fmt.Sprintf("JsonFile(%s)", s.Path)
}

func (s *JsonFileSource) Load() (map[string]any, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if s.Optional && os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return result, nil
}

// YamlFileSource YAML 文件配置源
type YamlFileSource struct {
	Path     string
	Optional bool
}

func (s *YamlFileSource) Name() string {
	return fmt.Sprintf("YamlFile(%s)", s.Path)
}

func (s *YamlFileSource) Load() (map[string]any, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if s.Optional && os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, err
	}

	var result map[string]any
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return result, nil
}

// EnvironmentVariableSource 环境变量配置源
type EnvironmentVariableSource struct {
	Prefix string
}

func (s *EnvironmentVariableSource) Name() string {
	return fmt.Sprintf("EnvironmentVariables(%s)", s.Prefix)
}

func (s *EnvironmentVariableSource) Load() (map[string]any, error) {
	result := make(map[string]any)
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		setEnvValue(result, s.Prefix, key, value)
	}
	return result, nil
}

// DotEnvSource .env 文件配置源
type DotEnvSource struct {
	Prefix string
	Files  []string
}

func (s *DotEnvSource) Name() string {
	return fmt.Sprintf("DotEnv(%s)", strings.Join(s.Files, ","))
}

func (s *DotEnvSource) Load() (map[string]any, error) {
	result := make(map[string]any)
	for _, file := range s.Files {
		values, err := godotenv.Read(file)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		for key, value := range values {
			if real, ok := os.LookupEnv(key); ok {
				value = real
			}
			setEnvValue(result, s.Prefix, key, value)
		}
	}
	return result, nil
}

// setEnvValue APP_SERVER_PORT（前缀 APP_）写入 server:port
func setEnvValue(result map[string]any, prefix, key, value string) {
	if prefix != "" {
		if !strings.HasPrefix(key, prefix) {
			return
		}
		key = strings.TrimPrefix(key, prefix)
	}
	// 转换为小写，绑定时按字段名不区分大小写匹配
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", ":")
	setNestedValue(result, key, value)
}

// InMemorySource 内存配置源
type InMemorySource struct {
	Data map[string]any
}

func (s *InMemorySource) Name() string {
	return "InMemory"
}

func (s *InMemorySource) Load() (map[string]any, error) {
	result := make(map[string]any)
	mergeMaps(result, s.Data)
	return result, nil
}

// setNestedValue 设置嵌套值
func setNestedValue(data map[string]any, path string, value any) {
	parts := strings.Split(path, ":")
	current := data

	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}
		if m, ok := current[part].(map[string]any); ok {
			current = m
		} else {
			return
		}
	}

	// 尝试转换字符串值为合适的类型
	if strValue, ok := value.(string); ok {
		if intValue, err := strconv.Atoi(strValue); err == nil {
			value = intValue
		} else if floatValue, err := strconv.ParseFloat(strValue, 64); err == nil {
			value = floatValue
		} else if boolValue, err := strconv.ParseBool(strValue); err == nil {
			value = boolValue
		}
	}

	current[parts[len(parts)-1]] = value
}

// EtcdSource etcd 配置源
type EtcdSource struct {
	Options EtcdOptions
}

func (s *EtcdSource) Name() string {
	return fmt.Sprintf("Etcd(%v)", s.Options.Endpoints)
}

func (s *EtcdSource) Load() (map[string]any, error) {
	if len(s.Options.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints are required")
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   s.Options.Endpoints,
		Username:    s.Options.Username,
		Password:    s.Options.Password,
		DialTimeout: s.Options.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.Options.Timeout)
	defer cancel()

	prefix := s.Options.Prefix
	if prefix == "" {
		prefix = "/"
	}

	resp, err := cli.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get config from etcd: %w", err)
	}

	result := make(map[string]any)
	for _, kv := range resp.Kvs {
		setEtcdValue(result, s.Options.Prefix, string(kv.Key), kv.Value)
	}
	return result, nil
}

// setEtcdValue /app/server/port 写入 server:port，值依次尝试按 JSON、YAML 解析
func setEtcdValue(result map[string]any, prefix, key string, raw []byte) {
	if prefix != "" {
		key = strings.TrimPrefix(key, prefix)
	}
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return
	}
	key = strings.ReplaceAll(key, "/", ":")

	var value any
	if err := json.Unmarshal(raw, &value); err == nil {
		setNestedValue(result, key, value)
		return
	}
	if err := yaml.Unmarshal(raw, &value); err == nil && value != nil {
		setNestedValue(result, key, value)
		return
	}
	setNestedValue(result, key, string(raw))
}
