package redis_test

import (
	"testing"

	"github.com/gocrud/inject/configure/redis"
	"github.com/gocrud/inject/di"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRedisService 模拟依赖 Redis 客户端的服务
type MockRedisService struct {
	Cache *goredis.Client `di:"cache"`
	Queue *goredis.Client `di:"queue,?"`
}

func newKernel(t *testing.T) *di.Kernel {
	t.Helper()
	settings := di.DefaultSettings()
	settings.CachePruningInterval = 0
	k, err := di.NewKernel(di.WithSettings(settings))
	require.NoError(t, err)
	t.Cleanup(func() { _ = k.Dispose() })
	return k
}

func TestRedisConfiguration(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.Load(redis.Configure(func(b *redis.Builder) {
		b.AddClient("cache", func(o *redis.RedisClientOptions) {
			o.Addr = "localhost:6380"
			o.DB = 2
		})
		b.AddClient(redis.DefaultClientName, nil)
	})))

	svc, err := di.Get[*MockRedisService](k)
	require.NoError(t, err)
	require.NotNil(t, svc.Cache)
	assert.Nil(t, svc.Queue)
	assert.Equal(t, "localhost:6380", svc.Cache.Options().Addr)
	assert.Equal(t, 2, svc.Cache.Options().DB)

	cache, err := di.GetNamed[*goredis.Client](k, "cache")
	require.NoError(t, err)
	assert.Same(t, svc.Cache, cache)

	// 未指定名称时得到默认客户端
	def, err := di.Get[*goredis.Client](k)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", def.Options().Addr)

	factory, err := di.Get[*redis.RedisClientFactory](k)
	require.NoError(t, err)
	assert.Equal(t, []string{"cache", "default"}, factory.Names())
	fromFactory, err := factory.Get("cache")
	require.NoError(t, err)
	assert.Same(t, cache, fromFactory)
	_, err = factory.Get("queue")
	assert.Error(t, err)
}

func TestRedisClientsClosedOnDispose(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.Load(redis.Configure(func(b *redis.Builder) {
		b.AddClient("cache", nil)
	})))
	client, err := di.GetNamed[*goredis.Client](k, "cache")
	require.NoError(t, err)

	require.NoError(t, k.Dispose())
	assert.ErrorIs(t, client.Close(), goredis.ErrClosed)
}

func TestRedisBuilder_Errors(t *testing.T) {
	builder := redis.NewBuilder()
	builder.AddClient("invalid", func(o *redis.RedisClientOptions) {
		o.Addr = ""
	})
	builder.AddClient("duplicate", nil)
	builder.AddClient("duplicate", nil)

	_, err := builder.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis address is required")
	assert.Contains(t, err.Error(), "already registered")

	k := newKernel(t)
	assert.Error(t, k.Load(redis.Configure(func(b *redis.Builder) {
		b.AddClient("", nil)
	})))
	assert.False(t, k.HasModule("redis"))
}
