package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ServerOptions struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
	Tags    []string      `yaml:"tags"`
}

func newTestConfig(t *testing.T) Reloadable {
	t.Helper()
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{
			"server": map[string]any{
				"host":    "localhost",
				"port":    8080,
				"timeout": "30s",
				"tags":    []any{"a", "b"},
			},
			"debug": "true",
			"retry": 5,
		}).
		Build()
	require.NoError(t, err)
	return cfg
}

func TestValueStore(t *testing.T) {
	store := NewValueStore()
	assert.Empty(t, store.Load())

	store.Store(map[string]any{"key": "value"})
	assert.Equal(t, "value", store.Load()["key"])

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Load()
		}()
	}
	wg.Wait()
}

func TestPathCache(t *testing.T) {
	cache := &PathCache{}
	assert.Equal(t, []string{"a", "b", "c"}, cache.GetPathSegments("a:b.c"))
	// 第二次命中缓存
	assert.Equal(t, []string{"a", "b", "c"}, cache.GetPathSegments("a:b.c"))
	assert.Equal(t, []string{"a", "b"}, cache.GetPathSegments(":a..b:"))
}

func TestLookupIgnoresCase(t *testing.T) {
	cfg, err := NewConfigurationBuilder().AddInMemory(map[string]any{
		"app": map[string]any{"name": "demo", "Name": "exact"},
		"db":  map[string]any{"host": "localhost"},
	}).Build()
	require.NoError(t, err)

	assert.Equal(t, "exact", cfg.Get("app:Name"))
	assert.Equal(t, "localhost", cfg.Get("DB.Host"))
	assert.False(t, cfg.Exists("db:port"))
}

func TestConfigurationGetters(t *testing.T) {
	cfg := newTestConfig(t)

	assert.Equal(t, "localhost", cfg.Get("server:host"))
	assert.Equal(t, "localhost", cfg.Get("server.host"))
	assert.Equal(t, "8080", cfg.Get("server:port"))
	assert.Equal(t, "fallback", cfg.GetWithDefault("server:missing", "fallback"))
	assert.Empty(t, cfg.Get("server:host:deeper"))

	port, err := cfg.GetInt("server:port")
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	_, err = cfg.GetInt("server:missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	debug, err := cfg.GetBool("debug")
	require.NoError(t, err)
	assert.True(t, debug)

	timeout, err := cfg.GetDuration("server:timeout")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)

	retry, err := cfg.GetDuration("retry")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, retry)

	assert.True(t, cfg.Exists("server"))
	assert.False(t, cfg.Exists("client"))

	section := cfg.GetSection("server")
	assert.Equal(t, "localhost", section.Get("host"))
	assert.Empty(t, cfg.GetSection("client").GetAll())
}

func TestConfigurationBind(t *testing.T) {
	cfg := newTestConfig(t)

	var opts ServerOptions
	require.NoError(t, cfg.Bind("server", &opts))
	assert.Equal(t, ServerOptions{Host: "localhost", Port: 8080, Timeout: 30 * time.Second, Tags: []string{"a", "b"}}, opts)

	loaded, err := Load[ServerOptions](cfg, "server")
	require.NoError(t, err)
	assert.Equal(t, opts, loaded)

	assert.ErrorIs(t, cfg.Bind("client", &opts), ErrKeyNotFound)
}

func TestSourcesOverrideInOrder(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	yamlPath := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"server":{"host":"json","port":1}}`), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte("server:\n  port: 2\n"), 0o644))

	cfg, err := NewConfigurationBuilder().
		AddJsonFile(jsonPath).
		AddYamlFile(yamlPath).
		AddYamlFile(filepath.Join(dir, "missing.yaml"), true).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Get("server:host"))
	assert.Equal(t, "2", cfg.Get("server:port"))

	_, err = NewConfigurationBuilder().AddJsonFile(filepath.Join(dir, "missing.json")).Build()
	assert.Error(t, err)
}

func TestEnvironmentAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("INJTEST_NAME=fromfile\nINJTEST_SERVER_PORT=9090\n"), 0o644))
	t.Setenv("INJTEST_NAME", "fromenv")
	t.Setenv("INJTEST_SERVER_HOST", "example.com")

	cfg, err := NewConfigurationBuilder().
		AddDotEnv("INJTEST_", envFile, filepath.Join(dir, "missing.env")).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Get("name"))
	assert.Equal(t, "9090", cfg.Get("server:port"))
	assert.False(t, cfg.Exists("server:host"))

	cfg, err = NewConfigurationBuilder().AddEnvironmentVariables("INJTEST_").Build()
	require.NoError(t, err)
	assert.Equal(t, "example.com", cfg.Get("server:host"))
}

func TestInMemorySourceIsCopied(t *testing.T) {
	nested := map[string]any{"host": "a"}
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{"server": nested}).
		AddInMemory(map[string]any{"server": map[string]any{"port": 1}}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"host": "a"}, nested)
	nested["host"] = "b"
	assert.Equal(t, "a", cfg.Get("server:host"))

	all := cfg.GetAll()
	all["server"].(map[string]any)["host"] = "c"
	assert.Equal(t, "a", cfg.Get("server:host"))
}

func TestReload(t *testing.T) {
	src := &InMemorySource{Data: map[string]any{"name": "a"}}
	cfg, err := NewConfigurationBuilder().Add(src).Build()
	require.NoError(t, err)

	var notified int
	cfg.OnReload(func() { notified++ })

	src.Data["name"] = "b"
	assert.Equal(t, "a", cfg.Get("name"))
	require.NoError(t, cfg.Reload())
	assert.Equal(t, "b", cfg.Get("name"))
	assert.Equal(t, 1, notified)
}

func TestSetEtcdValue(t *testing.T) {
	result := make(map[string]any)
	setEtcdValue(result, "/app", "/app/server/port", []byte("8080"))
	setEtcdValue(result, "/app", "/app/server/tls", []byte(`{"enabled":true}`))
	setEtcdValue(result, "/app", "/app/name", []byte("inject"))
	setEtcdValue(result, "/app", "/app", []byte("ignored"))

	assert.Equal(t, map[string]any{
		"server": map[string]any{
			"port": float64(8080),
			"tls":  map[string]any{"enabled": true},
		},
		"name": "inject",
	}, result)

	_, err := NewConfigurationBuilder().AddEtcd(EtcdOptions{}).Build()
	assert.Error(t, err)
}

func BenchmarkConfigGet(b *testing.B) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{"server": map[string]any{"host": "localhost"}}).
		Build()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			cfg.Get("server:host")
		}
	})
}
