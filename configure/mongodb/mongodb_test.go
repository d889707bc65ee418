package mongodb

import (
	"testing"
	"time"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/mgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func newKernel(t *testing.T) *di.Kernel {
	t.Helper()
	settings := di.DefaultSettings()
	settings.CachePruningInterval = 0
	k, err := di.NewKernel(di.WithSettings(settings))
	require.NoError(t, err)
	t.Cleanup(func() { _ = k.Dispose() })
	return k
}

// 测试客户端延迟创建，不需要真实的 MongoDB
func TestConfigure(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.Load(Configure(func(b *Builder) {
		b.Add(DefaultClientName, "mongodb://localhost:27017/?directConnection=true", func(o *MongoOptions) {
			o.Database = "app"
			o.Timeout = 200 * time.Millisecond
		})
		b.Add("audit", "mongodb://localhost:27018", nil)
	})))

	client, err := di.Get[*mongo.Client](k)
	require.NoError(t, err)
	named, err := di.GetNamed[*mongo.Client](k, DefaultClientName)
	require.NoError(t, err)
	assert.Same(t, client, named)

	audit, err := di.GetNamed[*mongo.Client](k, "audit")
	require.NoError(t, err)
	assert.NotSame(t, client, audit)

	db, err := di.Get[*mongo.Database](k)
	require.NoError(t, err)
	assert.Equal(t, "app", db.Name())
	assert.Same(t, client, db.Client())

	_, err = di.GetNamed[*mongo.Database](k, "audit")
	assert.ErrorIs(t, err, di.ErrUnresolvable)

	require.NoError(t, k.Dispose())
	assert.ErrorIs(t, client.Disconnect(t.Context()), mongo.ErrClientDisconnected)
}

// mgo 客户端与原生客户端同名绑定，各自独立创建
func TestConfigureMgoClient(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.Load(Configure(func(b *Builder) {
		b.Add(DefaultClientName, "mongodb://localhost:27017/?directConnection=true", func(o *MongoOptions) {
			o.Timeout = 200 * time.Millisecond
		})
		b.Add("audit", "mongodb://localhost:27018", nil)
	})))

	bindings := k.GetBindings(di.TypeOf[*mgo.Client]())
	require.Len(t, bindings, 2)
	names := []string{bindings[0].Metadata.Name, bindings[1].Metadata.Name}
	assert.ElementsMatch(t, []string{DefaultClientName, "audit"}, names)

	client, err := di.Get[*mgo.Client](k)
	require.NoError(t, err)
	require.NotNil(t, client)
	named, err := di.GetNamed[*mgo.Client](k, DefaultClientName)
	require.NoError(t, err)
	assert.Same(t, client, named)
}

func TestConfigureInvalidURI(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.Load(Configure(func(b *Builder) {
		b.Add(DefaultClientName, "http://not-mongo", nil)
	})))
	_, err := di.Get[*mongo.Client](k)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create mongo client 'default'")
}

func TestBuilderErrors(t *testing.T) {
	b := NewBuilder()
	b.Add("", "mongodb://localhost", nil)
	b.Add("a", "", nil)
	b.Add("b", "mongodb://localhost", func(o *MongoOptions) { o.Timeout = 0 })
	b.Add("c", "mongodb://localhost", nil)
	b.Add("c", "mongodb://localhost", nil)

	_, err := b.Build()
	require.Error(t, err)
	for _, msg := range []string{"name is required", "uri is required", "timeout must be positive", "already configured"} {
		assert.Contains(t, err.Error(), msg)
	}

	configs, err := NewBuilder().Add("x", "mongodb://localhost", nil).Build()
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, uint64(100), configs[0].MaxPoolSize)
}
