package configure

import (
	"github.com/gocrud/inject/configure/cron"
	"github.com/gocrud/inject/configure/database"
	"github.com/gocrud/inject/configure/etcd"
	"github.com/gocrud/inject/configure/mongodb"
	"github.com/gocrud/inject/configure/redis"
	"github.com/gocrud/inject/configure/web"
	"github.com/gocrud/inject/di"
)

// Etcd 便捷导出 etcd 模块
// 使用示例: kernel.Load(configure.Etcd(func(b *etcd.Builder) { ... }))
func Etcd(options func(*etcd.Builder)) di.Module {
	return etcd.Configure(options)
}

// Cron 便捷导出 cron 模块
func Cron(options func(*cron.Builder)) di.Module {
	return cron.Configure(options)
}

// Web 便捷导出 web 模块
func Web(options func(*web.Builder)) di.Module {
	return web.Configure(options)
}

// Redis 便捷导出 redis 模块
func Redis(options func(*redis.Builder)) di.Module {
	return redis.Configure(options)
}

// Mongo 便捷导出 mongodb 模块
func Mongo(options func(*mongodb.Builder)) di.Module {
	return mongodb.Configure(options)
}

// Database 便捷导出 database 模块
func Database(options func(*database.Builder)) di.Module {
	return database.Configure(options)
}
