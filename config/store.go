package config

import (
	"strings"
	"sync"
	"sync/atomic"
)

// ValueStore 持有当前配置快照。读取无锁，重新加载时整体替换。
type ValueStore struct {
	data atomic.Pointer[map[string]any]
}

// NewValueStore 创建空的 ValueStore
func NewValueStore() *ValueStore {
	s := &ValueStore{}
	s.Store(map[string]any{})
	return s
}

// Load 返回当前快照，调用方不得修改
func (s *ValueStore) Load() map[string]any {
	if p := s.data.Load(); p != nil {
		return *p
	}
	return nil
}

// Store 原子替换快照
func (s *ValueStore) Store(data map[string]any) {
	s.data.Store(&data)
}

// PathCache 缓存路径到片段的解析结果，":" 与 "." 都是分隔符，空片段被丢弃
type PathCache struct {
	cache sync.Map
}

// GetPathSegments 返回 path 的片段
func (c *PathCache) GetPathSegments(path string) []string {
	if v, ok := c.cache.Load(path); ok {
		return v.([]string)
	}

	parts := strings.FieldsFunc(path, func(r rune) bool { return r == ':' || r == '.' })
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	v, _ := c.cache.LoadOrStore(path, parts)
	return v.([]string)
}

var globalPathCache = &PathCache{}

// lookupKey 先精确匹配，再按不区分大小写匹配（环境变量来源的键是小写的）
func lookupKey(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}
