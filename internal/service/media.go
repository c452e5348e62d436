package service

import "sync"

// MediaCache 媒体内容缓存
//
// 显式持有、有界、可显式失效；按消息 ID 缓存 base64 载荷，超过上限
// 时淘汰最早进入的条目。
type MediaCache struct {
	mu      sync.Mutex
	max     int
	entries map[string]string
	order   []string
}

// DefaultMediaCacheSize 默认缓存条目上限
const DefaultMediaCacheSize = 64

// NewMediaCache 创建媒体缓存，max <= 0 时使用默认上限
func NewMediaCache(max int) *MediaCache {
	if max <= 0 {
		max = DefaultMediaCacheSize
	}
	return &MediaCache{
		max:     max,
		entries: make(map[string]string, max),
	}
}

// Get 查询缓存
func (c *MediaCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.entries[key]
	return data, ok
}

// Put 写入缓存，必要时淘汰最早条目
func (c *MediaCache) Put(key, data string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = data

	for len(c.entries) > c.max && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Invalidate 移除单个条目
func (c *MediaCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Reset 清空缓存
func (c *MediaCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]string, c.max)
	c.order = nil
}

// Len 当前条目数
func (c *MediaCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
