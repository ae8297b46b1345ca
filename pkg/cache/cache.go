// Package cache 带过期时间的内存缓存
// 各联邦组件用它规避每请求一次的远程/数据库往返；
// 缓存永远只是提示，未命中或过期必须触发完整重算
package cache

import (
	"sync"
	"time"
)

// entry 单个缓存条目
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// ExpiringCache 线程安全的 TTL 缓存
// Now 可注入，测试中用于显式控制时间
type ExpiringCache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
}

// New 创建缓存，ttl 为条目存活时间
func New[V any](ttl time.Duration) *ExpiringCache[V] {
	return &ExpiringCache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// NewWithClock 创建缓存并注入时钟（测试用）
func NewWithClock[V any](ttl time.Duration, now func() time.Time) *ExpiringCache[V] {
	c := New[V](ttl)
	c.now = now
	return c
}

// Get 读取条目，过期视为未命中并删除
func (c *ExpiringCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set 写入条目并刷新过期时间
func (c *ExpiringCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Delete 删除条目（投递失败后的立即驱逐走这里）
func (c *ExpiringCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// GetOrCompute 命中直接返回，否则重算并写入
// compute 出错时不写缓存
func (c *ExpiringCache[V]) GetOrCompute(key string, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

// Len 当前条目数（含未清扫的过期条目）
func (c *ExpiringCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear 清空全部条目
func (c *ExpiringCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}
