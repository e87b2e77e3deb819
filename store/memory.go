// Package store 提供 core.Store 的内存与 Redis 实现，用作相似商品的二级缓存。
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rushteam/hybridrec/core"
)

// MemoryStore 是内存实现的 Store，用于测试/开发/单副本部署。
// 支持 TTL，过期条目在读取时视为不存在，并由后台定期清理。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memEntry
	now  func() time.Time

	stop chan struct{}
	once sync.Once
}

type memEntry struct {
	value    []byte
	expireAt time.Time // 零值表示永不过期
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// NewMemoryStore 创建内存 Store。cleanupInterval <= 0 时不启动后台清理。
func NewMemoryStore(cleanupInterval ...time.Duration) *MemoryStore {
	ms := &MemoryStore{
		data: make(map[string]memEntry),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	interval := 10 * time.Second
	if len(cleanupInterval) > 0 {
		interval = cleanupInterval[0]
	}
	if interval > 0 {
		go ms.cleanup(interval)
	}
	return ms
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok || e.expired(m.now()) {
		return nil, core.ErrStoreNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memEntry{value: append([]byte(nil), value...)}
	if len(ttl) > 0 && ttl[0] > 0 {
		e.expireAt = m.now().Add(time.Duration(ttl[0]) * time.Second)
	}
	m.data[key] = e
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// DeletePrefix 删除所有以 prefix 开头的 key，返回删除数量。
func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

// Len 返回当前条目数（含尚未清理的过期条目）。
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryStore) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *MemoryStore) cleanup(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-t.C:
			m.evictExpired()
		}
	}
}

func (m *MemoryStore) evictExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.data {
		if e.expired(now) {
			delete(m.data, k)
		}
	}
}

var _ core.Store = (*MemoryStore)(nil)
