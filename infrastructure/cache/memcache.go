package cache

import (
	"sync"
	"time"
)

// MemCache is a simple in-memory cache backed by sync.Map.
// Items can have optional TTL. A background cleanup goroutine
// runs when NewMemCache is given a positive cleanupInterval.
type MemCache struct {
	items sync.Map
	stop  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

type item struct {
	mu         sync.Mutex
	value      any
	expiration int64 // unix nano; 0 means no expiration
}

func NewMemCache(cleanupInterval time.Duration) *MemCache {
	m := &MemCache{
		stop: make(chan struct{}),
	}
	if cleanupInterval > 0 {
		m.wg.Add(1)
		go func() {
			ticker := time.NewTicker(cleanupInterval)
			defer ticker.Stop()
			defer m.wg.Done()
			for {
				select {
				case <-ticker.C:
					m.cleanup()
				case <-m.stop:
					return
				}
			}
		}()
	}
	return m
}

func (m *MemCache) Set(key string, value any, ttl time.Duration) {
	m.items.Store(key, &item{
		value:      value,
		expiration: expiresAt(ttl),
	})
}

func (m *MemCache) Get(key string) (any, bool) {
	v, ok := m.items.Load(key)
	if !ok {
		return nil, false
	}
	it := v.(*item)
	it.mu.Lock()
	expired := it.isExpired()
	value := it.value
	it.mu.Unlock()
	if expired {
		m.items.CompareAndDelete(key, it)
		return nil, false
	}
	return value, true
}

func (m *MemCache) Delete(key string) {
	m.items.Delete(key)
}

func (m *MemCache) Close() {
	m.once.Do(func() {
		close(m.stop)
	})
	m.wg.Wait()
}

// Increment adds delta to the counter stored at key and returns the new value.
// A missing or expired counter starts from zero and gets the given ttl; an
// existing counter keeps its original expiration, which makes it a fixed window.
func (m *MemCache) Increment(key string, delta int64, ttl time.Duration) int64 {
	for {
		actual, _ := m.items.LoadOrStore(key, &item{
			value:      int64(0),
			expiration: expiresAt(ttl),
		})
		it := actual.(*item)

		it.mu.Lock()
		if it.isExpired() {
			it.mu.Unlock()
			// Someone else may already have replaced it; retry either way.
			m.items.CompareAndDelete(key, it)
			continue
		}

		current, _ := it.value.(int64)
		current += delta
		it.value = current
		it.mu.Unlock()
		return current
	}
}

func expiresAt(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return time.Now().Add(ttl).UnixNano()
}

func (it *item) isExpired() bool {
	if it == nil || it.expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > it.expiration
}

func (m *MemCache) cleanup() {
	m.items.Range(func(k, v any) bool {
		it := v.(*item)
		it.mu.Lock()
		expired := it.isExpired()
		it.mu.Unlock()
		if expired {
			m.items.CompareAndDelete(k, it)
		}
		return true
	})
}
