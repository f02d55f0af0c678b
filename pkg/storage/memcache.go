package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/bradfitz/gomemcache/memcache"
)

func MemCachedClient(address string, port int) *memcache.Client {
	uri := fmt.Sprintf("%s:%d", address, port)
	client := memcache.New(uri)
	client.MaxIdleConns = 4
	return client
}

// MemcacheKV stores values in memcached without expiry. Memcached rejects
// items above its size limit (1MB by default); such writes fail like a
// full browser storage quota would.
type MemcacheKV struct {
	client *memcache.Client
}

func NewMemcacheKV(address string, port int) *MemcacheKV {
	return &MemcacheKV{client: MemCachedClient(address, port)}
}

func (m *MemcacheKV) Get(_ context.Context, key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading key %s from memcached: %w", key, err)
	}
	return item.Value, nil
}

func (m *MemcacheKV) Set(_ context.Context, key string, value []byte) error {
	if err := m.client.Set(&memcache.Item{Key: key, Value: value}); err != nil {
		return fmt.Errorf("error writing key %s to memcached: %w", key, err)
	}
	return nil
}

func (m *MemcacheKV) Close() error { return nil }
