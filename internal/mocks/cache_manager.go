package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// CacheManager mocks cachemanager.CacheManager.
type CacheManager[K comparable, V any] struct {
	mock.Mock
}

// NewCacheManager creates a CacheManager mock that asserts its expectations
// when the test ends.
func NewCacheManager[K comparable, V any](t testingT) *CacheManager[K, V] {
	m := &CacheManager[K, V]{}
	register(t, m)
	return m
}

func (m *CacheManager[K, V]) Get(ctx context.Context, key K) (V, bool) {
	args := m.Called(ctx, key)
	v, _ := args.Get(0).(V)
	return v, args.Bool(1)
}

func (m *CacheManager[K, V]) GetMultiple(ctx context.Context, keys []K) (map[K]V, bool) {
	args := m.Called(ctx, keys)
	v, _ := args.Get(0).(map[K]V)
	return v, args.Bool(1)
}

func (m *CacheManager[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	args := m.Called(ctx, key, ttl)
	v, _ := args.Get(0).(V)
	return v, args.Bool(1)
}

func (m *CacheManager[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) {
	m.Called(ctx, key, value, ttl)
}

func (m *CacheManager[K, V]) Delete(ctx context.Context, keys ...K) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *CacheManager[K, V]) Flush(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
