package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type failingCacheStore struct{}

func (failingCacheStore) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection refused")
}

func (failingCacheStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (failingCacheStore) DeleteByPattern(ctx context.Context, pattern string) error {
	return errors.New("connection refused")
}

func TestCacheServiceDisabled(t *testing.T) {
	store := newMemoryCacheStore()
	svc := NewCacheService(store, nil, time.Minute, nil, false)

	svc.Set(context.Background(), "dash:x", 1)
	var out int
	assert.False(t, svc.Get(context.Background(), "dash:x", &out))
	assert.Empty(t, store.items)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	nilSvc.InvalidateDashboard(context.Background())
}

func TestCacheServiceFailuresDegradeToMiss(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(failingCacheStore{}, metrics, time.Minute, zap.NewNop(), true)

	var out int
	assert.False(t, svc.Get(context.Background(), "dash:x", &out))
	svc.Set(context.Background(), "dash:x", 1)
	svc.InvalidateDashboard(context.Background())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")))
}

func TestCacheServiceInvalidatesDashboardNamespace(t *testing.T) {
	store := newMemoryCacheStore()
	svc := NewCacheService(store, nil, time.Minute, nil, true)

	svc.Set(context.Background(), dashboardKey("attendance", "30"), 1)
	var out int
	assert.True(t, svc.Get(context.Background(), "dash:attendance:30", &out))
	assert.Equal(t, 1, out)

	svc.InvalidateDashboard(context.Background())
	assert.Equal(t, []string{"dash:*"}, store.deleted)
	assert.False(t, svc.Get(context.Background(), "dash:attendance:30", &out))
}
