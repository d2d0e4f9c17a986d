package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

func TestStoreWithoutClientIsEmpty(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	var dest map[string]int
	err := store.Get(ctx, "dash:summary", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, store.Set(ctx, "dash:summary", map[string]int{"a": 1}, time.Minute))
	assert.NoError(t, store.DeleteByPattern(ctx, "dash:*"))
	assert.NoError(t, store.Close())
}
