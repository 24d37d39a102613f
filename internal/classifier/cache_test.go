package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"lead-qualifier-workers/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClassifier struct {
	scores Scores
	err    error
	calls  int
}

func (c *countingClassifier) Classify(_ context.Context, _ string, _ []string) (Scores, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.scores, nil
}

func TestCachedClassifier_ReadThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	inner := &countingClassifier{scores: Scores{"high_intent": 0.7, "low_intent": 0.3}}
	cached := NewCachedClassifier(inner, rdb, time.Minute, logger.NewTestLogger(t))

	labels := []string{"high_intent", "low_intent"}

	first, err := cached.Classify(context.Background(), "want to buy", labels)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	second, err := cached.Classify(context.Background(), "want to buy", labels)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "second call must be served from cache")
	assert.Equal(t, first, second)

	// Different text misses the cache.
	_, err = cached.Classify(context.Background(), "just looking", labels)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedClassifier_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	inner := &countingClassifier{scores: Scores{"high_intent": 0.5}}
	cached := NewCachedClassifier(inner, rdb, time.Minute, logger.NewTestLogger(t))

	labels := []string{"high_intent"}
	_, err := cached.Classify(context.Background(), "text", labels)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = cached.Classify(context.Background(), "text", labels)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedClassifier_InnerErrorNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	inner := &countingClassifier{err: ErrClassifyFailed}
	cached := NewCachedClassifier(inner, rdb, time.Minute, logger.NewTestLogger(t))

	_, err := cached.Classify(context.Background(), "text", []string{"high_intent"})
	assert.ErrorIs(t, err, ErrClassifyFailed)
	assert.Empty(t, mr.Keys())
}

func TestCachedClassifier_CacheUnavailable(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	labels := []string{"high_intent"}
	key := cacheKey("text", labels)
	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.ExpectSet(key, mustJSON(t, Scores{"high_intent": 0.9}), time.Minute).SetErr(errors.New("connection refused"))

	inner := &countingClassifier{scores: Scores{"high_intent": 0.9}}
	cached := NewCachedClassifier(inner, rdb, time.Minute, logger.NewTestLogger(t))

	scores, err := cached.Classify(context.Background(), "text", labels)
	require.NoError(t, err, "cache outage must not fail classification")
	assert.InDelta(t, 0.9, scores["high_intent"], 1e-9)
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheKey_Deterministic(t *testing.T) {
	a := cacheKey("text", []string{"a", "b"})
	b := cacheKey("text", []string{"a", "b"})
	c := cacheKey("text", []string{"b", "a"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "label order is part of the key")
}

func mustJSON(t *testing.T, v interface{}) []byte {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
