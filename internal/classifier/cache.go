// internal/classifier/cache.go
package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"lead-qualifier-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// CachedClassifier is a read-through Redis cache in front of another
// classifier. Cache failures are non-fatal: the inner classifier is
// always the source of truth.
type CachedClassifier struct {
	inner  IntentClassifier
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedClassifier(inner IntentClassifier, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedClassifier {
	return &CachedClassifier{
		inner:  inner,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "classifier-cache"}),
	}
}

func (c *CachedClassifier) Classify(ctx context.Context, text string, labels []string) (Scores, error) {
	key := cacheKey(text, labels)

	if val, err := c.redis.Get(ctx, key).Result(); err == nil {
		var scores Scores
		if err := json.Unmarshal([]byte(val), &scores); err == nil {
			return scores, nil
		}
	}

	scores, err := c.inner.Classify(ctx, text, labels)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(scores); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", map[string]interface{}{
				"error": err,
			})
		}
	}

	return scores, nil
}

func cacheKey(text string, labels []string) string {
	h := sha256.Sum256([]byte(text + "|" + strings.Join(labels, ",")))
	return "classifier:intent:" + hex.EncodeToString(h[:])
}
