package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"user-wire-service/pkg/logger"
)

// recordTimeout bounds a single counter update so a slow Redis never holds a connection open.
const recordTimeout = 500 * time.Millisecond

// Recorder counts handled requests and reports the running totals.
type Recorder interface {
	// Record increments the counter for one handled request.
	Record(ctx context.Context, operation string, status int)

	// Snapshot returns every counter keyed by "<operation>:<status>".
	Snapshot(ctx context.Context) (map[string]int64, error)
}

// RedisRecorder keeps counters as fields of one Redis hash.
type RedisRecorder struct {
	client *redis.Client
	key    string
	log    *zap.Logger
}

// NewRedisRecorder creates a recorder writing to the hash at key.
func NewRedisRecorder(client *redis.Client, key string, log *zap.Logger) *RedisRecorder {
	return &RedisRecorder{
		client: client,
		key:    key,
		log:    log,
	}
}

// field generates the hash field for an operation and status.
func field(operation string, status int) string {
	return fmt.Sprintf("%s:%d", operation, status)
}

// Record increments the counter. Failures are logged and swallowed.
func (r *RedisRecorder) Record(ctx context.Context, operation string, status int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	f := field(operation, status)
	if err := r.client.HIncrBy(ctx, r.key, f, 1).Err(); err != nil {
		logger.WithContext(ctx, r.log).Warn("failed to record outcome", zap.String("field", f), zap.Error(err))
		return
	}

	logger.WithContext(ctx, r.log).Debug("recorded outcome", zap.String("field", f))
}

// Snapshot reads all counters from the hash.
func (r *RedisRecorder) Snapshot(ctx context.Context) (map[string]int64, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read outcome counters: %w", err)
	}

	counts := make(map[string]int64, len(raw))
	for f, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			r.log.Warn("skipping malformed outcome counter", zap.String("field", f), zap.String("value", v))
			continue
		}
		counts[f] = n
	}

	return counts, nil
}

// NopRecorder is used when Redis is disabled.
type NopRecorder struct{}

// Record does nothing.
func (NopRecorder) Record(context.Context, string, int) {}

// Snapshot returns an empty set of counters.
func (NopRecorder) Snapshot(context.Context) (map[string]int64, error) {
	return map[string]int64{}, nil
}

// Totals folds a snapshot into per-status sums, e.g. {"200": 12, "404": 1}.
func Totals(snapshot map[string]int64) map[string]int64 {
	totals := make(map[string]int64)
	for f, n := range snapshot {
		i := strings.LastIndex(f, ":")
		if i < 0 {
			continue
		}
		totals[f[i+1:]] += n
	}
	return totals
}
