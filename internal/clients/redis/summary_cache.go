package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

// SummaryCache holds serialized consumer summaries keyed by QR code.
// It is strictly a read-path accelerator: a miss or an unreachable redis
// only means the caller recomputes from the ledger.
type SummaryCache interface {
	Get(ctx context.Context, code string) (string, bool)
	Set(ctx context.Context, code string, payload string)
}

type summaryCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewSummaryCache connects using REDIS_ADDR; a missing address is an
// error the caller downgrades to "no cache".
func NewSummaryCache(log *logger.Logger) (SummaryCache, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &summaryCache{
		log: log.With("service", "SummaryCache"),
		rdb: rdb,
		ttl: 5 * time.Minute,
	}, nil
}

func (c *summaryCache) key(code string) string {
	return "qr:summary:" + code
}

func (c *summaryCache) Get(ctx context.Context, code string) (string, bool) {
	val, err := c.rdb.Get(ctx, c.key(code)).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Debug("Cache read failed", "error", err)
		}
		return "", false
	}
	return val, true
}

func (c *summaryCache) Set(ctx context.Context, code string, payload string) {
	if err := c.rdb.Set(ctx, c.key(code), payload, c.ttl).Err(); err != nil {
		c.log.Debug("Cache write failed", "error", err)
	}
}
