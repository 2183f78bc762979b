package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chunkseq/chunks"
)

// DefaultPopTimeout bounds a single LPOP when no timeout is given.
const DefaultPopTimeout = 2 * time.Second

// RedisList drains a Redis list from the head with LPOP. The source ends
// when the list is empty, so items pushed after that are left for the next
// traversal.
type RedisList struct {
	ctx     context.Context
	client  redis.Cmdable
	key     string
	timeout time.Duration
}

var _ chunks.Source[string] = (*RedisList)(nil)

// NewRedisList pops from key. Each pop is bounded by timeout, or
// DefaultPopTimeout when timeout <= 0; ctx bounds the whole traversal.
func NewRedisList(ctx context.Context, client redis.Cmdable, key string, timeout time.Duration) *RedisList {
	if client == nil {
		panic("chunkseq.NewRedisList: client cannot be nil")
	}
	if timeout <= 0 {
		timeout = DefaultPopTimeout
	}
	return &RedisList{ctx: ctx, client: client, key: key, timeout: timeout}
}

func (l *RedisList) Next() (string, bool, error) {
	ctx, cancel := context.WithTimeout(l.ctx, l.timeout)
	defer cancel()

	v, err := l.client.LPop(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sources: lpop %s: %w", l.key, err)
	}
	return v, true, nil
}
