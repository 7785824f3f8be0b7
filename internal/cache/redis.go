// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jason-s-yu/unoparty/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list that receives session action records.
const DefaultQueueName = "uno_actions"

// Pusher is the part of a Redis client the publisher needs.
type Pusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Publisher appends accepted moves to a Redis list so an external consumer
// can replay or archive a session. It satisfies game.ActionLogger.
type Publisher struct {
	rdb   Pusher
	queue string
}

// NewPublisher returns a publisher writing to queue, or DefaultQueueName when
// queue is empty.
func NewPublisher(rdb Pusher, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{rdb: rdb, queue: queue}
}

// Connect opens a Redis client at addr and verifies it with a PING.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// PublishAction serializes rec to JSON and pushes it onto the queue.
func (p *Publisher) PublishAction(ctx context.Context, rec models.ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}
