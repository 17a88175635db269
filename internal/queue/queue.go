package queue

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Trigger asks the worker to run the report for one location.
type Trigger struct {
	Location string
	Reason   string
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, trig Trigger) error
	Consume(ctx context.Context) (<-chan Trigger, error)
}

// InMemory is a minimal channel-backed queue for dev/testing.
type InMemory struct {
	ch chan Trigger
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Trigger, size)}
}

// Publish enqueues a trigger.
func (q *InMemory) Publish(ctx context.Context, trig Trigger) error {
	select {
	case q.ch <- trig:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for the worker.
func (q *InMemory) Consume(ctx context.Context) (<-chan Trigger, error) {
	out := make(chan Trigger)
	go func() {
		defer close(out)
		for {
			select {
			case trig := <-q.ch:
				out <- trig
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue implements a simple Redis list-backed queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "attendance:runs"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a trigger.
func (q *RedisQueue) Publish(ctx context.Context, trig Trigger) error {
	return q.client.LPush(ctx, q.key, serialize(trig)).Err()
}

// Consume streams triggers using BRPOP.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Trigger, error) {
	out := make(chan Trigger)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) == 2 {
				out <- deserialize(res[1])
			}
		}
	}()
	return out, nil
}

// serialize stores triggers as Location|Reason.
func serialize(trig Trigger) string {
	return trig.Location + "|" + trig.Reason
}

func deserialize(s string) Trigger {
	if i := strings.IndexByte(s, '|'); i >= 0 {
		return Trigger{Location: s[:i], Reason: s[i+1:]}
	}
	return Trigger{Location: s}
}
