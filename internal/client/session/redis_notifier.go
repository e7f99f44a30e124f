package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/bidmarket/internal/logging"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the Pub/Sub channel used for session changes.
const DefaultRedisChannel = "bidmarket:session"

// RedisNotifier fans session changes out through a Redis Pub/Sub channel.
// Use it when the watching processes cannot see each other's file events.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	log     logging.Logger

	mu   sync.Mutex
	subs map[*redis.PubSub]struct{}
	wg   sync.WaitGroup
}

var _ Notifier = (*RedisNotifier)(nil)

func NewRedisNotifier(client *redis.Client, channel string, log logging.Logger) *RedisNotifier {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	if log == nil {
		log = logging.Nop()
	}
	return &RedisNotifier{
		client:  client,
		channel: channel,
		log:     log,
		subs:    make(map[*redis.PubSub]struct{}),
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, origin string) error {
	if err := n.client.Publish(ctx, n.channel, origin).Err(); err != nil {
		return fmt.Errorf("failed to publish session change: %w", err)
	}
	return nil
}

// Subscribe returns once the subscription is confirmed by the server.
func (n *RedisNotifier) Subscribe(ctx context.Context, fn func(origin string)) (func(), error) {
	ps := n.client.Subscribe(ctx, n.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", n.channel, err)
	}

	n.mu.Lock()
	n.subs[ps] = struct{}{}
	n.mu.Unlock()

	ch := ps.Channel()
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for msg := range ch {
			fn(msg.Payload)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, ps)
			n.mu.Unlock()
			if err := ps.Close(); err != nil {
				n.log.Warn(context.Background(), "failed to close subscription", "error", err)
			}
		})
	}, nil
}

// Close ends all subscriptions. The Redis client stays open; its owner
// closes it.
func (n *RedisNotifier) Close() error {
	n.mu.Lock()
	subs := n.subs
	n.subs = make(map[*redis.PubSub]struct{})
	n.mu.Unlock()

	var firstErr error
	for ps := range subs {
		if err := ps.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	n.wg.Wait()
	return firstErr
}
