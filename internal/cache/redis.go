package cache

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

// InvalidateChannel carries refresh requests between replicas.
const InvalidateChannel = "tickerdesk:invalidate"

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
	publishRedis  = func(ctx context.Context, client *redis.Client, channel, payload string) error {
		return client.Publish(ctx, channel, payload).Err()
	}
	subscribeRedis = func(ctx context.Context, client *redis.Client, channel string) subscription {
		return client.Subscribe(ctx, channel)
	}
)

type subscription interface {
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

// InitRedis connects to addr. An empty addr disables Redis and returns nil.
func InitRedis(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		log.Println("Warning: REDIS_URL not set, refresh stays local to this replica")
		return nil, nil
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	}

	client := newRedisClient(opts)
	if err := pingRedis(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Println("Connected to Redis")
	return client, nil
}

// Invalidator is the local side of a refresh.
type Invalidator interface {
	InvalidateAll() int
}

// Broadcaster fans refresh requests out to every replica sharing a Redis.
// A nil client turns Publish and Listen into no-ops.
type Broadcaster struct {
	client  *redis.Client
	channel string
	origin  string
}

func NewBroadcaster(client *redis.Client, origin string) *Broadcaster {
	return &Broadcaster{client: client, channel: InvalidateChannel, origin: origin}
}

// Publish announces a refresh to the other replicas.
func (b *Broadcaster) Publish(ctx context.Context) error {
	if b == nil || b.client == nil {
		return nil
	}
	if err := publishRedis(ctx, b.client, b.channel, b.origin); err != nil {
		return fmt.Errorf("publish invalidate: %w", err)
	}
	return nil
}

// Listen applies refreshes published by other replicas to targets until ctx ends.
func (b *Broadcaster) Listen(ctx context.Context, targets ...Invalidator) {
	if b == nil || b.client == nil {
		return
	}
	sub := subscribeRedis(ctx, b.client, b.channel)
	defer sub.Close()

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if msg.Payload == b.origin {
				continue
			}
			n := 0
			for _, t := range targets {
				n += t.InvalidateAll()
			}
			log.Printf("refresh from replica %s dropped %d cache entries", msg.Payload, n)
		}
	}
}
