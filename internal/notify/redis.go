package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/golang/glog"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "helpme:queue:"

// Redis is a Notifier backed by Redis pub/sub, so every server instance sees every change.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis and checks the connection.
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Println("✅ Connected to Redis.")
	return &Redis{client: client}, nil
}

func (r *Redis) Publish(ctx context.Context, queueID string) error {
	return r.client.Publish(ctx, channelPrefix+queueID, queueID).Err()
}

func (r *Redis) Subscribe(ctx context.Context, queueID string) (<-chan struct{}, func()) {
	ctx, cancel := context.WithCancel(ctx)
	pubsub := r.client.Subscribe(ctx, channelPrefix+queueID)
	ch := make(chan struct{}, 1)

	go func() {
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					glog.Warningf("redis subscription for queue %s closed\n", queueID)
					return
				}
				signal(ch)
			}
		}
	}()

	return ch, cancel
}

func (r *Redis) Close() error {
	log.Println("Connection to Redis closed.")
	return r.client.Close()
}
