package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/amoylab/familia/internal/common/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Envelope addresses an event. An empty Target broadcasts to every
// connection except the one named by Except.
type Envelope struct {
	Target string `json:"target,omitempty"`
	Except string `json:"except,omitempty"`
	Event  Event  `json:"event"`
}

// Bus carries routed events to the Router of every instance. Each published
// envelope reaches each Router exactly once.
type Bus interface {
	// Subscribe registers the local delivery func. It must be called once before Publish.
	Subscribe(ctx context.Context, deliver func(Envelope)) error
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

var ErrNotSubscribed = errors.New("bus has no subscriber")

// NewBus creates the bus selected by cfg.Type
func NewBus(cfg config.BusConfig, logger *zap.Logger) (Bus, error) {
	switch cfg.Type {
	case "", config.BusTypeMemory:
		return NewLocalBus(), nil
	case config.BusTypeRedis:
		return NewRedisBus(cfg.Redis, logger)
	default:
		return nil, fmt.Errorf("unsupported bus type: %s", cfg.Type)
	}
}

// LocalBus delivers in-process on the publishing goroutine
type LocalBus struct {
	mu      sync.RWMutex
	deliver func(Envelope)
}

func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

func (b *LocalBus) Subscribe(_ context.Context, deliver func(Envelope)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deliver = deliver
	return nil
}

func (b *LocalBus) Publish(_ context.Context, env Envelope) error {
	b.mu.RLock()
	deliver := b.deliver
	b.mu.RUnlock()
	if deliver == nil {
		return ErrNotSubscribed
	}
	deliver(env)
	return nil
}

func (b *LocalBus) Close() error { return nil }

// RedisBus fans envelopes out through a redis pub/sub topic so connections
// held by other instances receive them. The publishing instance also
// receives its own envelopes through the subscription, never directly.
type RedisBus struct {
	logger *zap.Logger
	client *redis.Client
	topic  string

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

// NewRedisBus connects to redis and verifies the connection
func NewRedisBus(cfg config.RedisConfig, logger *zap.Logger) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBus{
		logger: logger.Named("realtime.bus.redis"),
		client: client,
		topic:  cfg.Topic,
	}, nil
}

func (b *RedisBus) Subscribe(ctx context.Context, deliver func(Envelope)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubsub != nil {
		return errors.New("redis bus already subscribed")
	}

	pubsub := b.client.Subscribe(ctx, b.topic)
	// wait for the subscription to be confirmed so no publish races past it
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", b.topic, err)
	}
	b.pubsub = pubsub
	b.done = make(chan struct{})

	go b.handleUpdates(pubsub.Channel(), deliver, b.done)
	return nil
}

func (b *RedisBus) handleUpdates(ch <-chan *redis.Message, deliver func(Envelope), done chan struct{}) {
	defer close(done)
	for msg := range ch {
		var env Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			b.logger.Error("failed to unmarshal envelope",
				zap.Error(err),
				zap.String("payload", msg.Payload))
			continue
		}
		deliver(env)
	}
}

func (b *RedisBus) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return b.client.Publish(ctx, b.topic, data).Err()
}

// Close unsubscribes, waits for the delivery goroutine, and closes the client
func (b *RedisBus) Close() error {
	b.mu.Lock()
	pubsub, done := b.pubsub, b.done
	b.pubsub = nil
	b.mu.Unlock()

	if pubsub != nil {
		_ = pubsub.Close()
		<-done
	}
	return b.client.Close()
}
