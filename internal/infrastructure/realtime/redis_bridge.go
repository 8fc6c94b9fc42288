package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/custdash/backend/internal/domain/customer"
)

const (
	defaultChannel      = "customers.events"
	defaultCloseTimeout = 5 * time.Second
	publishTimeout      = 2 * time.Second
)

// RedisBridge fans customer events out across instances using Redis
// Pub/Sub. It implements customer.Notifier on the publishing side; each
// instance subscribes and relays received envelopes to its local SSE hub,
// so clients connected to any replica see every mutation.
type RedisBridge struct {
	client     *redis.Client
	ownsClient bool
	channel    string
	logger     *zap.Logger
	cancelFn   context.CancelFunc
	doneCh     chan struct{}
	doneOnce   sync.Once
	mu         sync.Mutex
	isRunning  bool
}

// RedisBridgeOption is a functional option for configuring the bridge
type RedisBridgeOption func(*RedisBridge)

// WithChannel sets the Pub/Sub channel name
func WithChannel(channel string) RedisBridgeOption {
	return func(b *RedisBridge) {
		b.channel = channel
	}
}

// WithBridgeLogger sets the logger for the bridge
func WithBridgeLogger(logger *zap.Logger) RedisBridgeOption {
	return func(b *RedisBridge) {
		b.logger = logger
	}
}

// NewRedisBridge creates a bridge with its own Redis connection
func NewRedisBridge(addr, password string, db int, opts ...RedisBridgeOption) (*RedisBridge, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	bridge := &RedisBridge{
		client:     client,
		ownsClient: true,
		channel:    defaultChannel,
		logger:     zap.NewNop(),
		doneCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(bridge)
	}

	return bridge, nil
}

// NewRedisBridgeWithClient creates a bridge over an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisBridgeWithClient(client *redis.Client, opts ...RedisBridgeOption) *RedisBridge {
	bridge := &RedisBridge{
		client:     client,
		ownsClient: false,
		channel:    defaultChannel,
		logger:     zap.NewNop(),
		doneCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(bridge)
	}

	return bridge
}

// CustomerCreated publishes a created event
func (b *RedisBridge) CustomerCreated(summary customer.Summary) {
	b.publish(Envelope{Event: customer.EventCreated, Summary: &summary})
}

// CustomerUpdated publishes an updated event
func (b *RedisBridge) CustomerUpdated(summary customer.Summary) {
	b.publish(Envelope{Event: customer.EventUpdated, Summary: &summary})
}

// CustomerDeleted publishes a deleted event
func (b *RedisBridge) CustomerDeleted(id uuid.UUID) {
	b.publish(Envelope{Event: customer.EventDeleted, ID: &id})
}

// CustomersBulkDeleted publishes a bulk delete event
func (b *RedisBridge) CustomersBulkDeleted(ids []uuid.UUID) {
	b.publish(Envelope{Event: customer.EventBulkDeleted, IDs: ids})
}

// publish sends an envelope to all subscribers. Failures are logged,
// never surfaced: event delivery is best-effort and must not affect
// the mutation that triggered it.
func (b *RedisBridge) publish(env Envelope) {
	if env.Timestamp == 0 {
		env.Timestamp = time.Now().UnixNano()
	}

	data, err := json.Marshal(env)
	if err != nil {
		b.logger.Error("Failed to marshal event envelope",
			zap.String("event", env.Event),
			zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event envelope",
			zap.String("event", env.Event),
			zap.String("channel", b.channel),
			zap.Error(err))
		return
	}

	b.logger.Debug("Published event envelope",
		zap.String("event", env.Event),
		zap.String("channel", b.channel))
}

// Subscribe starts listening for envelopes and relays each one to the
// local notifier. This method blocks and should be called in a goroutine.
func (b *RedisBridge) Subscribe(ctx context.Context, local customer.Notifier) error {
	b.mu.Lock()
	if b.isRunning {
		b.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	b.isRunning = true
	b.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancelFn = cancel
	b.mu.Unlock()

	pubsub := b.client.Subscribe(subCtx, b.channel)
	defer pubsub.Close()

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(subCtx); err != nil {
		b.mu.Lock()
		b.isRunning = false
		b.mu.Unlock()
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Info("Subscribed to customer event channel",
		zap.String("channel", b.channel))

	ch := pubsub.Channel()

	for {
		select {
		case <-subCtx.Done():
			b.logger.Info("Customer event subscription stopped")
			b.mu.Lock()
			b.isRunning = false
			b.mu.Unlock()
			b.markDone()
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				b.logger.Warn("Customer event channel closed")
				b.mu.Lock()
				b.isRunning = false
				b.mu.Unlock()
				b.markDone()
				return nil
			}

			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Error("Failed to unmarshal event envelope",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}

			// Relay in a separate goroutine so a slow hub never
			// backs up the subscription.
			go func(e Envelope) {
				defer func() {
					if r := recover(); r != nil {
						b.logger.Error("Panic relaying event envelope",
							zap.Any("panic", r))
					}
				}()
				e.ApplyTo(local)
			}(env)
		}
	}
}

// markDone safely marks the bridge as done
func (b *RedisBridge) markDone() {
	b.doneOnce.Do(func() {
		close(b.doneCh)
	})
}

// Close releases any resources held by the bridge
func (b *RedisBridge) Close() error {
	b.mu.Lock()
	cancelFn := b.cancelFn
	b.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-b.doneCh:
		case <-time.After(defaultCloseTimeout):
			b.logger.Warn("Timeout waiting for subscription to stop")
		}
	}

	if b.ownsClient {
		return b.client.Close()
	}
	return nil
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (b *RedisBridge) GetClient() *redis.Client {
	return b.client
}

// Ensure RedisBridge implements customer.Notifier
var _ customer.Notifier = (*RedisBridge)(nil)
