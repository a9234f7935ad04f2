package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/storage"
)

const subscriberBufferSize = 64

// Storage is a Redis-backed document store. Document bodies live in plain
// string keys and every save is announced on a per-document pub/sub channel
// carrying the new body.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.DocumentStore = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context, docID string) ([]byte, error) {
	data, err := s.client.Get(ctx, documentKey(s.cfg.KeyPrefix, docID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrDocumentNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *Storage) Save(ctx context.Context, docID string, data []byte) error {
	// Pipeline the body and the announcement in one round trip
	pipe := s.client.Pipeline()
	pipe.Set(ctx, documentKey(s.cfg.KeyPrefix, docID), data, s.cfg.DocumentTTL)
	pipe.Publish(ctx, documentChannel(s.cfg.KeyPrefix, docID), data)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) Subscribe(ctx context.Context, docID string) (<-chan []byte, error) {
	pubsub := s.client.Subscribe(ctx, documentChannel(s.cfg.KeyPrefix, docID))

	// Wait for the subscription to be confirmed so no save is missed after we return
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan []byte, subscriberBufferSize)
	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
