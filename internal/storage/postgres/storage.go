package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/storage"
)

const (
	subscriberBufferSize = 64
	firstRetryDelay      = 100 * time.Millisecond
	maxRetryDelay        = 5 * time.Second
)

// Storage keeps documents in a single table and announces saves with
// NOTIFY. The notification payload is the document id; subscribers reload
// the body, which keeps payloads under the NOTIFY size limit.
type Storage struct {
	pool   *pgxpool.Pool
	cfg    Config
	logger *slog.Logger

	listen     func(ctx context.Context) (notificationSource, error)
	load       func(ctx context.Context, docID string) ([]byte, error)
	retryDelay time.Duration
}

// New connects to Postgres, verifies the connection and applies migrations.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}

	return NewWithPool(pool, cfg), nil
}

// NewWithPool wraps an existing, already migrated pool
func NewWithPool(pool *pgxpool.Pool, cfg Config) *Storage {
	if cfg.Channel == "" {
		cfg.Channel = DefaultConfig().Channel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Storage{pool: pool, cfg: cfg, logger: logger, retryDelay: firstRetryDelay}
	s.listen = s.listenPool
	s.load = s.Load
	return s
}

// Ensure Storage implements the interface
var _ storage.DocumentStore = (*Storage)(nil)

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

func (s *Storage) Load(ctx context.Context, docID string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM documents WHERE id = $1`, docID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrDocumentNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *Storage) Save(ctx context.Context, docID string, data []byte) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO documents (id, data, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
			docID, data)
		if err != nil {
			return err
		}
		// Delivered on commit
		_, err = tx.Exec(ctx, `SELECT pg_notify($1, $2)`, s.cfg.Channel, docID)
		return err
	})
}

func (s *Storage) Subscribe(ctx context.Context, docID string) (<-chan []byte, error) {
	src, err := s.listen(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan []byte, subscriberBufferSize)
	go s.relay(ctx, docID, src, out)
	return out, nil
}

// notificationSource is a connection that is LISTENing on the channel.
type notificationSource interface {
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close()
}

type pooledListener struct {
	conn *pgxpool.Conn
}

func (l *pooledListener) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return l.conn.Conn().WaitForNotification(ctx)
}

func (l *pooledListener) Close() {
	// The connection goes back to the pool, so stop listening first
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := l.conn.Exec(ctx, "UNLISTEN *"); err != nil {
		_ = l.conn.Conn().Close(ctx)
	}
	l.conn.Release()
}

func (s *Storage) listenPool(ctx context.Context) (notificationSource, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{s.cfg.Channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, err
	}
	return &pooledListener{conn: conn}, nil
}

func (s *Storage) relay(ctx context.Context, docID string, src notificationSource, out chan<- []byte) {
	defer close(out)
	defer func() {
		if src != nil {
			src.Close()
		}
	}()

	for {
		n, err := src.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("postgres listener lost, resubscribing", "doc_id", docID, "error", err)
			src.Close()
			if src, err = s.resubscribe(ctx, docID); err != nil {
				return
			}
			// Saves made while the listener was down were never announced
			if !s.deliver(ctx, docID, out) {
				return
			}
			continue
		}
		if n.Payload != docID {
			continue
		}
		if !s.deliver(ctx, docID, out) {
			return
		}
	}
}

// resubscribe retries LISTEN with backoff until it succeeds or ctx ends.
func (s *Storage) resubscribe(ctx context.Context, docID string) (notificationSource, error) {
	delay := s.retryDelay
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		src, err := s.listen(ctx)
		if err == nil {
			s.logger.Info("postgres listener resubscribed", "doc_id", docID)
			return src, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("postgres resubscribe failed", "doc_id", docID, "error", err)
		delay = min(delay*2, maxRetryDelay)
	}
}

// deliver reloads docID and forwards it. It reports false once ctx is done.
func (s *Storage) deliver(ctx context.Context, docID string, out chan<- []byte) bool {
	data, err := s.load(ctx, docID)
	if err != nil {
		if !errors.Is(err, model.ErrDocumentNotFound) && ctx.Err() == nil {
			s.logger.Warn("postgres reload after notification failed", "doc_id", docID, "error", err)
		}
		return ctx.Err() == nil
	}
	select {
	case out <- data:
		return true
	case <-ctx.Done():
		return false
	}
}
