// Package docsync keeps a local store in step with a shared document.
//
// A Binding loads the document once at start, then pushes the full local
// snapshot after every local change and replaces local state whenever
// another client saves. There is no merging: the last writer wins.
package docsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/storage"
)

// Document ids shared by every client
const (
	UsersDocument    = "users-auth"
	ListingsDocument = "marketplace-listings"
)

// DefaultInitTimeout bounds the initial load
const DefaultInitTimeout = 5 * time.Second

// Reducer is the local state a binding synchronizes.
type Reducer interface {
	// Snapshot serializes the shared part of the state
	Snapshot() ([]byte, error)
	// Replace swaps the shared part of the state for a remote snapshot
	Replace(data []byte) error
}

// Options configure a binding
type Options struct {
	DocumentID  string
	InitTimeout time.Duration
	// Origin identifies this client in saved envelopes. Random when empty.
	Origin      string
	OnInit      func()
	OnInitError func(error)
	Logger      *slog.Logger
	Metrics     *Metrics
}

type envelope struct {
	Origin string          `json:"origin"`
	State  json.RawMessage `json:"state"`
}

// Binding connects one reducer to one document
type Binding struct {
	store   storage.DocumentStore
	reducer Reducer
	opts    Options
	logger  *slog.Logger

	mu      sync.Mutex
	started bool
	ready   bool
	initErr error
	done    chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Bind creates a binding. Nothing happens until Start.
func Bind(store storage.DocumentStore, reducer Reducer, opts Options) *Binding {
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = DefaultInitTimeout
	}
	if opts.Origin == "" {
		opts.Origin = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Binding{
		store:   store,
		reducer: reducer,
		opts:    opts,
		logger:  logger.With("document", opts.DocumentID),
		done:    make(chan struct{}),
	}
}

// DocumentID returns the bound document id
func (b *Binding) DocumentID() string {
	return b.opts.DocumentID
}

// Origin returns the id this binding stamps on its saves
func (b *Binding) Origin() string {
	return b.opts.Origin
}

// Start performs the initial load and begins listening for remote saves.
// On failure OnInitError is called with an error matching
// model.ErrSyncInitFailed and the store keeps working on local state only.
func (b *Binding) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = true
	b.mu.Unlock()

	subCtx, cancel := context.WithCancel(context.Background())
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()

	updates, err := b.initialize(ctx, subCtx)
	if err != nil {
		cancel()
		err = fmt.Errorf("%w: %s: %w", model.ErrSyncInitFailed, b.opts.DocumentID, err)
		b.finishInit(err)
		b.opts.Metrics.incInitFailure(b.opts.DocumentID)
		b.logger.Warn("sync init failed, continuing with local state", "error", err)
		if b.opts.OnInitError != nil {
			b.opts.OnInitError(err)
		}
		return err
	}

	b.finishInit(nil)
	b.logger.Debug("sync initialized", "origin", b.opts.Origin)

	b.wg.Add(1)
	go b.listen(updates)

	if b.opts.OnInit != nil {
		b.opts.OnInit()
	}
	return nil
}

func (b *Binding) initialize(ctx, subCtx context.Context) (<-chan []byte, error) {
	initCtx, cancel := context.WithTimeout(ctx, b.opts.InitTimeout)
	defer cancel()

	// Subscribe before loading so saves racing the load are not lost
	type subResult struct {
		updates <-chan []byte
		err     error
	}
	subCh := make(chan subResult, 1)
	go func() {
		updates, err := b.store.Subscribe(subCtx, b.opts.DocumentID)
		subCh <- subResult{updates, err}
	}()

	var updates <-chan []byte
	select {
	case res := <-subCh:
		if res.err != nil {
			return nil, fmt.Errorf("subscribe: %w", res.err)
		}
		updates = res.updates
	case <-initCtx.Done():
		return nil, initCtx.Err()
	}

	data, err := b.store.Load(initCtx, b.opts.DocumentID)
	switch {
	case errors.Is(err, model.ErrDocumentNotFound):
		// First client to see this document seeds it with local state
		if err := b.push(initCtx); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		return updates, nil
	case err != nil:
		return nil, fmt.Errorf("load: %w", err)
	}

	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := b.reducer.Replace(env.State); err != nil {
		return nil, fmt.Errorf("replace: %w", err)
	}
	return updates, nil
}

func (b *Binding) finishInit(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initErr = err
	b.ready = err == nil
	close(b.done)
}

func (b *Binding) listen(updates <-chan []byte) {
	defer b.wg.Done()
	for data := range updates {
		env, err := decodeEnvelope(data)
		if err != nil {
			b.logger.Warn("ignoring undecodable remote update", "error", err)
			continue
		}
		if env.Origin == b.opts.Origin {
			continue
		}
		if err := b.reducer.Replace(env.State); err != nil {
			b.logger.Warn("failed to apply remote update", "origin", env.Origin, "error", err)
			continue
		}
		b.opts.Metrics.incRemote(b.opts.DocumentID)
		b.logger.Debug("applied remote update", "origin", env.Origin)
	}
}

// Ready reports whether the initial load succeeded
func (b *Binding) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// WaitReady blocks until initialization finishes or the timeout elapses.
func (b *Binding) WaitReady(timeout time.Duration) error {
	select {
	case <-b.done:
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.initErr
	case <-time.After(timeout):
		return fmt.Errorf("%w: %s: not ready after %s", model.ErrSyncInitFailed, b.opts.DocumentID, timeout)
	}
}

// Emit pushes the current local snapshot. Changes made before the binding
// is ready are kept locally and not pushed.
func (b *Binding) Emit(ctx context.Context) error {
	if !b.Ready() {
		b.logger.Debug("binding not ready, change kept local")
		return nil
	}
	if err := b.push(ctx); err != nil {
		b.opts.Metrics.incEmitError(b.opts.DocumentID)
		return err
	}
	b.opts.Metrics.incEmit(b.opts.DocumentID)
	return nil
}

func (b *Binding) push(ctx context.Context) error {
	state, err := b.reducer.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	data, err := json.Marshal(envelope{Origin: b.opts.Origin, State: state})
	if err != nil {
		return err
	}
	return b.store.Save(ctx, b.opts.DocumentID, data)
}

// Close stops listening for remote updates
func (b *Binding) Close() {
	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	b.wg.Wait()
}

func decodeEnvelope(data []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if len(env.State) == 0 {
		return nil, errors.New("missing state")
	}
	return &env, nil
}
