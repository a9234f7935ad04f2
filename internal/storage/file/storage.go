// Package file keeps shared documents as JSON files in a local directory.
// Every client process pointed at the same directory shares the documents;
// saves are announced to subscribers through filesystem notifications.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/storage"
)

const subscriberBufferSize = 64

// Storage is a directory-backed document store
type Storage struct {
	dir    string
	logger *slog.Logger

	// serializes writes from this process; other processes rely on rename being atomic
	mu sync.Mutex
}

// New creates the directory if needed and returns a store on it
func New(dir string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create document directory: %w", err)
	}
	return &Storage{dir: dir, logger: logger}, nil
}

// Ensure Storage implements the interface
var _ storage.DocumentStore = (*Storage)(nil)

// Dir returns the directory holding the documents
func (s *Storage) Dir() string {
	return s.dir
}

func (s *Storage) path(docID string) string {
	return filepath.Join(s.dir, docID+".json")
}

func (s *Storage) Load(ctx context.Context, docID string) ([]byte, error) {
	data, err := os.ReadFile(s.path(docID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.ErrDocumentNotFound
		}
		return nil, err
	}
	return data, nil
}

// Save writes the document to a temporary file and renames it into place,
// so readers never see a partial document
func (s *Storage) Save(ctx context.Context, docID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+docID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("save %s: %w", docID, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save %s: %w", docID, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save %s: %w", docID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", docID, err)
	}
	if err := os.Rename(tmp.Name(), s.path(docID)); err != nil {
		return fmt.Errorf("save %s: %w", docID, err)
	}
	return nil
}

// Subscribe watches the document file and delivers its contents after each
// change. Consecutive identical contents are delivered once.
func (s *Storage) Subscribe(ctx context.Context, docID string) (<-chan []byte, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", docID, err)
	}
	// Watch the directory, not the file: saves replace the file by rename
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", docID, err)
	}

	target := s.path(docID)
	out := make(chan []byte, subscriberBufferSize)
	go func() {
		defer close(out)
		defer func() { _ = watcher.Close() }()

		var last []byte
		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) {
					continue
				}
				data, err := os.ReadFile(target)
				if err != nil {
					s.logger.Debug("document changed but could not be read",
						slog.String("document", docID), slog.Any("error", err))
					continue
				}
				if last != nil && bytes.Equal(data, last) {
					continue
				}
				last = data
				select {
				case out <- data:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("document watch error",
					slog.String("document", docID), slog.Any("error", err))
			}
		}
	}()

	return out, nil
}

// Close is a no-op; subscriptions end with their contexts
func (s *Storage) Close() error {
	return nil
}
