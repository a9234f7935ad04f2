package docsync

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/LBIT2016/trading-gamers/internal/storage"
)

// Update is one saved version of a document as seen by a watcher
type Update struct {
	Origin string          `json:"origin"`
	State  json.RawMessage `json:"state"`
}

// Watch follows a document without binding a reducer to it. Versions that
// cannot be decoded are logged and skipped. The channel closes when ctx ends.
func Watch(ctx context.Context, store storage.DocumentStore, docID string, logger *slog.Logger) (<-chan Update, error) {
	raw, err := store.Subscribe(ctx, docID)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	out := make(chan Update)
	go func() {
		defer close(out)
		for data := range raw {
			env, err := decodeEnvelope(data)
			if err != nil {
				logger.Warn("skipping undecodable document version", "document", docID, "error", err)
				continue
			}
			select {
			case out <- Update{Origin: env.Origin, State: env.State}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
