package storage

import (
	"context"
)

// DocumentStore is the durable backend of the synchronization layer. Each
// document is an opaque blob keyed by a logical document ID; saving a
// document notifies every subscriber of that document, including ones in
// other processes.
type DocumentStore interface {
	// Load returns the current document, or model.ErrDocumentNotFound
	Load(ctx context.Context, docID string) ([]byte, error)

	// Save replaces the document and notifies subscribers
	Save(ctx context.Context, docID string, data []byte) error

	// Subscribe delivers every saved version of the document until ctx is
	// cancelled, after which the channel is closed
	Subscribe(ctx context.Context, docID string) (<-chan []byte, error)

	// Close releases backend connections
	Close() error
}
