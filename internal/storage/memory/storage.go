package memory

import (
	"context"
	"sync"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/storage"
)

const subscriberBufferSize = 64

// Storage is an in-process implementation of the document store. Subscribers
// in the same process see every save, which is enough to exercise
// multi-client behaviour in tests.
type Storage struct {
	mu          sync.RWMutex
	documents   map[string][]byte
	subscribers map[string]map[chan []byte]struct{}
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		documents:   make(map[string][]byte),
		subscribers: make(map[string]map[chan []byte]struct{}),
	}
}

// Ensure Storage implements the interface
var _ storage.DocumentStore = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context, docID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.documents[docID]
	if !ok {
		return nil, model.ErrDocumentNotFound
	}
	return copyBytes(data), nil
}

func (s *Storage) Save(ctx context.Context, docID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[docID] = copyBytes(data)

	for ch := range s.subscribers[docID] {
		select {
		case ch <- copyBytes(data):
		default:
			// Slow subscriber; it will catch up on the next save
		}
	}
	return nil
}

func (s *Storage) Subscribe(ctx context.Context, docID string) (<-chan []byte, error) {
	ch := make(chan []byte, subscriberBufferSize)

	s.mu.Lock()
	if s.subscribers[docID] == nil {
		s.subscribers[docID] = make(map[chan []byte]struct{})
	}
	s.subscribers[docID][ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers[docID], ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch, nil
}

// Close drops all documents. Subscriptions end with their contexts.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[string][]byte)
	return nil
}

// SubscriberCount returns the number of live subscriptions for a document
func (s *Storage) SubscriberCount(docID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers[docID])
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
