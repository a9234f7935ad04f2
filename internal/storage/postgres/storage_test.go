package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/LBIT2016/trading-gamers/internal/model"
)

// Runs against a real database when MARKET_TEST_DATABASE_URL is set.
type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	if os.Getenv("MARKET_TEST_DATABASE_URL") == "" {
		t.Skip("MARKET_TEST_DATABASE_URL not set")
	}
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.ctx = context.Background()

	cfg := DefaultConfig()
	cfg.URL = os.Getenv("MARKET_TEST_DATABASE_URL")
	cfg.Channel = "market_documents_test"

	store, err := New(s.ctx, cfg)
	s.Require().NoError(err)
	s.storage = store

	_, err = store.pool.Exec(s.ctx, `DELETE FROM documents`)
	s.Require().NoError(err)
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *StorageSuite) TestLoadMissingDocument() {
	_, err := s.storage.Load(s.ctx, "users-auth")
	s.ErrorIs(err, model.ErrDocumentNotFound)
}

func (s *StorageSuite) TestSaveUpserts() {
	s.Require().NoError(s.storage.Save(s.ctx, "doc", []byte("v1")))
	s.Require().NoError(s.storage.Save(s.ctx, "doc", []byte("v2")))

	data, err := s.storage.Load(s.ctx, "doc")
	s.Require().NoError(err)
	s.Equal("v2", string(data))
}

func (s *StorageSuite) TestSubscribeReceivesSaves() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	updates, err := s.storage.Subscribe(ctx, "doc")
	s.Require().NoError(err)

	s.Require().NoError(s.storage.Save(s.ctx, "other", []byte("ignored")))
	s.Require().NoError(s.storage.Save(s.ctx, "doc", []byte("hello")))

	select {
	case got := <-updates:
		s.Equal("hello", string(got))
	case <-time.After(5 * time.Second):
		s.Fail("timed out waiting for notification")
	}
}

func (s *StorageSuite) TestMigrateIsIdempotent() {
	s.NoError(Migrate(s.storage.pool))
}
