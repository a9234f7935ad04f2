package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/LBIT2016/trading-gamers/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.KeyPrefix = "test"

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestLoadMissingDocument() {
	_, err := s.storage.Load(s.ctx, "users-auth")
	s.ErrorIs(err, model.ErrDocumentNotFound)
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *StorageSuite) TestSaveAndLoad() {
	err := s.storage.Save(s.ctx, "users-auth", []byte(`{"users":[]}`))
	s.Require().NoError(err)

	data, err := s.storage.Load(s.ctx, "users-auth")
	s.Require().NoError(err)
	s.JSONEq(`{"users":[]}`, string(data))
}

func (s *StorageSuite) TestSaveUsesPrefixedKey() {
	s.Require().NoError(s.storage.Save(s.ctx, "marketplace-listings", []byte("v1")))

	s.True(s.mini.Exists("test:doc:marketplace-listings"))
	got, err := s.mini.Get("test:doc:marketplace-listings")
	s.Require().NoError(err)
	s.Equal("v1", got)
}

func (s *StorageSuite) TestSaveOverwrites() {
	s.Require().NoError(s.storage.Save(s.ctx, "doc", []byte("v1")))
	s.Require().NoError(s.storage.Save(s.ctx, "doc", []byte("v2")))

	data, err := s.storage.Load(s.ctx, "doc")
	s.Require().NoError(err)
	s.Equal("v2", string(data))
}

func (s *StorageSuite) TestDocumentTTL() {
	client := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	cfg := DefaultConfig()
	cfg.DocumentTTL = time.Minute
	store := NewWithClient(client, cfg)
	defer func() { _ = store.Close() }()

	s.Require().NoError(store.Save(s.ctx, "doc", []byte("v1")))
	s.Equal(time.Minute, s.mini.TTL("tgmarket:doc:doc"))

	s.mini.FastForward(2 * time.Minute)
	_, err := store.Load(s.ctx, "doc")
	s.ErrorIs(err, model.ErrDocumentNotFound)
}

func (s *StorageSuite) TestSubscribeReceivesSaves() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	updates, err := s.storage.Subscribe(ctx, "doc")
	s.Require().NoError(err)

	s.Require().NoError(s.storage.Save(s.ctx, "doc", []byte("hello")))

	select {
	case got := <-updates:
		s.Equal("hello", string(got))
	case <-time.After(2 * time.Second):
		s.Fail("timed out waiting for update")
	}
}

func (s *StorageSuite) TestSubscribeIgnoresOtherDocuments() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	updates, err := s.storage.Subscribe(ctx, "doc-a")
	s.Require().NoError(err)

	s.Require().NoError(s.storage.Save(s.ctx, "doc-b", []byte("other")))
	s.Require().NoError(s.storage.Save(s.ctx, "doc-a", []byte("mine")))

	select {
	case got := <-updates:
		s.Equal("mine", string(got))
	case <-time.After(2 * time.Second):
		s.Fail("timed out waiting for update")
	}
}

func (s *StorageSuite) TestSubscribeClosesOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)

	updates, err := s.storage.Subscribe(ctx, "doc")
	s.Require().NoError(err)
	cancel()

	s.Eventually(func() bool {
		select {
		case _, ok := <-updates:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
