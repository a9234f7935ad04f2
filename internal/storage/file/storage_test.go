package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/testutil"
)

type StorageSuite struct {
	suite.Suite
	dir     string
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.dir = filepath.Join(s.T().TempDir(), "documents")
	var err error
	s.storage, err = New(s.dir, testutil.NopLogger())
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *StorageSuite) receive(updates <-chan []byte) string {
	select {
	case data, ok := <-updates:
		s.Require().True(ok, "subscription closed")
		return string(data)
	case <-time.After(2 * time.Second):
		s.FailNow("no update received")
		return ""
	}
}

func (s *StorageSuite) TestNewCreatesDirectory() {
	info, err := os.Stat(s.dir)
	s.Require().NoError(err)
	s.True(info.IsDir())
}

func (s *StorageSuite) TestLoadMissingDocument() {
	_, err := s.storage.Load(s.ctx, "users-auth")
	s.ErrorIs(err, model.ErrDocumentNotFound)
}

func (s *StorageSuite) TestSaveAndLoad() {
	s.Require().NoError(s.storage.Save(s.ctx, "users-auth", []byte(`{"users":[]}`)))
	s.Require().NoError(s.storage.Save(s.ctx, "users-auth", []byte(`{"users":[1]}`)))

	data, err := s.storage.Load(s.ctx, "users-auth")
	s.Require().NoError(err)
	s.JSONEq(`{"users":[1]}`, string(data))

	// Only the document is left behind
	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("users-auth.json", entries[0].Name())
}

func (s *StorageSuite) TestDocumentsOutliveTheStore() {
	s.Require().NoError(s.storage.Save(s.ctx, "doc", []byte("v1")))
	s.Require().NoError(s.storage.Close())

	reopened, err := New(s.dir, testutil.NopLogger())
	s.Require().NoError(err)
	data, err := reopened.Load(s.ctx, "doc")
	s.Require().NoError(err)
	s.Equal("v1", string(data))
}

func (s *StorageSuite) TestSubscribersSeeSavesFromOtherStores() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	updates, err := s.storage.Subscribe(ctx, "doc")
	s.Require().NoError(err)
	other, err := s.storage.Subscribe(ctx, "other")
	s.Require().NoError(err)

	// A second client on the same directory
	writer, err := New(s.dir, testutil.NopLogger())
	s.Require().NoError(err)

	s.Require().NoError(writer.Save(s.ctx, "doc", []byte("v1")))
	s.Equal("v1", s.receive(updates))

	s.Require().NoError(writer.Save(s.ctx, "doc", []byte("v2")))
	s.Equal("v2", s.receive(updates))

	s.Empty(other)
}

func (s *StorageSuite) TestSubscriptionEndsWithContext() {
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
	}, time.Second, 5*time.Millisecond)
}
