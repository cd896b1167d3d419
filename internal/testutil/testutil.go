// Package testutil provides shared fixtures for package tests: a migrated
// throwaway database, seeded users, and an in-memory object store.
package testutil

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/tonggak/milestones/internal/db"
	"github.com/tonggak/milestones/internal/model"
	"github.com/tonggak/milestones/internal/repository"
)

// NewTestDB opens a fresh SQLite database in a per-test temp directory and
// runs all migrations. A file-backed database avoids the shared-cache
// pitfalls of :memory: across pooled connections.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Init("sqlite", path+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	return database
}

// NewTestUser inserts a user and returns it.
func NewTestUser(t *testing.T, database *sqlx.DB, email string) *model.User {
	t.Helper()

	user := &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		CreatedAt: time.Now(),
	}
	err := repository.NewUserRepository(database).Create(user)
	require.NoError(t, err)

	return user
}

// NewTestAdmin inserts a user and grants it admin membership.
func NewTestAdmin(t *testing.T, database *sqlx.DB, email string) *model.User {
	t.Helper()

	user := NewTestUser(t, database, email)
	err := repository.NewAdminRepository(database).Grant(user.ID)
	require.NoError(t, err)

	return user
}

// FakeStorage is an in-memory object store. Error fields, when set, are
// returned by the corresponding operation to simulate store failures.
type FakeStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte

	SaveErr    error
	DeleteErr  error
	PresignErr error
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{Objects: make(map[string][]byte)}
}

func (f *FakeStorage) Save(key string, body io.Reader, contentType string) error {
	if f.SaveErr != nil {
		return f.SaveErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Objects[key] = data
	return nil
}

func (f *FakeStorage) Delete(key string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Objects, key)
	return nil
}

func (f *FakeStorage) PresignedURL(key string, expiry time.Duration) (string, error) {
	if f.PresignErr != nil {
		return "", f.PresignErr
	}
	return fmt.Sprintf("https://store.test/%s?sig=%d", key, time.Now().UnixNano()), nil
}

// SampleJPEG returns a minimal buffer carrying the JPEG signature.
func SampleJPEG() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("test-jpeg-body")...)
}

// SamplePNG returns a minimal buffer carrying the PNG signature.
func SamplePNG() []byte {
	return append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, []byte("test-png-body")...)
}

// SampleWebP returns a minimal buffer carrying the RIFF/WEBP signature.
func SampleWebP() []byte {
	return []byte("RIFF\x10\x00\x00\x00WEBPVP8 ")
}
