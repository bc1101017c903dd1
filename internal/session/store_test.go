package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/readspace/readspace/internal/crypto"
	"github.com/readspace/readspace/internal/library"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	store, err := NewStore(Config{
		DatabasePath:  filepath.Join(t.TempDir(), "session.db"),
		EncryptionKey: key,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testState() State {
	return State{
		Token: "9|aBcDeFgHiJkLmNoP",
		User: library.User{
			ID:       1,
			Username: "alice",
			Email:    "alice@example.com",
			Role:     library.RoleAdmin,
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	t.Run("empty store has no session", func(t *testing.T) {
		state, err := store.Current()
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("saved session comes back intact", func(t *testing.T) {
		require.NoError(t, store.Save(testState()))

		state, err := store.Current()
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, "9|aBcDeFgHiJkLmNoP", state.Token)
		assert.Equal(t, "alice", state.User.Username)
		assert.True(t, state.IsAdmin())
	})

	t.Run("saving again replaces the session", func(t *testing.T) {
		next := testState()
		next.Token = "10|replacement"
		next.User.Role = "reader"
		require.NoError(t, store.Save(next))

		state, err := store.Current()
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, "10|replacement", state.Token)
		assert.False(t, state.IsAdmin())
	})

	t.Run("clear signs out", func(t *testing.T) {
		require.NoError(t, store.Clear())
		state, err := store.Current()
		require.NoError(t, err)
		assert.Nil(t, state)

		assert.NoError(t, store.Clear(), "clearing an empty store is fine")
	})
}

func TestStoreEncryptsTokenAtRest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.db")
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	store, err := NewStore(Config{DatabasePath: dbPath, EncryptionKey: key})
	require.NoError(t, err)
	require.NoError(t, store.Save(testState()))
	require.NoError(t, store.Close())

	// Read the raw row without the sealer.
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	var rec record
	require.NoError(t, db.Where("key = ?", "token").First(&rec).Error)
	assert.NotEqual(t, "9|aBcDeFgHiJkLmNoP", rec.Value)
	assert.NotContains(t, rec.Value, "aBcDeFgHiJkLmNoP")
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.db")
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	store, err := NewStore(Config{DatabasePath: dbPath, EncryptionKey: key})
	require.NoError(t, err)
	require.NoError(t, store.Save(testState()))
	require.NoError(t, store.Close())

	reopened, err := NewStore(Config{DatabasePath: dbPath, EncryptionKey: key})
	require.NoError(t, err)
	defer reopened.Close()

	state, err := reopened.Current()
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "alice", state.User.Username)
}

func TestStoreKeyFile(t *testing.T) {
	t.Run("generates and reuses a key file", func(t *testing.T) {
		dir := t.TempDir()
		keyFile := filepath.Join(dir, "key")

		store, err := NewStore(Config{
			DatabasePath: filepath.Join(dir, "session.db"),
			KeyFilePath:  keyFile,
		})
		require.NoError(t, err)
		require.NoError(t, store.Save(testState()))
		require.NoError(t, store.Close())

		// Reopening with the same key file decrypts the stored token.
		reopened, err := NewStore(Config{
			DatabasePath: filepath.Join(dir, "session.db"),
			KeyFilePath:  keyFile,
		})
		require.NoError(t, err)
		defer reopened.Close()

		state, err := reopened.Current()
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, "9|aBcDeFgHiJkLmNoP", state.Token)
	})

	t.Run("wrong key surfaces as an error", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "session.db")

		firstKey, err := crypto.GenerateKey()
		require.NoError(t, err)
		store, err := NewStore(Config{DatabasePath: dbPath, EncryptionKey: firstKey})
		require.NoError(t, err)
		require.NoError(t, store.Save(testState()))
		require.NoError(t, store.Close())

		otherKey, err := crypto.GenerateKey()
		require.NoError(t, err)
		reopened, err := NewStore(Config{DatabasePath: dbPath, EncryptionKey: otherKey})
		require.NoError(t, err)
		defer reopened.Close()

		_, err = reopened.Current()
		assert.Error(t, err)
	})
}
