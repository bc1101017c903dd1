// Package session persists the signed-in user's API token and account
// record between restarts, and owns the login/register/logout flows built
// on top of that storage.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/readspace/readspace/internal/crypto"
	"github.com/readspace/readspace/internal/library"
)

const (
	// EnvEncryptionKey overrides the key file when set.
	EnvEncryptionKey = "SESSION_ENCRYPTION_KEY"

	// DefaultKeyFileName is created in the user's home directory the first
	// time no key is configured.
	DefaultKeyFileName = ".readspace-session-key"

	// keyToken and keyUser are the fixed storage slots. The whole app holds
	// at most one session, so the slots are singletons.
	keyToken = "token"
	keyUser  = "user"
)

// record is one key/value row of durable session storage. The token value
// is sealed before it reaches the row.
type record struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

func (record) TableName() string { return "session_records" }

// State is the persisted session: the API bearer token and the account it
// belongs to.
type State struct {
	Token string
	User  library.User
}

// IsAdmin reports whether the session belongs to an admin account.
func (s *State) IsAdmin() bool { return s.User.Role == library.RoleAdmin }

// Store keeps session state in a local SQLite database, with the token
// encrypted at rest.
type Store struct {
	db     *gorm.DB
	sealer *crypto.Sealer
}

// Config configures the session store.
type Config struct {
	// DatabasePath is the SQLite file backing the store.
	DatabasePath string

	// EncryptionKey is a base64-encoded 32-byte key. When empty the key is
	// resolved from the environment or the key file.
	EncryptionKey string

	// KeyFilePath overrides the default key file location.
	KeyFilePath string
}

// NewStore opens (and migrates) the session database.
func NewStore(cfg Config) (*Store, error) {
	key, err := resolveEncryptionKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolving encryption key: %w", err)
	}
	sealer, err := crypto.NewSealerFromBase64(key)
	if err != nil {
		return nil, fmt.Errorf("creating sealer: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migrating session schema: %w", err)
	}

	return &Store{db: db, sealer: sealer}, nil
}

// resolveEncryptionKey prefers an explicit key, then the environment, then
// the key file, generating and saving a fresh key when none exists.
func resolveEncryptionKey(cfg Config) (string, error) {
	if cfg.EncryptionKey != "" {
		return cfg.EncryptionKey, nil
	}
	if envKey := os.Getenv(EnvEncryptionKey); envKey != "" {
		return envKey, nil
	}

	keyFilePath := cfg.KeyFilePath
	if keyFilePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locating home directory: %w", err)
		}
		keyFilePath = filepath.Join(homeDir, DefaultKeyFileName)
	}

	if data, err := os.ReadFile(keyFilePath); err == nil {
		return string(data), nil
	}

	newKey, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generating encryption key: %w", err)
	}
	if err := os.WriteFile(keyFilePath, []byte(newKey), 0600); err != nil {
		return "", fmt.Errorf("saving encryption key to %s: %w", keyFilePath, err)
	}
	return newKey, nil
}

// Save persists the session, replacing whatever was stored before.
func (s *Store) Save(state State) error {
	sealedToken, err := s.sealer.Seal(state.Token)
	if err != nil {
		return fmt.Errorf("sealing token: %w", err)
	}
	userJSON, err := json.Marshal(state.User)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}

	if err := s.upsert(keyToken, sealedToken); err != nil {
		return err
	}
	return s.upsert(keyUser, string(userJSON))
}

func (s *Store) upsert(key, value string) error {
	result := s.db.Where("key = ?", key).
		Assign(map[string]interface{}{
			"value":      value,
			"updated_at": time.Now(),
		}).
		FirstOrCreate(&record{Key: key, Value: value})
	if result.Error != nil {
		return fmt.Errorf("saving session record %q: %w", key, result.Error)
	}
	return nil
}

// Current returns the stored session, or (nil, nil) when nobody is signed
// in. A sealed token that no longer opens is treated as corrupt storage and
// surfaces as an error.
func (s *Store) Current() (*State, error) {
	sealedToken, ok, err := s.get(keyToken)
	if err != nil || !ok {
		return nil, err
	}
	userJSON, ok, err := s.get(keyUser)
	if err != nil || !ok {
		return nil, err
	}

	token, err := s.sealer.Open(sealedToken)
	if err != nil {
		return nil, fmt.Errorf("opening stored token: %w", err)
	}
	var user library.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, fmt.Errorf("decoding stored user: %w", err)
	}
	return &State{Token: token, User: user}, nil
}

func (s *Store) get(key string) (string, bool, error) {
	var rec record
	result := s.db.Where("key = ?", key).First(&rec)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading session record %q: %w", key, result.Error)
	}
	return rec.Value, true, nil
}

// Clear removes the stored session. Clearing an empty store is a no-op.
func (s *Store) Clear() error {
	result := s.db.Where("key IN ?", []string{keyToken, keyUser}).Delete(&record{})
	if result.Error != nil {
		return fmt.Errorf("clearing session: %w", result.Error)
	}
	return nil
}

// DB exposes the underlying connection so other components can share the
// same SQLite file.
func (s *Store) DB() (*sql.DB, error) {
	return s.db.DB()
}

// Close closes the database connection.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
