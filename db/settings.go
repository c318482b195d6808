package db

import (
	"database/sql"
	"time"

	"github.com/teranos/vigil/errors"
)

// Well-known settings keys
const (
	// SettingOwnerChatID is the Telegram chat that receives proactive messages
	SettingOwnerChatID = "owner_chat_id"
)

// Settings is a small key/value store for runtime state that must
// survive restarts but does not belong in the config file, such as the
// owner identity learned at runtime.
type Settings struct {
	db *sql.DB
}

// NewSettings creates a settings store backed by the given database
func NewSettings(db *sql.DB) *Settings {
	return &Settings{db: db}
}

// Get returns the value for key. Returns a not-found error when the key
// has never been set.
func (s *Settings) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", errors.NewNotFoundError("setting not found: %s", key)
		}
		return "", errors.Wrapf(err, "failed to read setting %s", key)
	}
	return value, nil
}

// Set stores or replaces the value for key
func (s *Settings) Set(key string, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errors.Wrapf(err, "failed to write setting %s", key)
	}
	return nil
}
