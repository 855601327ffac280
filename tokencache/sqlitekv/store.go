// Package sqlitekv provides the durable KV store backing the token cache.
// A single SQLite file keeps issued tokens across process restarts on the
// same machine, mirroring a browser profile's local storage. Values are
// stored as-is; confidentiality relies on transport security and short
// token expiry, not on storage-layer encryption.
package sqlitekv

import (
	"database/sql"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/quaysidehq/go-bioauth/tokencache"
	_ "modernc.org/sqlite"
)

var _ tokencache.KV = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS token_records (
	email TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store implements tokencache.KV over SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the store at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("[sqlitekv.Open] storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlitekv.Open] sql.Open")
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "[sqlitekv.Open] ping")
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "[sqlitekv.Open] create schema")
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	var value string
	err := s.sqlDB.QueryRow(`SELECT value FROM token_records WHERE email = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "[Store.Get] query")
	}
	return []byte(value), true, nil
}

func (s *Store) Set(key string, value []byte) error {
	_, err := s.sqlDB.Exec(
		`INSERT INTO token_records (email, value) VALUES (?, ?)
		 ON CONFLICT (email) DO UPDATE SET value = excluded.value`,
		key, string(value),
	)
	if err != nil {
		return errors.Wrap(err, "[Store.Set] exec")
	}
	return nil
}

func (s *Store) Remove(key string) error {
	if _, err := s.sqlDB.Exec(`DELETE FROM token_records WHERE email = ?`, key); err != nil {
		return errors.Wrap(err, "[Store.Remove] exec")
	}
	return nil
}
