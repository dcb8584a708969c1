// Package profile holds the agent's local durable state: the stable user
// identity sent to the remote habits store, and the last good snapshot of
// each external activity feed.
package profile

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pulseboard/pulseboard/internal/feed"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS profile (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS feed_snapshots (
	source     TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	fetched_at TEXT NOT NULL
);`

const userIDKey = "user_id"

// Store is a sqlite-backed profile database. It also implements feed.Cache
// so feed sources degrade to the last good snapshot across restarts.
type Store struct {
	db *sql.DB
}

// Open creates or opens the profile database at path. WAL mode keeps reads
// cheap while the sync engine writes.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open profile db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect profile db: %w", err)
	}

	// sqlite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply profile schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UserID returns the stable identity for this profile, minting one on first
// use. Identities are "user_" plus a random UUID so the remote store can
// partition habit state per installation without any signup step.
func (s *Store) UserID() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT value FROM profile WHERE key = ?`, userIDKey).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("read user id: %w", err)
	}

	id = "user_" + uuid.NewString()
	if _, err := s.db.Exec(`INSERT INTO profile (key, value) VALUES (?, ?)`, userIDKey, id); err != nil {
		return "", fmt.Errorf("store user id: %w", err)
	}
	return id, nil
}

// LoadSnapshot returns the cached snapshot for source, or nil when none has
// been saved yet.
func (s *Store) LoadSnapshot(source string) (*feed.Snapshot, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM feed_snapshots WHERE source = ?`, source).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s snapshot: %w", source, err)
	}
	var snapshot feed.Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, fmt.Errorf("decode %s snapshot: %w", source, err)
	}
	return &snapshot, nil
}

// SaveSnapshot upserts the last good snapshot for its source.
func (s *Store) SaveSnapshot(snapshot feed.Snapshot) error {
	if strings.TrimSpace(snapshot.Source) == "" {
		return fmt.Errorf("snapshot has no source")
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", snapshot.Source, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO feed_snapshots (source, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		snapshot.Source, string(payload), snapshot.FetchedAt.UTC().Format("2006-01-02T15:04:05Z"))
	if err != nil {
		return fmt.Errorf("store %s snapshot: %w", snapshot.Source, err)
	}
	return nil
}
