// Package postgres implements the remote storage driver for authenticated
// owners. Sessions and messages live in separate tables; session upserts
// re-send only the message suffix that is not yet stored, so a long
// conversation never re-uploads its history on every turn.
package postgres

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/plumechat/plume/internal/profile"
	"github.com/plumechat/plume/store"
	"github.com/plumechat/plume/store/cache"
)

const (
	countCacheCapacity = 1024
	countCacheTTL      = 30 * time.Minute
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_session (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL DEFAULT '',
	persona TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_session_owner_id ON chat_session (owner_id);
CREATE INDEX IF NOT EXISTS idx_chat_session_updated_ts ON chat_session (updated_ts);

CREATE TABLE IF NOT EXISTS chat_message (
	id BIGSERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	attachments TEXT NOT NULL DEFAULT '[]',
	reasoning_trace TEXT NOT NULL DEFAULT '',
	audio_url TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '',
	has_animated BOOLEAN NOT NULL DEFAULT FALSE,
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_message_session_id ON chat_message (session_id);
`

type DB struct {
	db      *sql.DB
	profile *profile.Profile

	// persisted message count per session id, to gate suffix writes
	counts *cache.Cache
}

// NewDB opens the remote database and verifies connectivity.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.RemoteDSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.RemoteDSN)
	}

	// Single-user chat client; keep the pool small.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "failed to migrate remote schema")
	}

	return &DB{
		db:      db,
		profile: profile,
		counts:  cache.New(countCacheCapacity, countCacheTTL),
	}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// placeholder returns the n-th placeholder for PostgreSQL ($n).
func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// placeholders returns n placeholders starting at $1.
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}
