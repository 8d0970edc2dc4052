// Package sqlite implements the local storage driver. Anonymous sessions
// are kept on device as whole-session JSON documents keyed by session id,
// which matches the snapshot-in, snapshot-out shape of the store facade.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/plumechat/plume/internal/profile"
	"github.com/plumechat/plume/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_session (
	id TEXT PRIMARY KEY,
	persona TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	document TEXT NOT NULL,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_session_updated_ts ON chat_session (updated_ts);
`

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the local database and ensures the schema exists.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("sqlite", profile.LocalDSN+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.LocalDSN)
	}

	// modernc sqlite serializes writes; a single connection avoids lock churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "failed to migrate local schema")
	}

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) UpsertSession(ctx context.Context, session *store.Session) error {
	document, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}

	stmt := `INSERT INTO chat_session (id, persona, name, document, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id)
		DO UPDATE SET
			persona = EXCLUDED.persona,
			name = EXCLUDED.name,
			document = EXCLUDED.document,
			updated_ts = EXCLUDED.updated_ts`
	if _, err := d.db.ExecContext(ctx, stmt,
		session.ID, session.Persona, session.Name, string(document), session.CreatedTs, session.UpdatedTs); err != nil {
		return errors.Wrap(err, "failed to upsert chat_session")
	}
	return nil
}

func (d *DB) ListSessions(ctx context.Context, find *store.FindSession) ([]*store.Session, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find != nil && find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}

	query := `SELECT document FROM chat_session WHERE ` + strings.Join(where, " AND ") + ` ORDER BY updated_ts DESC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat_sessions")
	}
	defer rows.Close()

	list := make([]*store.Session, 0)
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat_session")
		}
		session := &store.Session{}
		if err := json.Unmarshal([]byte(document), session); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal chat_session document")
		}
		// Local rows have no owner, so an OwnerID filter never matches.
		if find != nil && find.OwnerID != nil && *find.OwnerID != session.OwnerID {
			continue
		}
		list = append(list, session)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate chat_sessions")
	}
	return list, nil
}

func (d *DB) DeleteSession(ctx context.Context, delete *store.DeleteSession) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM chat_session WHERE id = ?`, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete chat_session")
	}
	return nil
}

func (d *DB) RenameSession(ctx context.Context, rename *store.RenameSession) error {
	// The document column is authoritative; rewrite it with the new name.
	sessions, err := d.ListSessions(ctx, &store.FindSession{ID: &rename.ID})
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return errors.Errorf("chat_session not found: %s", rename.ID)
	}
	session := sessions[0]
	session.Name = rename.Name
	return d.UpsertSession(ctx, session)
}

func (d *DB) ClearSessions(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM chat_session`); err != nil {
		return errors.Wrap(err, "failed to clear chat_sessions")
	}
	return nil
}

var _ store.Driver = (*DB)(nil)
