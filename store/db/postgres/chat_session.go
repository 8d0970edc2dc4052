package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/plumechat/plume/store"
)

func (d *DB) UpsertSession(ctx context.Context, session *store.Session) error {
	fields := []string{"id", "owner_id", "persona", "name", "created_ts", "updated_ts"}
	args := []any{session.ID, session.OwnerID, session.Persona, session.Name, session.CreatedTs, session.UpdatedTs}

	stmt := `INSERT INTO chat_session (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (id)
		DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			persona = EXCLUDED.persona,
			name = EXCLUDED.name,
			updated_ts = EXCLUDED.updated_ts`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to upsert chat_session")
	}

	if err := d.appendMessageSuffix(ctx, session); err != nil {
		return err
	}
	return d.syncAnimatedFlags(ctx, session)
}

// syncAnimatedFlags propagates has_animated flips to rows stored by earlier
// upserts. Message content stays insert-only; this touches one boolean.
func (d *DB) syncAnimatedFlags(ctx context.Context, session *store.Session) error {
	uids := animatedUIDs(session.Messages)
	if len(uids) == 0 {
		return nil
	}

	args := make([]any, len(uids))
	for i, uid := range uids {
		args[i] = uid
	}
	stmt := `UPDATE chat_message SET has_animated = TRUE
		WHERE has_animated = FALSE AND uid IN (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to sync chat_message animation flags")
	}
	return nil
}

// animatedUIDs collects the uids of messages whose animation already ran.
func animatedUIDs(messages []*store.Message) []string {
	uids := make([]string, 0)
	for _, m := range messages {
		if m.HasAnimated {
			uids = append(uids, m.UID)
		}
	}
	return uids
}

// appendMessageSuffix inserts only the messages beyond what is already
// stored for the session. The persisted count comes from the cache when
// fresh and a COUNT query otherwise, so a restarted process still writes
// the correct suffix.
func (d *DB) appendMessageSuffix(ctx context.Context, session *store.Session) error {
	persisted, ok := d.counts.GetCount(session.ID)
	if !ok {
		if err := d.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM chat_message WHERE session_id = `+placeholder(1), session.ID,
		).Scan(&persisted); err != nil {
			return errors.Wrap(err, "failed to count chat_messages")
		}
	}

	if persisted > len(session.Messages) {
		// Stored history is longer than the snapshot (stale cache after an
		// external delete); fall back to the true count.
		if err := d.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM chat_message WHERE session_id = `+placeholder(1), session.ID,
		).Scan(&persisted); err != nil {
			return errors.Wrap(err, "failed to recount chat_messages")
		}
		if persisted > len(session.Messages) {
			d.counts.SetCount(session.ID, persisted)
			return nil
		}
	}

	for _, m := range session.Messages[persisted:] {
		if err := d.insertMessage(ctx, session.ID, m); err != nil {
			return err
		}
		persisted++
	}
	d.counts.SetCount(session.ID, persisted)
	return nil
}

func (d *DB) insertMessage(ctx context.Context, sessionID string, m *store.Message) error {
	attachments, err := json.Marshal(m.Attachments)
	if err != nil {
		return errors.Wrap(err, "failed to marshal attachments")
	}

	fields := []string{"uid", "session_id", "role", "content", "attachments", "reasoning_trace", "audio_url", "metadata", "has_animated", "created_ts"}
	args := []any{m.UID, sessionID, string(m.Role), m.Content, string(attachments), m.ReasoningTrace, m.AudioURL, m.Metadata, m.HasAnimated, m.CreatedTs}

	stmt := `INSERT INTO chat_message (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (uid) DO NOTHING`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to insert chat_message")
	}
	return nil
}

func (d *DB) ListSessions(ctx context.Context, find *store.FindSession) ([]*store.Session, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find != nil && find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find != nil && find.OwnerID != nil {
		where, args = append(where, "owner_id = "+placeholder(len(args)+1)), append(args, *find.OwnerID)
	}

	query := `SELECT id, owner_id, persona, name, created_ts, updated_ts FROM chat_session WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY updated_ts DESC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat_sessions")
	}
	defer rows.Close()

	list := make([]*store.Session, 0)
	for rows.Next() {
		s := &store.Session{}
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Persona, &s.Name, &s.CreatedTs, &s.UpdatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat_session")
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate chat_sessions")
	}

	for _, s := range list {
		messages, err := d.listMessages(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		s.Messages = messages
	}
	return list, nil
}

func (d *DB) listMessages(ctx context.Context, sessionID string) ([]*store.Message, error) {
	query := `SELECT uid, role, content, attachments, reasoning_trace, audio_url, metadata, has_animated, created_ts
		FROM chat_message WHERE session_id = ` + placeholder(1) + ` ORDER BY created_ts ASC, id ASC`
	rows, err := d.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat_messages")
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		m := &store.Message{}
		var role, attachments string
		if err := rows.Scan(&m.UID, &role, &m.Content, &attachments, &m.ReasoningTrace, &m.AudioURL, &m.Metadata, &m.HasAnimated, &m.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat_message")
		}
		m.Role = store.MessageRole(role)
		if attachments != "" && attachments != "null" {
			if err := json.Unmarshal([]byte(attachments), &m.Attachments); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal attachments")
			}
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate chat_messages")
	}
	return messages, nil
}

func (d *DB) DeleteSession(ctx context.Context, delete *store.DeleteSession) error {
	// Delete messages first
	if _, err := d.db.ExecContext(ctx, `DELETE FROM chat_message WHERE session_id = `+placeholder(1), delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete chat_messages")
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM chat_session WHERE id = `+placeholder(1), delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete chat_session")
	}
	d.counts.Delete(delete.ID)
	return nil
}

func (d *DB) RenameSession(ctx context.Context, rename *store.RenameSession) error {
	result, err := d.db.ExecContext(ctx,
		`UPDATE chat_session SET name = `+placeholder(1)+` WHERE id = `+placeholder(2),
		rename.Name, rename.ID)
	if err != nil {
		return errors.Wrap(err, "failed to rename chat_session")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (d *DB) ClearSessions(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM chat_message`); err != nil {
		return errors.Wrap(err, "failed to clear chat_messages")
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM chat_session`); err != nil {
		return errors.Wrap(err, "failed to clear chat_sessions")
	}
	return nil
}

var _ store.Driver = (*DB)(nil)
