package store

import (
	"context"
)

// FindSession filters session queries. Nil fields match everything.
type FindSession struct {
	ID      *string
	OwnerID *string
}

// RenameSession renames a stored session.
type RenameSession struct {
	ID   string
	Name string
}

// DeleteSession deletes a stored session and its messages.
type DeleteSession struct {
	ID string
}

// Driver is the interface a storage backend implements. The local backend
// holds anonymous sessions on device; the remote backend holds sessions for
// authenticated owners. Both persist the same record shape.
type Driver interface {
	Close() error

	// UpsertSession writes a whole-session snapshot keyed by session id.
	// Re-upserting an already stored session must not duplicate it or its
	// messages.
	UpsertSession(ctx context.Context, session *Session) error

	// ListSessions returns matching sessions, most recently modified first,
	// with messages ordered by creation time.
	ListSessions(ctx context.Context, find *FindSession) ([]*Session, error)

	// DeleteSession removes a session. Deleting an absent id is not an error.
	DeleteSession(ctx context.Context, delete *DeleteSession) error

	// RenameSession updates the display name of a stored session.
	RenameSession(ctx context.Context, rename *RenameSession) error

	// ClearSessions removes every stored session. Used after a successful
	// migration of local sessions to the remote store.
	ClearSessions(ctx context.Context) error
}
