package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	chaterrors "github.com/plumechat/plume/internal/errors"
	"github.com/plumechat/plume/internal/profile"
)

// migrateConcurrency bounds parallel remote writes during migration.
const migrateConcurrency = 4

// Store is the single logical persistence facade. Every call routes to the
// local or remote driver depending on whether an owner id is currently set;
// the routing is re-evaluated per call because an owner can appear
// mid-session when the user logs in.
//
// Saves are normally debounced: chunk-driven re-renders trigger saves far
// faster than a backend should be written. SaveNow bypasses the debounce for
// callers about to discard or replace the in-memory session.
type Store struct {
	profile *profile.Profile
	local   Driver
	remote  Driver

	ownerMu sync.RWMutex
	ownerID string

	debounceMu sync.Mutex
	timer      *time.Timer
	pending    *Session
}

// New creates a store facade. The remote driver may be nil when the embedding
// application never authenticates.
func New(local, remote Driver, profile *profile.Profile) *Store {
	return &Store{
		profile: profile,
		local:   local,
		remote:  remote,
	}
}

// SetOwner sets the current owner id. An empty id routes to local storage.
func (s *Store) SetOwner(ownerID string) {
	s.ownerMu.Lock()
	defer s.ownerMu.Unlock()
	s.ownerID = ownerID
}

// Owner returns the current owner id.
func (s *Store) Owner() string {
	s.ownerMu.RLock()
	defer s.ownerMu.RUnlock()
	return s.ownerID
}

func (s *Store) driver() Driver {
	if s.Owner() != "" && s.remote != nil {
		return s.remote
	}
	return s.local
}

// Save schedules a debounced write of the session. Repeated saves within the
// window collapse to one write carrying the latest snapshot. A save for a
// different session id than the pending one flushes the pending write first,
// so two session ids never share the single timer slot.
func (s *Store) Save(session *Session) {
	if !session.Persistable() {
		return
	}
	snapshot := s.stamped(session)

	s.debounceMu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.pending != nil && s.pending.ID != snapshot.ID {
		stale := s.pending
		go s.write(context.Background(), stale)
	}
	s.pending = snapshot
	s.timer = time.AfterFunc(s.debounceWindow(), s.firePending)
	s.debounceMu.Unlock()
}

// SaveNow writes the session immediately, bypassing and cancelling any
// pending debounced write for the same id. Used on session switch, rename
// and delete paths where a delayed write would target vanished state.
func (s *Store) SaveNow(ctx context.Context, session *Session) error {
	s.cancelPending(session.ID)
	if !session.Persistable() {
		return nil
	}
	return s.write(ctx, s.stamped(session))
}

// Flush writes any pending debounced save synchronously.
func (s *Store) Flush(ctx context.Context) {
	s.debounceMu.Lock()
	pending := s.pending
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
	s.debounceMu.Unlock()

	if pending != nil {
		s.write(ctx, pending)
	}
}

// List returns the current owner's sessions, most recent first.
func (s *Store) List(ctx context.Context) ([]*Session, error) {
	find := &FindSession{}
	if owner := s.Owner(); owner != "" {
		find.OwnerID = &owner
	}
	sessions, err := s.driver().ListSessions(ctx, find)
	if err != nil {
		return nil, chaterrors.PersistenceFailed("list sessions", err)
	}
	return sessions, nil
}

// Delete removes a session immediately, dropping any pending save for it.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.cancelPending(id)
	if err := s.driver().DeleteSession(ctx, &DeleteSession{ID: id}); err != nil {
		return chaterrors.PersistenceFailed("delete session", err)
	}
	return nil
}

// Rename updates a stored session's display name immediately.
func (s *Store) Rename(ctx context.Context, id, name string) error {
	if err := s.driver().RenameSession(ctx, &RenameSession{ID: id, Name: name}); err != nil {
		return chaterrors.PersistenceFailed("rename session", err)
	}
	return nil
}

// Migrate moves every locally stored session to the remote store for the
// current owner. Remote upserts are keyed by session id, so re-running after
// a partial clear cannot duplicate entries. Local storage is cleared only
// when every write succeeded and at least one session migrated; a failed
// migration loses nothing. Returns the number migrated; zero means nothing
// to migrate and is not an error.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	owner := s.Owner()
	if owner == "" {
		return 0, chaterrors.ValidationFailed("migrate requires an owner id")
	}
	if s.remote == nil {
		return 0, chaterrors.PersistenceFailed("migrate requires a remote store", nil)
	}

	locals, err := s.local.ListSessions(ctx, &FindSession{})
	if err != nil {
		return 0, chaterrors.PersistenceFailed("list local sessions", err)
	}
	if len(locals) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(migrateConcurrency)
	for _, session := range locals {
		adopted := session.Clone()
		adopted.OwnerID = owner
		g.Go(func() error {
			return s.remote.UpsertSession(gctx, adopted)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, chaterrors.PersistenceFailed("migrate sessions", err)
	}

	if err := s.local.ClearSessions(ctx); err != nil {
		// Remote copies exist; the next migrate run is idempotent.
		slog.Warn("failed to clear local sessions after migration", "error", err)
	}

	return len(locals), nil
}

// Import restores a bulk JSON export through the current driver. The payload
// is validated wholesale: any malformed record rejects the entire import
// with zero sessions applied.
func (s *Store) Import(ctx context.Context, data []byte) (int, error) {
	sessions, err := DecodeSessions(data)
	if err != nil {
		return 0, err
	}
	for _, session := range sessions {
		if err := s.driver().UpsertSession(ctx, session); err != nil {
			return 0, chaterrors.PersistenceFailed("import session", err)
		}
	}
	return len(sessions), nil
}

// Close flushes pending work and closes both drivers.
func (s *Store) Close() error {
	s.Flush(context.Background())

	var firstErr error
	if s.local != nil {
		if err := s.local.Close(); err != nil {
			firstErr = err
		}
	}
	if s.remote != nil {
		if err := s.remote.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Store) debounceWindow() time.Duration {
	if s.profile != nil && s.profile.SaveDebounce > 0 {
		return s.profile.SaveDebounce
	}
	return 400 * time.Millisecond
}

// stamped clones the session and stamps it with the current owner so an
// anonymous session adopted after login lands in the right store.
func (s *Store) stamped(session *Session) *Session {
	snapshot := session.Clone()
	if owner := s.Owner(); owner != "" {
		snapshot.OwnerID = owner
	}
	return snapshot
}

func (s *Store) firePending() {
	s.debounceMu.Lock()
	pending := s.pending
	s.pending = nil
	s.timer = nil
	s.debounceMu.Unlock()

	if pending != nil {
		s.write(context.Background(), pending)
	}
}

func (s *Store) cancelPending(sessionID string) {
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()
	if s.pending != nil && s.pending.ID == sessionID {
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		s.pending = nil
	}
}

// write performs the actual driver write. Persistence failures are logged
// and swallowed: the in-memory conversation stays correct and the next save
// is the retry.
func (s *Store) write(ctx context.Context, session *Session) error {
	if err := s.driver().UpsertSession(ctx, session); err != nil {
		slog.Warn("failed to persist session",
			"session_id", session.ID,
			"message_count", len(session.Messages),
			"error", err)
		return chaterrors.PersistenceFailed("upsert session", err)
	}
	return nil
}
