package chat

import (
	"context"
	"log/slog"

	"github.com/plumechat/plume/store"
)

// SwitchCoordinator serializes the three operations that replace the current
// session: persona change, explicit new chat, and loading a historical
// session. A switch never waits for an in-flight stream and never persists a
// half-written placeholder.
type SwitchCoordinator struct {
	engine *Engine
}

func newSwitchCoordinator(engine *Engine) *SwitchCoordinator {
	return &SwitchCoordinator{engine: engine}
}

// Switch replaces the engine's current session with incoming.
//
// If a stream is in flight, the engine's reference to it is cleared and the
// outgoing session's live state is deliberately not saved: persisting a
// partially filled assistant turn would corrupt history with a blank message
// on reload. A pending debounced snapshot from before the stream is flushed
// instead. The orphaned assembler keeps its own reference and finishes
// against the detached object.
//
// If idle, the outgoing session (when it has progressed beyond the greeting)
// is saved immediately and synchronously, bypassing the debounce, before the
// replacement happens. A delayed write here could fire against a session the
// engine no longer holds.
func (c *SwitchCoordinator) Switch(ctx context.Context, incoming *store.Session) {
	e := c.engine

	e.mu.Lock()
	outgoing := e.session
	streaming := e.current != nil && e.current.Streaming()
	if streaming {
		e.current = nil
		// A pending debounced snapshot predates the stream and is complete;
		// write it out now so no timer fires after the session is replaced.
		e.store.Flush(ctx)
		slog.Debug("session switch during active stream, outgoing save skipped",
			"session_id", outgoing.ID)
	} else if outgoing.Persistable() {
		if err := e.store.SaveNow(ctx, outgoing); err != nil {
			// Logged inside the store as well; the conversation moves on.
			slog.Warn("failed to save outgoing session on switch",
				"session_id", outgoing.ID, "error", err)
		}
	}
	e.session = incoming
	replaced := e.events.OnSessionReplaced
	e.mu.Unlock()

	if replaced != nil {
		replaced(incoming.Clone())
	}
}
