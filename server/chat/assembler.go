package chat

import (
	"time"

	chaterrors "github.com/plumechat/plume/internal/errors"
	"github.com/plumechat/plume/plugin/ai"
	"github.com/plumechat/plume/plugin/ai/sanitize"
	"github.com/plumechat/plume/store"
)

// StreamState is the lifecycle state of one in-flight reply.
type StreamState int

const (
	StateIdle StreamState = iota
	StateStreaming
)

// Assembler owns the lifecycle of one in-flight reply: placeholder creation,
// chunk accumulation, completion, and error rollback. One assembler serves
// one turn; it holds its own reference to the session captured at Begin time,
// so a stream orphaned by a session switch keeps mutating the detached
// session object and can never touch the engine's current one.
//
// The assembler is not self-locking; the engine serializes access.
type Assembler struct {
	state   StreamState
	session *store.Session
	target  *store.Message
}

// NewAssembler creates an idle assembler for a single turn.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// State returns the current lifecycle state.
func (a *Assembler) State() StreamState {
	return a.state
}

// Streaming reports whether a reply is in flight.
func (a *Assembler) Streaming() bool {
	return a.state == StateStreaming
}

// Target returns the message currently receiving chunks, or nil.
func (a *Assembler) Target() *store.Message {
	return a.target
}

// Begin appends the user turn and an empty assistant placeholder to the
// session and records the placeholder as the stream target. Calling Begin
// on a streaming assembler is a programming error; the coordinator prevents
// two streams from sharing an engine.
func (a *Assembler) Begin(session *store.Session, userTurn *store.Message) (*store.Message, error) {
	if a.state == StateStreaming {
		return nil, chaterrors.StreamInFlight("assembler already has an active stream")
	}

	session.Append(userTurn)
	placeholder := store.NewMessage(store.MessageRoleAssistant, "")
	session.Append(placeholder)

	a.session = session
	a.target = placeholder
	a.state = StateStreaming
	return placeholder, nil
}

// ApplyChunk appends streamed text to the target in delivery order. Chunks
// arriving outside the streaming state are dropped.
func (a *Assembler) ApplyChunk(text string) {
	if a.state != StateStreaming || a.target == nil {
		return
	}
	a.target.Content += text
}

// Complete sanitizes the final result, freezes the target message, and
// returns it together with the extracted emotion. After Complete the
// assembler is idle and the message content is immutable.
func (a *Assembler) Complete(result *ai.CompletionResult) (*store.Message, sanitize.Result) {
	msg := a.target
	clean := sanitize.Sanitize(result.Content)

	msg.Content = clean.DisplayText
	msg.ReasoningTrace = clean.ReasoningTrace
	if msg.ReasoningTrace == "" {
		msg.ReasoningTrace = result.ReasoningTrace
	}
	msg.AudioURL = result.AudioURL
	msg.Metadata = result.SideMedia
	a.session.UpdatedTs = time.Now().Unix()

	a.target = nil
	a.state = StateIdle
	return msg, clean
}

// Fail removes the placeholder from the session entirely. The user's turn
// stays, so the conversation never shows a blank bubble and resubmission is
// cheap. Returns the removed placeholder's UID.
func (a *Assembler) Fail() string {
	uid := ""
	if a.target != nil {
		uid = a.target.UID
		messages := a.session.Messages
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].UID == uid {
				a.session.Messages = append(messages[:i], messages[i+1:]...)
				break
			}
		}
	}
	a.target = nil
	a.state = StateIdle
	return uid
}
