// Package chat implements the conversation session engine: it assembles
// streamed persona replies into messages, routes turns by mention, and keeps
// the append-only session persisted across the local and remote stores.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	chaterrors "github.com/plumechat/plume/internal/errors"
	"github.com/plumechat/plume/internal/observability"
	"github.com/plumechat/plume/plugin/ai"
	"github.com/plumechat/plume/plugin/ai/mention"
	"github.com/plumechat/plume/plugin/ai/persona"
	"github.com/plumechat/plume/plugin/ai/sanitize"
	"github.com/plumechat/plume/store"
)

const maxDerivedNameRunes = 40

// MemoryHint carries profile memory folded into the system prompt.
type MemoryHint struct {
	Nickname string
	Bio      string
}

// Events are the engine's callbacks toward the rendering layer. All fields
// are optional. Callbacks are invoked outside the engine lock, one at a
// time, in event order.
type Events struct {
	// OnChunk fires for every streamed delta applied to the current session.
	OnChunk func(messageUID, delta string)
	// OnEmotion fires when a completed reply carried an emotion tag.
	OnEmotion func(e sanitize.Emotion)
	// OnComplete fires when a reply freezes into its final message.
	OnComplete func(msg *store.Message)
	// OnRateLimited fires instead of OnFailure for rate limit errors, so the
	// caller can show a limit prompt rather than a generic failure.
	OnRateLimited func()
	// OnFailure fires for non-rate-limit transport failures.
	OnFailure func(err error)
	// OnSessionReplaced fires after a persona switch, new chat, or load.
	OnSessionReplaced func(s *store.Session)
}

// Config assembles an Engine.
type Config struct {
	LLM     ai.LLMService
	Store   *store.Store
	Persona persona.Key // initial persona; default persona when zero
	Memory  MemoryHint
	Events  Events
	Logger  *slog.Logger
}

// Engine is the public-facing conversation unit: submit a turn, observe
// streaming text, switch persona, load history. All session state is owned
// exclusively by the engine; stores receive copies.
type Engine struct {
	llm         ai.LLMService
	store       *store.Store
	memory      MemoryHint
	events      Events
	logger      *slog.Logger
	coordinator *SwitchCoordinator

	mu sync.Mutex
	// session is the current conversation. Replaced only by the coordinator.
	session *store.Session
	// current is the engine's reference to the in-flight turn. The
	// coordinator nulls this on switch; the detached assembler finishes
	// against its own session reference.
	current *Assembler
}

// NewEngine creates an engine with a fresh session for the configured
// persona. The greeting-only session is not persisted.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.LLM == nil {
		return nil, chaterrors.LLMUnavailable("engine requires an LLM service")
	}
	if cfg.Store == nil {
		return nil, chaterrors.ValidationFailed("engine requires a store")
	}

	key := cfg.Persona
	if key == "" {
		key = persona.Default().Key
	}
	p, ok := persona.Get(key)
	if !ok {
		return nil, chaterrors.PersonaNotFound(string(key))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		llm:     cfg.LLM,
		store:   cfg.Store,
		memory:  cfg.Memory,
		events:  cfg.Events,
		logger:  logger,
		session: store.NewSession(cfg.Store.Owner(), string(p.Key), p.Greeting),
	}
	e.coordinator = newSwitchCoordinator(e)
	return e, nil
}

// Session returns a snapshot of the current session for rendering.
func (e *Engine) Session() *store.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone()
}

// Streaming reports whether a reply is currently in flight for the current
// session.
func (e *Engine) Streaming() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil && e.current.Streaming()
}

// SetOwner installs the owner id on the store routing. Call Migrate on the
// store afterward to move anonymous history remote.
func (e *Engine) SetOwner(ownerID string) {
	e.store.SetOwner(ownerID)
	e.mu.Lock()
	e.session.OwnerID = ownerID
	e.mu.Unlock()
}

// Submit sends one user turn. The mention prefix, when present and valid,
// retargets this single turn's model; the session's own persona field is
// unchanged. Streaming progress and the outcome arrive via Events.
func (e *Engine) Submit(ctx context.Context, text string, attachments []store.Attachment) error {
	if err := validateAttachments(attachments); err != nil {
		return err
	}

	e.mu.Lock()
	if e.current != nil && e.current.Streaming() {
		e.mu.Unlock()
		return chaterrors.StreamInFlight("a reply is already streaming")
	}

	route := mention.Route(text, persona.Key(e.session.Persona))
	dest, ok := persona.Get(route.Persona)
	if !ok {
		e.mu.Unlock()
		return chaterrors.PersonaNotFound(string(route.Persona))
	}

	// History is captured before the new turn lands, with the routed turn's
	// cleaned text appended for the model.
	history := e.transportHistory(dest, route.CleanedText, attachments)

	userTurn := store.NewMessage(store.MessageRoleUser, text)
	userTurn.Attachments = attachments

	if !hasUserMessage(e.session) {
		e.session.Name = deriveName(userTurn)
	}

	asm := NewAssembler()
	placeholder, err := asm.Begin(e.session, userTurn)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.current = asm

	rc := observability.NewRequestContext(e.logger, string(dest.Key), e.store.Owner())
	sessionID := e.session.ID
	e.mu.Unlock()

	rc.Info("turn submitted",
		slog.String(observability.LogFieldSessionID, sessionID),
		slog.Int(observability.LogFieldMessageLen, len(text)),
		slog.String("placeholder_uid", placeholder.UID))

	go e.run(ctx, asm, history, rc)
	return nil
}

// run drives one transport call. It owns no engine state directly; every
// mutation goes through the assembler under the engine lock, and events for
// orphaned streams are suppressed by the current-assembler check.
func (e *Engine) run(ctx context.Context, asm *Assembler, history []ai.Message, rc *observability.RequestContext) {
	result, err := e.llm.ChatStream(ctx, history, func(chunk string) error {
		e.mu.Lock()
		asm.ApplyChunk(chunk)
		notify := e.current == asm && e.events.OnChunk != nil
		var uid string
		if notify {
			uid = asm.Target().UID
		}
		e.mu.Unlock()

		if notify {
			e.events.OnChunk(uid, chunk)
		}
		return nil
	})

	if err != nil {
		e.mu.Lock()
		asm.Fail()
		active := e.current == asm
		if active {
			e.current = nil
		}
		e.mu.Unlock()

		rc.Error("turn failed", err,
			slog.Int64(observability.LogFieldDuration, rc.DurationMs()))

		if !active {
			return
		}
		if chaterrors.IsCode(err, chaterrors.ErrCodeRateLimitExceeded) {
			if e.events.OnRateLimited != nil {
				e.events.OnRateLimited()
			}
		} else if e.events.OnFailure != nil {
			e.events.OnFailure(err)
		}
		return
	}

	e.mu.Lock()
	msg, clean := asm.Complete(result)
	active := e.current == asm
	var snapshot *store.Session
	if active {
		e.current = nil
		// Deep copy while still holding the lock: OnComplete below may start
		// the next turn, and its placeholder must not leak into this save.
		snapshot = e.session.Clone()
	}
	e.mu.Unlock()

	rc.Info("turn completed",
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()),
		slog.Int(observability.LogFieldMessageLen, len(msg.Content)))

	if !active {
		// The session was switched away mid-stream; the detached copy is
		// complete in memory but deliberately not persisted or surfaced.
		return
	}

	if clean.Emotion != "" && e.events.OnEmotion != nil {
		e.events.OnEmotion(clean.Emotion)
	}
	if e.events.OnComplete != nil {
		e.events.OnComplete(msg)
	}

	// Completion is the only point a turn becomes persistable.
	e.store.Save(snapshot)
}

// SwitchPersona ends the current session and starts a fresh one under the
// given persona. Switching to the already active persona is a no-op.
func (e *Engine) SwitchPersona(ctx context.Context, key persona.Key) error {
	p, ok := persona.Get(key)
	if !ok {
		return chaterrors.PersonaNotFound(string(key))
	}

	e.mu.Lock()
	same := e.session.Persona == string(key)
	e.mu.Unlock()
	if same {
		return nil
	}

	e.coordinator.Switch(ctx, store.NewSession(e.store.Owner(), string(p.Key), p.Greeting))
	return nil
}

// StartNewChat ends the current session and starts a fresh one under the
// same persona.
func (e *Engine) StartNewChat(ctx context.Context) {
	e.mu.Lock()
	key := persona.Key(e.session.Persona)
	e.mu.Unlock()

	p, ok := persona.Get(key)
	if !ok {
		p = persona.Default()
	}
	e.coordinator.Switch(ctx, store.NewSession(e.store.Owner(), string(p.Key), p.Greeting))
}

// LoadSession replaces the current session with a historical one. The
// record is validated before adoption; the engine takes its own copy.
func (e *Engine) LoadSession(ctx context.Context, s *store.Session) error {
	if err := store.ValidateSession(s); err != nil {
		return err
	}
	if !persona.Valid(persona.Key(s.Persona)) {
		return chaterrors.PersonaNotFound(s.Persona)
	}

	e.coordinator.Switch(ctx, s.Clone())
	return nil
}

// MarkRendered flags a message as consumed by the renderer. Cosmetic; the
// flag rides along on the next natural save.
func (e *Engine) MarkRendered(messageUID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, m := range e.session.Messages {
		if m.UID == messageUID {
			m.HasAnimated = true
			return
		}
	}
}

// transportHistory maps the session onto transport messages: the persona's
// system prompt (with memory hints), prior turns, then the routed turn.
func (e *Engine) transportHistory(dest *persona.Persona, cleanedText string, attachments []store.Attachment) []ai.Message {
	system := dest.SystemPrompt
	if e.memory.Nickname != "" {
		system += "\nThe user prefers to be called " + e.memory.Nickname + "."
	}
	if e.memory.Bio != "" {
		system += "\nAbout the user: " + e.memory.Bio
	}

	messages := []ai.Message{ai.SystemPrompt(system)}
	for _, m := range e.session.Messages {
		switch m.Role {
		case store.MessageRoleUser:
			messages = append(messages, ai.UserMessage(m.Content))
		case store.MessageRoleAssistant:
			messages = append(messages, ai.AssistantMessage(m.Content))
		}
	}

	turn := ai.UserMessage(cleanedText)
	for _, a := range attachments {
		if a.Kind == store.AttachmentKindImage && a.URL != "" {
			turn.ImageURLs = append(turn.ImageURLs, a.URL)
		}
	}
	return append(messages, turn)
}

func hasUserMessage(s *store.Session) bool {
	for _, m := range s.Messages {
		if m.Role == store.MessageRoleUser {
			return true
		}
	}
	return false
}

// deriveName derives the session display name from its first user turn:
// truncated text, or a content-type label when the turn carries none.
func deriveName(m *store.Message) string {
	text := strings.TrimSpace(m.Content)
	if text != "" {
		runes := []rune(text)
		if len(runes) > maxDerivedNameRunes {
			return string(runes[:maxDerivedNameRunes]) + "…"
		}
		return text
	}
	for _, a := range m.Attachments {
		if a.Kind == store.AttachmentKindAudio {
			return "Audio message"
		}
	}
	if len(m.Attachments) > 0 {
		return "Image message"
	}
	return "New chat"
}

func validateAttachments(attachments []store.Attachment) error {
	audio, images := 0, 0
	for _, a := range attachments {
		switch a.Kind {
		case store.AttachmentKindAudio:
			audio++
		case store.AttachmentKindImage:
			images++
		default:
			return chaterrors.ValidationFailed("attachment kind is invalid: " + string(a.Kind))
		}
	}
	if audio > 1 || (audio > 0 && images > 0) {
		return chaterrors.ValidationFailed("a turn may carry one audio or images, not both")
	}
	return nil
}
