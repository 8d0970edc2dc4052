package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	chaterrors "github.com/plumechat/plume/internal/errors"
)

// MessageRole identifies the author of a conversational turn.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "USER"
	MessageRoleAssistant MessageRole = "ASSISTANT"
)

// AttachmentKind identifies the media type of an attachment.
type AttachmentKind string

const (
	AttachmentKindImage AttachmentKind = "image"
	AttachmentKindAudio AttachmentKind = "audio"
)

// Attachment is an image or audio payload on a user turn. A turn carries at
// most one audio attachment or any number of images, never both.
type Attachment struct {
	Kind     AttachmentKind `json:"kind"`
	URL      string         `json:"url,omitempty"`
	Data     string         `json:"data,omitempty"` // inline base64 payload
	MimeType string         `json:"mimeType,omitempty"`
}

// Message is one conversational turn. Content is mutable only while the
// message is the current stream target; once the stream completes it is
// frozen.
type Message struct {
	UID            string       `json:"id"`
	Role           MessageRole  `json:"role"`
	Content        string       `json:"content"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	ReasoningTrace string       `json:"reasoningTrace,omitempty"`
	AudioURL       string       `json:"audioUrl,omitempty"`
	Metadata       string       `json:"metadata,omitempty"` // JSON string
	HasAnimated    bool         `json:"hasAnimated"`
	CreatedTs      int64        `json:"createdAt"`
}

// NewMessage creates a message with a fresh UID and timestamp.
func NewMessage(role MessageRole, content string) *Message {
	return &Message{
		UID:       shortuuid.New(),
		Role:      role,
		Content:   content,
		CreatedTs: time.Now().Unix(),
	}
}

// Session is one conversation. A session never spans personas; switching
// persona always starts a new session.
type Session struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"ownerId,omitempty"` // empty means local-only
	Persona   string     `json:"persona"`
	Name      string     `json:"name"`
	Messages  []*Message `json:"messages"`
	CreatedTs int64      `json:"createdAt"`
	UpdatedTs int64      `json:"lastModified"`
}

// NewSession creates a fresh session seeded with the persona greeting.
func NewSession(ownerID, personaKey, greeting string) *Session {
	now := time.Now().Unix()
	s := &Session{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Persona:   personaKey,
		Name:      "New chat",
		CreatedTs: now,
		UpdatedTs: now,
	}
	if greeting != "" {
		s.Messages = []*Message{NewMessage(MessageRoleAssistant, greeting)}
	}
	return s
}

// Append adds a message and bumps the modification timestamp.
func (s *Session) Append(m *Message) {
	s.Messages = append(s.Messages, m)
	s.UpdatedTs = time.Now().Unix()
}

// Persistable reports whether the session has progressed beyond the initial
// greeting. Greeting-only sessions are never written to either store.
func (s *Session) Persistable() bool {
	return s != nil && len(s.Messages) > 1
}

// Clone returns a deep copy. Stores receive copies, never the engine's live
// pointers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = make([]*Message, len(s.Messages))
	for i, m := range s.Messages {
		mc := *m
		if m.Attachments != nil {
			mc.Attachments = make([]Attachment, len(m.Attachments))
			copy(mc.Attachments, m.Attachments)
		}
		out.Messages[i] = &mc
	}
	return &out
}

// ValidateSession checks that a loaded or imported record is well formed.
// It either passes or returns a validation error; a partially valid session
// is never constructed.
func ValidateSession(s *Session) error {
	if s == nil {
		return chaterrors.ValidationFailed("session is nil")
	}
	if s.ID == "" {
		return chaterrors.ValidationFailed("session id is empty")
	}
	if s.Persona == "" {
		return chaterrors.ValidationFailed("session persona is empty")
	}
	for _, m := range s.Messages {
		if m == nil {
			return chaterrors.ValidationFailed("session contains a nil message")
		}
		if m.UID == "" {
			return chaterrors.ValidationFailed("message uid is empty")
		}
		if m.Role != MessageRoleUser && m.Role != MessageRoleAssistant {
			return chaterrors.ValidationFailed("message role is invalid: " + string(m.Role))
		}
		audio, images := 0, 0
		for _, a := range m.Attachments {
			switch a.Kind {
			case AttachmentKindAudio:
				audio++
			case AttachmentKindImage:
				images++
			default:
				return chaterrors.ValidationFailed("attachment kind is invalid: " + string(a.Kind))
			}
		}
		if audio > 1 || (audio > 0 && images > 0) {
			return chaterrors.ValidationFailed("turn may carry one audio or images, not both")
		}
	}
	return nil
}

// DecodeSessions parses a JSON array of sessions, validating every record.
// Malformed payloads are rejected wholesale.
func DecodeSessions(data []byte) ([]*Session, error) {
	var sessions []*Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, chaterrors.ValidationFailed("payload is not a session array: " + err.Error())
	}
	for _, s := range sessions {
		if err := ValidateSession(s); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}
