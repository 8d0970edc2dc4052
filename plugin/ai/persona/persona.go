// Package persona provides the static registry of selectable AI personas.
package persona

// Key identifies a persona.
type Key string

const (
	KeyDefault  Key = "default"
	KeyPro      Key = "pro"
	KeyFlash    Key = "flash"
	KeyCreative Key = "creative"
)

// Persona is a named AI behavior profile: display identity plus the prompt
// and model used for its turns. Pure data, no behavior.
type Persona struct {
	Key          Key
	Name         string
	Emoji        string
	Model        string
	Mention      string // @-token that routes a single turn to this persona
	SystemPrompt string
	Greeting     string
}

var registry = map[Key]*Persona{
	KeyDefault: {
		Key:     KeyDefault,
		Name:    "Plume",
		Emoji:   "🪶",
		Model:   "deepseek-chat",
		Mention: "plume",
		SystemPrompt: "You are Plume, a warm and attentive companion. " +
			"Keep replies conversational and concise. You may express a feeling with " +
			"an <emotion>value</emotion> tag using one of: neutral, joy, sadness, anger, surprise, love.",
		Greeting: "Hey! I'm Plume. What's on your mind today?",
	},
	KeyPro: {
		Key:     KeyPro,
		Name:    "Plume Pro",
		Emoji:   "🦉",
		Model:   "deepseek-reasoner",
		Mention: "pro",
		SystemPrompt: "You are Plume Pro, a rigorous assistant for hard questions. " +
			"Reason carefully before answering. Put working notes inside <thinking>...</thinking> " +
			"and keep the visible answer clean.",
		Greeting: "Plume Pro here. Bring me something difficult.",
	},
	KeyFlash: {
		Key:     KeyFlash,
		Name:    "Plume Flash",
		Emoji:   "⚡",
		Model:   "deepseek-chat",
		Mention: "flash",
		SystemPrompt: "You are Plume Flash. Answer in as few words as possible " +
			"while staying correct. No preamble.",
		Greeting: "Flash. Go.",
	},
	KeyCreative: {
		Key:     KeyCreative,
		Name:    "Plume Muse",
		Emoji:   "🎨",
		Model:   "deepseek-chat",
		Mention: "muse",
		SystemPrompt: "You are Plume Muse, a playful creative collaborator. " +
			"Offer vivid, surprising ideas. You may express a feeling with an " +
			"<emotion>value</emotion> tag.",
		Greeting: "Muse at your service. Shall we make something strange and lovely?",
	},
}

// byMention is derived from the registry at init time.
var byMention = func() map[string]*Persona {
	m := make(map[string]*Persona, len(registry))
	for _, p := range registry {
		m[p.Mention] = p
	}
	return m
}()

// Get returns the persona for key.
func Get(key Key) (*Persona, bool) {
	p, ok := registry[key]
	return p, ok
}

// Default returns the default persona.
func Default() *Persona {
	return registry[KeyDefault]
}

// ByMention returns the persona mapped to a mention token, if any.
// Tokens are matched verbatim; callers normalize case first.
func ByMention(token string) (*Persona, bool) {
	p, ok := byMention[token]
	return p, ok
}

// List returns all personas in a stable order.
func List() []*Persona {
	keys := []Key{KeyDefault, KeyPro, KeyFlash, KeyCreative}
	out := make([]*Persona, 0, len(keys))
	for _, k := range keys {
		out = append(out, registry[k])
	}
	return out
}

// Valid reports whether key names a registered persona.
func Valid(key Key) bool {
	_, ok := registry[key]
	return ok
}
