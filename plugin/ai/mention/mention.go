// Package mention parses @-prefixed persona mentions in user input.
package mention

import (
	"strings"

	"github.com/plumechat/plume/plugin/ai/persona"
)

// RouteResult is the outcome of routing one turn's input.
type RouteResult struct {
	// Persona is the destination persona for this single turn. The active
	// session's own persona is never changed by a mention.
	Persona persona.Key
	// CleanedText is the input with a matched mention prefix removed.
	CleanedText string
}

// Route inspects rawText for a leading "@<token> <rest>" mention and, when
// the token names a registered persona and rest is non-empty, retargets the
// turn. Anything else, including a lone "@word" with no trailing text, is
// treated as literal content for the default persona.
func Route(rawText string, defaultPersona persona.Key) RouteResult {
	unmatched := RouteResult{Persona: defaultPersona, CleanedText: rawText}

	if !strings.HasPrefix(rawText, "@") {
		return unmatched
	}

	token, rest, found := strings.Cut(rawText[1:], " ")
	if !found {
		return unmatched
	}
	rest = strings.TrimLeft(rest, " ")
	if rest == "" {
		return unmatched
	}

	p, ok := persona.ByMention(strings.ToLower(token))
	if !ok {
		return unmatched
	}

	return RouteResult{Persona: p.Key, CleanedText: rest}
}
