package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plumechat/plume/plugin/ai/persona"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		defaultPersona  persona.Key
		expectedPersona persona.Key
		expectedText    string
	}{
		{
			name:            "Valid mention retargets the turn",
			input:           "@pro explain recursion",
			defaultPersona:  persona.KeyDefault,
			expectedPersona: persona.KeyPro,
			expectedText:    "explain recursion",
		},
		{
			name:            "Mention is case insensitive",
			input:           "@Flash what time is it",
			defaultPersona:  persona.KeyDefault,
			expectedPersona: persona.KeyFlash,
			expectedText:    "what time is it",
		},
		{
			name:            "Muse mention maps to creative persona",
			input:           "@muse write me a haiku",
			defaultPersona:  persona.KeyPro,
			expectedPersona: persona.KeyCreative,
			expectedText:    "write me a haiku",
		},
		{
			name:            "Unknown token is literal content",
			input:           "@nobody hello there",
			defaultPersona:  persona.KeyDefault,
			expectedPersona: persona.KeyDefault,
			expectedText:    "@nobody hello there",
		},
		{
			name:            "Mention with no trailing text is literal",
			input:           "@pro",
			defaultPersona:  persona.KeyDefault,
			expectedPersona: persona.KeyDefault,
			expectedText:    "@pro",
		},
		{
			name:            "Mention with only trailing spaces is literal",
			input:           "@pro   ",
			defaultPersona:  persona.KeyDefault,
			expectedPersona: persona.KeyDefault,
			expectedText:    "@pro   ",
		},
		{
			name:            "Lone at sign is literal",
			input:           "@ what does this do",
			defaultPersona:  persona.KeyDefault,
			expectedPersona: persona.KeyDefault,
			expectedText:    "@ what does this do",
		},
		{
			name:            "Plain text keeps the default persona",
			input:           "tell me about otters",
			defaultPersona:  persona.KeyCreative,
			expectedPersona: persona.KeyCreative,
			expectedText:    "tell me about otters",
		},
		{
			name:            "Mention mid-text is not a mention",
			input:           "ask @pro about it",
			defaultPersona:  persona.KeyDefault,
			expectedPersona: persona.KeyDefault,
			expectedText:    "ask @pro about it",
		},
		{
			name:            "Extra spaces after token are trimmed from rest",
			input:           "@flash   short answer",
			defaultPersona:  persona.KeyDefault,
			expectedPersona: persona.KeyFlash,
			expectedText:    "short answer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Route(tt.input, tt.defaultPersona)
			assert.Equal(t, tt.expectedPersona, result.Persona)
			assert.Equal(t, tt.expectedText, result.CleanedText)
		})
	}
}
