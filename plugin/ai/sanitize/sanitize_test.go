package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_Emotion(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		expectedEmotion Emotion
		expectedText    string
	}{
		{
			name:            "Emotion tag is extracted and removed",
			input:           "Hi there<emotion>joy</emotion>",
			expectedEmotion: EmotionJoy,
			expectedText:    "Hi there",
		},
		{
			name:            "Emotion tag mid-text",
			input:           "I am <emotion>sadness</emotion>sorry to hear that.",
			expectedEmotion: EmotionSadness,
			expectedText:    "I am sorry to hear that.",
		},
		{
			name:            "Unknown emotion normalizes to neutral",
			input:           "Done!<emotion>smug</emotion>",
			expectedEmotion: EmotionNeutral,
			expectedText:    "Done!",
		},
		{
			name:            "Uppercase emotion value is accepted",
			input:           "Wow<emotion>SURPRISE</emotion>",
			expectedEmotion: EmotionSurprise,
			expectedText:    "Wow",
		},
		{
			name:            "No emotion tag leaves emotion unset",
			input:           "Just words.",
			expectedEmotion: "",
			expectedText:    "Just words.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Sanitize(tt.input)
			assert.Equal(t, tt.expectedEmotion, result.Emotion)
			assert.Equal(t, tt.expectedText, result.DisplayText)
		})
	}
}

func TestSanitize_ReasoningBlock(t *testing.T) {
	result := Sanitize("<thinking>the user wants a joke</thinking>Why did the chicken cross the road?")
	assert.Equal(t, "the user wants a joke", result.ReasoningTrace)
	assert.Equal(t, "Why did the chicken cross the road?", result.DisplayText)
}

func TestSanitize_ReasoningAndEmotionTogether(t *testing.T) {
	result := Sanitize("<thinking>keep it light</thinking>Sure thing!<emotion>joy</emotion>")
	assert.Equal(t, EmotionJoy, result.Emotion)
	assert.Equal(t, "keep it light", result.ReasoningTrace)
	assert.Equal(t, "Sure thing!", result.DisplayText)
}

func TestSanitize_MultipleReasoningBlocks(t *testing.T) {
	result := Sanitize("<thinking>first</thinking>Answer<thinking>second</thinking>")
	assert.Equal(t, "first\nsecond", result.ReasoningTrace)
	assert.Equal(t, "Answer", result.DisplayText)
}

func TestSanitize_TrimsWhitespace(t *testing.T) {
	result := Sanitize("  \n<emotion>love</emotion>  hello  \n")
	assert.Equal(t, EmotionLove, result.Emotion)
	assert.Equal(t, "hello", result.DisplayText)
}

func TestSanitize_Deterministic(t *testing.T) {
	input := "<thinking>a</thinking>b<emotion>joy</emotion>"
	first := Sanitize(input)
	second := Sanitize(input)
	assert.Equal(t, first, second)
}
