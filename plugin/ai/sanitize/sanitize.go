// Package sanitize strips model control tags from reply text.
package sanitize

import (
	"regexp"
	"strings"
)

// Emotion is the cosmetic emotion signal a persona may embed in its output.
type Emotion string

const (
	EmotionNeutral  Emotion = "neutral"
	EmotionJoy      Emotion = "joy"
	EmotionSadness  Emotion = "sadness"
	EmotionAnger    Emotion = "anger"
	EmotionSurprise Emotion = "surprise"
	EmotionLove     Emotion = "love"
)

var validEmotions = map[Emotion]bool{
	EmotionNeutral:  true,
	EmotionJoy:      true,
	EmotionSadness:  true,
	EmotionAnger:    true,
	EmotionSurprise: true,
	EmotionLove:     true,
}

var (
	emotionRe   = regexp.MustCompile(`(?is)<emotion>\s*(.*?)\s*</emotion>`)
	reasoningRe = regexp.MustCompile(`(?is)<thinking>(.*?)</thinking>`)
)

// Result is the sanitized view of one model reply.
type Result struct {
	// Emotion is empty when no emotion tag was present.
	Emotion Emotion
	// ReasoningTrace is the concatenated content of stripped reasoning blocks.
	ReasoningTrace string
	// DisplayText is the reply with all control tags removed, trimmed.
	DisplayText string
}

// Sanitize extracts the emotion and reasoning control tags from raw model
// output. An unrecognized emotion value normalizes to neutral rather than
// failing; a cosmetic tag must never break the turn.
func Sanitize(raw string) Result {
	var result Result

	if m := emotionRe.FindStringSubmatch(raw); m != nil {
		e := Emotion(strings.ToLower(m[1]))
		if !validEmotions[e] {
			e = EmotionNeutral
		}
		result.Emotion = e
	}
	cleaned := emotionRe.ReplaceAllString(raw, "")

	if blocks := reasoningRe.FindAllStringSubmatch(cleaned, -1); blocks != nil {
		traces := make([]string, 0, len(blocks))
		for _, b := range blocks {
			if t := strings.TrimSpace(b[1]); t != "" {
				traces = append(traces, t)
			}
		}
		result.ReasoningTrace = strings.Join(traces, "\n")
	}
	cleaned = reasoningRe.ReplaceAllString(cleaned, "")

	result.DisplayText = strings.TrimSpace(cleaned)
	return result
}
