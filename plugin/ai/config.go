package ai

import (
	"errors"

	"github.com/plumechat/plume/internal/profile"
)

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string  // deepseek, openai, ollama
	Model       string  // deepseek-chat
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 4096
	Temperature float32 // default: 0.7

	// SendRate limits user turns per minute. Zero disables the gate.
	SendRate float64
}

// NewConfigFromProfile creates LLM config from profile.
func NewConfigFromProfile(p *profile.Profile) *LLMConfig {
	cfg := &LLMConfig{
		Provider:    p.AIProvider,
		Model:       p.AIModel,
		APIKey:      p.AIAPIKey,
		BaseURL:     p.AIBaseURL,
		MaxTokens:   p.AIMaxTokens,
		Temperature: 0.7,
		SendRate:    p.AISendRate,
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return cfg
}

// Validate checks the config for completeness.
func (c *LLMConfig) Validate() error {
	if c.Provider == "" {
		return errors.New("llm provider is required")
	}
	if c.Model == "" {
		return errors.New("llm model is required")
	}
	if c.Provider != "ollama" && c.APIKey == "" {
		return errors.New("llm api key is required")
	}
	return nil
}
