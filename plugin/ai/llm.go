package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	chaterrors "github.com/plumechat/plume/internal/errors"
)

// Message represents a chat message.
type Message struct {
	Role      string // system, user, assistant
	Content   string
	ImageURLs []string // optional image attachments for user messages
}

// CompletionResult is the final structured result of a streamed reply.
// Content is authoritative; it may still carry control tags that the
// sanitizer strips before display.
type CompletionResult struct {
	Content        string
	ReasoningTrace string
	AudioURL       string
	SideMedia      string // JSON metadata from side-channel media, if any
}

// LLMService is the LLM transport boundary.
type LLMService interface {
	// Chat performs synchronous chat.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatStream performs streaming chat. Chunks are delivered in order via
	// onChunk; the returned result carries the final authoritative content.
	// Returning an error from onChunk aborts the stream.
	ChatStream(ctx context.Context, messages []Message, onChunk func(string) error) (*CompletionResult, error)
}

type llmService struct {
	model       llms.Model
	maxTokens   int
	temperature float32
	limiter     *SendLimiter
}

// NewLLMService creates a new LLMService.
func NewLLMService(cfg *LLMConfig) (LLMService, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case "deepseek":
		// DeepSeek is compatible with OpenAI API
		model, err = openai.New(
			openai.WithToken(cfg.APIKey),
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithModel(cfg.Model),
		)

	case "openai":
		model, err = openai.New(
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
		)

	case "ollama":
		model, err = ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.BaseURL),
		)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, err
	}

	return &llmService{
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		limiter:     NewSendLimiter(cfg.SendRate),
	}, nil
}

func (s *llmService) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := s.limiter.Allow(); err != nil {
		return "", err
	}

	resp, err := s.model.GenerateContent(ctx, convertMessages(messages),
		llms.WithMaxTokens(s.maxTokens),
		llms.WithTemperature(float64(s.temperature)),
	)
	if err != nil {
		return "", classifyProviderError(err)
	}

	if len(resp.Choices) == 0 {
		return "", chaterrors.TransportFailed("empty response", nil)
	}

	return resp.Choices[0].Content, nil
}

func (s *llmService) ChatStream(ctx context.Context, messages []Message, onChunk func(string) error) (*CompletionResult, error) {
	if err := s.limiter.Allow(); err != nil {
		return nil, err
	}

	var assembled strings.Builder

	resp, err := s.model.GenerateContent(ctx, convertMessages(messages),
		llms.WithMaxTokens(s.maxTokens),
		llms.WithTemperature(float64(s.temperature)),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			assembled.Write(chunk)
			if onChunk != nil {
				return onChunk(string(chunk))
			}
			return nil
		}),
	)
	if err != nil {
		return nil, classifyProviderError(err)
	}

	content := assembled.String()
	if len(resp.Choices) > 0 && resp.Choices[0].Content != "" {
		content = resp.Choices[0].Content
	}

	return &CompletionResult{Content: content}, nil
}

// classifyProviderError maps provider failures onto the chat error taxonomy.
// Rate limit responses are surfaced distinctly so the caller can show a
// limit prompt instead of a generic failure.
func classifyProviderError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") || strings.Contains(msg, "quota") {
		return chaterrors.RateLimitExceeded(err.Error())
	}
	return chaterrors.TransportFailed("llm call failed", err)
}

func convertMessages(messages []Message) []llms.MessageContent {
	llmMessages := make([]llms.MessageContent, len(messages))
	for i, m := range messages {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case "system":
			role = llms.ChatMessageTypeSystem
		case "user":
			role = llms.ChatMessageTypeHuman
		case "assistant":
			role = llms.ChatMessageTypeAI
		}

		parts := []llms.ContentPart{llms.TextPart(m.Content)}
		for _, url := range m.ImageURLs {
			parts = append(parts, llms.ImageURLPart(url))
		}

		llmMessages[i] = llms.MessageContent{
			Role:  role,
			Parts: parts,
		}
	}
	return llmMessages
}

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}
