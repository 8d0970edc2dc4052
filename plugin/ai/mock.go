package ai

import (
	"context"
	"sync"
)

// ScriptedReply is one scripted ChatStream outcome for the mock.
type ScriptedReply struct {
	Chunks []string
	Result *CompletionResult
	Err    error
}

// MockLLMService is a scripted LLMService for testing. Replies are consumed
// in order; when the script runs out the last reply repeats.
type MockLLMService struct {
	mu      sync.Mutex
	script  []ScriptedReply
	calls   [][]Message
	callIdx int
}

// NewMockLLMService creates a mock with the given script.
func NewMockLLMService(script ...ScriptedReply) *MockLLMService {
	return &MockLLMService{script: script}
}

// Calls returns the message histories passed to each call.
func (m *MockLLMService) Calls() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]Message, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockLLMService) next(messages []Message) ScriptedReply {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]Message, len(messages))
	copy(copied, messages)
	m.calls = append(m.calls, copied)

	if len(m.script) == 0 {
		return ScriptedReply{Result: &CompletionResult{}}
	}
	idx := m.callIdx
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	m.callIdx++
	return m.script[idx]
}

// Chat returns the scripted result content.
func (m *MockLLMService) Chat(ctx context.Context, messages []Message) (string, error) {
	reply := m.next(messages)
	if reply.Err != nil {
		return "", reply.Err
	}
	if reply.Result != nil {
		return reply.Result.Content, nil
	}
	return "", nil
}

// ChatStream delivers the scripted chunks in order, then the result or error.
func (m *MockLLMService) ChatStream(ctx context.Context, messages []Message, onChunk func(string) error) (*CompletionResult, error) {
	reply := m.next(messages)

	for _, chunk := range reply.Chunks {
		if onChunk != nil {
			if err := onChunk(chunk); err != nil {
				return nil, err
			}
		}
	}

	if reply.Err != nil {
		return nil, reply.Err
	}
	if reply.Result != nil {
		return reply.Result, nil
	}

	var content string
	for _, c := range reply.Chunks {
		content += c
	}
	return &CompletionResult{Content: content}, nil
}

var _ LLMService = (*MockLLMService)(nil)
