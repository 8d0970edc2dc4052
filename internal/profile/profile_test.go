package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var plumeEnvVars = []string{
	"PLUME_MODE",
	"PLUME_DATA",
	"PLUME_LOCAL_DSN",
	"PLUME_REMOTE_DSN",
	"PLUME_AI_PROVIDER",
	"PLUME_AI_API_KEY",
	"PLUME_AI_BASE_URL",
	"PLUME_AI_MODEL",
	"PLUME_AI_MAX_TOKENS",
	"PLUME_AI_SEND_RATE",
	"PLUME_SAVE_DEBOUNCE_MS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range plumeEnvVars {
		os.Unsetenv(v)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	p := &Profile{}
	p.FromEnv()

	if p.Mode != "dev" {
		t.Errorf("Mode: expected %q, got %q", "dev", p.Mode)
	}
	if p.AIProvider != "deepseek" {
		t.Errorf("AIProvider: expected %q, got %q", "deepseek", p.AIProvider)
	}
	if p.AIBaseURL != "https://api.deepseek.com" {
		t.Errorf("AIBaseURL: expected %q, got %q", "https://api.deepseek.com", p.AIBaseURL)
	}
	if p.AIModel != "deepseek-chat" {
		t.Errorf("AIModel: expected %q, got %q", "deepseek-chat", p.AIModel)
	}
	if p.AIMaxTokens != 4096 {
		t.Errorf("AIMaxTokens: expected 4096, got %d", p.AIMaxTokens)
	}
	if p.AISendRate != 0 {
		t.Errorf("AISendRate: expected 0, got %v", p.AISendRate)
	}
	if p.SaveDebounce != 400*time.Millisecond {
		t.Errorf("SaveDebounce: expected 400ms, got %v", p.SaveDebounce)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		check    func(*Profile) string
		expected string
	}{
		{
			name:     "PLUME_MODE",
			envVar:   "PLUME_MODE",
			envValue: "prod",
			check:    func(p *Profile) string { return p.Mode },
			expected: "prod",
		},
		{
			name:     "PLUME_AI_PROVIDER",
			envVar:   "PLUME_AI_PROVIDER",
			envValue: "ollama",
			check:    func(p *Profile) string { return p.AIProvider },
			expected: "ollama",
		},
		{
			name:     "PLUME_AI_API_KEY",
			envVar:   "PLUME_AI_API_KEY",
			envValue: "test-key-123",
			check:    func(p *Profile) string { return p.AIAPIKey },
			expected: "test-key-123",
		},
		{
			name:     "PLUME_AI_BASE_URL",
			envVar:   "PLUME_AI_BASE_URL",
			envValue: "http://localhost:11434",
			check:    func(p *Profile) string { return p.AIBaseURL },
			expected: "http://localhost:11434",
		},
		{
			name:     "PLUME_AI_MODEL",
			envVar:   "PLUME_AI_MODEL",
			envValue: "gpt-4o-mini",
			check:    func(p *Profile) string { return p.AIModel },
			expected: "gpt-4o-mini",
		},
		{
			name:     "PLUME_REMOTE_DSN",
			envVar:   "PLUME_REMOTE_DSN",
			envValue: "postgres://user:pass@db:5432/plume",
			check:    func(p *Profile) string { return p.RemoteDSN },
			expected: "postgres://user:pass@db:5432/plume",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			os.Setenv(tt.envVar, tt.envValue)
			defer os.Unsetenv(tt.envVar)

			p := &Profile{}
			p.FromEnv()

			if actual := tt.check(p); actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, actual)
			}
		})
	}
}

func TestFromEnvDurations(t *testing.T) {
	clearEnv(t)
	os.Setenv("PLUME_SAVE_DEBOUNCE_MS", "150")
	defer os.Unsetenv("PLUME_SAVE_DEBOUNCE_MS")

	p := &Profile{}
	p.FromEnv()

	if p.SaveDebounce != 150*time.Millisecond {
		t.Errorf("SaveDebounce: expected 150ms, got %v", p.SaveDebounce)
	}
}

func TestValidate(t *testing.T) {
	t.Run("FillsDerivedDefaults", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "dev", Data: dir}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if p.LocalDSN != filepath.Join(dir, "plume_dev.db") {
			t.Errorf("LocalDSN: got %q", p.LocalDSN)
		}
		if p.SaveDebounce != 400*time.Millisecond {
			t.Errorf("SaveDebounce: got %v", p.SaveDebounce)
		}
	})

	t.Run("UnknownModeFallsBackToDemo", func(t *testing.T) {
		p := &Profile{Mode: "staging", Data: t.TempDir()}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if p.Mode != "demo" {
			t.Errorf("Mode: expected %q, got %q", "demo", p.Mode)
		}
	})

	t.Run("CreatesDataDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "data")
		p := &Profile{Mode: "dev", Data: dir}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("data dir not created: %v", err)
		}
	})

	t.Run("ExplicitLocalDSNKept", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: t.TempDir(), LocalDSN: "/tmp/custom.db"}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if p.LocalDSN != "/tmp/custom.db" {
			t.Errorf("LocalDSN: got %q", p.LocalDSN)
		}
	})
}

func TestIsAIEnabled(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    bool
	}{
		{"NoProvider", Profile{}, false},
		{"ProviderWithKey", Profile{AIProvider: "deepseek", AIAPIKey: "k"}, true},
		{"ProviderWithBaseURLOnly", Profile{AIProvider: "ollama", AIBaseURL: "http://localhost:11434"}, true},
		{"ProviderWithoutCredentials", Profile{AIProvider: "openai"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.IsAIEnabled(); got != tt.want {
				t.Errorf("IsAIEnabled(): expected %v, got %v", tt.want, got)
			}
		})
	}
}
