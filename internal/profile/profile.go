package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the runtime configuration for a conversation context.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Data is the data directory for local storage
	Data string
	// LocalDSN points to the local SQLite database (anonymous sessions)
	LocalDSN string
	// RemoteDSN points to the remote PostgreSQL database (authenticated sessions)
	RemoteDSN string

	// AI Configuration
	AIProvider  string  // PLUME_AI_PROVIDER (openai | deepseek | ollama)
	AIAPIKey    string  // PLUME_AI_API_KEY
	AIBaseURL   string  // PLUME_AI_BASE_URL
	AIModel     string  // PLUME_AI_MODEL
	AIMaxTokens int     // PLUME_AI_MAX_TOKENS
	AISendRate  float64 // PLUME_AI_SEND_RATE (turns per minute, 0 = unlimited)

	// SaveDebounce is the coalescing window for chunk-driven saves.
	SaveDebounce time.Duration // PLUME_SAVE_DEBOUNCE_MS
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if a provider is configured with enough to make calls.
func (p *Profile) IsAIEnabled() bool {
	return p.AIProvider != "" && (p.AIAPIKey != "" || p.AIBaseURL != "")
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from PLUME_* environment variables.
func (p *Profile) FromEnv() {
	p.Mode = getEnvOrDefault("PLUME_MODE", "dev")
	p.Data = getEnvOrDefault("PLUME_DATA", p.Data)
	p.LocalDSN = getEnvOrDefault("PLUME_LOCAL_DSN", p.LocalDSN)
	p.RemoteDSN = getEnvOrDefault("PLUME_REMOTE_DSN", p.RemoteDSN)

	p.AIProvider = getEnvOrDefault("PLUME_AI_PROVIDER", "deepseek")
	p.AIAPIKey = os.Getenv("PLUME_AI_API_KEY")
	p.AIBaseURL = getEnvOrDefault("PLUME_AI_BASE_URL", "https://api.deepseek.com")
	p.AIModel = getEnvOrDefault("PLUME_AI_MODEL", "deepseek-chat")

	if v, err := strconv.Atoi(getEnvOrDefault("PLUME_AI_MAX_TOKENS", "4096")); err == nil {
		p.AIMaxTokens = v
	}
	if v, err := strconv.ParseFloat(getEnvOrDefault("PLUME_AI_SEND_RATE", "0"), 64); err == nil {
		p.AISendRate = v
	}
	if v, err := strconv.Atoi(getEnvOrDefault("PLUME_SAVE_DEBOUNCE_MS", "400")); err == nil {
		p.SaveDebounce = time.Duration(v) * time.Millisecond
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		if err := os.MkdirAll(dataDir, 0770); err != nil {
			return "", errors.Wrapf(err, "unable to create data folder %s", dataDir)
		}
	}
	return dataDir, nil
}

// Validate normalizes the profile and fills derived defaults.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Data == "" {
		p.Data = "."
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return errors.Wrap(err, "failed to check data dir")
	}
	p.Data = dataDir

	if p.LocalDSN == "" {
		dbFile := fmt.Sprintf("plume_%s.db", p.Mode)
		p.LocalDSN = filepath.Join(dataDir, dbFile)
	}

	if p.SaveDebounce <= 0 {
		p.SaveDebounce = 400 * time.Millisecond
	}

	return nil
}
