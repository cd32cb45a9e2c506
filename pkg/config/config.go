// Package config loads TripChat configuration from environment variables.
// All knobs have defaults so the binary starts with zero configuration;
// the only consequential omission is OPENAI_API_KEY, which disables the
// LLM gateway (endpoints still serve, emitting in-band error frames).
package config

import (
	"os"
	"strconv"
)

// Defaults for the tunables. RingSize and ReplayCount bound the broadcast
// replay ring; MaxContextChars bounds how much prior plan text is handed
// back to the planner prompts on a modification.
const (
	DefaultPort            = "5000"
	DefaultDatabaseURL     = "file:tripchat.db"
	DefaultModel           = "gpt-4o-mini"
	DefaultSessionID       = "shared-travel-session"
	DefaultRingSize        = 1000
	DefaultReplayCount     = 50
	DefaultMaxContextChars = 3000
)

// Config holds the full runtime configuration.
type Config struct {
	Port        string
	SecretKey   string
	DatabaseURL string

	// LLM gateway
	OpenAIAPIKey string
	OpenAIModel  string

	// Single-room session scoping. Every /chat request is pinned to this
	// session id; deploying multiple rooms means running multiple processes.
	SessionID string

	// Chatroom fan-out
	RingSize    int
	ReplayCount int

	// Planner prompt context truncation
	MaxContextChars int
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", DefaultPort),
		SecretKey:       getEnv("SECRET_KEY", "dev-secret-key"),
		DatabaseURL:     getEnv("DATABASE_URL", DefaultDatabaseURL),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", DefaultModel),
		SessionID:       getEnv("SESSION_ID", DefaultSessionID),
		RingSize:        getEnvInt("RING_SIZE", DefaultRingSize),
		ReplayCount:     getEnvInt("REPLAY_COUNT", DefaultReplayCount),
		MaxContextChars: getEnvInt("MAX_CONTEXT_CHARS", DefaultMaxContextChars),
	}
}

// LLMConfigured reports whether the OpenAI gateway can be constructed.
func (c *Config) LLMConfigured() bool {
	return c.OpenAIAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
