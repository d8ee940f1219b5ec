package config

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
)

const (
	defaultModel       = "gpt-5.1"
	defaultEnvironment = "development"
)

// Config contains configuration for the MAGDA transform tools
type Config struct {
	OpenAIAPIKey string // OpenAI API key for LLM provider
	GeminiAPIKey string // Google Gemini API key (optional)
	Model        string // model used for program authoring
	Provider     string // "openai" or "gemini"; empty infers from Model
	SentryDSN    string // empty disables Sentry
	Environment  string
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) *Config {
	if err := godotenv.Load(envFiles...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("ℹ️  No .env file found, using process environment")
		} else {
			log.Printf("⚠️  Failed to load .env: %v", err)
		}
	}

	return &Config{
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		Model:        getEnv("MAGDA_MODEL", defaultModel),
		Provider:     os.Getenv("MAGDA_PROVIDER"),
		SentryDSN:    os.Getenv("SENTRY_DSN"),
		Environment:  getEnv("MAGDA_ENV", defaultEnvironment),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
