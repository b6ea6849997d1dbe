package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables recognized on top of config.yml. Secrets belong here
// rather than in the config file so repositories stay shareable.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGeminiModel  = "DOMAINQA_GEMINI_MODEL"
	EnvOllamaURL    = "DOMAINQA_OLLAMA_URL"
	EnvEmbedModel   = "DOMAINQA_EMBED_MODEL"
	EnvServeAddr    = "DOMAINQA_SERVE_ADDR"
	EnvTopK         = "DOMAINQA_TOP_K"
)

// applyEnv overlays environment variables onto the loaded config. A .env file
// at the repository root is read first; real environment variables win over
// it, which is godotenv's non-overload behavior.
func (c *Config) applyEnv(root string) {
	// Missing .env is the normal case.
	_ = godotenv.Load(filepath.Join(root, ".env"))

	if v := os.Getenv(EnvGeminiAPIKey); v != "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv(EnvGeminiModel); v != "" {
		c.GeminiModel = v
	}
	if v := os.Getenv(EnvOllamaURL); v != "" {
		c.OllamaURL = v
	}
	if v := os.Getenv(EnvEmbedModel); v != "" {
		c.EmbedModel = v
	}
	if v := os.Getenv(EnvServeAddr); v != "" {
		c.ServeAddr = v
	}
	if v := os.Getenv(EnvTopK); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.TopK = k
		}
	}
}
