package config

import (
	"sync"
	"time"
)

type GeminiConfig struct {
	APIKey         string
	MaxRetries     int
	RequestTimeout time.Duration
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		geminiConfig = &GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			MaxRetries:     getEnvInt("GEMINI_MAX_RETRIES", 3),
			RequestTimeout: getEnvDuration("GEMINI_REQUEST_TIMEOUT", 90*time.Second),
		}
	})
	return geminiConfig
}
