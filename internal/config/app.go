package config

import (
	"sync"
	"time"
)

type AppConfig struct {
	Name        string
	Env         string
	Port        string
	BaseURL     string
	AdminToken  string
	StoreDriver string // "postgres" or "memory"
	RateLimit   int
	RateWindow  time.Duration
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		appConfig = &AppConfig{
			Name:        getEnv("APP_NAME", "Job Board API"),
			Env:         getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", ":8000"),
			BaseURL:     getEnv("APP_URL", ""),
			AdminToken:  getEnv("ADMIN_TOKEN", ""),
			StoreDriver: getEnv("STORE_DRIVER", "postgres"),
			RateLimit:   getEnvInt("RATE_LIMIT_MAX", 50),
			RateWindow:  getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		}
	})
	return appConfig
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}
