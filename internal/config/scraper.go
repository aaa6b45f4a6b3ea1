package config

import (
	"sync"
	"time"
)

var (
	defaultGreenhouseBoards = []string{
		"anthropic", "scaleai", "xai", "cohere", "huggingface", "databricks",
		"mistralai", "perplexity", "deepmind", "cerebras", "gitlab", "twitch",
	}
	defaultAshbyOrgs = []string{"openai"}
)

type ScraperConfig struct {
	GreenhouseBoards  []string
	AshbyOrgs         []string
	UserAgent         string
	Timeout           time.Duration
	SleepBetweenCalls time.Duration
	MaxRetries        int
	// Interval between scheduled ingests; zero disables the scheduler.
	Interval    time.Duration
	Concurrency int
}

var (
	scraperConfig *ScraperConfig
	scraperOnce   sync.Once
)

func LoadScraperConfig() *ScraperConfig {
	scraperOnce.Do(func() {
		scraperConfig = &ScraperConfig{
			GreenhouseBoards:  getEnvList("GREENHOUSE_BOARDS", defaultGreenhouseBoards),
			AshbyOrgs:         getEnvList("ASHBY_ORGS", defaultAshbyOrgs),
			UserAgent:         getEnv("SCRAPE_USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0 Safari/537.36"),
			Timeout:           getEnvDuration("SCRAPE_TIMEOUT", 15*time.Second),
			SleepBetweenCalls: getEnvDuration("SCRAPE_SLEEP_BETWEEN_CALLS", 600*time.Millisecond),
			MaxRetries:        getEnvInt("SCRAPE_MAX_RETRIES", 3),
			Interval:          getEnvDuration("SCRAPE_INTERVAL", 0),
			Concurrency:       getEnvInt("SCRAPE_CONCURRENCY", 4),
		}
	})
	return scraperConfig
}
