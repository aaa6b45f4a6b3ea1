package config

import (
	"sync"
	"time"
)

type RedisConfig struct {
	URL string
	// LockTTL bounds how long a crashed backfill can keep the lock.
	LockTTL time.Duration
	LockKey string
}

var (
	redisConfig *RedisConfig
	redisOnce   sync.Once
)

func LoadRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		redisConfig = &RedisConfig{
			URL:     getEnv("REDIS_URL", ""),
			LockTTL: getEnvDuration("BACKFILL_LOCK_TTL", 30*time.Minute),
			LockKey: getEnv("BACKFILL_LOCK_KEY", "jobseek:backfill:lock"),
		}
	})
	return redisConfig
}
