package config

import (
	"os"
	"strconv"
	"time"
)

type SessionConfig struct {
	TokenTTL        time.Duration
	BlacklistTTL    time.Duration
	SessionPrefix   string
	BlacklistPrefix string
	BcryptCost      int
}

func LoadSessionConfig() *SessionConfig {
	return &SessionConfig{
		TokenTTL:        getEnvAsDuration("SESSION_TOKEN_TTL", 24*time.Hour),
		BlacklistTTL:    getEnvAsDuration("SESSION_BLACKLIST_TTL", 24*time.Hour),
		SessionPrefix:   getEnv("SESSION_KEY_PREFIX", "session"),
		BlacklistPrefix: getEnv("SESSION_BLACKLIST_PREFIX", "blacklist"),
		BcryptCost:      getEnvAsInt("BCRYPT_COST", 10),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
