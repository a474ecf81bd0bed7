package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Watch worker configuration
	WatchInterval time.Duration

	// Base URLs for the providers
	NyaaURL        string
	AnimeToshoURL  string
	HianimeURL     string
	AnimePaheURL   string
	MangapillURL   string
	MangakatanaURL string

	// Optional YAML file with manga selector overrides
	MangaSelectorsFile string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	watchInterval, _ := strconv.Atoi(getEnv("WATCH_INTERVAL_SECONDS", "300"))

	return Config{
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "releases"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		WatchInterval:        time.Duration(watchInterval) * time.Second,
		NyaaURL:              getEnv("NYAA_URL", "https://nyaa.si"),
		AnimeToshoURL:        getEnv("ANIMETOSHO_URL", "https://feed.animetosho.org"),
		HianimeURL:           getEnv("HIANIME_URL", "https://hianime.to"),
		AnimePaheURL:         getEnv("ANIMEPAHE_URL", "https://animepahe.ru"),
		MangapillURL:         getEnv("MANGAPILL_URL", "https://mangapill.com"),
		MangakatanaURL:       getEnv("MANGAKATANA_URL", "https://mangakatana.com"),
		MangaSelectorsFile:   getEnv("MANGA_SELECTORS_FILE", ""),
		Environment:          getEnv("PROVIDER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if c.WatchInterval < time.Second {
		return fmt.Errorf("watch interval too short: %v", c.WatchInterval)
	}
	if c.RedisStreamCount < 1 {
		return fmt.Errorf("redis stream count must be at least 1, got %d", c.RedisStreamCount)
	}
	if c.RedisStreamMaxLength < 1 {
		return fmt.Errorf("redis stream max length must be at least 1, got %d", c.RedisStreamMaxLength)
	}
	for name, u := range map[string]string{
		"NYAA_URL":        c.NyaaURL,
		"ANIMETOSHO_URL":  c.AnimeToshoURL,
		"HIANIME_URL":     c.HianimeURL,
		"ANIMEPAHE_URL":   c.AnimePaheURL,
		"MANGAPILL_URL":   c.MangapillURL,
		"MANGAKATANA_URL": c.MangakatanaURL,
	} {
		if u == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
