package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type HTTPConfig struct {
	Addr string
}

type AuthConfig struct {
	JWTSecret  string
	FeedSecret string
}

type AppConfig struct {
	ServiceName     string
	Env             string
	LogLevel        string
	PublicBaseURL   string
	CacheTTLSeconds int
	HTTP            HTTPConfig
	Auth            AuthConfig
}

// IsProduction reports whether APP_ENV selects production behaviour
// (Postgres required, no in-memory fallbacks).
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName:     getenv("SERVICE_NAME"),
		Env:             getenv("APP_ENV"),
		LogLevel:        getenv("LOG_LEVEL"),
		PublicBaseURL:   getenv("PUBLIC_BASE_URL"),
		CacheTTLSeconds: getenvInt("CACHE_TTL_SECONDS", 60),
		HTTP: HTTPConfig{
			Addr: getenv("HTTP_ADDR"),
		},
		Auth: AuthConfig{
			JWTSecret:  getenv("JWT_SECRET"),
			FeedSecret: getenv("FEED_SECRET"),
		},
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "portal"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:8080"
	}
	if cfg.Auth.JWTSecret == "" {
		return AppConfig{}, errors.New("JWT_SECRET is required")
	}
	if cfg.Auth.FeedSecret == "" {
		// Feed links stay verifiable across restarts only when set explicitly.
		cfg.Auth.FeedSecret = cfg.Auth.JWTSecret
	}
	return cfg, nil
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getenvInt(key string, fallback int) int {
	v := getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
