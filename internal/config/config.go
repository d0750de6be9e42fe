package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type LogConfig struct {
	Level     string
	Format    string
	Component string
	Source    bool
}

type Config struct {
	App struct {
		ENV string
	}

	Log LogConfig

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	Cache struct {
		// Backend is "memory" or "redis".
		Backend           string
		RecommendationTTL time.Duration
		ProfileTTL        time.Duration
	}

	Match struct {
		// GroupThreshold is how many members a movie night needs on a movie.
		// Rooms always require every member.
		GroupThreshold int
	}

	Taste struct {
		PenalizeNope bool
		RefreshEvery int
	}

	Catalog struct {
		BreakerFailures uint32
		BreakerTimeout  time.Duration
		PopularMinVotes  int
		PopularMinRating float64
	}
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "production")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "moviease")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "moviease")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Caches
	cfg.Cache.Backend = strings.ToLower(getEnvDefault("CACHE_BACKEND", "memory"))
	cfg.Cache.RecommendationTTL = getEnvDuration("CACHE_RECOMMENDATION_TTL", 30*time.Minute)
	cfg.Cache.ProfileTTL = getEnvDuration("CACHE_PROFILE_TTL", 24*time.Hour)

	// Matching and profiles
	cfg.Match.GroupThreshold = getEnvInt("MATCH_GROUP_THRESHOLD", 2)
	cfg.Taste.PenalizeNope = getEnvBool("TASTE_PENALIZE_NOPE", true)
	cfg.Taste.RefreshEvery = getEnvInt("TASTE_REFRESH_EVERY", 10)

	// Catalog
	cfg.Catalog.BreakerFailures = uint32(getEnvInt("CATALOG_BREAKER_FAILURES", 5))
	cfg.Catalog.BreakerTimeout = getEnvDuration("CATALOG_BREAKER_TIMEOUT", 30*time.Second)
	cfg.Catalog.PopularMinVotes = getEnvInt("CATALOG_POPULAR_MIN_VOTES", 100)
	cfg.Catalog.PopularMinRating = getEnvFloat("CATALOG_POPULAR_MIN_RATING", 6)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return v
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v, err := strconv.ParseFloat(getEnvDefault(k, ""), 64); err == nil {
		return v
	}
	return def
}

func getEnvBool(k string, def bool) bool {
	v := getEnvDefault(k, "")
	if v == "" {
		return def
	}
	return isTruthy(v)
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvDefault(k, "")); err == nil && d > 0 {
		return d
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
