package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	// Backend selects the document store: "appwrite" or "mysql".
	Backend string

	AppwriteEndpoint string
	AppwriteProject  string
	AppwriteKey      string
	AppwriteDB       string
	AppwriteRPS      int

	MySQLDSN string

	RedisAddr string
	RedisDB   int
	RedisPass string

	CacheTTL       time.Duration
	MinReviewChars int

	OAuthSuccessURL string
	OAuthFailureURL string

	SeedWorkers int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		Backend: env("STORE_BACKEND", "appwrite"),

		AppwriteEndpoint: env("APPWRITE_ENDPOINT", "https://cloud.appwrite.io/v1"),
		AppwriteProject:  env("APPWRITE_PROJECT", ""),
		AppwriteKey:      env("APPWRITE_API_KEY", ""),
		AppwriteDB:       env("APPWRITE_DATABASE_ID", "course-review"),
		AppwriteRPS:      atoi("APPWRITE_RPS", 10),

		MySQLDSN: env("MYSQL_DSN", "root:root@tcp(localhost:3306)/course_review?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),

		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),

		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		MinReviewChars: atoi("MIN_REVIEW_CHARS", 20),

		OAuthSuccessURL: env("OAUTH_SUCCESS_URL", "http://localhost:8080/v1/session/resume"),
		OAuthFailureURL: env("OAUTH_FAILURE_URL", "http://localhost:8080/"),

		SeedWorkers: atoi("SEED_WORKERS", 8),
	}
	if c.Backend == "appwrite" && c.AppwriteProject == "" {
		log.Warn().Msg("APPWRITE_PROJECT is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
