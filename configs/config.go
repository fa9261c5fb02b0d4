package config

import (
	"os"
	"strconv"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	PostgresURI      string
	RedisURI         string
	FrontendURL      string
	LaterBaseURL     string
	SecretKey        string
	CookieName       string
	CronSecret       string
	WebhookSecret    string
	R2               R2
	EnableCronRunner bool
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:   getEnv("POSTGRES_URI", ""),
		RedisURI:      getEnv("REDIS_URI", ""),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:5173"),
		LaterBaseURL:  getEnv("LATER_BASE_URL", "https://api.later.com/v2"),
		SecretKey:     getEnv("SECRET_KEY", ""),
		CookieName:    getEnv("COOKIE_NAME", "sl_session"),
		CronSecret:    getEnv("CRON_SECRET", ""),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		EnableCronRunner: getBoolEnv("ENABLE_CRON_RUNNER", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
