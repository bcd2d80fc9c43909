package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisURL string

	JWTSecret string
	JWTTTL    time.Duration

	ConfirmationCodeTTL time.Duration
	SignupCooldown      time.Duration

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	MeiliSearchHost string
	MeiliMasterKey  string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASS"),
		DBName:     getEnv("DB_NAME", "titlereview"),

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: getEnv("SMTP_FROM", "noreply@titlereview.local"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),
	}

	cfg.JWTTTL = time.Hour
	if minutes, err := strconv.Atoi(getEnv("JWT_TTL_MINUTES", "")); err == nil && minutes > 0 {
		cfg.JWTTTL = time.Duration(minutes) * time.Minute
	}

	var err error
	cfg.ConfirmationCodeTTL, err = time.ParseDuration(getEnv("CONFIRMATION_CODE_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CONFIRMATION_CODE_TTL: %w", err)
	}
	cfg.SignupCooldown, err = time.ParseDuration(getEnv("RATE_LIMIT_SIGNUP", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SIGNUP: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
