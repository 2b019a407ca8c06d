package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	JWTTTL       time.Duration
	ServerPort   int
	CORSOrigins  []string
	LogLevel     slog.Level

	GameLockLead     time.Duration
	ChatHistoryLimit int
	ChatHistoryMax   int

	// R2 is used for standings snapshots; empty AccountID disables it.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	AMQPURL      string
	AMQPExchange string

	// SMTP для писем подтверждения; пустой SMTPHost означает, что письма только логируются.
	PublicURL string
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	SMTPFrom  string
}

func (c *Config) R2Enabled() bool {
	return c.R2AccountID != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	jwtTTL, err := durationEnv("JWT_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	lockLead, err := durationEnv("GAME_LOCK_LEAD", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	if lockLead < 0 {
		return nil, fmt.Errorf("GAME_LOCK_LEAD must not be negative, got %s", lockLead)
	}

	historyLimit, err := intEnv("CHAT_HISTORY_LIMIT", 50)
	if err != nil {
		return nil, err
	}
	historyMax, err := intEnv("CHAT_HISTORY_MAX", 100)
	if err != nil {
		return nil, err
	}
	if historyLimit <= 0 || historyMax < historyLimit {
		return nil, fmt.Errorf("CHAT_HISTORY_LIMIT must be positive and not exceed CHAT_HISTORY_MAX (%d, %d)", historyLimit, historyMax)
	}

	smtpPort, err := intEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(stringEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		JWTSecretKey:      jwtKey,
		JWTTTL:            jwtTTL,
		ServerPort:        port,
		CORSOrigins:       splitList(stringEnv("CORS_ORIGIN", "*")),
		LogLevel:          level,
		GameLockLead:      lockLead,
		ChatHistoryLimit:  historyLimit,
		ChatHistoryMax:    historyMax,
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		AMQPURL:           os.Getenv("AMQP_URL"),
		AMQPExchange:      stringEnv("AMQP_EXCHANGE", "hoops.events"),
		PublicURL:         strings.TrimRight(stringEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPPort:          smtpPort,
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPass:          os.Getenv("SMTP_PASS"),
		SMTPFrom:          os.Getenv("SMTP_FROM"),
	}

	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
