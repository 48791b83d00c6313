package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the library and CLI
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Runtime
	Env  string // development, staging, production
	Port string // collect 데몬의 API 포트

	// KIS API
	KIS KISConfig

	// Storage (collect 데몬에서만 사용)
	Database  DatabaseConfig
	Redis     RedisConfig
	Collector CollectorConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// KISConfig holds KIS (한국투자증권) API configuration
type KISConfig struct {
	AppKey    string
	AppSecret string
	AccountNo string // CANO(8자리) + 상품코드(2자리)
	BaseURL   string
	WSURL     string // 실시간 웹소켓 주소 (비우면 도메인 기본값)
	IsVirtual bool   // 모의투자 여부
	HtsID     string // HTS ID (체결통보 구독용)
}

// HasAccount reports whether an account number is configured.
func (k KISConfig) HasAccount() bool {
	return len(k.AccountNo) >= 10
}

// CANO returns the first 8 digits of the account number.
func (k KISConfig) CANO() string {
	return k.AccountNo[:8]
}

// ProductCode returns the last 2 digits of the account number.
func (k KISConfig) ProductCode() string {
	return k.AccountNo[8:10]
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// CollectorConfig holds quote collection settings
type CollectorConfig struct {
	Symbols  []string // 수집 대상 종목코드
	Schedule string   // cron 표현식
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8090"),

		KIS: KISConfig{
			AppKey:    getEnv("KIS_APP_KEY", ""),
			AppSecret: getEnv("KIS_APP_SECRET", ""),
			AccountNo: getEnv("KIS_ACCOUNT_NO", ""),
			BaseURL:   getEnv("KIS_BASE_URL", ""),
			WSURL:     getEnv("KIS_WS_URL", ""),
			IsVirtual: getEnvAsBool("KIS_IS_VIRTUAL", false),
			HtsID:     getEnv("KIS_HTS_ID", ""),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Collector: CollectorConfig{
			Symbols:  getEnvAsList("COLLECT_SYMBOLS", nil),
			Schedule: getEnv("COLLECT_SCHEDULE", "0 30 15 * * MON-FRI"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.KIS.AppKey == "" || c.KIS.AppSecret == "" {
		return fmt.Errorf("KIS_APP_KEY and KIS_APP_SECRET are required")
	}

	if c.KIS.AccountNo != "" && len(c.KIS.AccountNo) < 10 {
		return fmt.Errorf("KIS_ACCOUNT_NO must be at least 10 digits (CANO + product code)")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
