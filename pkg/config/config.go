package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server (query API)
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Input data
	Data DataConfig

	// Pipeline
	Pipeline PipelineConfig

	// Logging
	LogLevel  string
	LogFormat string
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

// DataConfig holds input file configuration
type DataConfig struct {
	// Dir is the directory holding the converted DART dumps
	// ({year}-{quarter}Q-{TYPE}[-c].txt) and price extracts
	// ({year}-{quarter}Q-Stocks.csv).
	Dir string
}

// PipelineConfig holds batch pipeline configuration
type PipelineConfig struct {
	Workers      int    // concurrent period loads
	StartYear    int    // default range start when the CLI gets no args
	StartQuarter int
	ScheduleCron string // cron expression for the schedule command
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Data: DataConfig{
			Dir: getEnv("DATA_DIR", "dart-data"),
		},

		Pipeline: PipelineConfig{
			Workers:      getEnvAsInt("PIPELINE_WORKERS", runtime.NumCPU()),
			StartYear:    getEnvAsInt("PIPELINE_START_YEAR", 2016),
			StartQuarter: getEnvAsInt("PIPELINE_START_QUARTER", 1),
			// Quarterly dumps land well after quarter end; refresh
			// nightly by default so late files are picked up.
			ScheduleCron: getEnv("PIPELINE_SCHEDULE", "0 0 3 * * *"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be at least 1")
	}

	if c.Pipeline.StartQuarter < 1 || c.Pipeline.StartQuarter > 4 {
		return fmt.Errorf("PIPELINE_START_QUARTER must be in 1..4")
	}

	return nil
}

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
