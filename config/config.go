package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Mode       string
	DataSource string
	CSVPath    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ListenAddr     string
	MaxConcurrency int
	MaxRetries     int
	LogDebug       bool

	ChartDir     string
	SnapshotPath string
	ChromeBin    string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Mode:       strings.ToLower(getEnv("MODE", "serve")),
		DataSource: strings.ToLower(getEnv("DATA_SOURCE", "csv")),
		CSVPath:    getEnv("CSV_PATH", "vehicles_us.csv"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "dashboard"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "dashboard123"),
		PostgresDB:       getEnv("POSTGRES_DB", "vehicles_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ListenAddr:     getEnv("LISTEN_ADDR", ":8501"),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		LogDebug:       getEnvBool("LOG_DEBUG", false),

		ChartDir:     getEnv("CHART_DIR", "./output/charts"),
		SnapshotPath: getEnv("SNAPSHOT_PATH", "./output/dashboard.png"),
		ChromeBin:    getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("[config] Invalid int for %s=%q, using default %d", key, val, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Printf("[config] Invalid bool for %s=%q, using default %t", key, val, fallback)
		return fallback
	}
	return b
}
