package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMySQL    = "mysql"
	StoreDriverMemory   = "memory"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	Port         string
	IsProduction bool
	StoreDriver  string

	// PostgreSQL
	DatabaseURL    string
	EnableDBCheck  bool
	PgMaxConns     int32
	MigrationsPath string

	// MySQL
	MySQLDSN             string
	MySQLLogLevel        string
	MySQLMaxOpenConns    int
	MySQLMaxIdleConns    int
	MySQLConnMaxLifetime time.Duration

	// In-memory store; an empty path keeps it volatile.
	MemoryWALPath string

	// LedgerLockTimeout bounds how long a ledger operation waits for account locks.
	LedgerLockTimeout time.Duration

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string
	LoginRateLimit    string

	CORSAllowedOrigins []string

	// Ledger events; publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("PGSQL_MAX_CONNS", 10)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("MYSQL_DSN", "")
	viper.SetDefault("MYSQL_LOG_LEVEL", "error")
	viper.SetDefault("MYSQL_MAX_OPEN_CONNS", 20)
	viper.SetDefault("MYSQL_MAX_IDLE_CONNS", 5)
	viper.SetDefault("MYSQL_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("MEMORY_WAL_PATH", "")
	viper.SetDefault("LEDGER_LOCK_TIMEOUT", "3s")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "janseva-bank")
	viper.SetDefault("LOGIN_RATE_LIMIT", "5-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TOPIC", "ledger_events")

	// Environment variables override defaults and .env values.
	viper.AutomaticEnv()

	cfg := &Config{
		Port:              viper.GetString("PORT"),
		IsProduction:      viper.GetBool("IS_PRODUCTION"),
		StoreDriver:       strings.ToLower(viper.GetString("STORE_DRIVER")),
		DatabaseURL:       viper.GetString("PGSQL_URL"),
		EnableDBCheck:     viper.GetBool("ENABLE_DB_CHECK"),
		PgMaxConns:        viper.GetInt32("PGSQL_MAX_CONNS"),
		MigrationsPath:    viper.GetString("MIGRATIONS_PATH"),
		MySQLDSN:          viper.GetString("MYSQL_DSN"),
		MySQLLogLevel:     viper.GetString("MYSQL_LOG_LEVEL"),
		MySQLMaxOpenConns: viper.GetInt("MYSQL_MAX_OPEN_CONNS"),
		MySQLMaxIdleConns: viper.GetInt("MYSQL_MAX_IDLE_CONNS"),
		MemoryWALPath:     viper.GetString("MEMORY_WAL_PATH"),
		JWTSecret:         viper.GetString("JWT_SECRET"),
		JWTIssuer:         viper.GetString("JWT_ISSUER"),
		LoginRateLimit:    viper.GetString("LOGIN_RATE_LIMIT"),
		KafkaTopic:        viper.GetString("KAFKA_TOPIC"),
	}

	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.KafkaBrokers = splitList(viper.GetString("KAFKA_BROKERS"))

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: PGSQL_URL environment variable not set.")
		}
	case StoreDriverMySQL:
		if cfg.MySQLDSN == "" {
			log.Println("Warning: MYSQL_DSN environment variable not set.")
		}
	case StoreDriverMemory:
		if cfg.MemoryWALPath == "" {
			log.Println("Warning: MEMORY_WAL_PATH not set. Ledger state will be lost on restart.")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	cfg.LedgerLockTimeout = durationOrDefault("LEDGER_LOCK_TIMEOUT", 3*time.Second)
	cfg.JWTExpiryDuration = durationOrDefault("JWT_EXPIRY_DURATION", time.Hour)
	cfg.MySQLConnMaxLifetime = durationOrDefault("MYSQL_CONN_MAX_LIFETIME", 30*time.Minute)

	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = defaultJWTSecret // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	return cfg, nil
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def)
		}
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
