package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"family-calendar-go/pkg/logger"
)

const (
	StoreBackendMemory    = "memory"
	StoreBackendPostgres  = "postgres"
	StoreBackendFirestore = "firestore"
)

type Config struct {
	HTTPPort string
	Env      string
	Store    StoreConfig
	Calendar CalendarConfig
	Cache    CacheConfig
	Auth     AuthConfig
}

type StoreConfig struct {
	Backend   string
	DB        DBConfig
	Firestore FirestoreConfig
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

type CalendarConfig struct {
	CredentialsFile string
}

type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type AuthConfig struct {
	URL           string
	Timeout       time.Duration
	SkipAuth      bool
	MockUserID    string
	MockUserEmail string
	MockUserName  string
}

func Load(log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	cfg := Config{
		HTTPPort: getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", StoreBackendMemory),
			DB: DBConfig{
				DSN:             getEnv("DB_DSN", ""),
				Host:            getEnv("DB_HOST", "localhost"),
				Port:            getEnv("DB_PORT", "5432"),
				User:            getEnv("DB_USER", "postgres"),
				Password:        getEnv("DB_PASSWORD", ""),
				Name:            getEnv("DB_NAME", "family_calendar"),
				SSLMode:         getEnv("DB_SSLMODE", "disable"),
				TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
				MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 0),
				MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 0),
				ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 0),
			},
			Firestore: FirestoreConfig{
				ProjectID:       getEnv("FIRESTORE_PROJECT_ID", ""),
				CredentialsFile: getEnv("FIRESTORE_CREDENTIALS_FILE", ""),
			},
		},
		Calendar: CalendarConfig{
			CredentialsFile: getEnv("CALENDAR_CREDENTIALS_FILE", ""),
		},
		Cache: CacheConfig{
			Addr:     getEnv("CACHE_REDIS_ADDR", ""),
			Password: getEnv("CACHE_REDIS_PASSWORD", ""),
			DB:       getEnvInt("CACHE_REDIS_DB", 0),
			TTL:      getEnvDuration("CACHE_TTL", 5*time.Minute),
		},
		Auth: AuthConfig{
			URL:           getEnv("AUTH_URL", ""),
			Timeout:       getEnvDuration("AUTH_TIMEOUT", 5*time.Second),
			SkipAuth:      getEnvBool("AUTH_SKIP", false),
			MockUserID:    getEnv("AUTH_MOCK_USER_ID", "00000000-0000-0000-0000-000000000001"),
			MockUserEmail: getEnv("AUTH_MOCK_USER_EMAIL", "dev@example.com"),
			MockUserName:  getEnv("AUTH_MOCK_USER_NAME", "Dev User"),
		},
	}

	switch cfg.Store.Backend {
	case StoreBackendMemory, StoreBackendPostgres, StoreBackendFirestore:
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
