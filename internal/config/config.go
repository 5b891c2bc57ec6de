// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for our application
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Security SecurityConfig
	External ExternalConfig
	Shipping ShippingConfig
	Checkout CheckoutConfig
	Catalog  CatalogConfig
	PDF      PDFConfig
	Logging  LoggingConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name         string
	Version      string
	Environment  string
	Debug        bool
	SupportEmail string
	SupportPhone string
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// StorageConfig selects the key-value backend that persists session carts
type StorageConfig struct {
	Driver   string // memory, file, redis, postgres
	FilePath string
	TTL      time.Duration
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// SessionConfig contains anonymous session token configuration
type SessionConfig struct {
	Secret     string
	CookieName string
	TTL        time.Duration
	Secure     bool
	// IdleEvict drops in-memory sessions idle this long; stored carts remain
	IdleEvict time.Duration
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimitPerMinute int
	RateLimitBurst     int
	MaxBodyBytes       int64
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	TrustedProxies     []string
}

// ExternalConfig contains external service configurations
type ExternalConfig struct {
	Email EmailConfig
}

// EmailConfig contains email service configuration
type EmailConfig struct {
	Provider     string
	APIKey       string
	FromEmail    string
	FromName     string
	ReplyTo      string
	AdminEmail   string
	BaseURL      string
	TemplateDir  string
	Timeout      time.Duration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPUseTLS   bool
}

// ShippingConfig is the canonical shipping policy, amounts in cents
type ShippingConfig struct {
	FreeThresholdCents int64
	FlatFeeCents       int64
}

// CheckoutConfig configures how confirmed orders reach the submission endpoint
type CheckoutConfig struct {
	OrderEndpointURL string
	SubmitTimeout    time.Duration
}

// CatalogConfig points at an optional replacement catalogue file
type CatalogConfig struct {
	Path string
}

// PDFConfig contains order summary PDF configuration
type PDFConfig struct {
	Enabled bool
	DPI     uint
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := FromEnv()

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// FromEnv builds a Config from the current environment without reading .env
func FromEnv() *Config {
	supportEmail := getEnv("SUPPORT_EMAIL", "support@undercontrol.dev")

	return &Config{
		App: AppConfig{
			Name:         getEnv("APP_NAME", "UNDERCONTROL Storefront"),
			Version:      getEnv("APP_VERSION", "1.0.0"),
			Environment:  getEnv("APP_ENV", "development"),
			Debug:        getEnvAsBool("APP_DEBUG", true),
			SupportEmail: supportEmail,
			SupportPhone: getEnv("SUPPORT_PHONE", "+961 70 000 000"),
		},
		Server: ServerConfig{
			Port:            getEnv("APP_PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Driver:   strings.ToLower(getEnv("STORAGE_DRIVER", "memory")),
			FilePath: getEnv("STORAGE_FILE_PATH", "data/storage.json"),
			TTL:      getEnvAsDuration("STORAGE_TTL", 30*24*time.Hour),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "storefront"),
			User:         getEnv("DB_USER", "storefront"),
			Password:     getEnv("DB_PASSWORD", "storefront"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", "change-me-session-secret-at-least-32-chars"),
			CookieName: getEnv("SESSION_COOKIE_NAME", "session_token"),
			TTL:        getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),
			Secure:     getEnvAsBool("SESSION_COOKIE_SECURE", false),
			IdleEvict:  getEnvAsDuration("SESSION_IDLE_EVICT", 30*time.Minute),
		},
		Security: SecurityConfig{
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
			RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 30),
			MaxBodyBytes:       getEnvAsInt64("MAX_BODY_BYTES", 1<<20),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept"}),
			TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		},
		External: ExternalConfig{
			Email: EmailConfig{
				Provider:     strings.ToLower(getEnv("EMAIL_PROVIDER", "resend")),
				APIKey:       getEnvFirst([]string{"RESEND_API_KEY", "EMAIL_API_KEY"}, ""),
				FromEmail:    getEnv("FROM_EMAIL", "orders@mail.undercontrol.dev"),
				FromName:     getEnv("FROM_NAME", "UNDERCONTROL Orders"),
				ReplyTo:      getEnv("REPLY_TO_EMAIL", ""),
				AdminEmail:   getEnv("ADMIN_EMAIL", supportEmail),
				BaseURL:      getEnv("SITE_BASE_URL", "http://localhost:3000"),
				TemplateDir:  getEnv("EMAIL_TEMPLATE_DIR", ""),
				Timeout:      getEnvAsDuration("EMAIL_TIMEOUT", 30*time.Second),
				SMTPHost:     getEnv("SMTP_HOST", ""),
				SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
				SMTPUsername: getEnv("SMTP_USERNAME", ""),
				SMTPPassword: getEnv("SMTP_PASSWORD", ""),
				SMTPUseTLS:   getEnvAsBool("SMTP_USE_TLS", false),
			},
		},
		Shipping: ShippingConfig{
			FreeThresholdCents: getEnvAsInt64("SHIPPING_FREE_THRESHOLD_CENTS", 3000),
			FlatFeeCents:       getEnvAsInt64("SHIPPING_FLAT_FEE_CENTS", 200),
		},
		Checkout: CheckoutConfig{
			OrderEndpointURL: getEnv("ORDER_ENDPOINT_URL", ""),
			SubmitTimeout:    getEnvAsDuration("ORDER_SUBMIT_TIMEOUT", 20*time.Second),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOGUE_PATH", ""),
		},
		PDF: PDFConfig{
			Enabled: getEnvAsBool("PDF_ENABLED", true),
			DPI:     uint(getEnvAsInt("PDF_DPI", 150)),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters long")
	}

	switch c.Storage.Driver {
	case "memory":
	case "file":
		if c.Storage.FilePath == "" {
			return fmt.Errorf("STORAGE_FILE_PATH is required for the file driver")
		}
	case "redis":
		if c.Redis.Host == "" {
			return fmt.Errorf("REDIS_HOST is required for the redis driver")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
			return fmt.Errorf("DB_HOST, DB_NAME and DB_USER are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER: %s", c.Storage.Driver)
	}

	if c.Shipping.FreeThresholdCents < 0 || c.Shipping.FlatFeeCents < 0 {
		return fmt.Errorf("shipping amounts cannot be negative")
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFirst(keys []string, defaultValue string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
