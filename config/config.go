package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	Email         EmailConfig
	Telegram      TelegramConfig
	Storage       StorageConfig
	CORS          CORSConfig
	Notifications NotificationConfig
	Site          SiteConfig
}

type ServerConfig struct {
	Port            string
	Mode            string // gin mode: debug, release, test
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver      string // mysql, postgres, sqlite
	URL         string
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	LogLevel    string
	AutoMigrate bool
	MaxConns    int
	MaxLifetime time.Duration
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	ConfirmTokenTTL time.Duration
}

// EmailConfig holds SMTP settings. Empty credentials switch the mailer to log-only mode.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	AdminInbox   string
}

type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

type StorageConfig struct {
	Driver         string // local, s3
	LocalDir       string
	PublicBaseURL  string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3PublicURL    string
	S3PathStyle    bool
	MaxUploadBytes int64
}

type CORSConfig struct {
	AllowedOrigins []string
}

type NotificationConfig struct {
	QueueSize int
	Timeout   time.Duration
}

type SiteConfig struct {
	Name           string
	FrontendURL    string
	Timezone       string
	WhatsAppNumber string
}

// Load loads configuration from environment variables, reading .env first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// FromEnv builds a Config from the current environment without touching .env files.
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Mode:            getEnv("GIN_MODE", "debug"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 20*time.Second),
			IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Driver:      strings.ToLower(getEnv("DB_DRIVER", "mysql")),
			URL:         firstEnv("MYSQL_URL", "DATABASE_URL"),
			Host:        getEnv("DB_HOST", "127.0.0.1"),
			Port:        getEnv("DB_PORT", ""),
			User:        getEnv("DB_USER", "root"),
			Password:    getEnv("DB_PASS", ""),
			Name:        getEnv("DB_NAME", "tours_db"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			LogLevel:    strings.ToLower(getEnv("DB_LOG_LEVEL", "warn")),
			AutoMigrate: getBoolEnv("DB_AUTO_MIGRATE", true),
			MaxConns:    getIntEnv("DB_MAX_CONNS", 10),
			MaxLifetime: getDurationEnv("DB_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", ""),
			AccessTokenTTL:  getDurationEnv("JWT_ACCESS_TTL", 12*time.Hour),
			ConfirmTokenTTL: getDurationEnv("JWT_CONFIRM_TTL", 5*time.Minute),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("EMAIL_FROM", ""),
			FromName:     getEnv("SMTP_FROM_NAME", "Tours Team"),
			AdminInbox:   getEnv("ADMIN_EMAIL", ""),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getInt64Env("TELEGRAM_CHAT_ID", 0),
		},
		Storage: StorageConfig{
			Driver:         strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			LocalDir:       getEnv("STORAGE_LOCAL_DIR", "uploads"),
			PublicBaseURL:  getEnv("STORAGE_PUBLIC_URL", "/uploads"),
			S3Bucket:       getEnv("S3_BUCKET", ""),
			S3Region:       getEnv("S3_REGION", ""),
			S3Endpoint:     getEnv("S3_ENDPOINT", ""),
			S3PublicURL:    getEnv("S3_PUBLIC_URL", ""),
			S3PathStyle:    getBoolEnv("S3_FORCE_PATH_STYLE", false),
			MaxUploadBytes: int64(getIntEnv("STORAGE_MAX_UPLOAD_BYTES", 8<<20)),
		},
		CORS: CORSConfig{
			AllowedOrigins: getStringSliceEnv("CORS_ORIGINS", []string{"*"}),
		},
		Notifications: NotificationConfig{
			QueueSize: getIntEnv("NOTIFY_QUEUE_SIZE", 100),
			Timeout:   getDurationEnv("NOTIFY_TIMEOUT", 20*time.Second),
		},
		Site: SiteConfig{
			Name:           getEnv("SITE_NAME", "Tours"),
			FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
			Timezone:       getEnv("SITE_TIMEZONE", "UTC"),
			WhatsAppNumber: getEnv("WHATSAPP_NUMBER", ""),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
		return fmt.Errorf("invalid SITE_TIMEZONE %q: %w", c.Site.Timezone, err)
	}

	if c.JWT.Secret == "" {
		if c.Server.Mode == "release" {
			return fmt.Errorf("JWT_SECRET is required in release mode")
		}
		log.Println("⚠️  JWT_SECRET not set; using an insecure development secret")
		c.JWT.Secret = "dev-secret-change-me"
	}

	if !c.IsEmailConfigured() {
		log.Println("⚠️  SMTP credentials not configured; emails will be logged instead of sent")
	}
	if !c.IsTelegramConfigured() {
		log.Println("info: Telegram alerts disabled (TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID not set)")
	}
	return nil
}

// Location returns the timezone used to decide what "today" means for tour dates.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsEmailConfigured() bool {
	return c.Email.SMTPHost != "" && c.Email.SMTPUsername != "" && c.Email.SMTPPassword != ""
}

func (c *Config) IsTelegramConfigured() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != 0
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
