package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"tour-backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DefaultSettings are inserted by SeedDatabase when their key is missing.
var DefaultSettings = []models.SiteSetting{
	{Key: "contact_email", Label: "Contact email", Category: "contact", Description: "Shown in the footer and contact page", Value: "info@example.com"},
	{Key: "contact_phone", Label: "Contact phone", Category: "contact", Description: "Main phone number", Value: ""},
	{Key: "whatsapp_number", Label: "WhatsApp number", Category: "contact", Description: "Used for the WhatsApp fallback link", Value: ""},
	{Key: "address", Label: "Office address", Category: "contact", Description: "Shown in the footer", Value: ""},
	{Key: "footer_text", Label: "Footer text", Category: "general", Description: "Short text under the logo in the footer", Value: ""},
	{Key: "instagram_url", Label: "Instagram", Category: "social", Description: "", Value: ""},
	{Key: "facebook_url", Label: "Facebook", Category: "social", Description: "", Value: ""},
}

// SeedDatabase inserts default site settings and, when SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD are set, a first admin account.
func SeedDatabase(db *gorm.DB) error {
	// ---------------- Settings ----------------
	settings := make([]models.SiteSetting, len(DefaultSettings))
	copy(settings, DefaultSettings)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoNothing: true,
	}).Create(&settings).Error; err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	log.Println("Site settings ensured")

	// ---------------- Admin ----------------
	email := strings.ToLower(strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL")))
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("seed admin lookup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed admin password: %w", err)
	}
	admin := models.User{
		FullName: "Admin User",
		Email:    email,
		Password: string(hash),
		Roles:    []models.UserRole{{Role: models.RoleAdmin}},
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Printf("Default admin seeded (%s)", email)
	return nil
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	// Tour dates are stored as UTC midnight; a local loc would shift them.
	if q.Get("loc") == "" {
		q.Set("loc", "UTC")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN(c DatabaseConfig) (string, error) {
	if c.URL != "" {
		if strings.HasPrefix(c.URL, "mysql://") {
			return mysqlDSNFromURL(c.URL)
		}
		return c.URL, nil
	}

	port := c.Port
	if port == "" {
		port = "3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, port, c.Name,
	), nil
}

func resolvePostgresDSN(c DatabaseConfig) string {
	if c.URL != "" {
		return c.URL
	}
	port := c.Port
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// resolveSQLiteDSN turns DB_NAME into a sqlite DSN with foreign keys enabled.
func resolveSQLiteDSN(c DatabaseConfig) string {
	dsn := c.URL
	if dsn == "" {
		dsn = c.Name
		if !strings.HasSuffix(dsn, ".db") && !strings.HasPrefix(dsn, "file:") {
			dsn += ".db"
		}
	}
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// Dialector picks the gorm driver for the configured database.
func Dialector(c DatabaseConfig) (gorm.Dialector, error) {
	switch c.Driver {
	case "mysql", "":
		dsn, err := resolveMySQLDSN(c)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(resolvePostgresDSN(c)), nil
	case "sqlite":
		return sqlite.Open(resolveSQLiteDSN(c)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// ConnectDatabase opens the configured database and migrates it when DB_AUTO_MIGRATE is on.
func ConnectDatabase(c DatabaseConfig) (*gorm.DB, error) {
	dialector, err := Dialector(c)
	if err != nil {
		return nil, err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogLevel(c.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err == nil {
		if c.MaxConns > 0 {
			sqlDB.SetMaxOpenConns(c.MaxConns)
		}
		if c.MaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(c.MaxLifetime)
		}
	} else {
		log.Printf("info: cannot get raw sql.DB: %v", err)
	}

	if c.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}

// Migrate creates or updates every table in parent->child order.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserRole{},
		&models.SiteSetting{},
		&models.Tour{},
		&models.TourImage{},
		&models.Booking{},
		&models.Message{},
	)
}
