package commands

import (
	"fmt"

	"gorm.io/gorm"

	"tour-backend/config"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// getDB connects using cfg. autoMigrate overrides DB_AUTO_MIGRATE for commands that migrate explicitly.
func getDB(cfg *config.Config, autoMigrate bool) (*gorm.DB, error) {
	dbCfg := cfg.Database
	dbCfg.AutoMigrate = autoMigrate
	db, err := config.ConnectDatabase(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", dbCfg.Driver, err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
