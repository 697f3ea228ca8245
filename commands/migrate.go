package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tour-backend/config"
)

func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := getDB(cfg, false)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := config.Migrate(db); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			fmt.Println("Migrations applied successfully")
			return nil
		},
	}
}
