package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tour-backend/config"
)

func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert default site settings and the SEED_ADMIN_* account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := getDB(cfg, true)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := config.SeedDatabase(db); err != nil {
				return fmt.Errorf("failed to seed: %w", err)
			}
			fmt.Println("Seed completed")
			return nil
		},
	}
}
