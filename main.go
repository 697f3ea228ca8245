package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tour-backend/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tour-backend",
		Short: "Tour booking API and admin tooling",
	}

	rootCmd.AddCommand(
		commands.ServeCmd(),
		commands.MigrateCmd(),
		commands.SeedCmd(),
		commands.CreateAdminCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
