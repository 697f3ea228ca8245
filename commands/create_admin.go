package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tour-backend/models"
	"tour-backend/services"
	"tour-backend/utils"
)

func CreateAdminCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
		roles    []string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a back-office account",
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

			tokens := utils.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL, cfg.JWT.ConfirmTokenTTL)
			auth := services.NewAuthService(db, tokens)

			user, err := auth.CreateUser(cmd.Context(), services.UserInput{
				FullName: name,
				Email:    email,
				Password: password,
				Roles:    roles,
			})
			if err != nil {
				var verr *services.ValidationError
				if errors.As(err, &verr) {
					for field, msg := range verr.Fields {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, msg)
					}
				}
				return fmt.Errorf("failed to create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user #%d %s\n", user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&password, "password", "", "password, 8 to 72 characters (required)")
	cmd.Flags().StringVar(&name, "name", "Admin User", "display name")
	cmd.Flags().StringSliceVar(&roles, "role", []string{models.RoleAdmin}, "role to grant; repeatable")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
