package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smartsecurity/access-register/internal/auth"
	"github.com/smartsecurity/access-register/internal/config"
	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage"
	"github.com/smartsecurity/access-register/internal/validation"
	"github.com/smartsecurity/access-register/pkg/crypto"
)

func openStore(cmd *cobra.Command) (*storage.PostgresStore, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	config.SetupLogging(cfg.Log)
	if cfg.Database.DSN == "" {
		return nil, errors.New("database.dsn is required")
	}
	return storage.NewPostgresStore(cfg.Database.DSN)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			fmt.Println("Migrations applied")
			return nil
		},
	}
}

func seedSuperAdminCmd() *cobra.Command {
	var account auth.NewAccount
	cmd := &cobra.Command{
		Use:   "seed-superadmin",
		Short: "Create the first super admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			generated := account.Password == ""
			if generated {
				if account.Password, err = crypto.GenerateRandomString(12); err != nil {
					return fmt.Errorf("failed to generate password: %w", err)
				}
			}

			user, err := seedSuperAdmin(cmd.Context(), store, account)
			if err != nil {
				return err
			}
			fmt.Printf("Super admin %s created (%s)\n", user.Email, user.ID)
			if generated {
				fmt.Printf("Generated password: %s\n", account.Password)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&account.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&account.Password, "password", "", "Initial password (generated when empty)")
	cmd.Flags().StringVar(&account.FullName, "name", "Super Admin", "Display name")
	cmd.Flags().StringVar(&account.MobileNumber, "mobile", "", "Mobile number")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// seedSuperAdmin creates a super admin. An existing account with the same
// email is an error so a rerun never resets a password.
func seedSuperAdmin(ctx context.Context, store storage.Store, account auth.NewAccount) (*models.User, error) {
	if err := validation.NewValidator().Validate(account); err != nil {
		return nil, err
	}
	user, err := auth.NewUser(account, models.RoleSuperAdmin, nil)
	if err != nil {
		return nil, err
	}
	if err := store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("an account for %s already exists", user.Email)
		}
		return nil, fmt.Errorf("failed to create super admin: %w", err)
	}
	log.Info().Str("userID", user.ID.String()).Msg("super admin seeded")
	return user, nil
}
