package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/yeojun7429/portfolio-api/internal/config"
	"github.com/yeojun7429/portfolio-api/internal/database"
	"github.com/yeojun7429/portfolio-api/internal/models"
	"github.com/yeojun7429/portfolio-api/internal/validation"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// seedFile is the on-disk format for the seed command.
type seedFile struct {
	Accounts []seedAccount `yaml:"accounts"`
}

type seedAccount struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// NewSeedCmd creates the seed command
func NewSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed demo accounts",
		Long:  "Create user accounts from a YAML file. Existing accounts are left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}

			var seed seedFile
			if err := yaml.Unmarshal(data, &seed); err != nil {
				return fmt.Errorf("failed to parse seed file: %w", err)
			}
			if len(seed.Accounts) == 0 {
				return fmt.Errorf("seed file contains no accounts")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			ctx := context.Background()
			if err := db.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("failed to ensure schema: %w", err)
			}

			userRepo := database.NewUserRepository(db)

			created := 0
			for _, account := range seed.Accounts {
				if err := validation.ValidateEmail(account.Email); err != nil {
					return fmt.Errorf("invalid account %q: %w", account.Email, err)
				}
				if err := validation.ValidatePassword(account.Password); err != nil {
					return fmt.Errorf("invalid account %q: %w", account.Email, err)
				}

				_, err := userRepo.GetByEmail(ctx, account.Email)
				if err == nil {
					fmt.Printf("  - %s already exists, skipping\n", account.Email)
					continue
				}
				if !errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("failed to look up %q: %w", account.Email, err)
				}

				hash, err := bcrypt.GenerateFromPassword([]byte(account.Password), bcrypt.DefaultCost)
				if err != nil {
					return fmt.Errorf("failed to hash password for %q: %w", account.Email, err)
				}

				user := &models.User{
					ID:           uuid.New(),
					Email:        account.Email,
					Name:         account.Name,
					PasswordHash: string(hash),
				}
				if err := userRepo.Create(ctx, user); err != nil {
					return fmt.Errorf("failed to create %q: %w", account.Email, err)
				}
				fmt.Printf("  - created %s\n", account.Email)
				created++
			}

			fmt.Printf("Seeded %d account(s)\n", created)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "demo-accounts.yaml", "YAML file with accounts to create")

	return cmd
}
