package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yeojun7429/portfolio-api/internal/config"
	"github.com/yeojun7429/portfolio-api/internal/database"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Long:  "List all user accounts in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			userRepo := database.NewUserRepository(db)
			ctx := context.Background()

			users, err := userRepo.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			if len(users) == 0 {
				fmt.Println("No accounts found")
				return nil
			}

			fmt.Println("Accounts:")
			for _, user := range users {
				fmt.Printf("  - Email: %s\n", user.Email)
				if user.Name != "" {
					fmt.Printf("    Name: %s\n", user.Name)
				}
				fmt.Printf("    ID: %s\n", user.ID)
				fmt.Printf("    Created: %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
				fmt.Println()
			}

			return nil
		},
	}

	return cmd
}
