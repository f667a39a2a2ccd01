package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yeojun7429/portfolio-api/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "portfolio-configure",
		Short: "Configuration tool for Portfolio API",
		Long:  "CLI tool for seeding demo accounts and checking the session pipeline",
	}

	rootCmd.AddCommand(commands.NewSeedCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
