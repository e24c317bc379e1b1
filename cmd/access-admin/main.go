package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "access-admin",
		Short: "Access register administration tool",
	}
	rootCmd.PersistentFlags().String("config", "configs/config.yaml", "Configuration file path")

	rootCmd.AddCommand(
		migrateCmd(),
		seedSuperAdminCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
