package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"medaware/internal/repository/sqlite"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Prepare the MedAware database",
	Long: `migrate creates the MedAware schema and loads users and reminders
from a YAML seed file, so a fresh server has identities to verify against.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (defaults to $DB_PATH or data/medaware.db)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	if dbPath == "" {
		dbPath = os.Getenv("DB_PATH")
	}
	if dbPath == "" {
		dbPath = filepath.Join("data", "medaware.db")
	}
}

// openDB creates the database directory and opens the database, which
// applies the schema.
func openDB() (*sqlite.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return sqlite.New(dbPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
