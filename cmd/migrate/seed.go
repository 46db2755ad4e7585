package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"medaware/internal/model"
	"medaware/internal/repository"
	"medaware/internal/repository/sqlite"
)

// SeedFile is the YAML layout accepted by the seed command:
//
//	users:
//	  - uid: 1
//	    email: patient@example.com
//	reminders:
//	  - rid: 7
//	    uid: 1
//	    rtime: "08:00"
type SeedFile struct {
	Users     []model.User     `yaml:"users"`
	Reminders []model.Reminder `yaml:"reminders"`
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load users and reminders from a YAML file",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedFile, "file", "seed.yaml", "YAML file with users and reminders")
}

func runSeed(cmd *cobra.Command, args []string) error {
	seed, err := loadSeed(seedFile)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	users, reminders, err := applySeed(seed, sqlite.NewUserRepository(db), sqlite.NewReminderRepository(db))
	if err != nil {
		return err
	}

	fmt.Printf("✅ Seeded %d user(s) and %d reminder(s) into %s\n", users, reminders, dbPath)
	return nil
}

// loadSeed reads and validates a seed file.
func loadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for i, r := range seed.Reminders {
		if r.UserID == 0 {
			return nil, fmt.Errorf("reminder #%d has no uid", i+1)
		}
	}
	return &seed, nil
}

// applySeed inserts users before reminders so ownership references resolve.
func applySeed(seed *SeedFile, users repository.UserRepository, reminders repository.ReminderRepository) (int, int, error) {
	for i := range seed.Users {
		if _, err := users.Insert(&seed.Users[i]); err != nil {
			return 0, 0, fmt.Errorf("user %d: %w", seed.Users[i].ID, err)
		}
	}
	for i := range seed.Reminders {
		if _, err := reminders.Insert(&seed.Reminders[i]); err != nil {
			return len(seed.Users), 0, fmt.Errorf("reminder %d: %w", seed.Reminders[i].ID, err)
		}
	}
	return len(seed.Users), len(seed.Reminders), nil
}
