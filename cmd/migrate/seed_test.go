package main

import (
	"os"
	"path/filepath"
	"testing"

	"medaware/internal/repository/sqlite"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSeed(t *testing.T) {
	path := writeSeed(t, `
users:
  - uid: 1
    email: patient@example.com
  - uid: 2
reminders:
  - rid: 7
    uid: 1
    rtime: "08:00"
`)

	seed, err := loadSeed(path)
	if err != nil {
		t.Fatalf("loadSeed failed: %v", err)
	}
	if len(seed.Users) != 2 || seed.Users[0].Email != "patient@example.com" {
		t.Errorf("Unexpected users %+v", seed.Users)
	}
	if len(seed.Reminders) != 1 || seed.Reminders[0].ID != 7 || seed.Reminders[0].Time != "08:00" {
		t.Errorf("Unexpected reminders %+v", seed.Reminders)
	}
}

func TestLoadSeed_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "users: [uid: 1"},
		{"reminder without owner", "reminders:\n  - rid: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadSeed(writeSeed(t, tt.content)); err == nil {
				t.Error("Expected an error")
			}
		})
	}

	if _, err := loadSeed(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestApplySeed(t *testing.T) {
	db, err := sqlite.New(filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	seed, err := loadSeed(writeSeed(t, `
users:
  - uid: 5
reminders:
  - rid: 11
    uid: 5
  - rid: 12
    uid: 5
`))
	if err != nil {
		t.Fatal(err)
	}

	userRepo := sqlite.NewUserRepository(db)
	reminderRepo := sqlite.NewReminderRepository(db)
	users, reminders, err := applySeed(seed, userRepo, reminderRepo)
	if err != nil {
		t.Fatalf("applySeed failed: %v", err)
	}
	if users != 1 || reminders != 2 {
		t.Errorf("Expected 1 user and 2 reminders, got %d and %d", users, reminders)
	}

	if ok, _ := reminderRepo.Exists(5, 12); !ok {
		t.Error("Seeded reminder should belong to its user")
	}

	// a second run collides on the primary keys
	if _, _, err := applySeed(seed, userRepo, reminderRepo); err == nil {
		t.Error("Expected duplicate ids to fail")
	}
}
