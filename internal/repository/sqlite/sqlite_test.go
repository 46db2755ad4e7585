package sqlite

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"medaware/internal/model"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "medaware_db_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	db, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.RemoveAll(tempDir)
	})
	return db
}

func seedUserAndReminder(t *testing.T, db *DB, uid, rid int64) {
	t.Helper()

	if _, err := NewUserRepository(db).Insert(&model.User{ID: uid, Email: "user@example.com"}); err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}
	if _, err := NewReminderRepository(db).Insert(&model.Reminder{ID: rid, UserID: uid, Time: "08:00"}); err != nil {
		t.Fatalf("Failed to insert reminder: %v", err)
	}
}

// ========================================
// Users and Reminders
// ========================================

func TestUserRepository_Exists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	id, err := repo.Insert(&model.User{ID: 42, Email: "a@b.c"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id != 42 {
		t.Errorf("Expected explicit id 42 to be kept, got %d", id)
	}

	exists, err := repo.Exists(42)
	if err != nil || !exists {
		t.Errorf("Expected user 42 to exist, got %v (err %v)", exists, err)
	}

	exists, err = repo.Exists(43)
	if err != nil || exists {
		t.Errorf("Expected user 43 to be unknown, got %v (err %v)", exists, err)
	}
}

func TestReminderRepository_ExistsChecksOwnership(t *testing.T) {
	db := setupTestDB(t)
	seedUserAndReminder(t, db, 1, 7)
	if _, err := NewUserRepository(db).Insert(&model.User{ID: 2}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	repo := NewReminderRepository(db)

	tests := []struct {
		uid, rid int64
		expected bool
	}{
		{1, 7, true},
		{2, 7, false},
		{1, 8, false},
	}

	for _, tt := range tests {
		got, err := repo.Exists(tt.uid, tt.rid)
		if err != nil {
			t.Fatalf("Exists(%d, %d) failed: %v", tt.uid, tt.rid, err)
		}
		if got != tt.expected {
			t.Errorf("Exists(%d, %d) = %v, expected %v", tt.uid, tt.rid, got, tt.expected)
		}
	}
}

// ========================================
// Reminder Log
// ========================================

func TestReminderLog_AppendAndHasStatus(t *testing.T) {
	db := setupTestDB(t)
	seedUserAndReminder(t, db, 1, 7)
	repo := NewReminderLogRepository(db)

	day := time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)
	if _, err := repo.Append(&model.ReminderLog{UserID: 1, ReminderID: 7, Status: model.StatusVerified, Date: day}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	has, err := repo.HasStatus(1, 7, day.Add(8*time.Hour), model.StatusVerified)
	if err != nil || !has {
		t.Errorf("Expected Verified on the same day, got %v (err %v)", has, err)
	}

	has, _ = repo.HasStatus(1, 7, day.AddDate(0, 0, 1), model.StatusVerified)
	if has {
		t.Error("Expected no Verified entry on the next day")
	}

	has, _ = repo.HasStatus(1, 7, day, model.StatusMissed)
	if has {
		t.Error("Expected no Missed entry")
	}
}

func TestReminderLog_SignalsAreNotDeduplicated(t *testing.T) {
	db := setupTestDB(t)
	seedUserAndReminder(t, db, 1, 7)
	repo := NewReminderLogRepository(db)

	day := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := repo.Append(&model.ReminderLog{UserID: 1, ReminderID: 7, Status: model.StatusMissed, Date: day}); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	entries, err := repo.List(&model.ReminderLogFilter{UserID: 1, ReminderID: 7, Status: model.StatusMissed})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 Missed entries, got %d", len(entries))
	}
	if entries[0].ID <= entries[1].ID {
		t.Errorf("Expected newest first, got ids %d, %d", entries[0].ID, entries[1].ID)
	}
	if entries[0].Date.Format(model.DateLayout) != day.Format(model.DateLayout) {
		t.Errorf("Expected date %s, got %s", day.Format(model.DateLayout), entries[0].Date.Format(model.DateLayout))
	}
}

func TestReminderLog_ListFiltersAndLimit(t *testing.T) {
	db := setupTestDB(t)
	seedUserAndReminder(t, db, 1, 7)
	repo := NewReminderLogRepository(db)

	day := time.Now()
	statuses := []model.Status{model.StatusMissed, model.StatusNotVerified, model.StatusVerified, model.StatusMissed}
	for _, s := range statuses {
		if _, err := repo.Append(&model.ReminderLog{UserID: 1, ReminderID: 7, Status: s, Date: day}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	all, err := repo.List(&model.ReminderLogFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Expected 4 entries, got %d", len(all))
	}

	limited, _ := repo.List(&model.ReminderLogFilter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("Expected 2 entries with limit, got %d", len(limited))
	}

	other, _ := repo.List(&model.ReminderLogFilter{UserID: 99})
	if len(other) != 0 {
		t.Errorf("Expected no entries for unknown user, got %d", len(other))
	}

	count, err := repo.CountByStatusOn(day, model.StatusMissed)
	if err != nil {
		t.Fatalf("CountByStatusOn failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 Missed today, got %d", count)
	}
}

func TestReminderLog_ConcurrentAppends(t *testing.T) {
	db := setupTestDB(t)
	seedUserAndReminder(t, db, 1, 7)
	repo := NewReminderLogRepository(db)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, err := repo.Append(&model.ReminderLog{UserID: 1, ReminderID: 7, Status: model.StatusNotVerified, Date: time.Now()})
			if err != nil {
				t.Errorf("Concurrent append %d failed: %v", idx, err)
			}
		}(i)
	}
	wg.Wait()

	count, _ := repo.CountByStatusOn(time.Now(), model.StatusNotVerified)
	if count != 10 {
		t.Errorf("Expected 10 entries, got %d", count)
	}
}
