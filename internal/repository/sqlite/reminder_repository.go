package sqlite

import (
	"fmt"

	"medaware/internal/model"
)

// ReminderRepository implements repository.ReminderRepository for SQLite.
type ReminderRepository struct {
	db *DB
}

// NewReminderRepository creates a new SQLite reminder repository.
func NewReminderRepository(db *DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Insert adds a reminder. A non-zero ID is kept as given.
func (r *ReminderRepository) Insert(reminder *model.Reminder) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	var (
		query = `INSERT INTO reminders (uid, rtime) VALUES (?, ?)`
		args  = []interface{}{reminder.UserID, reminder.Time}
	)
	if reminder.ID != 0 {
		query = `INSERT INTO reminders (rid, uid, rtime) VALUES (?, ?, ?)`
		args = []interface{}{reminder.ID, reminder.UserID, reminder.Time}
	}

	result, err := r.db.Conn().Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert reminder: %w", err)
	}
	return result.LastInsertId()
}

// Exists reports whether the reminder exists and belongs to the user.
func (r *ReminderRepository) Exists(userID, reminderID int64) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM reminders WHERE rid = ? AND uid = ?`, reminderID, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check reminder existence: %w", err)
	}
	return count > 0, nil
}
