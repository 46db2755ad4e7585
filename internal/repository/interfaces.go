package repository

import (
	"time"

	"medaware/internal/model"
)

// UserRepository answers identity lookups used to gate incoming events.
type UserRepository interface {
	Insert(user *model.User) (int64, error)
	Exists(userID int64) (bool, error)
}

// ReminderRepository answers reminder ownership lookups.
type ReminderRepository interface {
	Insert(reminder *model.Reminder) (int64, error)
	// Exists reports whether the reminder exists and belongs to the user.
	Exists(userID, reminderID int64) (bool, error)
}

// ReminderLogRepository is the append-only verification log.
type ReminderLogRepository interface {
	// Create operations
	Append(entry *model.ReminderLog) (int64, error)

	// Read operations
	HasStatus(userID, reminderID int64, day time.Time, status model.Status) (bool, error)
	List(filter *model.ReminderLogFilter) ([]model.ReminderLog, error)
	CountByStatusOn(day time.Time, status model.Status) (int, error)
}
