package sqlite

import (
	"fmt"
	"time"

	"medaware/internal/model"
)

// ReminderLogRepository implements repository.ReminderLogRepository for SQLite.
// Rows are never updated or deleted.
type ReminderLogRepository struct {
	db *DB
}

// NewReminderLogRepository creates a new SQLite reminder log repository.
func NewReminderLogRepository(db *DB) *ReminderLogRepository {
	return &ReminderLogRepository{db: db}
}

// Append inserts a log entry and returns its id.
func (r *ReminderLogRepository) Append(entry *model.ReminderLog) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO reminder_log (status, rid, uid, date)
		VALUES (?, ?, ?, ?)
	`, string(entry.Status), entry.ReminderID, entry.UserID, entry.Date.Format(model.DateLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to insert reminder log: %w", err)
	}

	return result.LastInsertId()
}

// HasStatus reports whether an entry with the status exists for the user, reminder and day.
func (r *ReminderLogRepository) HasStatus(userID, reminderID int64, day time.Time, status model.Status) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*) FROM reminder_log
		WHERE uid = ? AND rid = ? AND date = ? AND status = ?
	`, userID, reminderID, day.Format(model.DateLayout), string(status)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query reminder log: %w", err)
	}
	return count > 0, nil
}

// List returns entries matching the filter, newest first.
func (r *ReminderLogRepository) List(filter *model.ReminderLogFilter) ([]model.ReminderLog, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT logid, status, rid, uid, date, created_at
		FROM reminder_log
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.UserID != 0 {
		query += " AND uid = ?"
		args = append(args, filter.UserID)
	}

	if filter.ReminderID != 0 {
		query += " AND rid = ?"
		args = append(args, filter.ReminderID)
	}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}

	query += " ORDER BY logid DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder log: %w", err)
	}
	defer rows.Close()

	var entries []model.ReminderLog
	for rows.Next() {
		var (
			entry  model.ReminderLog
			status string
			date   string
		)
		if err := rows.Scan(&entry.ID, &status, &entry.ReminderID, &entry.UserID, &date, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder log: %w", err)
		}
		entry.Status = model.Status(status)
		entry.Date, err = time.Parse(model.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse reminder log date %q: %w", date, err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// CountByStatusOn counts entries with the status recorded for the day.
func (r *ReminderLogRepository) CountByStatusOn(day time.Time, status model.Status) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*) FROM reminder_log WHERE date = ? AND status = ?
	`, day.Format(model.DateLayout), string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reminder log: %w", err)
	}
	return count, nil
}
