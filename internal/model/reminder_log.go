package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the storage and wire format of ReminderLog.Date.
const DateLayout = "2006-01-02"

// Status of a reminder log entry.
type Status string

const (
	StatusVerified    Status = "Verified"
	StatusMissed      Status = "Missed"
	StatusNotVerified Status = "Not Verified"
)

// ParseStatus accepts the stored spelling of a status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusVerified, StatusMissed, StatusNotVerified:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// ReminderLog is an append-only record of what happened to one reminder occurrence.
type ReminderLog struct {
	ID         int64     `json:"logid"`
	UserID     int64     `json:"uid"`
	ReminderID int64     `json:"rid"`
	Status     Status    `json:"status"`
	Date       time.Time `json:"date"`
	CreatedAt  time.Time `json:"created_at"`
}

// MarshalJSON renders Date as a calendar day.
func (l ReminderLog) MarshalJSON() ([]byte, error) {
	type Alias ReminderLog
	return json.Marshal(&struct {
		Date string `json:"date"`
		Alias
	}{
		Date:  l.Date.Format(DateLayout),
		Alias: (Alias)(l),
	})
}

// ReminderLogFilter narrows history queries. Zero values match everything.
type ReminderLogFilter struct {
	UserID     int64
	ReminderID int64
	Status     Status
	Limit      int
}
