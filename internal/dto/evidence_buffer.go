package dto

import "time"

// BufferedEvidence holds the annotated frame of one verification before flushing to disk.
type BufferedEvidence struct {
	Day        time.Time
	UserID     int64
	ReminderID int64
	Data       []byte
}
