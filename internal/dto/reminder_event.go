package dto

// ReminderEvent is the payload of inbound missed / not_verified messages.
type ReminderEvent struct {
	UserID     int64 `json:"uid"`
	ReminderID int64 `json:"rid"`
}
