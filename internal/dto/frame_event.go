package dto

// FrameEvent is the payload of an inbound raw_frame message.
// Frame is base64 in JSON and holds a JPEG or PNG image.
type FrameEvent struct {
	UserID     int64  `json:"uid"`
	ReminderID int64  `json:"rid"`
	Frame      []byte `json:"frame"`
}
