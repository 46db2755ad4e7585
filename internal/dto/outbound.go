package dto

// AnnotatedFrame is sent once per processed frame.
type AnnotatedFrame struct {
	Frame      []byte `json:"frame"`
	StableName string `json:"stable_name"`
}

// Verified is sent once per reminder occurrence.
type Verified struct {
	Message    string `json:"message"`
	UserID     int64  `json:"uid"`
	ReminderID int64  `json:"rid"`
	Medicine   string `json:"medicine"`
}

// Notice carries success and error messages.
type Notice struct {
	Message string `json:"message"`
}
