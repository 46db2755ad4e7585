package model

// User is the account a stream session belongs to.
type User struct {
	ID    int64  `json:"uid" yaml:"uid"`
	Email string `json:"email" yaml:"email"`
}

// Reminder is a scheduled medicine intake owned by a user.
type Reminder struct {
	ID     int64  `json:"rid" yaml:"rid"`
	UserID int64  `json:"uid" yaml:"uid"`
	Time   string `json:"rtime" yaml:"rtime"` // HH:MM
}
