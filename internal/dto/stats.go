package dto

// StatsData describes live server state for operators.
type StatsData struct {
	Sessions      int `json:"sessions"`
	Clients       int `json:"clients"`
	VerifiedToday int `json:"verifiedToday"`
}
