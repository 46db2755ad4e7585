package dto

import "medaware/internal/model"

// HistoryData is the response payload of the reminder log history endpoint.
type HistoryData struct {
	Logs   []model.ReminderLog `json:"logs"`
	Length int                 `json:"length"`
	Limit  int                 `json:"limit"`
}
