package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"medaware/internal/dto"
	"medaware/internal/logger"
	"medaware/internal/model"
	"medaware/internal/repository"
)

const (
	// DefaultHistoryLimit is used when the request has no valid limit.
	DefaultHistoryLimit = 50
	// MaxHistoryLimit caps a single history page.
	MaxHistoryLimit = 500
)

// HistoryHandler returns reminder log entries filtered by uid, rid and status, newest first.
func HistoryHandler(logs repository.ReminderLogRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		limit := atoiDefault(q.Get("limit"), DefaultHistoryLimit)
		if limit > MaxHistoryLimit {
			limit = MaxHistoryLimit
		}

		filter := &model.ReminderLogFilter{
			UserID:     parseID(q.Get("uid")),
			ReminderID: parseID(q.Get("rid")),
			Limit:      limit,
		}
		if s := q.Get("status"); s != "" {
			status, err := model.ParseStatus(s)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			filter.Status = status
		}

		entries, err := logs.List(filter)
		if err != nil {
			logger.Error("Error querying reminder log: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []model.ReminderLog{}
		}

		writeJSON(w, logger, dto.HistoryData{
			Logs:   entries,
			Length: len(entries),
			Limit:  limit,
		})
	}
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding JSON: %v", err)
	}
}

// atoiDefault parses a positive integer or returns def.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseID parses a positive id; anything else means "no filter".
func parseID(s string) int64 {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
		return v
	}
	return 0
}
