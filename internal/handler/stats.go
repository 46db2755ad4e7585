package handler

import (
	"net/http"
	"time"

	"medaware/internal/dto"
	"medaware/internal/logger"
	"medaware/internal/model"
	"medaware/internal/repository"
	"medaware/internal/service"
	ws "medaware/internal/service/websocket"
)

// StatsHandler reports live sessions, connected clients and today's verifications.
func StatsHandler(manager *service.Manager, hub *ws.HubService, logs repository.ReminderLogRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		verified, err := logs.CountByStatusOn(time.Now(), model.StatusVerified)
		if err != nil {
			logger.Error("Error counting verifications: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, dto.StatsData{
			Sessions:      manager.Sessions().Len(),
			Clients:       hub.GetClientCount(),
			VerifiedToday: verified,
		})
	}
}

// HealthHandler answers liveness probes.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
