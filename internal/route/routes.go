package route

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"medaware/internal/config"
	"medaware/internal/handler"
	"medaware/internal/logger"
	"medaware/internal/middleware"
	"medaware/internal/repository"
	"medaware/internal/service"
	ws "medaware/internal/service/websocket"
)

// SetupRoutes registers the streaming endpoint, operator API, log and auth
// endpoints, and wraps everything with the authentication middleware.
func SetupRoutes(manager *service.Manager, hub *ws.HubService, logs repository.ReminderLogRepository,
	cfg *config.Config, logger *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AuthMiddleware(cfg))

	// Streaming endpoint; long-lived, so no request timeout
	r.Get("/ws", handler.StreamHandler(manager, hub, logger))
	r.Get("/healthz", handler.HealthHandler)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))

		// Auth endpoints
		r.Get("/login", handler.LoginPageHandler)
		r.Post("/auth/login", handler.LoginHandler(cfg, logger))
		r.Post("/auth/logout", handler.LogoutHandler)

		// API endpoints
		r.Get("/api/history", handler.HistoryHandler(logs, logger))
		r.Get("/api/stats", handler.StatsHandler(manager, hub, logs, logger))

		// Log endpoints
		r.Get("/logs/{level}", handler.ShowLogsHandler(logger))
		r.Post("/logs/{level}/clear", handler.ClearLogsHandler(logger))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/api/stats", http.StatusSeeOther)
		})
	})

	return r
}
