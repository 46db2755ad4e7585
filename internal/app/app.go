package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"medaware/internal/config"
	"medaware/internal/logger"
	"medaware/internal/repository/sqlite"
	"medaware/internal/route"
	"medaware/internal/service"
	"medaware/internal/service/ai"
	"medaware/internal/service/notify"
	"medaware/internal/service/ocr"
	"medaware/internal/service/session"
	"medaware/internal/service/storage"
	"medaware/internal/service/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config        *config.Config
	logger        *logger.Logger
	db            *sqlite.DB
	detector      *ai.DetectorService
	bufferService *storage.BufferService
	hubService    *websocket.HubService
	notifier      *notify.MQTTNotifier
	manager       *service.Manager
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	detector := ai.NewDetectorService(cfg, log)
	recognizer := ocr.NewClient(cfg)
	buffer := storage.NewBufferService(cfg, log)
	hub := websocket.NewHubService(log)

	mng := service.NewManager(
		session.NewStore(cfg.SessionShards),
		detector,
		recognizer,
		sqlite.NewUserRepository(db),
		sqlite.NewReminderRepository(db),
		sqlite.NewReminderLogRepository(db),
		cfg,
		log,
	)
	mng.SetEvidenceSink(buffer)

	a := &App{
		config:        cfg,
		logger:        log,
		db:            db,
		detector:      detector,
		bufferService: buffer,
		hubService:    hub,
		manager:       mng,
	}

	if cfg.MQTTBroker != "" {
		notifier, err := notify.NewMQTTNotifier(cfg, log)
		if err != nil {
			log.Error("MQTT notifications disabled: %v", err)
		} else {
			a.notifier = notifier
			mng.SetNotifier(notifier)
		}
	}

	return a, nil
}

// Run serves until SIGINT/SIGTERM and then shuts everything down in order.
func (a *App) Run() error {
	stop := make(chan struct{})

	// Start background services
	go a.bufferService.Run(stop)
	go a.hubService.Run(stop)
	if idle := a.config.SessionIdleTimeout; idle > 0 {
		go a.manager.Sessions().RunSweeper(idle, stop, func(removed int) {
			a.logger.Info("Expired %d idle sessions", removed)
		})
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: route.SetupRoutes(a.manager, a.hubService, sqlite.NewReminderLogRepository(a.db), a.config, a.logger),
	}

	fmt.Printf("💊 MedAware Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🗄️  Database: %s\n", a.config.DBPath)
	fmt.Printf("📁 Evidence: %s\n", a.config.EvidenceDirectory)
	fmt.Printf("🤖 AI Model: %s\n", a.config.ModelPath)
	fmt.Printf("🔤 OCR: %s\n", a.config.OCRURL)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	var runErr error
	select {
	case runErr = <-serverErr:
	case sig := <-signals:
		a.logger.Info("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		a.logger.Warning("HTTP shutdown: %v", err)
	}

	close(stop)
	a.detector.Close()
	if a.notifier != nil {
		a.notifier.Close()
	}
	// let the buffer finish its final flush before the process exits
	a.bufferService.Flush()
	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close database: %v", err)
	}

	return runErr
}
