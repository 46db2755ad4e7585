package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"medaware/internal/config"
	"medaware/internal/dto"
	"medaware/internal/logger"
	"medaware/internal/model"
)

const (
	// EvidenceBufferLimit caps how many frames are held between flushes.
	EvidenceBufferLimit = 100
	// EvidenceFlushInterval is the default flush period in seconds.
	EvidenceFlushInterval = 30
)

// BufferService buffers verification frames in memory and periodically flushes them to disk.
type BufferService struct {
	evidenceDir   string
	flushInterval time.Duration
	frames        []dto.BufferedEvidence
	dropped       int
	mu            sync.Mutex
	logger        *logger.Logger
}

// NewBufferService creates a new BufferService with the target directory and logger.
func NewBufferService(config *config.Config, logger *logger.Logger) *BufferService {
	interval := config.EvidenceFlushInterval
	if interval <= 0 {
		interval = EvidenceFlushInterval
	}

	return &BufferService{
		evidenceDir:   config.EvidenceDirectory,
		flushInterval: time.Duration(interval) * time.Second,
		frames:        make([]dto.BufferedEvidence, 0),
		logger:        logger,
	}
}

// Run flushes on a ticker until stop is closed, then flushes once more.
func (s *BufferService) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush()
		case <-stop:
			s.Flush()
			return
		}
	}
}

// AddEvidence queues the annotated frame of a verification.
func (s *BufferService) AddEvidence(frame []byte, userID, reminderID int64, day time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) >= EvidenceBufferLimit {
		s.dropped++
		s.logger.Warning("Evidence buffer full, dropping frame of user %d reminder %d", userID, reminderID)
		return
	}

	s.frames = append(s.frames, dto.BufferedEvidence{
		Day:        day,
		UserID:     userID,
		ReminderID: reminderID,
		Data:       frame,
	})
}

// Flush writes buffered frames to disk and resets the buffer.
// It returns the number of frames written.
func (s *BufferService) Flush() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) == 0 {
		return 0
	}

	if err := os.MkdirAll(s.evidenceDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return 0
	}

	savedCount := 0
	for _, frame := range s.frames {
		filename := Filename(frame.Day, frame.UserID, frame.ReminderID)
		fullpath := filepath.Join(s.evidenceDir, filename)

		if err := os.WriteFile(fullpath, frame.Data, 0644); err != nil {
			s.logger.Error("Error saving evidence %s: %v", filename, err)
			continue
		}
		savedCount++
	}

	s.logger.Info("Flushed %d evidence frame(s) to disk", savedCount)
	if s.dropped > 0 {
		s.logger.Warning("%d evidence frame(s) were dropped since the last flush", s.dropped)
		s.dropped = 0
	}
	s.frames = s.frames[:0]
	return savedCount
}

// Filename builds <date>_<uid>_<rid>_<uuid>.jpg.
func Filename(day time.Time, userID, reminderID int64) string {
	return fmt.Sprintf("%s_%d_%d_%s.jpg", day.Format(model.DateLayout), userID, reminderID, uuid.NewString())
}
