package service

import (
	"context"
	"fmt"
	"image"
	"time"

	"medaware/internal/config"
	"medaware/internal/dto"
	"medaware/internal/logger"
	"medaware/internal/model"
	"medaware/internal/repository"
	"medaware/internal/service/ocr"
	"medaware/internal/service/render"
	"medaware/internal/service/session"
)

// FrameResult is the outcome of one admitted frame.
type FrameResult struct {
	// Skipped is set for frames that only advanced the cadence counter.
	// Nothing is sent back for them.
	Skipped bool

	Annotated  []byte // nil when encoding failed
	StableName string
	Verified   *dto.Verified // set only on the latch transition

	// Errors holds failures that did not abort the frame
	// (recognition, persistence, encode).
	Errors []error
}

// Manager runs the per-session verification pipeline.
type Manager struct {
	sessions   *session.Store
	detector   Detector
	recognizer Recognizer
	users      repository.UserRepository
	reminders  repository.ReminderRepository
	logs       repository.ReminderLogRepository
	evidence   EvidenceSink
	notifier   Notifier
	logger     *logger.Logger

	fusionStride uint64 // Run detection on every N-th admitted frame
	ocrStride    uint64 // Run OCR on every N-th admitted frame
	threshold    float64

	now    func() time.Time
	encode func(image.Image) ([]byte, error)
}

func NewManager(sessions *session.Store, detector Detector, recognizer Recognizer,
	users repository.UserRepository, reminders repository.ReminderRepository, logs repository.ReminderLogRepository,
	config *config.Config, logger *logger.Logger) *Manager {
	quality := config.JPEGQuality

	manager := &Manager{
		sessions:     sessions,
		detector:     detector,
		recognizer:   recognizer,
		users:        users,
		reminders:    reminders,
		logs:         logs,
		logger:       logger,
		fusionStride: positiveStride(config.FusionStride),
		ocrStride:    positiveStride(config.OCRStride),
		threshold:    config.DetectionThreshold,
		now:          time.Now,
		encode: func(img image.Image) ([]byte, error) {
			return render.Encode(img, quality)
		},
	}

	manager.logger.Info("🎬 Manager started - detection every %d frame(s), OCR every %d frame(s)",
		manager.fusionStride, manager.ocrStride)
	return manager
}

func positiveStride(n int) uint64 {
	if n < 1 {
		return 1
	}
	return uint64(n)
}

// SetEvidenceSink stores the annotated frame of every verification in sink.
func (m *Manager) SetEvidenceSink(sink EvidenceSink) {
	m.evidence = sink
}

// SetNotifier publishes every verification through notifier.
func (m *Manager) SetNotifier(notifier Notifier) {
	m.notifier = notifier
}

func (m *Manager) Sessions() *session.Store {
	return m.sessions
}

// ProcessFrame runs one inbound frame through the pipeline.
//
// It returns ErrFrameDropped without side effects when the session already has
// a frame in flight. Validation, decode and detection errors abort the frame;
// every other failure is collected in FrameResult.Errors.
func (m *Manager) ProcessFrame(ctx context.Context, event dto.FrameEvent) (*FrameResult, error) {
	if err := m.validateUser(event.UserID); err != nil {
		return nil, err
	}
	if event.ReminderID == 0 {
		return nil, fmt.Errorf("%w: missing rid", ErrValidation)
	}
	if len(event.Frame) == 0 {
		return nil, fmt.Errorf("%w: missing frame", ErrValidation)
	}

	state := m.sessions.GetOrCreate(event.UserID)
	if !state.TryAdmit() {
		return nil, ErrFrameDropped
	}
	defer state.Release()

	if err := m.validateReminder(state, event.UserID, event.ReminderID); err != nil {
		return nil, err
	}

	// undecodable frames never count, even on ticks that skip detection
	img, err := render.Decode(event.Frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	counter := state.FrameCounter + 1
	state.FrameCounter = counter
	if counter%m.fusionStride != 0 {
		return &FrameResult{Skipped: true, StableName: state.StableName}, nil
	}

	fused, err := m.detect(ctx, img)
	if err != nil {
		m.logger.Error("Detection failed for user %d: %v", event.UserID, err)
		return nil, err
	}

	result := &FrameResult{}

	if fused.MedicinePresent && counter%m.ocrStride == 0 {
		if err := m.updateStableName(ctx, state, img, fused.MedicineBoxes); err != nil {
			m.logger.Warning("OCR failed for user %d: %v", event.UserID, err)
			result.Errors = append(result.Errors, err)
		}
	}
	result.StableName = state.StableName

	verified, err := m.verify(state, event.UserID, event.ReminderID, fused, m.now())
	if err != nil {
		result.Errors = append(result.Errors, err)
	}
	result.Verified = verified

	annotated := render.Annotate(img, render.Overlay{
		MedicineBoxes: fused.MedicineBoxes,
		FaceBoxes:     fused.FaceBoxes,
		StableName:    state.StableName,
	})
	encoded, err := m.encode(annotated)
	if err != nil {
		m.logger.Error("Failed to encode annotated frame for user %d: %v", event.UserID, err)
		result.Errors = append(result.Errors, fmt.Errorf("%w: %v", ErrEncode, err))
	} else {
		result.Annotated = encoded
	}

	if verified != nil {
		m.afterVerified(*verified, result.Annotated)
	}

	return result, nil
}

// updateStableName runs OCR on every medicine box and folds the accepted
// readings into the session window. Readings are committed only if every
// recognizer call succeeded.
func (m *Manager) updateStableName(ctx context.Context, state *session.State, img image.Image, boxes []image.Rectangle) error {
	var readings []model.Reading
	for _, box := range boxes {
		crop, ok := render.Crop(img, box)
		if !ok {
			continue
		}
		found, err := m.recognizer.Recognize(ctx, crop)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRecognition, err)
		}
		readings = append(readings, found...)
	}

	for _, text := range ocr.Accept(readings) {
		state.Window.Push(text)
	}
	if label, ok := state.Window.Majority(); ok {
		state.StableName = label
	}
	return nil
}

// afterVerified hands the verification to the optional evidence and notification sinks.
func (m *Manager) afterVerified(event dto.Verified, frame []byte) {
	if m.evidence != nil && frame != nil {
		m.evidence.AddEvidence(frame, event.UserID, event.ReminderID, m.now())
	}

	if m.notifier != nil {
		// publishing may block on the broker; the frame must not
		go func() {
			if err := m.notifier.NotifyVerified(event); err != nil {
				m.logger.Warning("Failed to publish verification for user %d: %v", event.UserID, err)
			}
		}()
	}
}

// HandleSignal records an explicit missed / not verified event. Signals are
// never deduplicated and do not touch session state.
func (m *Manager) HandleSignal(status model.Status, event dto.ReminderEvent) error {
	if err := m.validateUser(event.UserID); err != nil {
		return err
	}
	if event.ReminderID == 0 {
		return fmt.Errorf("%w: missing rid", ErrValidation)
	}
	if status != model.StatusMissed && status != model.StatusNotVerified {
		return fmt.Errorf("%w: unsupported signal status %q", ErrValidation, status)
	}

	owned, err := m.reminders.Exists(event.UserID, event.ReminderID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !owned {
		return fmt.Errorf("%w: unknown reminder %d", ErrValidation, event.ReminderID)
	}

	entry := &model.ReminderLog{
		UserID:     event.UserID,
		ReminderID: event.ReminderID,
		Status:     status,
		Date:       m.now(),
	}
	if _, err := m.logs.Append(entry); err != nil {
		m.logger.Critical("%s record for user %d reminder %d was not written: %v", status, event.UserID, event.ReminderID, err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	m.logger.Info("User %d reported reminder %d as %s", event.UserID, event.ReminderID, status)
	return nil
}

// validateUser gates every event on a known user. A live session proves the
// user was already validated.
func (m *Manager) validateUser(userID int64) error {
	if userID == 0 {
		return fmt.Errorf("%w: missing uid", ErrUnknownUser)
	}
	if _, ok := m.sessions.Lookup(userID); ok {
		return nil
	}

	exists, err := m.users.Exists(userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !exists {
		return fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}
	return nil
}

func (m *Manager) validateReminder(state *session.State, userID, reminderID int64) error {
	if state.ReminderValidated(reminderID) {
		return nil
	}

	owned, err := m.reminders.Exists(userID, reminderID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !owned {
		return fmt.Errorf("%w: unknown reminder %d", ErrValidation, reminderID)
	}

	state.MarkReminderValidated(reminderID)
	return nil
}
