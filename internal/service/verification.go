package service

import (
	"fmt"
	"time"

	"medaware/internal/dto"
	"medaware/internal/model"
	"medaware/internal/service/session"
)

const verifiedMessage = "Medicine verified successfully"

// verify evaluates the latch of one reminder occurrence after fusion and OCR.
// It returns the verified event on the false->true transition and nil otherwise.
//
// The caller holds the session admission, so the check-and-set below never
// races another frame of the same session.
func (m *Manager) verify(state *session.State, userID, reminderID int64, fused Fused, now time.Time) (*dto.Verified, error) {
	if !fused.MedicinePresent || !fused.FacePresent || state.StableName == session.ScanningName {
		return nil, nil
	}

	key := session.LatchKey{ReminderID: reminderID, Day: now.Format(model.DateLayout)}
	if state.Latched(key) {
		return nil, nil
	}

	// a restarted process or a swept session starts cold
	exists, err := m.logs.HasStatus(userID, reminderID, now, model.StatusVerified)
	if err != nil {
		m.logger.Critical("Could not check verification of user %d reminder %d: %v", userID, reminderID, err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if exists {
		state.Latch(key)
		return nil, nil
	}

	entry := &model.ReminderLog{
		UserID:     userID,
		ReminderID: reminderID,
		Status:     model.StatusVerified,
		Date:       now,
	}
	if _, err := m.logs.Append(entry); err != nil {
		m.logger.Critical("Verified record for user %d reminder %d on %s was not written: %v", userID, reminderID, key.Day, err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	state.Latch(key)
	m.logger.Info("✅ User %d verified reminder %d (%s)", userID, reminderID, state.StableName)

	return &dto.Verified{
		Message:    verifiedMessage,
		UserID:     userID,
		ReminderID: reminderID,
		Medicine:   state.StableName,
	}, nil
}
