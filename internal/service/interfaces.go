package service

import (
	"context"
	"image"
	"time"

	"medaware/internal/dto"
	"medaware/internal/model"
)

// Detector finds classified boxes in a frame.
type Detector interface {
	Detect(ctx context.Context, img image.Image, threshold float64) ([]model.Detection, error)
}

// Recognizer extracts candidate strings from a cropped region.
type Recognizer interface {
	Recognize(ctx context.Context, crop image.Image) ([]model.Reading, error)
}

// EvidenceSink keeps the annotated frame that caused a verification.
type EvidenceSink interface {
	AddEvidence(frame []byte, userID, reminderID int64, day time.Time)
}

// Notifier forwards verification events to outside subscribers.
type Notifier interface {
	NotifyVerified(event dto.Verified) error
}
