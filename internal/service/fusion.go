package service

import (
	"context"
	"fmt"
	"image"

	"medaware/internal/model"
)

// Fused is the per-frame detection summary.
type Fused struct {
	MedicineBoxes   []image.Rectangle
	FaceBoxes       []image.Rectangle
	MedicinePresent bool
	FacePresent     bool
}

// Fuse partitions detections by class. Classes outside the known set are ignored.
func Fuse(detections []model.Detection) Fused {
	var fused Fused
	for _, d := range detections {
		switch d.Class {
		case model.ClassMedicine:
			fused.MedicineBoxes = append(fused.MedicineBoxes, d.Box)
			fused.MedicinePresent = true
		case model.ClassFace:
			fused.FaceBoxes = append(fused.FaceBoxes, d.Box)
			fused.FacePresent = true
		}
	}
	return fused
}

// detect runs the detector and fuses its output.
func (m *Manager) detect(ctx context.Context, img image.Image) (Fused, error) {
	detections, err := m.detector.Detect(ctx, img, m.threshold)
	if err != nil {
		return Fused{}, fmt.Errorf("%w: %v", ErrDetection, err)
	}
	return Fuse(detections), nil
}
