package model

import "image"

// DetectionClass is the closed set of classes the custom detector is trained on.
type DetectionClass uint8

const (
	ClassMedicine DetectionClass = iota + 1
	ClassFace
)

// ClassFromIndex maps a network output index to its class.
// Indices outside the trained vocabulary report false.
func ClassFromIndex(index int) (DetectionClass, bool) {
	switch index {
	case 0:
		return ClassMedicine, true
	case 1:
		return ClassFace, true
	}
	return 0, false
}

func (c DetectionClass) String() string {
	switch c {
	case ClassMedicine:
		return "medicine"
	case ClassFace:
		return "face"
	}
	return "unknown"
}

// Detection is one classified box returned by the detector for a single frame.
type Detection struct {
	Class      DetectionClass
	Box        image.Rectangle
	Confidence float64
}
