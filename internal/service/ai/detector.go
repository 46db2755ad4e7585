package ai

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"medaware/internal/config"
	"medaware/internal/logger"
	"medaware/internal/model"
)

// boxAttributes is the number of leading box values (cx, cy, w, h) in each
// output column of the network.
const boxAttributes = 4

var errNotInitialized = errors.New("detection network not initialized")

// DetectorService runs a YOLO ONNX model through the OpenCV DNN module.
//
// A gocv.Net must not be used by two goroutines at once, so the service keeps
// one network per worker and hands them out through a channel.
type DetectorService struct {
	nets         chan *gocv.Net
	size         int
	numWorkers   int
	nmsThreshold float32
	modelPath    string
	logger       *logger.Logger
}

// NewDetectorService loads config.DetectorWorkers copies of the model. When the
// model cannot be loaded the service still starts and every Detect call fails.
func NewDetectorService(config *config.Config, logger *logger.Logger) *DetectorService {
	workers := config.DetectorWorkers
	if workers < 1 {
		workers = 1
	}
	size := config.ModelInputSize
	if size <= 0 {
		size = 640
	}

	service := &DetectorService{
		nets:         make(chan *gocv.Net, workers),
		size:         size,
		nmsThreshold: float32(config.NMSThreshold),
		modelPath:    config.ModelPath,
		logger:       logger,
	}

	for i := 0; i < workers; i++ {
		net, err := service.initializeNet()
		if err != nil {
			service.logger.Warning("Could not initialize detection network %d: %v", i, err)
			break
		}
		service.nets <- net
		service.numWorkers++
	}

	if service.numWorkers > 0 {
		service.logger.Info("🤖 Detection network initialized (%d worker(s), input %dx%d)", service.numWorkers, size, size)
	}
	return service
}

// initializeNet loads one network and sets backend/target preferences.
func (s *DetectorService) initializeNet() (*gocv.Net, error) {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", s.modelPath)
	}

	net := gocv.ReadNetFromONNX(s.modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	return &net, nil
}

// Detect returns the medicine and face boxes above threshold, after
// non-maximum suppression. It blocks until a network is free or ctx is done.
func (s *DetectorService) Detect(ctx context.Context, img image.Image, threshold float64) ([]model.Detection, error) {
	if s.numWorkers == 0 {
		return nil, errNotInitialized
	}

	var net *gocv.Net
	select {
	case net = <-s.nets:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { s.nets <- net }()

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("converted image is empty")
	}

	// the Mat is BGR; the model expects RGB in [0, 1]
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(s.size, s.size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	net.SetInput(blob, "")
	output := net.Forward("")
	defer output.Close()

	return s.decodeOutput(output, mat.Cols(), mat.Rows(), float32(threshold))
}

// decodeOutput reads a [1, 4+classes, candidates] tensor.
func (s *DetectorService) decodeOutput(output gocv.Mat, width, height int, threshold float32) ([]model.Detection, error) {
	dims := output.Size()
	if len(dims) != 3 || dims[1] <= boxAttributes {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	attributes, candidates := dims[1], dims[2]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}

	scaleX := float32(width) / float32(s.size)
	scaleY := float32(height) / float32(s.size)

	var (
		boxes   []image.Rectangle
		scores  []float32
		classes []model.DetectionClass
	)
	for i := 0; i < candidates; i++ {
		bestIndex, bestScore := -1, float32(0)
		for c := boxAttributes; c < attributes; c++ {
			if score := data[c*candidates+i]; score > bestScore {
				bestIndex, bestScore = c-boxAttributes, score
			}
		}
		if bestScore < threshold {
			continue
		}
		class, ok := model.ClassFromIndex(bestIndex)
		if !ok {
			continue
		}

		cx := data[i] * scaleX
		cy := data[candidates+i] * scaleY
		w := data[2*candidates+i] * scaleX
		h := data[3*candidates+i] * scaleY

		boxes = append(boxes, image.Rect(int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2)))
		scores = append(scores, bestScore)
		classes = append(classes, class)
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	// per-class suppression keeps overlapping medicine and face boxes
	var detections []model.Detection
	for _, class := range []model.DetectionClass{model.ClassMedicine, model.ClassFace} {
		var (
			classBoxes  []image.Rectangle
			classScores []float32
		)
		for i := range boxes {
			if classes[i] == class {
				classBoxes = append(classBoxes, boxes[i])
				classScores = append(classScores, scores[i])
			}
		}
		if len(classBoxes) == 0 {
			continue
		}

		for _, idx := range gocv.NMSBoxes(classBoxes, classScores, threshold, s.nmsThreshold) {
			detections = append(detections, model.Detection{
				Class:      class,
				Box:        classBoxes[idx],
				Confidence: float64(classScores[idx]),
			})
		}
	}
	return detections, nil
}

// Close releases every network. It must not be called while Detect is running.
func (s *DetectorService) Close() {
	for i := 0; i < s.numWorkers; i++ {
		net := <-s.nets
		net.Close()
	}
	s.numWorkers = 0
}
