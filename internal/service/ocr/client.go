package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	"golang.org/x/image/draw"

	"medaware/internal/config"
	"medaware/internal/model"
)

const recognizePath = "/recognize"

// Client recognizes text through an HTTP OCR sidecar.
//
// The sidecar receives a JPEG body and answers
// {"items":[{"text":"ASPIRIN","confidence":0.93}]}.
type Client struct {
	baseURL    string
	minCrop    int
	httpClient *http.Client
}

type recognizeResponse struct {
	Items []struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"items"`
}

// NewClient creates a recognizer client from the OCR settings.
func NewClient(cfg *config.Config) *Client {
	timeout := cfg.OCRTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    cfg.OCRURL,
		minCrop:    cfg.OCRMinCrop,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Recognize returns every reading the sidecar reports for crop, unfiltered.
func (c *Client) Recognize(ctx context.Context, crop image.Image) ([]model.Reading, error) {
	var body bytes.Buffer
	if err := jpeg.Encode(&body, upscale(crop, c.minCrop), &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+recognizePath, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ocr returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var decoded recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode ocr response: %w", err)
	}

	readings := make([]model.Reading, 0, len(decoded.Items))
	for _, item := range decoded.Items {
		readings = append(readings, model.Reading{Text: item.Text, Confidence: item.Confidence})
	}
	return readings, nil
}

// upscale enlarges img so its shorter edge is at least minEdge, keeping the aspect ratio.
// Small label crops read poorly otherwise.
func upscale(img image.Image, minEdge int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	shorter := width
	if height < shorter {
		shorter = height
	}
	if minEdge <= 0 || shorter == 0 || shorter >= minEdge {
		return img
	}

	scale := float64(minEdge) / float64(shorter)
	resized := image.NewRGBA(image.Rect(0, 0, int(float64(width)*scale+0.5), int(float64(height)*scale+0.5)))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}
