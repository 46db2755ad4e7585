// Package render decodes inbound frames, draws detection overlays and encodes
// the annotated result.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

const (
	DefaultQuality = 80
	boxThickness   = 2
	labelPadding   = 4
)

var (
	// MedicineColor outlines medicine boxes.
	MedicineColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	// FaceColor outlines face boxes.
	FaceColor = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// Overlay is everything drawn on one frame.
type Overlay struct {
	MedicineBoxes []image.Rectangle
	FaceBoxes     []image.Rectangle
	StableName    string
}

// Decode parses a JPEG, PNG or WebP frame.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty frame")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Empty() {
		return nil, errors.New("decoded image is empty")
	}
	return img, nil
}

// Annotate returns a copy of src with the overlay drawn on it. src is not modified.
func Annotate(src image.Image, overlay Overlay) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	for _, box := range overlay.MedicineBoxes {
		drawBox(dst, box, MedicineColor)
		drawLabel(dst, box, "MEDICINE: "+overlay.StableName, MedicineColor)
	}

	for _, box := range overlay.FaceBoxes {
		drawBox(dst, box, FaceColor)
		drawLabel(dst, box, "FACE", FaceColor)
	}

	return dst
}

// Crop returns the part of img inside r. ok is false when r does not overlap img.
func Crop(img image.Image, r image.Rectangle) (cropped image.Image, ok bool) {
	r = r.Canon().Intersect(img.Bounds())
	if r.Empty() {
		return nil, false
	}

	if sub, isSub := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); isSub {
		return sub.SubImage(r), true
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst, true
}

// Encode compresses img as JPEG. Out-of-range qualities fall back to DefaultQuality.
func Encode(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBox outlines r, clipped to the image.
func drawBox(dst *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Canon()
	fill := image.NewUniform(c)
	t := boxThickness

	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, edge := range edges {
		edge = edge.Intersect(dst.Bounds())
		if edge.Empty() {
			continue
		}
		draw.Draw(dst, edge, fill, image.Point{}, draw.Src)
	}
}

// drawLabel writes text just above box, or just inside its top edge when
// there is no room above.
func drawLabel(dst *image.RGBA, box image.Rectangle, text string, c color.Color) {
	face := basicfont.Face7x13
	box = box.Canon()

	baseline := box.Min.Y - labelPadding
	if baseline-face.Ascent < dst.Bounds().Min.Y {
		baseline = box.Min.Y + face.Ascent + labelPadding
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(box.Min.X, baseline),
	}
	d.DrawString(text)
}
