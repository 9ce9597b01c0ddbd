package analyzer

import (
	"context"
	"image"
	"image/color"
	"io"

	"github.com/sirupsen/logrus"

	"go-realtone/pkg/validation"
)

func uniformImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// splitImage paints the left half with left and the right half with right
func splitImage(w, h int, left, right color.Color) *image.RGBA {
	img := uniformImage(w, h, right)
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			img.Set(x, y, left)
		}
	}
	return img
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type memoryRepo struct {
	images    map[string]image.Image
	fetchErr  error
	validator *validation.ReferenceValidator
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		images:    make(map[string]image.Image),
		validator: validation.NewReferenceValidator(),
	}
}

func (m *memoryRepo) FetchImage(ctx context.Context, imageRef string) (image.Image, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	img, ok := m.images[imageRef]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return img, nil
}

func (m *memoryRepo) ValidateReference(imageRef string) error {
	return m.validator.ValidateReference(imageRef)
}

func (m *memoryRepo) Schemes() []string {
	return []string{"https"}
}
