package strategy

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
	"github.com/sirupsen/logrus"
)

// Face detection defaults, tuned for portrait captures
const (
	DefaultFaceMinSizePct   = 10
	DefaultFaceQuality      = 5.0
	DefaultFaceShiftFactor  = 0.1
	DefaultFaceScaleFactor  = 1.1
	DefaultFaceIoUThreshold = 0.2
	faceDetectMaxDimension  = 640
)

// FaceFinder locates faces in an image, returning their boxes in image coordinates
type FaceFinder interface {
	FindFaces(img image.Image) []image.Rectangle
}

// PigoFaceFinder runs a pigo cascade over a downsized grayscale copy
type PigoFaceFinder struct {
	classifier   *pigo.Pigo
	minSizePct   int
	minQuality   float32
	shiftFactor  float64
	scaleFactor  float64
	iouThreshold float64
}

// NewPigoFaceFinder unpacks a pigo cascade
func NewPigoFaceFinder(cascade []byte) (finder *PigoFaceFinder, err error) {
	if len(cascade) == 0 {
		return nil, errors.New("face cascade is empty")
	}
	// Unpack indexes into the buffer without bounds checks.
	defer func() {
		if r := recover(); r != nil {
			finder = nil
			err = fmt.Errorf("malformed face cascade: %v", r)
		}
	}()

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack face cascade: %w", err)
	}
	return &PigoFaceFinder{
		classifier:   classifier,
		minSizePct:   DefaultFaceMinSizePct,
		minQuality:   DefaultFaceQuality,
		shiftFactor:  DefaultFaceShiftFactor,
		scaleFactor:  DefaultFaceScaleFactor,
		iouThreshold: DefaultFaceIoUThreshold,
	}, nil
}

// FindFaces returns the clustered detections above the quality threshold
func (f *PigoFaceFinder) FindFaces(img image.Image) []image.Rectangle {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil
	}

	// Detect on a bounded copy anchored at the origin, then scale boxes back.
	src := imaging.Clone(img)
	ratio := 1.0
	if bounds.Dx() > faceDetectMaxDimension || bounds.Dy() > faceDetectMaxDimension {
		src = imaging.Fit(src, faceDetectMaxDimension, faceDetectMaxDimension, imaging.Linear)
		ratio = float64(bounds.Dx()) / float64(src.Bounds().Dx())
	}
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	minDim := cols
	if rows < minDim {
		minDim = rows
	}
	minSize := minDim * f.minSizePct / 100
	if minSize < 20 {
		minSize = 20
	}

	params := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     minDim,
		ShiftFactor: f.shiftFactor,
		ScaleFactor: f.scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := f.classifier.RunCascade(params, 0.0)
	dets = f.classifier.ClusterDetections(dets, f.iouThreshold)

	var faces []image.Rectangle
	for _, det := range dets {
		if det.Q < f.minQuality {
			continue
		}
		half := float64(det.Scale) / 2
		x0 := int((float64(det.Col) - half) * ratio)
		y0 := int((float64(det.Row) - half) * ratio)
		x1 := int((float64(det.Col) + half) * ratio)
		y1 := int((float64(det.Row) + half) * ratio)
		faces = append(faces, image.Rect(x0, y0, x1, y1).Add(bounds.Min).Intersect(bounds))
	}
	return faces
}

// FaceStrategy samples the largest detected face, falling back when none is found
type FaceStrategy struct {
	finder   FaceFinder
	fallback RegionStrategy
	log      *logrus.Entry
}

// NewFaceStrategy creates a face strategy. A nil finder always falls back.
func NewFaceStrategy(finder FaceFinder, fallback RegionStrategy, log *logrus.Entry) *FaceStrategy {
	if fallback == nil {
		fallback = NewCenterStrategy()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &FaceStrategy{
		finder:   finder,
		fallback: fallback,
		log:      log,
	}
}

// SelectRegion returns the largest face box
func (s *FaceStrategy) SelectRegion(ctx context.Context, img image.Image) image.Rectangle {
	if s.finder == nil || ctx.Err() != nil {
		return s.fallback.SelectRegion(ctx, img)
	}

	var best image.Rectangle
	bestArea := 0
	for _, face := range s.finder.FindFaces(img) {
		if area := face.Dx() * face.Dy(); area > bestArea {
			best, bestArea = face, area
		}
	}
	if bestArea == 0 {
		s.log.WithField("fallback", s.fallback.GetStrategyName()).Debug("No face detected")
		return s.fallback.SelectRegion(ctx, img)
	}

	s.log.WithFields(logrus.Fields{
		"x":      best.Min.X,
		"y":      best.Min.Y,
		"width":  best.Dx(),
		"height": best.Dy(),
	}).Debug("Face region selected")
	return best
}

// GetStrategyName returns the strategy name
func (s *FaceStrategy) GetStrategyName() string {
	return NameFace
}
