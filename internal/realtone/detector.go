package realtone

import (
	"context"
	"image"

	"github.com/sirupsen/logrus"
)

// Region is an optional rectangle inside an image, in pixel coordinates.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// RegionFromRect is the inverse of Rect.
func RegionFromRect(rect image.Rectangle) Region {
	return Region{X: rect.Min.X, Y: rect.Min.Y, Width: rect.Dx(), Height: rect.Dy()}
}

// SkinToneAnalysis is a best-effort classification of an image. Confidence
// is advisory; Detected=false means the image could not be classified and
// MSTCategory holds the midpoint fallback.
type SkinToneAnalysis struct {
	Detected     bool          `json:"detected"`
	MSTCategory  MSTCategory   `json:"mst_category"`
	Confidence   float64       `json:"confidence"`
	RGBAverage   *SampledColor `json:"rgb_average,omitempty"`
	Region       *Region       `json:"region"`
	SkinCoverage float64       `json:"skin_coverage,omitempty"`
	Issues       []string      `json:"issues,omitempty"`
}

// SkinToneDetector produces a classification for an image reference.
// Implementations must not fail for a well-formed reference; they report
// Detected=false instead.
type SkinToneDetector interface {
	DetectSkinTone(ctx context.Context, imageRef string, region *Region) (*SkinToneAnalysis, error)
}

// SettingsApplier consumes a SettingsBundle, applying it to image data or
// camera hardware, and returns the reference of the result.
type SettingsApplier interface {
	Apply(ctx context.Context, imageRef string, settings SettingsBundle) (string, error)
}

// PlaceholderDetector stands in for a real detection pipeline and always
// reports the Tan category.
type PlaceholderDetector struct{}

var placeholderSample = SampledColor{R: 175, G: 140, B: 110}

const placeholderConfidence = 0.85

func (PlaceholderDetector) DetectSkinTone(ctx context.Context, imageRef string, region *Region) (*SkinToneAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sample := placeholderSample
	return &SkinToneAnalysis{
		Detected:    true,
		MSTCategory: Scale[5],
		Confidence:  placeholderConfidence,
		RGBAverage:  &sample,
		Region:      region,
	}, nil
}

// LoggingApplier records the settings it receives and hands the reference
// back untouched.
type LoggingApplier struct {
	Log *logrus.Entry
}

func (a LoggingApplier) Apply(ctx context.Context, imageRef string, settings SettingsBundle) (string, error) {
	if a.Log != nil {
		a.Log.WithFields(logrus.Fields{
			"image":        imageRef,
			"mst_category": settings.RealTone.MSTCategory,
			"exposure":     settings.Exposure,
			"iso":          settings.ISO,
			"shadows":      settings.Shadows,
			"highlights":   settings.Highlights,
			"warmth":       settings.Warmth,
		}).Info("Real-Tone settings computed")
	}
	return imageRef, nil
}
