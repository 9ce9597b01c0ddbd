package analyzer

import (
	"context"
	"image"
	"math"

	"github.com/sirupsen/logrus"

	apperrors "go-realtone/internal/errors"
	"go-realtone/internal/realtone"
	"go-realtone/internal/repository"
	"go-realtone/internal/strategy"
	"go-realtone/pkg/validation"
)

// Detection thresholds
const (
	MinSkinPixels   = 16
	MinSkinCoverage = 0.02

	// Distance at which color proximity stops contributing to confidence
	proximityRange = 150.0
	// Coverage at which the coverage term saturates
	fullCoverage = 0.5
)

// PixelDetector classifies skin tone from the pixels of a fetched image
type PixelDetector struct {
	repo    repository.ImageRepository
	regions *strategy.RegionContext
	sampler *SkinSampler
	quality *validation.QualityValidator
	log     *logrus.Entry
}

// NewPixelDetector wires a detector; nil collaborators get defaults
func NewPixelDetector(repo repository.ImageRepository, regions strategy.RegionStrategy, sampler *SkinSampler, quality *validation.QualityValidator, log *logrus.Entry) *PixelDetector {
	if regions == nil {
		regions = strategy.NewCenterStrategy()
	}
	if sampler == nil {
		sampler = NewSkinSampler(DefaultOptions())
	}
	if quality == nil {
		quality = validation.NewQualityValidator()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &PixelDetector{
		repo:    repo,
		regions: strategy.NewRegionContext(regions),
		sampler: sampler,
		quality: quality,
		log:     log,
	}
}

// DetectSkinTone implements realtone.SkinToneDetector. An image that cannot
// be loaded or holds too little skin is reported with Detected=false.
func (d *PixelDetector) DetectSkinTone(ctx context.Context, imageRef string, region *realtone.Region) (*realtone.SkinToneAnalysis, error) {
	if err := d.repo.ValidateReference(imageRef); err != nil {
		return nil, err
	}

	img, err := d.repo.FetchImage(ctx, imageRef)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewTimeoutError("skin tone detection cancelled", ctx.Err())
		}
		if apperrors.IsType(err, apperrors.ErrorTypeUnsupported) {
			return nil, err
		}
		d.log.WithError(err).WithField("image", imageRef).Warn("Image could not be loaded for skin tone detection")
		return undetected(region, 0, []string{"Image could not be loaded."}), nil
	}

	rect := d.selectRegion(ctx, img, region)
	if rect.Empty() {
		return undetected(region, 0, []string{"Region lies outside the image."}), nil
	}
	selected := realtone.RegionFromRect(rect)

	metrics, err := d.sampler.Sample(ctx, img, rect)
	if err != nil {
		return nil, apperrors.NewTimeoutError("skin tone detection cancelled", err)
	}

	issues := d.quality.ConvertIssuesToMessages(d.quality.ValidateSample(metrics.QualityMetrics()))

	if metrics.SkinPixels < MinSkinPixels || metrics.Coverage < MinSkinCoverage {
		d.log.WithFields(logrus.Fields{
			"image":       imageRef,
			"skin_pixels": metrics.SkinPixels,
			"coverage":    metrics.Coverage,
		}).Debug("Not enough skin in region")
		return undetected(&selected, metrics.Coverage, issues), nil
	}

	average := metrics.Average
	category, distance := realtone.Nearest(&average)
	confidence := Confidence(distance, metrics.Coverage)

	d.log.WithFields(logrus.Fields{
		"image":        imageRef,
		"mst_category": category.ID,
		"confidence":   confidence,
		"coverage":     metrics.Coverage,
		"strategy":     d.regions.GetCurrentStrategy(),
	}).Debug("Skin tone detected")

	return &realtone.SkinToneAnalysis{
		Detected:     true,
		MSTCategory:  category,
		Confidence:   confidence,
		RGBAverage:   &average,
		Region:       &selected,
		SkinCoverage: metrics.Coverage,
		Issues:       issues,
	}, nil
}

// RegionStrategy names the strategy used when the caller gives no region
func (d *PixelDetector) RegionStrategy() string {
	return d.regions.GetCurrentStrategy()
}

// SamplerOptions returns the sampler configuration
func (d *PixelDetector) SamplerOptions() SamplerOptions {
	return d.sampler.Options()
}

func (d *PixelDetector) selectRegion(ctx context.Context, img image.Image, region *realtone.Region) image.Rectangle {
	if region != nil {
		return region.Rect().Intersect(img.Bounds())
	}
	return d.regions.SelectRegion(ctx, img)
}

// Confidence blends color proximity to the nearest reference with skin coverage
func Confidence(distance, coverage float64) float64 {
	proximity := 0.0
	if !math.IsInf(distance, 0) && !math.IsNaN(distance) {
		proximity = math.Max(0, 1-distance/proximityRange)
	}
	return 0.6*proximity + 0.4*math.Min(1, coverage/fullCoverage)
}

func undetected(region *realtone.Region, coverage float64, issues []string) *realtone.SkinToneAnalysis {
	return &realtone.SkinToneAnalysis{
		Detected:     false,
		MSTCategory:  realtone.Scale[realtone.FallbackCategoryID-1],
		Confidence:   0,
		Region:       region,
		SkinCoverage: coverage,
		Issues:       issues,
	}
}
