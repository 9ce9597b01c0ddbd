package realtone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Engine owns a ProcessorConfig and exposes classification and derivation
// against it. Configuration reads and writes are serialized; derivations
// always run on a snapshot.
type Engine struct {
	mu       sync.RWMutex
	cfg      ProcessorConfig
	detector SkinToneDetector
	applier  SettingsApplier
	now      func() time.Time
	log      *logrus.Entry
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithConfig overlays a partial configuration on the defaults. Only nil
// fields keep their default; an explicit zero is applied.
func WithConfig(u ConfigUpdate) Option {
	return func(e *Engine) { e.cfg = e.cfg.Merge(u) }
}

// WithDetector replaces the placeholder skin tone detector.
func WithDetector(d SkinToneDetector) Option {
	return func(e *Engine) {
		if d != nil {
			e.detector = d
		}
	}
}

// WithApplier wires the consumer of computed settings. Without one,
// enhancement resolves settings and returns the original reference.
func WithApplier(a SettingsApplier) Option {
	return func(e *Engine) { e.applier = a }
}

// WithClock sets the time source used for settings timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the entry the engine logs through.
func WithLogger(entry *logrus.Entry) Option {
	return func(e *Engine) {
		if entry != nil {
			e.log = entry
		}
	}
}

// NewEngine builds an engine with default configuration and a placeholder
// detector.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		cfg:      DefaultConfig(),
		detector: PlaceholderDetector{},
		now:      time.Now,
		log:      logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() ProcessorConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// SetEnabled flips the master switch.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	e.cfg.Enabled = enabled
	e.mu.Unlock()

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	e.log.WithField("enabled", enabled).Infof("Real-Tone processing %s", state)
}

// UpdateConfig merges u into the current configuration and returns the
// result.
func (e *Engine) UpdateConfig(u ConfigUpdate) ProcessorConfig {
	e.mu.Lock()
	e.cfg = e.cfg.Merge(u)
	cfg := e.cfg
	e.mu.Unlock()

	e.log.WithField("config", cfg).Info("Real-Tone configuration updated")
	return cfg
}

// Classify maps a sample onto the scale; see the package-level Classify.
func (e *Engine) Classify(sample *SampledColor) MSTCategory {
	return Classify(sample)
}

func (e *Engine) ExposureCompensation(categoryID int) float64 {
	return DeriveExposure(e.Config(), categoryID)
}

func (e *Engine) WhiteBalance(categoryID int) WhiteBalance {
	return DeriveWhiteBalance(e.Config(), categoryID)
}

func (e *Engine) LocalToneMapping(categoryID int) ToneMapping {
	return DeriveToneMapping(e.Config(), categoryID)
}

// OptimizedSettings builds the full settings bundle for a category,
// stamped with the current time.
func (e *Engine) OptimizedSettings(category MSTCategory) SettingsBundle {
	return DeriveSettings(e.Config(), category, e.now())
}

// AnalyzeSkinTone asks the configured detector to classify an image.
func (e *Engine) AnalyzeSkinTone(ctx context.Context, imageRef string, region *Region) (*SkinToneAnalysis, error) {
	e.log.WithFields(logrus.Fields{
		"image":  imageRef,
		"region": region,
	}).Debug("Analyzing skin tone")

	return e.detector.DetectSkinTone(ctx, imageRef, region)
}

// Enhancement reports what EnhanceImage resolved. Err is set when a
// collaborator failed and the original reference was returned instead.
type Enhancement struct {
	ImageRef string          `json:"image"`
	Category *MSTCategory    `json:"mst_category,omitempty"`
	Settings *SettingsBundle `json:"settings,omitempty"`
	Applied  bool            `json:"applied"`
	Err      error           `json:"-"`
}

// EnhanceImage resolves a category and settings bundle for the image and
// hands them to the applier. It never fails: on any error the original
// reference comes back.
func (e *Engine) EnhanceImage(ctx context.Context, imageRef string, category *MSTCategory) string {
	return e.Enhance(ctx, imageRef, category).ImageRef
}

// Enhance is EnhanceImage with the intermediate results exposed.
func (e *Engine) Enhance(ctx context.Context, imageRef string, category *MSTCategory) (result Enhancement) {
	result.ImageRef = imageRef

	cfg := e.Config()
	if !cfg.Enabled {
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			result = Enhancement{
				ImageRef: imageRef,
				Err:      fmt.Errorf("enhancement panicked: %v", r),
			}
			e.log.WithError(result.Err).WithField("image", imageRef).Error("Real-Tone enhancement failed")
		}
	}()

	if category == nil {
		analysis, err := e.AnalyzeSkinTone(ctx, imageRef, nil)
		if err != nil {
			result.Err = fmt.Errorf("analyze skin tone: %w", err)
			e.log.WithError(err).WithField("image", imageRef).Error("Real-Tone enhancement failed")
			return result
		}
		detected := analysis.MSTCategory
		category = &detected
	}

	settings := DeriveSettings(cfg, *category, e.now())
	result.Category = category
	result.Settings = &settings

	e.log.WithFields(logrus.Fields{
		"mst":        category.Name,
		"exposure":   settings.Exposure,
		"shadows":    settings.Shadows,
		"highlights": settings.Highlights,
	}).Info("Real-Tone settings resolved")

	if e.applier == nil {
		return result
	}

	out, err := e.applier.Apply(ctx, imageRef, settings)
	if err != nil {
		result.Err = fmt.Errorf("apply settings: %w", err)
		e.log.WithError(err).WithField("image", imageRef).Error("Real-Tone enhancement failed")
		return result
	}
	if out != "" {
		result.ImageRef = out
	}
	result.Applied = true
	return result
}
