// Package legacy keeps the original scalar-threshold skin tone processor for
// callers that have not moved to the Monk scale engine. Its tiers are
// deliberately independent of the realtone derivations.
//
// Deprecated: use realtone.Engine.
package legacy

import (
	"context"

	"go-realtone/internal/realtone"

	"github.com/sirupsen/logrus"
)

const (
	veryDarkThreshold = 100
	darkThreshold     = 150
	mediumThreshold   = 200

	// faceRegionBoost scales exposure when the tone was measured on a face.
	faceRegionBoost = 1.1
)

// Config mirrors the tunables the processor has always carried.
type Config struct {
	ExposureBoost float64 `json:"exposure_boost"`
	LocalContrast float64 `json:"local_contrast"`
	Warmth        float64 `json:"warmth"`
	ShadowLift    float64 `json:"shadow_lift"`
}

func DefaultConfig() Config {
	return Config{
		ExposureBoost: 0.3,
		LocalContrast: 1.2,
		Warmth:        1.1,
		ShadowLift:    0.25,
	}
}

// RecommendedSettings is the flat settings shape older clients expect.
type RecommendedSettings struct {
	Exposure     float64 `json:"exposure"`
	Gamma        float64 `json:"gamma"`
	Contrast     float64 `json:"contrast"`
	ISO          int     `json:"iso"`
	WhiteBalance string  `json:"white_balance"`
	HDR          bool    `json:"hdr"`
}

// SkinToneRegion is a detected skin area. Detection is not implemented, so
// none are ever returned.
type SkinToneRegion struct {
	Region     realtone.Region `json:"region"`
	SkinTone   float64         `json:"skin_tone"`
	Confidence float64         `json:"confidence"`
}

// SkinToneProcessor works on a single brightness-like skin tone value in
// [0,255] rather than on a scale category.
type SkinToneProcessor struct {
	engine *realtone.Engine
	config Config
	log    *logrus.Entry
}

// NewSkinToneProcessor wraps engine, which handles enhancement. A nil engine
// gets a default one.
func NewSkinToneProcessor(engine *realtone.Engine, log *logrus.Entry) *SkinToneProcessor {
	if engine == nil {
		engine = realtone.NewEngine()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &SkinToneProcessor{
		engine: engine,
		config: DefaultConfig(),
		log:    log,
	}
}

func (p *SkinToneProcessor) Config() Config {
	return p.config
}

// CalculateExposureCompensation returns EV compensation for a skin tone.
// Tones measured on a face region get an extra 10%.
func (p *SkinToneProcessor) CalculateExposureCompensation(skinTone float64, faceRegion *realtone.Region) float64 {
	var ev float64
	switch {
	case skinTone < veryDarkThreshold:
		ev = 0.5
	case skinTone < darkThreshold:
		ev = 0.3
	case skinTone < mediumThreshold:
		ev = 0.1
	default:
		ev = 0
	}
	if faceRegion != nil {
		ev *= faceRegionBoost
	}
	return ev
}

func (p *SkinToneProcessor) CalculateGammaAdjustment(skinTone float64) float64 {
	switch {
	case skinTone < veryDarkThreshold:
		return 1.3
	case skinTone < darkThreshold:
		return 1.2
	case skinTone < mediumThreshold:
		return 1.1
	default:
		return 1.0
	}
}

func (p *SkinToneProcessor) CalculateContrastAdjustment(skinTone float64) float64 {
	if skinTone < darkThreshold {
		return 1.15
	}
	return 1.0
}

// RecommendedSettings aggregates the tiered adjustments.
func (p *SkinToneProcessor) RecommendedSettings(skinTone float64) RecommendedSettings {
	iso := realtone.BaseISO
	if skinTone < veryDarkThreshold {
		iso = realtone.HighISO
	}
	return RecommendedSettings{
		Exposure:     p.CalculateExposureCompensation(skinTone, nil),
		Gamma:        p.CalculateGammaAdjustment(skinTone),
		Contrast:     p.CalculateContrastAdjustment(skinTone),
		ISO:          iso,
		WhiteBalance: realtone.WhiteBalanceModeAuto,
		HDR:          true,
	}
}

// DetectSkinTones always returns an empty result.
func (p *SkinToneProcessor) DetectSkinTones(ctx context.Context, imageRef string) ([]SkinToneRegion, error) {
	return []SkinToneRegion{}, ctx.Err()
}

// EnhanceImage hands off to the Monk scale engine.
func (p *SkinToneProcessor) EnhanceImage(ctx context.Context, imageRef string) string {
	p.log.WithField("image", imageRef).Debug("SkinToneProcessor delegating to Real-Tone engine")
	return p.engine.EnhanceImage(ctx, imageRef, nil)
}
