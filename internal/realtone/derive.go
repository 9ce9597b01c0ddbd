package realtone

import (
	"math"
	"time"
)

const (
	// UnknownCategoryExposure is returned for ids outside the scale.
	UnknownCategoryExposure = 0.3
	// WhiteBalanceTint is the fixed green-tint reduction applied whenever
	// white balance enhancement is on.
	WhiteBalanceTint = 0.05
	// MaxWarmthBoost is the warmth ramp value at id 10.
	MaxWarmthBoost = 0.2

	BaseISO             = 200
	HighISO             = 400
	HighISOFromCategory = 7

	WhiteBalanceModeAuto = "auto"
)

// WhiteBalance is a relative color-temperature and tint correction.
type WhiteBalance struct {
	Temperature float64 `json:"temperature"`
	Tint        float64 `json:"tint"`
}

// ToneMapping holds local shadow/highlight/midtone adjustments.
type ToneMapping struct {
	ShadowBoost          float64 `json:"shadow_boost"`
	HighlightCompression float64 `json:"highlight_compression"`
	MidtoneContrast      float64 `json:"midtone_contrast"`
}

// WhiteBalanceSettings is the white balance block of a SettingsBundle.
type WhiteBalanceSettings struct {
	Mode        string  `json:"mode"`
	Temperature float64 `json:"temperature"`
	Tint        float64 `json:"tint"`
}

// SettingsMetadata describes how a SettingsBundle was produced.
type SettingsMetadata struct {
	Enabled      bool      `json:"enabled"`
	MSTCategory  int       `json:"mst_category"`
	CategoryName string    `json:"category_name"`
	Timestamp    time.Time `json:"timestamp"`
}

// SettingsBundle is the full set of capture and processing recommendations
// for one category. It is regenerated on every request.
type SettingsBundle struct {
	Exposure     float64              `json:"exposure"`
	ISO          int                  `json:"iso"`
	WhiteBalance WhiteBalanceSettings `json:"white_balance"`
	HDR          bool                 `json:"hdr"`
	Shadows      float64              `json:"shadows"`
	Highlights   float64              `json:"highlights"`
	Contrast     float64              `json:"contrast"`
	Saturation   float64              `json:"saturation"`
	Warmth       float64              `json:"warmth"`
	RealTone     SettingsMetadata     `json:"real_tone"`
}

// DeriveExposure returns the EV compensation for a category id.
func DeriveExposure(cfg ProcessorConfig, id int) float64 {
	if !cfg.AdaptiveExposure {
		return 0
	}
	if c, ok := CategoryByID(id); ok {
		return c.ExposureBoost
	}
	return UnknownCategoryExposure
}

// DeriveWhiteBalance ramps warmth linearly with the category id.
func DeriveWhiteBalance(cfg ProcessorConfig, id int) WhiteBalance {
	if !cfg.EnhancedWhiteBalance {
		return WhiteBalance{}
	}
	warmthBoost := (float64(id) / 10) * MaxWarmthBoost
	return WhiteBalance{
		Temperature: warmthBoost * cfg.WarmthMultiplier,
		Tint:        WhiteBalanceTint,
	}
}

// DeriveToneMapping lifts shadows progressively for categories above the
// midpoint; highlight and midtone values come straight from the config.
func DeriveToneMapping(cfg ProcessorConfig, id int) ToneMapping {
	if !cfg.LocalToneMapping {
		return ToneMapping{}
	}
	shadowMultiplier := math.Max(0, float64(id-FallbackCategoryID)/10)
	return ToneMapping{
		ShadowBoost:          cfg.ShadowLift * (1 + shadowMultiplier),
		HighlightCompression: cfg.HighlightProtection,
		MidtoneContrast:      cfg.ContrastEnhancement,
	}
}

// DeriveSettings aggregates every derivation for a category. A zero id is
// treated as the midpoint.
func DeriveSettings(cfg ProcessorConfig, category MSTCategory, at time.Time) SettingsBundle {
	id := category.ID
	if id == 0 {
		id = FallbackCategoryID
	}

	exposure := DeriveExposure(cfg, id)
	wb := DeriveWhiteBalance(cfg, id)
	tone := DeriveToneMapping(cfg, id)

	iso := BaseISO
	if id >= HighISOFromCategory {
		iso = HighISO
	}

	return SettingsBundle{
		Exposure: exposure,
		ISO:      iso,
		WhiteBalance: WhiteBalanceSettings{
			Mode:        WhiteBalanceModeAuto,
			Temperature: wb.Temperature,
			Tint:        wb.Tint,
		},
		HDR:        true,
		Shadows:    tone.ShadowBoost,
		Highlights: 0 - tone.HighlightCompression, // never -0 on the wire
		Contrast:   tone.MidtoneContrast,
		Saturation: cfg.SaturationAdjustment,
		Warmth:     wb.Temperature,
		RealTone: SettingsMetadata{
			Enabled:      cfg.Enabled,
			MSTCategory:  id,
			CategoryName: category.Name,
			Timestamp:    at.UTC(),
		},
	}
}
