package realtone

// ProcessorConfig gates and tunes the derivations. It is a plain value; the
// engine hands out copies only.
type ProcessorConfig struct {
	Enabled              bool    `json:"enabled" yaml:"enabled"`
	AdaptiveExposure     bool    `json:"adaptive_exposure" yaml:"adaptive_exposure"`
	EnhancedWhiteBalance bool    `json:"enhanced_white_balance" yaml:"enhanced_white_balance"`
	LocalToneMapping     bool    `json:"local_tone_mapping" yaml:"local_tone_mapping"`
	ShadowLift           float64 `json:"shadow_lift" yaml:"shadow_lift"`
	HighlightProtection  float64 `json:"highlight_protection" yaml:"highlight_protection"`
	WarmthMultiplier     float64 `json:"warmth_multiplier" yaml:"warmth_multiplier"`
	ContrastEnhancement  float64 `json:"contrast_enhancement" yaml:"contrast_enhancement"`
	SaturationAdjustment float64 `json:"saturation_adjustment" yaml:"saturation_adjustment"`
}

// DefaultConfig returns the stock configuration with every feature on.
func DefaultConfig() ProcessorConfig {
	return ProcessorConfig{
		Enabled:              true,
		AdaptiveExposure:     true,
		EnhancedWhiteBalance: true,
		LocalToneMapping:     true,
		ShadowLift:           0.3,
		HighlightProtection:  0.2,
		WarmthMultiplier:     1.15,
		ContrastEnhancement:  1.1,
		SaturationAdjustment: 1.05,
	}
}

// ConfigUpdate is a partial configuration. Nil fields are left untouched by
// Merge.
type ConfigUpdate struct {
	Enabled              *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	AdaptiveExposure     *bool    `json:"adaptive_exposure,omitempty" yaml:"adaptive_exposure,omitempty"`
	EnhancedWhiteBalance *bool    `json:"enhanced_white_balance,omitempty" yaml:"enhanced_white_balance,omitempty"`
	LocalToneMapping     *bool    `json:"local_tone_mapping,omitempty" yaml:"local_tone_mapping,omitempty"`
	ShadowLift           *float64 `json:"shadow_lift,omitempty" yaml:"shadow_lift,omitempty"`
	HighlightProtection  *float64 `json:"highlight_protection,omitempty" yaml:"highlight_protection,omitempty"`
	WarmthMultiplier     *float64 `json:"warmth_multiplier,omitempty" yaml:"warmth_multiplier,omitempty"`
	ContrastEnhancement  *float64 `json:"contrast_enhancement,omitempty" yaml:"contrast_enhancement,omitempty"`
	SaturationAdjustment *float64 `json:"saturation_adjustment,omitempty" yaml:"saturation_adjustment,omitempty"`
}

// IsEmpty reports whether the update would change nothing.
func (u ConfigUpdate) IsEmpty() bool {
	return u == ConfigUpdate{}
}

// Merge overlays the non-nil fields of u onto c.
func (c ProcessorConfig) Merge(u ConfigUpdate) ProcessorConfig {
	if u.Enabled != nil {
		c.Enabled = *u.Enabled
	}
	if u.AdaptiveExposure != nil {
		c.AdaptiveExposure = *u.AdaptiveExposure
	}
	if u.EnhancedWhiteBalance != nil {
		c.EnhancedWhiteBalance = *u.EnhancedWhiteBalance
	}
	if u.LocalToneMapping != nil {
		c.LocalToneMapping = *u.LocalToneMapping
	}
	if u.ShadowLift != nil {
		c.ShadowLift = *u.ShadowLift
	}
	if u.HighlightProtection != nil {
		c.HighlightProtection = *u.HighlightProtection
	}
	if u.WarmthMultiplier != nil {
		c.WarmthMultiplier = *u.WarmthMultiplier
	}
	if u.ContrastEnhancement != nil {
		c.ContrastEnhancement = *u.ContrastEnhancement
	}
	if u.SaturationAdjustment != nil {
		c.SaturationAdjustment = *u.SaturationAdjustment
	}
	return c
}

// Bool and Float build ConfigUpdate fields inline.
func Bool(v bool) *bool { return &v }

func Float(v float64) *float64 { return &v }
