package analyzer

import "fmt"

// Sampler profile names accepted by SAMPLER_PROFILE
const (
	ProfileDefault = "default"
	ProfileFast    = "fast"
	ProfileStrict  = "strict"
)

// SamplerOptions configures skin sampling
type SamplerOptions struct {
	// Skin mask in HSV space; hue in degrees, saturation and value in 0..1
	SkinMask      bool
	MinHue        float64
	MaxHue        float64
	MinSaturation float64
	MaxSaturation float64
	MinValue      float64

	// Larger crops are downsized to fit this box before sampling
	MaxSampleDimension int

	// Performance options
	MaxWorkers int // 0 uses the CPU count
}

// DefaultOptions returns a mask wide enough to accept every reference color on the scale
func DefaultOptions() SamplerOptions {
	return SamplerOptions{
		SkinMask:           true,
		MinHue:             0,
		MaxHue:             50,
		MinSaturation:      0.05,
		MaxSaturation:      0.75,
		MinValue:           0.15,
		MaxSampleDimension: 256,
		MaxWorkers:         0,
	}
}

// FastOptions samples a smaller thumbnail
func FastOptions() SamplerOptions {
	opts := DefaultOptions()
	opts.MaxSampleDimension = 96
	return opts
}

// StrictOptions narrows the mask to reject warm backgrounds and specular highlights
func StrictOptions() SamplerOptions {
	opts := DefaultOptions()
	opts.MaxHue = 40
	opts.MinSaturation = 0.07
	opts.MaxSaturation = 0.65
	opts.MinValue = 0.2
	return opts
}

// OptionsForProfile returns the preset for a profile name; empty means default
func OptionsForProfile(name string) (SamplerOptions, error) {
	switch name {
	case "", ProfileDefault:
		return DefaultOptions(), nil
	case ProfileFast:
		return FastOptions(), nil
	case ProfileStrict:
		return StrictOptions(), nil
	default:
		return SamplerOptions{}, fmt.Errorf("unknown sampler profile: %q", name)
	}
}

// WithoutSkinMask counts every opaque pixel, for references that are already cropped to skin
func (opts SamplerOptions) WithoutSkinMask() SamplerOptions {
	opts.SkinMask = false
	return opts
}

// WithMaxDimension sets the sampling thumbnail bound
func (opts SamplerOptions) WithMaxDimension(dim int) SamplerOptions {
	opts.MaxSampleDimension = dim
	return opts
}

// WithWorkers sets the number of parallel strips
func (opts SamplerOptions) WithWorkers(n int) SamplerOptions {
	opts.MaxWorkers = n
	return opts
}

// IsSkin reports whether an HSV triple passes the mask
func (opts SamplerOptions) IsSkin(h, s, v float64) bool {
	if !opts.SkinMask {
		return true
	}
	return h >= opts.MinHue && h <= opts.MaxHue &&
		s >= opts.MinSaturation && s <= opts.MaxSaturation &&
		v >= opts.MinValue
}
