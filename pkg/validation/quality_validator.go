package validation

import (
	"math"

	"go-realtone/internal/realtone"
)

// QualityThresholds defines configurable thresholds for skin sample validation
type QualityThresholds struct {
	// Sharpness of the sampled region (Laplacian variance of luminance)
	MinLaplacianVariance float64

	// Luminance thresholds, 0..1
	MinLuminance float64
	MaxLuminance float64

	// Share of sampled pixels that passed the skin mask
	MinSkinCoverage float64

	// Maximum deviation of the max-normalized channel means from those of
	// the nearest reference color on the scale
	MaxChannelImbalance float64

	// Region size thresholds
	MinWidth  int
	MinHeight int
}

// DefaultQualityThresholds returns the default quality thresholds
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinLaplacianVariance: 15.0,
		MinLuminance:         0.08,
		MaxLuminance:         0.92,
		MinSkinCoverage:      0.15,
		MaxChannelImbalance:  0.2,
		MinWidth:             48,
		MinHeight:            48,
	}
}

// QualityValidator flags skin samples whose classification is unreliable
type QualityValidator struct {
	thresholds QualityThresholds
}

// NewQualityValidator creates a new quality validator with default thresholds
func NewQualityValidator() *QualityValidator {
	return &QualityValidator{
		thresholds: DefaultQualityThresholds(),
	}
}

// NewQualityValidatorWithThresholds creates a quality validator with custom thresholds
func NewQualityValidatorWithThresholds(thresholds QualityThresholds) *QualityValidator {
	return &QualityValidator{
		thresholds: thresholds,
	}
}

// QualityIssue represents a quality validation issue
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning", "info"
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// SampleQualityMetrics are the measurements taken while sampling a region
type SampleQualityMetrics struct {
	Width          int
	Height         int
	LaplacianVar   float64
	AvgLuminance   float64
	SkinCoverage   float64
	ChannelBalance [3]float64
}

// ValidateSample reports every threshold the sample misses
func (qv *QualityValidator) ValidateSample(metrics SampleQualityMetrics) []QualityIssue {
	var issues []QualityIssue

	// 1. Region size
	if metrics.Width < qv.thresholds.MinWidth || metrics.Height < qv.thresholds.MinHeight {
		issues = append(issues, QualityIssue{
			Type:        "small_region",
			Message:     "Face is too small in the frame. Move closer to the camera.",
			Severity:    "warning",
			ActualValue: float64(metrics.Width * metrics.Height),
			Threshold:   float64(qv.thresholds.MinWidth * qv.thresholds.MinHeight),
		})
	}

	// 2. Sharpness
	if metrics.LaplacianVar < qv.thresholds.MinLaplacianVariance {
		issues = append(issues, QualityIssue{
			Type:        "blurriness",
			Message:     "Image is blurry. Please hold the camera steady and try again.",
			Severity:    "warning",
			ActualValue: metrics.LaplacianVar,
			Threshold:   qv.thresholds.MinLaplacianVariance,
		})
	}

	// 3. Luminance
	if metrics.AvgLuminance <= qv.thresholds.MinLuminance {
		issues = append(issues, QualityIssue{
			Type:        "too_dark",
			Message:     "Image is too dark to read skin tone. Use more light.",
			Severity:    "error",
			ActualValue: metrics.AvgLuminance,
			Threshold:   qv.thresholds.MinLuminance,
		})
	} else if metrics.AvgLuminance >= qv.thresholds.MaxLuminance {
		issues = append(issues, QualityIssue{
			Type:        "too_bright",
			Message:     "Image is overexposed. Avoid strong sunlight or flash.",
			Severity:    "error",
			ActualValue: metrics.AvgLuminance,
			Threshold:   qv.thresholds.MaxLuminance,
		})
	}

	// 4. Skin coverage
	if metrics.SkinCoverage < qv.thresholds.MinSkinCoverage {
		issues = append(issues, QualityIssue{
			Type:        "low_skin_coverage",
			Message:     "Little skin is visible in the sampled region.",
			Severity:    "warning",
			ActualValue: metrics.SkinCoverage,
			Threshold:   qv.thresholds.MinSkinCoverage,
		})
	}

	// 5. Color cast
	if cast := colorCast(metrics.ChannelBalance); cast > qv.thresholds.MaxChannelImbalance {
		issues = append(issues, QualityIssue{
			Type:        "color_cast",
			Message:     "Colors look odd. Don't use filters or colored lights.",
			Severity:    "warning",
			ActualValue: cast,
			Threshold:   qv.thresholds.MaxChannelImbalance,
		})
	}

	return issues
}

// colorCast compares channel ratios with the nearest scale reference, so
// deep tones with naturally wide channel spreads are not flagged. Black
// samples have no ratios and report 0.
func colorCast(channels [3]float64) float64 {
	ratios, ok := channelRatios(channels)
	if !ok {
		return 0
	}
	nearest, _ := realtone.Nearest(&realtone.SampledColor{R: channels[0], G: channels[1], B: channels[2]})
	ref, _ := channelRatios([3]float64{
		float64(nearest.Reference[0]),
		float64(nearest.Reference[1]),
		float64(nearest.Reference[2]),
	})

	worst := 0.0
	for i := range ratios {
		worst = math.Max(worst, math.Abs(ratios[i]-ref[i]))
	}
	return worst
}

func channelRatios(channels [3]float64) ([3]float64, bool) {
	hi := math.Max(channels[0], math.Max(channels[1], channels[2]))
	if hi <= 0 {
		return [3]float64{}, false
	}
	return [3]float64{channels[0] / hi, channels[1] / hi, channels[2] / hi}, true
}

// ConvertIssuesToMessages flattens issues into their user-facing messages
func (qv *QualityValidator) ConvertIssuesToMessages(issues []QualityIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (qv *QualityValidator) HasCriticalIssues(issues []QualityIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}
