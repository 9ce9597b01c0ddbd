// Package realtone classifies sampled skin color on the Monk Skin Tone scale
// and derives exposure, white balance and tone mapping recommendations from
// the detected category.
package realtone

import "math"

// FallbackCategoryID is the scale midpoint used whenever no usable sample exists.
const FallbackCategoryID = 5

// MSTCategory is one fixed entry of the Monk Skin Tone scale.
type MSTCategory struct {
	ID            int      `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Reference     [3]uint8 `json:"rgb" yaml:"rgb"`
	ExposureBoost float64  `json:"exposure_boost" yaml:"exposure_boost"`
}

// Scale is ordered by id; Classify depends on that order for tie-breaking.
var Scale = [10]MSTCategory{
	{ID: 1, Name: "Very Light", Reference: [3]uint8{250, 240, 230}, ExposureBoost: -0.1},
	{ID: 2, Name: "Light", Reference: [3]uint8{245, 230, 215}, ExposureBoost: 0},
	{ID: 3, Name: "Light Medium", Reference: [3]uint8{235, 215, 195}, ExposureBoost: 0.1},
	{ID: 4, Name: "Medium", Reference: [3]uint8{220, 195, 165}, ExposureBoost: 0.2},
	{ID: 5, Name: "Medium Tan", Reference: [3]uint8{200, 170, 140}, ExposureBoost: 0.25},
	{ID: 6, Name: "Tan", Reference: [3]uint8{175, 140, 110}, ExposureBoost: 0.3},
	{ID: 7, Name: "Deep Tan", Reference: [3]uint8{150, 115, 85}, ExposureBoost: 0.35},
	{ID: 8, Name: "Dark", Reference: [3]uint8{120, 85, 60}, ExposureBoost: 0.4},
	{ID: 9, Name: "Very Dark", Reference: [3]uint8{90, 60, 40}, ExposureBoost: 0.5},
	{ID: 10, Name: "Deepest", Reference: [3]uint8{60, 40, 30}, ExposureBoost: 0.6},
}

// Categories returns a copy of the scale.
func Categories() []MSTCategory {
	out := make([]MSTCategory, len(Scale))
	copy(out, Scale[:])
	return out
}

// CategoryByID looks up a scale entry.
func CategoryByID(id int) (MSTCategory, bool) {
	for _, c := range Scale {
		if c.ID == id {
			return c, true
		}
	}
	return MSTCategory{}, false
}

// SampledColor is an average color taken from an image region. Channels are
// nominally in [0,255] but are not range checked.
type SampledColor struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Distance is the Euclidean RGB distance between a sample and a category's
// reference color.
func Distance(sample SampledColor, c MSTCategory) float64 {
	dr := float64(c.Reference[0]) - sample.R
	dg := float64(c.Reference[1]) - sample.G
	db := float64(c.Reference[2]) - sample.B
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Nearest returns the closest category and its distance. The search starts
// from the midpoint with an infinite distance, so NaN channels never replace
// it and the first strictly smaller distance wins.
func Nearest(sample *SampledColor) (MSTCategory, float64) {
	closest := Scale[FallbackCategoryID-1]
	if sample == nil || math.IsNaN(sample.R) {
		return closest, math.Inf(1)
	}

	minDistance := math.Inf(1)
	for _, c := range Scale {
		if d := Distance(*sample, c); d < minDistance {
			minDistance = d
			closest = c
		}
	}
	return closest, minDistance
}

// Classify maps a sample onto the scale. A nil sample, or one without a red
// channel, yields the midpoint category.
func Classify(sample *SampledColor) MSTCategory {
	c, _ := Nearest(sample)
	return c
}
