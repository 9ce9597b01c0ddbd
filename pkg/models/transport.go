package models

import (
	"math"
	"time"

	"go-realtone/internal/autocapture"
	"go-realtone/internal/legacy"
	"go-realtone/internal/realtone"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse reports liveness and whether Real-Tone processing is on
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Enabled   bool      `json:"enabled"`
	Detector  string    `json:"detector"`
	Timestamp time.Time `json:"timestamp"`
}

// ClassifyRequest carries a sampled color. Channels are pointers so a
// missing channel can be told apart from zero.
type ClassifyRequest struct {
	R *float64 `json:"r"`
	G *float64 `json:"g"`
	B *float64 `json:"b"`
}

// Sample converts the request to a SampledColor. A missing red channel
// means no sample at all; other missing channels are NaN.
func (r ClassifyRequest) Sample() *realtone.SampledColor {
	if r.R == nil {
		return nil
	}
	sample := &realtone.SampledColor{R: *r.R, G: math.NaN(), B: math.NaN()}
	if r.G != nil {
		sample.G = *r.G
	}
	if r.B != nil {
		sample.B = *r.B
	}
	return sample
}

// ClassifyResponse is the category nearest to the sample. Distance is
// omitted when the sample could not be measured.
type ClassifyResponse struct {
	MSTCategory realtone.MSTCategory `json:"mst_category"`
	Distance    *float64             `json:"distance,omitempty"`
}

// NewClassifyResponse drops non-finite distances, which JSON cannot carry
func NewClassifyResponse(category realtone.MSTCategory, distance float64) ClassifyResponse {
	resp := ClassifyResponse{MSTCategory: category}
	if !math.IsInf(distance, 0) && !math.IsNaN(distance) {
		resp.Distance = &distance
	}
	return resp
}

// CategoriesResponse lists the scale
type CategoriesResponse struct {
	Categories []realtone.MSTCategory `json:"categories"`
}

// DerivationsResponse holds the per-category derivations under the current config
type DerivationsResponse struct {
	MSTCategory          int                  `json:"mst_category"`
	ExposureCompensation float64              `json:"exposure_compensation"`
	WhiteBalance         realtone.WhiteBalance `json:"white_balance"`
	ToneMapping          realtone.ToneMapping  `json:"tone_mapping"`
}

// AnalyzeRequest asks for skin tone analysis of one image
type AnalyzeRequest struct {
	Image  string           `json:"image" binding:"required"`
	Region *realtone.Region `json:"region,omitempty"`
}

// AnalyzeResponse carries the analysis and the settings it implies
type AnalyzeResponse struct {
	Image             string                     `json:"image"`
	Analysis          *realtone.SkinToneAnalysis `json:"analysis"`
	Settings          *realtone.SettingsBundle   `json:"settings,omitempty"`
	ProcessingTimeSec float64                    `json:"processing_time_sec"`
}

// BatchAnalyzeRequest asks for several analyses at once
type BatchAnalyzeRequest struct {
	Images []AnalyzeRequest `json:"images" binding:"required,min=1,max=50"`
}

// BatchAnalyzeItem is one entry of a batch; exactly one of Result and Error is set
type BatchAnalyzeItem struct {
	Image  string           `json:"image"`
	Result *AnalyzeResponse `json:"result,omitempty"`
	Error  *ErrorResponse   `json:"error,omitempty"`
}

// BatchAnalyzeResponse keeps results in request order
type BatchAnalyzeResponse struct {
	Results           []BatchAnalyzeItem `json:"results"`
	Succeeded         int                `json:"succeeded"`
	Failed            int                `json:"failed"`
	ProcessingTimeSec float64            `json:"processing_time_sec"`
}

// EnhanceRequest asks for Real-Tone enhancement. MSTCategory skips analysis when set.
type EnhanceRequest struct {
	Image       string `json:"image" binding:"required"`
	MSTCategory *int   `json:"mst_category,omitempty"`
}

// EnhanceResponse reports the enhanced reference; it equals the input when nothing was applied
type EnhanceResponse struct {
	Image       string                   `json:"image"`
	Applied     bool                     `json:"applied"`
	MSTCategory *realtone.MSTCategory    `json:"mst_category,omitempty"`
	Settings    *realtone.SettingsBundle `json:"settings,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

// SetEnabledRequest toggles Real-Tone processing
type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// LegacySettingsRequest asks the legacy processor for scalar-tier settings
type LegacySettingsRequest struct {
	SkinTone   *float64         `json:"skin_tone" binding:"required"`
	FaceRegion *realtone.Region `json:"face_region,omitempty"`
}

// LegacySettingsResponse mirrors the legacy processor output
type LegacySettingsResponse struct {
	legacy.RecommendedSettings
	FaceAdjustedExposure *float64 `json:"face_adjusted_exposure,omitempty"`
}

// CaptureSessionResponse describes an auto-capture session
type CaptureSessionResponse struct {
	ID              string    `json:"id"`
	FocusThreshold  float64   `json:"focus_threshold"`
	StabilityFrames int       `json:"stability_frames"`
	CreatedAt       time.Time `json:"created_at"`
}

// CaptureFrameRequest is one preview frame of face detections
type CaptureFrameRequest struct {
	Faces         []autocapture.Face `json:"faces"`
	PreviousFaces []autocapture.Face `json:"previous_faces,omitempty"`
}

// CaptureFrameResponse reports whether the session should capture now
type CaptureFrameResponse struct {
	SessionID  string    `json:"session_id"`
	Frame      int       `json:"frame"`
	FocusScore float64   `json:"focus_score"`
	InFocus    bool      `json:"in_focus"`
	Stable     bool      `json:"stable"`
	Ready      bool      `json:"ready"`
	History    []float64 `json:"history"`
}
