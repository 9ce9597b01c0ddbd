package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	apperrors "go-realtone/internal/errors"
	"go-realtone/internal/legacy"
	"go-realtone/internal/observer"
	"go-realtone/internal/realtone"
	"go-realtone/pkg/models"
	"go-realtone/pkg/validation"
)

// RealToneService defines the operations exposed over HTTP
type RealToneService interface {
	// Scale and derivations
	Categories() []realtone.MSTCategory
	Classify(ctx context.Context, req models.ClassifyRequest) models.ClassifyResponse
	Derivations(categoryID int) models.DerivationsResponse
	Settings(categoryID int) (*realtone.SettingsBundle, error)

	// Image operations
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalyzeResponse, error)
	AnalyzeBatch(ctx context.Context, req models.BatchAnalyzeRequest) *models.BatchAnalyzeResponse
	Enhance(ctx context.Context, req models.EnhanceRequest) (*models.EnhanceResponse, error)

	// Configuration
	GetConfig() realtone.ProcessorConfig
	UpdateConfig(ctx context.Context, update realtone.ConfigUpdate) realtone.ProcessorConfig
	SetEnabled(ctx context.Context, enabled bool) realtone.ProcessorConfig

	// Legacy scalar-tier settings
	LegacySettings(req models.LegacySettingsRequest) (*models.LegacySettingsResponse, error)

	// Auto-capture
	CreateCaptureSession(ctx context.Context) models.CaptureSessionResponse
	ProcessCaptureFrame(ctx context.Context, sessionID string, req models.CaptureFrameRequest) (*models.CaptureFrameResponse, error)
	DeleteCaptureSession(sessionID string) error

	Metrics() observer.Metrics
	DetectorName() string
}

// Options tunes the service
type Options struct {
	AnalysisTimeout   time.Duration
	BatchConcurrency  int
	CaptureSessionTTL time.Duration
	DetectorName      string
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		AnalysisTimeout:   20 * time.Second,
		BatchConcurrency:  4,
		CaptureSessionTTL: 10 * time.Minute,
		DetectorName:      "placeholder",
	}
}

// realToneService implements RealToneService over an engine
type realToneService struct {
	engine    *realtone.Engine
	legacy    *legacy.SkinToneProcessor
	validator *validation.ReferenceValidator
	publisher observer.Subject
	metrics   *observer.MetricsObserver
	sessions  *captureSessions
	opts      Options
	log       *logrus.Entry
}

// NewRealToneService creates a new Real-Tone service
func NewRealToneService(
	engine *realtone.Engine,
	legacyProcessor *legacy.SkinToneProcessor,
	validator *validation.ReferenceValidator,
	publisher observer.Subject,
	metrics *observer.MetricsObserver,
	opts Options,
	log *logrus.Entry,
) RealToneService {
	if validator == nil {
		validator = validation.NewReferenceValidator()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.BatchConcurrency < 1 {
		opts.BatchConcurrency = 1
	}
	return &realToneService{
		engine:    engine,
		legacy:    legacyProcessor,
		validator: validator,
		publisher: publisher,
		metrics:   metrics,
		sessions:  newCaptureSessions(opts.CaptureSessionTTL, time.Now),
		opts:      opts,
		log:       log,
	}
}

func (s *realToneService) Categories() []realtone.MSTCategory {
	return realtone.Categories()
}

// Classify maps a color sample to its nearest category
func (s *realToneService) Classify(ctx context.Context, req models.ClassifyRequest) models.ClassifyResponse {
	category, distance := realtone.Nearest(req.Sample())
	s.publish(ctx, observer.Event{
		EventType: observer.CategoryClassified,
		Category:  category.ID,
		Success:   true,
	})
	return models.NewClassifyResponse(category, distance)
}

// Derivations reports the per-category derivations. Ids off the scale get
// the engine's fallbacks rather than an error.
func (s *realToneService) Derivations(categoryID int) models.DerivationsResponse {
	return models.DerivationsResponse{
		MSTCategory:          categoryID,
		ExposureCompensation: s.engine.ExposureCompensation(categoryID),
		WhiteBalance:         s.engine.WhiteBalance(categoryID),
		ToneMapping:          s.engine.LocalToneMapping(categoryID),
	}
}

// Settings builds the optimized bundle for a category on the scale
func (s *realToneService) Settings(categoryID int) (*realtone.SettingsBundle, error) {
	category, ok := realtone.CategoryByID(categoryID)
	if !ok {
		return nil, apperrors.NewNotFoundError("unknown MST category", nil)
	}
	settings := s.engine.OptimizedSettings(category)
	return &settings, nil
}

// Analyze classifies the skin tone of one image within the analysis timeout
func (s *realToneService) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	if err := s.validator.ValidateReference(req.Image); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.AnalysisTimeout)
	defer cancel()

	start := time.Now()
	s.publish(ctx, observer.Event{EventType: observer.AnalysisStarted, ImageRef: req.Image})

	analysis, err := s.engine.AnalyzeSkinTone(ctx, req.Image, req.Region)
	elapsed := time.Since(start)
	if err != nil {
		err = classifyError(err)
		s.publish(ctx, observer.Event{
			EventType:      observer.AnalysisFailed,
			ImageRef:       req.Image,
			ProcessingTime: elapsed,
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	resp := &models.AnalyzeResponse{
		Image:             req.Image,
		Analysis:          analysis,
		ProcessingTimeSec: elapsed.Seconds(),
	}
	if analysis.Detected {
		settings := s.engine.OptimizedSettings(analysis.MSTCategory)
		resp.Settings = &settings
	}

	s.publish(ctx, observer.Event{
		EventType:      observer.AnalysisCompleted,
		ImageRef:       req.Image,
		Category:       analysis.MSTCategory.ID,
		Detected:       analysis.Detected,
		Confidence:     analysis.Confidence,
		ProcessingTime: elapsed,
		Success:        true,
	})
	return resp, nil
}

// AnalyzeBatch analyzes every image with bounded concurrency. A failing
// item does not stop the others; results keep request order.
func (s *realToneService) AnalyzeBatch(ctx context.Context, req models.BatchAnalyzeRequest) *models.BatchAnalyzeResponse {
	start := time.Now()
	results := make([]models.BatchAnalyzeItem, len(req.Images))

	var g errgroup.Group
	g.SetLimit(s.opts.BatchConcurrency)
	for i, item := range req.Images {
		g.Go(func() error {
			results[i].Image = item.Image
			resp, err := s.Analyze(ctx, item)
			if err != nil {
				errResp := models.NewErrorResponse(err)
				results[i].Error = &errResp
				return nil
			}
			results[i].Result = resp
			return nil
		})
	}
	_ = g.Wait()

	out := &models.BatchAnalyzeResponse{
		Results:           results,
		ProcessingTimeSec: time.Since(start).Seconds(),
	}
	for _, r := range results {
		if r.Error != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}
	return out
}

// Enhance runs the engine's enhancement. Collaborator failures come back in
// the response with the original image; only bad input is an error.
func (s *realToneService) Enhance(ctx context.Context, req models.EnhanceRequest) (*models.EnhanceResponse, error) {
	if err := s.validator.ValidateReference(req.Image); err != nil {
		return nil, err
	}

	var category *realtone.MSTCategory
	if req.MSTCategory != nil {
		c, ok := realtone.CategoryByID(*req.MSTCategory)
		if !ok {
			return nil, apperrors.NewValidationError("mst_category must be between 1 and 10", nil)
		}
		category = &c
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.AnalysisTimeout)
	defer cancel()

	result := s.engine.Enhance(ctx, req.Image, category)
	resp := &models.EnhanceResponse{
		Image:       result.ImageRef,
		Applied:     result.Applied,
		MSTCategory: result.Category,
		Settings:    result.Settings,
	}

	event := observer.Event{
		EventType: observer.EnhancementApplied,
		ImageRef:  req.Image,
		Success:   result.Applied,
	}
	if result.Category != nil {
		event.Category = result.Category.ID
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
		event.ErrorMessage = resp.Error
	}
	if !result.Applied {
		event.EventType = observer.EnhancementSkipped
	}
	s.publish(ctx, event)
	return resp, nil
}

func (s *realToneService) GetConfig() realtone.ProcessorConfig {
	return s.engine.Config()
}

func (s *realToneService) UpdateConfig(ctx context.Context, update realtone.ConfigUpdate) realtone.ProcessorConfig {
	if update.IsEmpty() {
		return s.engine.Config()
	}
	cfg := s.engine.UpdateConfig(update)
	s.publish(ctx, observer.Event{EventType: observer.ConfigChanged, Success: true})
	return cfg
}

func (s *realToneService) SetEnabled(ctx context.Context, enabled bool) realtone.ProcessorConfig {
	s.engine.SetEnabled(enabled)
	s.publish(ctx, observer.Event{
		EventType: observer.ConfigChanged,
		Success:   true,
		Metadata:  map[string]interface{}{"enabled": enabled},
	})
	return s.engine.Config()
}

// LegacySettings answers with the legacy processor's scalar tiers
func (s *realToneService) LegacySettings(req models.LegacySettingsRequest) (*models.LegacySettingsResponse, error) {
	if req.SkinTone == nil {
		return nil, apperrors.NewValidationError("skin_tone is required", nil)
	}
	resp := &models.LegacySettingsResponse{
		RecommendedSettings: s.legacy.RecommendedSettings(*req.SkinTone),
	}
	if req.FaceRegion != nil {
		ev := s.legacy.CalculateExposureCompensation(*req.SkinTone, req.FaceRegion)
		resp.FaceAdjustedExposure = &ev
	}
	return resp, nil
}

func (s *realToneService) Metrics() observer.Metrics {
	if s.metrics == nil {
		return observer.Metrics{CategoryCounts: map[int]int64{}}
	}
	return s.metrics.GetMetrics()
}

func (s *realToneService) DetectorName() string {
	return s.opts.DetectorName
}

func (s *realToneService) publish(ctx context.Context, event observer.Event) {
	if s.publisher == nil {
		return
	}
	s.publisher.NotifyObservers(ctx, event)
}

// classifyError maps detector errors onto AppErrors
func classifyError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.NewTimeoutError("skin tone analysis timed out", err)
	}
	return apperrors.NewProcessingError("skin tone analysis failed", err)
}
