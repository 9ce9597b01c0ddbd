package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-realtone/internal/config"
	apperrors "go-realtone/internal/errors"
	"go-realtone/internal/logger"
	"go-realtone/internal/realtone"
	"go-realtone/internal/service"
	"go-realtone/pkg/models"
)

const (
	serviceName    = "go-realtone"
	serviceVersion = "1.0.0"
)

type handler struct {
	svc service.RealToneService
	cfg *config.Config
}

func NewHandler(svc service.RealToneService, cfg *config.Config) http.Handler {
	h := &handler{svc: svc, cfg: cfg}

	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		requestTimeout(cfg.RequestTimeout),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", h.healthCheck)

	v1 := r.Group("/v1")
	{
		v1.GET("/health", h.healthCheck)

		v1.GET("/categories", h.listCategories)
		v1.GET("/categories/:id/derivations", h.categoryDerivations)
		v1.GET("/categories/:id/settings", h.categorySettings)
		v1.POST("/classify", h.classify)

		v1.POST("/analyze", h.analyze)
		v1.POST("/analyze/batch", h.analyzeBatch)
		v1.POST("/enhance", h.enhance)

		v1.GET("/config", h.getConfig)
		v1.PATCH("/config", h.updateConfig)
		v1.PUT("/config/enabled", h.setEnabled)

		v1.POST("/legacy/settings", h.legacySettings)

		v1.POST("/capture/sessions", h.createCaptureSession)
		v1.POST("/capture/sessions/:id/frames", h.captureFrame)
		v1.DELETE("/capture/sessions/:id", h.deleteCaptureSession)

		v1.GET("/metrics", h.metrics)
	}

	return r
}

func (h *handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "available",
		Service:   serviceName,
		Version:   serviceVersion,
		Enabled:   h.svc.GetConfig().Enabled,
		Detector:  h.svc.DetectorName(),
		Timestamp: time.Now().UTC(),
	})
}

func (h *handler) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, models.CategoriesResponse{Categories: h.svc.Categories()})
}

func (h *handler) categoryDerivations(c *gin.Context) {
	id, ok := categoryParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.svc.Derivations(id))
}

func (h *handler) categorySettings(c *gin.Context) {
	id, ok := categoryParam(c)
	if !ok {
		return
	}
	settings, err := h.svc.Settings(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *handler) classify(c *gin.Context) {
	var req models.ClassifyRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.svc.Classify(c.Request.Context(), req))
}

func (h *handler) analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.Analyze(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.WithFields(logrus.Fields{
		"image":              req.Image,
		"detected":           resp.Analysis.Detected,
		"mst_category":       resp.Analysis.MSTCategory.ID,
		"confidence":         resp.Analysis.Confidence,
		"processing_time_ms": int64(resp.ProcessingTimeSec * 1000),
		"request_id":         c.GetString(requestIDKey),
	}).Info("Skin tone analysis completed")

	c.JSON(http.StatusOK, resp)
}

func (h *handler) analyzeBatch(c *gin.Context) {
	var req models.BatchAnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.svc.AnalyzeBatch(c.Request.Context(), req))
}

func (h *handler) enhance(c *gin.Context) {
	var req models.EnhanceRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Enhance(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.GetConfig())
}

func (h *handler) updateConfig(c *gin.Context) {
	var update realtone.ConfigUpdate
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&update); err != nil {
		respondError(c, bindError(err))
		return
	}
	c.JSON(http.StatusOK, h.svc.UpdateConfig(c.Request.Context(), update))
}

func (h *handler) setEnabled(c *gin.Context) {
	var req models.SetEnabledRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.svc.SetEnabled(c.Request.Context(), *req.Enabled))
}

func (h *handler) legacySettings(c *gin.Context) {
	var req models.LegacySettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.LegacySettings(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) createCaptureSession(c *gin.Context) {
	c.JSON(http.StatusCreated, h.svc.CreateCaptureSession(c.Request.Context()))
}

func (h *handler) captureFrame(c *gin.Context) {
	var req models.CaptureFrameRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.ProcessCaptureFrame(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) deleteCaptureSession(c *gin.Context) {
	if err := h.svc.DeleteCaptureSession(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Metrics())
}

func categoryParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.NewValidationError("category id must be an integer", err).WithDetails(c.Param("id")))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &apperrors.AppError{
			Type:       apperrors.ErrorTypeValidation,
			Message:    "request body too large",
			StatusCode: http.StatusRequestEntityTooLarge,
			Cause:      err,
		}
	}
	return apperrors.NewValidationError("invalid request format", err)
}

// Middleware and helper functions
const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
			"request_id":  c.GetString(requestIDKey),
		}).Debug("Request handled")
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			respondError(c, determineError(c.Errors.Last().Err))
		}
	}
}

func determineError(err error) error {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	// Fallback to context-based errors
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.NewTimeoutError("request timed out", err)
	}
	return apperrors.NewInternalError("request processing failed", err)
}

func respondError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)
	resp := models.NewErrorResponse(err)
	resp.RequestID = c.GetString(requestIDKey)

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
		"request_id":  resp.RequestID,
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, resp)
}
