package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-realtone/internal/config"
	"go-realtone/internal/legacy"
	"go-realtone/internal/logger"
	"go-realtone/internal/observer"
	"go-realtone/internal/realtone"
	"go-realtone/internal/service"
	"go-realtone/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard)
}

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		ImageFetchTimeout:  time.Second,
		AnalysisTimeout:    time.Second,
		MaxRequestBodySize: 4096,
		BatchConcurrency:   2,
	}
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	log := logrus.NewEntry(logger.Logger)
	engine := realtone.NewEngine(
		realtone.WithLogger(log),
		realtone.WithApplier(realtone.LoggingApplier{Log: log}),
	)
	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(metrics)

	opts := service.DefaultOptions()
	opts.AnalysisTimeout = time.Second
	svc := service.NewRealToneService(engine, legacy.NewSkinToneProcessor(engine, log), nil, publisher, metrics, opts, log)
	return NewHandler(svc, testConfig())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)
	for _, path := range []string{"/health", "/v1/health"} {
		w := do(t, h, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.HealthResponse
		decode(t, w, &resp)
		assert.Equal(t, "available", resp.Status)
		assert.True(t, resp.Enabled)
		assert.Equal(t, "placeholder", resp.Detector)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestRequestIDPropagates(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestCategories(t *testing.T) {
	w := do(t, newTestHandler(t), http.MethodGet, "/v1/categories", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.CategoriesResponse
	decode(t, w, &resp)
	require.Len(t, resp.Categories, 10)
	assert.Equal(t, [3]uint8{250, 240, 230}, resp.Categories[0].Reference)
}

func TestClassify(t *testing.T) {
	h := newTestHandler(t)
	tests := []struct {
		name       string
		body       string
		wantID     int
		wantDist   bool
		wantStatus int
	}{
		{"exact reference", `{"r":90,"g":60,"b":40}`, 9, true, http.StatusOK},
		{"out of range", `{"r":300,"g":300,"b":300}`, 1, true, http.StatusOK},
		{"missing red", `{"g":10,"b":10}`, 5, false, http.StatusOK},
		{"missing blue", `{"r":10,"g":10}`, 5, false, http.StatusOK},
		{"malformed", `{"r":`, 0, false, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/v1/classify", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp models.ClassifyResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.wantID, resp.MSTCategory.ID)
			assert.Equal(t, tt.wantDist, resp.Distance != nil)
		})
	}
}

func TestCategoryDerivationsAndSettings(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/v1/categories/10/derivations", "")
	require.Equal(t, http.StatusOK, w.Code)
	var d models.DerivationsResponse
	decode(t, w, &d)
	assert.InDelta(t, 0.6, d.ExposureCompensation, 1e-9)
	assert.InDelta(t, 0.3*1.5, d.ToneMapping.ShadowBoost, 1e-9)

	w = do(t, h, http.MethodGet, "/v1/categories/8/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var s realtone.SettingsBundle
	decode(t, w, &s)
	assert.Equal(t, 400, s.ISO)
	assert.True(t, s.HDR)
	assert.Equal(t, "Dark", s.RealTone.CategoryName)

	w = do(t, h, http.MethodGet, "/v1/categories/0/settings", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/v1/categories/abc/derivations", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var e models.ErrorResponse
	decode(t, w, &e)
	assert.Equal(t, "validation", e.Error)
	assert.NotEmpty(t, e.RequestID)
}

func TestAnalyze(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/v1/analyze", `{"image":"https://example.com/a.jpg","region":{"x":0,"y":0,"width":10,"height":10}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.AnalyzeResponse
	decode(t, w, &resp)
	assert.True(t, resp.Analysis.Detected)
	assert.Equal(t, 6, resp.Analysis.MSTCategory.ID)
	assert.Equal(t, 0.85, resp.Analysis.Confidence)
	require.NotNil(t, resp.Settings)

	w = do(t, h, http.MethodPost, "/v1/analyze", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/v1/analyze", `{"image":"ftp://example.com/a.jpg"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeBatch(t *testing.T) {
	h := newTestHandler(t)
	w := do(t, h, http.MethodPost, "/v1/analyze/batch", `{"images":[{"image":"https://example.com/a.jpg"},{"image":"ftp://x/b.jpg"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.BatchAnalyzeResponse
	decode(t, w, &resp)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)

	w = do(t, h, http.MethodPost, "/v1/analyze/batch", `{"images":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnhance(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/v1/enhance", `{"image":"https://example.com/a.jpg","mst_category":9}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.EnhanceResponse
	decode(t, w, &resp)
	assert.True(t, resp.Applied)
	assert.Equal(t, "https://example.com/a.jpg", resp.Image)
	require.NotNil(t, resp.Settings)
	assert.InDelta(t, 0.5, resp.Settings.Exposure, 1e-9)

	w = do(t, h, http.MethodPost, "/v1/enhance", `{"image":"https://example.com/a.jpg","mst_category":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfigRoutes(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPatch, "/v1/config", `{"warmth_multiplier":1.3,"adaptive_exposure":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cfg realtone.ProcessorConfig
	decode(t, w, &cfg)
	assert.Equal(t, 1.3, cfg.WarmthMultiplier)
	assert.False(t, cfg.AdaptiveExposure)
	assert.True(t, cfg.Enabled)

	w = do(t, h, http.MethodPatch, "/v1/config", `{"warmth":1.3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPut, "/v1/config/enabled", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/v1/config", "")
	decode(t, w, &cfg)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1.3, cfg.WarmthMultiplier)

	w = do(t, h, http.MethodPut, "/v1/config/enabled", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/v1/categories/6/derivations", "")
	var d models.DerivationsResponse
	decode(t, w, &d)
	assert.Zero(t, d.ExposureCompensation, "adaptive exposure was switched off")
}

func TestLegacySettings(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/v1/legacy/settings", `{"skin_tone":120,"face_region":{"x":0,"y":0,"width":50,"height":50}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.LegacySettingsResponse
	decode(t, w, &resp)
	assert.Equal(t, 0.3, resp.Exposure)
	assert.Equal(t, 1.2, resp.Gamma)
	assert.Equal(t, 200, resp.ISO)
	assert.Equal(t, "auto", resp.WhiteBalance)
	require.NotNil(t, resp.FaceAdjustedExposure)
	assert.InDelta(t, 0.33, *resp.FaceAdjustedExposure, 1e-9)

	w = do(t, h, http.MethodPost, "/v1/legacy/settings", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCaptureRoutes(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/v1/capture/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var session models.CaptureSessionResponse
	decode(t, w, &session)
	require.NotEmpty(t, session.ID)

	frame := `{"faces":[{"bounds":{"origin":{"x":10,"y":10},"size":{"width":50,"height":50}}}]}`
	w = do(t, h, http.MethodPost, "/v1/capture/sessions/"+session.ID+"/frames", frame)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.CaptureFrameResponse
	decode(t, w, &resp)
	assert.Equal(t, 1, resp.Frame)
	assert.InDelta(t, 0.35, resp.FocusScore, 1e-9)
	assert.False(t, resp.Ready)

	w = do(t, h, http.MethodDelete, "/v1/capture/sessions/"+session.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodPost, "/v1/capture/sessions/"+session.ID+"/frames", frame)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsRoute(t *testing.T) {
	w := do(t, newTestHandler(t), http.MethodGet, "/v1/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	var m observer.Metrics
	decode(t, w, &m)
	assert.Zero(t, m.TotalAnalyses)
}

func TestRequestBodyTooLarge(t *testing.T) {
	h := newTestHandler(t)
	body := `{"image":"https://example.com/` + strings.Repeat("a", 5000) + `.jpg"}`

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
