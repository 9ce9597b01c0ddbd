package realtone

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type stubDetector struct {
	analysis *SkinToneAnalysis
	err      error
	calls    int
}

func (s *stubDetector) DetectSkinTone(ctx context.Context, imageRef string, region *Region) (*SkinToneAnalysis, error) {
	s.calls++
	return s.analysis, s.err
}

type stubApplier struct {
	out      string
	err      error
	panicMsg string
	got      *SettingsBundle
}

func (s *stubApplier) Apply(ctx context.Context, imageRef string, settings SettingsBundle) (string, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	s.got = &settings
	return s.out, s.err
}

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	assert.Equal(t, DefaultConfig(), e.Config())
}

func TestNewEngineWithConfig(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()), WithConfig(ConfigUpdate{
		Enabled:    Bool(false),
		ShadowLift: Float(0.5),
	}))

	cfg := e.Config()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 0.5, cfg.ShadowLift)
	assert.True(t, cfg.AdaptiveExposure)
	assert.Equal(t, 0.2, cfg.HighlightProtection)
}

func TestNewEngineWithConfigKeepsExplicitZero(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()), WithConfig(ConfigUpdate{ShadowLift: Float(0)}))

	assert.Zero(t, e.Config().ShadowLift)
	assert.Zero(t, e.LocalToneMapping(10).ShadowBoost)
	assert.Equal(t, 0.2, e.Config().HighlightProtection, "absent fields keep their defaults")
}

func TestEngineConfigIsSnapshot(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	cfg := e.Config()
	cfg.ShadowLift = 9
	cfg.Enabled = false

	assert.Equal(t, 0.3, e.Config().ShadowLift)
	assert.True(t, e.Config().Enabled)
}

func TestEngineUpdateConfigPartial(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	before := e.Config()

	after := e.UpdateConfig(ConfigUpdate{ShadowLift: Float(0.45)})

	assert.Equal(t, 0.45, after.ShadowLift)
	expected := before
	expected.ShadowLift = 0.45
	assert.Equal(t, expected, e.Config())
}

func TestEngineSetEnabled(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	e.SetEnabled(false)
	assert.False(t, e.Config().Enabled)
	e.SetEnabled(true)
	assert.True(t, e.Config().Enabled)
}

func TestEngineDerivationsFollowConfig(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	assert.Equal(t, 0.6, e.ExposureCompensation(10))

	e.UpdateConfig(ConfigUpdate{AdaptiveExposure: Bool(false)})
	assert.Equal(t, 0.0, e.ExposureCompensation(10))

	e.UpdateConfig(ConfigUpdate{EnhancedWhiteBalance: Bool(false)})
	assert.Equal(t, WhiteBalance{}, e.WhiteBalance(7))

	e.UpdateConfig(ConfigUpdate{LocalToneMapping: Bool(false)})
	assert.Equal(t, ToneMapping{}, e.LocalToneMapping(7))
}

func TestEngineOptimizedSettingsUsesClock(t *testing.T) {
	at := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	e := NewEngine(WithLogger(quietLogger()), WithClock(func() time.Time { return at }))

	s := e.OptimizedSettings(Scale[5])
	assert.Equal(t, at, s.RealTone.Timestamp)
	assert.Equal(t, 6, s.RealTone.MSTCategory)
	assert.Equal(t, "Tan", s.RealTone.CategoryName)

	assert.Equal(t, 400, e.OptimizedSettings(Scale[7]).ISO)
	assert.Equal(t, 200, e.OptimizedSettings(Scale[1]).ISO)
}

func TestEngineAnalyzeSkinToneWithPlaceholder(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	region := &Region{X: 0, Y: 0, Width: 100, Height: 100}

	a, err := e.AnalyzeSkinTone(context.Background(), "test://image.jpg", region)
	require.NoError(t, err)
	assert.True(t, a.Detected)
	assert.Equal(t, 6, a.MSTCategory.ID)
	assert.Greater(t, a.Confidence, 0.0)
	assert.LessOrEqual(t, a.Confidence, 1.0)
	assert.Equal(t, region, a.Region)
}

func TestEnhanceImageDisabledIsNoop(t *testing.T) {
	det := &stubDetector{err: errors.New("should not be called")}
	app := &stubApplier{out: "derived://image"}
	e := NewEngine(WithLogger(quietLogger()), WithDetector(det), WithApplier(app))
	e.SetEnabled(false)

	got := e.EnhanceImage(context.Background(), "test://image.jpg", nil)

	assert.Equal(t, "test://image.jpg", got)
	assert.Zero(t, det.calls)
	assert.Nil(t, app.got)
}

func TestEnhanceImageWithoutApplierReturnsOriginal(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))

	res := e.Enhance(context.Background(), "test://image.jpg", nil)

	assert.Equal(t, "test://image.jpg", res.ImageRef)
	assert.False(t, res.Applied)
	assert.NoError(t, res.Err)
	require.NotNil(t, res.Settings)
	assert.Equal(t, 6, res.Settings.RealTone.MSTCategory)
}

func TestEnhanceImageUsesPrecomputedCategory(t *testing.T) {
	det := &stubDetector{}
	app := &stubApplier{out: "derived://image"}
	e := NewEngine(WithLogger(quietLogger()), WithDetector(det), WithApplier(app))

	dark := Scale[7]
	got := e.EnhanceImage(context.Background(), "test://image.jpg", &dark)

	assert.Equal(t, "derived://image", got)
	assert.Zero(t, det.calls)
	require.NotNil(t, app.got)
	assert.Equal(t, 0.4, app.got.Exposure)
	assert.Equal(t, 400, app.got.ISO)
}

func TestEnhanceImageAnalyzesWhenNoCategory(t *testing.T) {
	det := &stubDetector{analysis: &SkinToneAnalysis{Detected: true, MSTCategory: Scale[8], Confidence: 0.7}}
	app := &stubApplier{}
	e := NewEngine(WithLogger(quietLogger()), WithDetector(det), WithApplier(app))

	res := e.Enhance(context.Background(), "test://image.jpg", nil)

	assert.Equal(t, 1, det.calls)
	assert.True(t, res.Applied)
	assert.Equal(t, "test://image.jpg", res.ImageRef, "empty applier output keeps the original")
	assert.Equal(t, 9, res.Category.ID)
}

func TestEnhanceImageDegradesOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		detector *stubDetector
		applier  *stubApplier
	}{
		{"detector error", &stubDetector{err: errors.New("decode failed")}, &stubApplier{out: "x"}},
		{"applier error", &stubDetector{analysis: &SkinToneAnalysis{MSTCategory: Scale[2]}}, &stubApplier{out: "x", err: errors.New("disk full")}},
		{"applier panic", &stubDetector{analysis: &SkinToneAnalysis{MSTCategory: Scale[2]}}, &stubApplier{panicMsg: "nil image"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(WithLogger(quietLogger()), WithDetector(tt.detector), WithApplier(tt.applier))

			res := e.Enhance(context.Background(), "test://image.jpg", nil)

			assert.Equal(t, "test://image.jpg", res.ImageRef)
			assert.False(t, res.Applied)
			assert.Error(t, res.Err)
			assert.Equal(t, "test://image.jpg", e.EnhanceImage(context.Background(), "test://image.jpg", nil))
		})
	}
}

func TestLoggingApplierReturnsReference(t *testing.T) {
	out, err := LoggingApplier{Log: quietLogger()}.Apply(context.Background(), "file:///a.jpg", SettingsBundle{})
	assert.NoError(t, err)
	assert.Equal(t, "file:///a.jpg", out)
}

func TestEngineConcurrentAccess(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			e.UpdateConfig(ConfigUpdate{ShadowLift: Float(float64(i) / 10)})
		}(i)
		go func() {
			defer wg.Done()
			_ = e.OptimizedSettings(Scale[9])
		}()
	}
	wg.Wait()
	assert.True(t, e.Config().Enabled)
}
