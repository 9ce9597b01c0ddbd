package legacy

import (
	"context"
	"io"
	"testing"

	"go-realtone/internal/realtone"

	"github.com/sirupsen/logrus"
)

func newTestProcessor() *SkinToneProcessor {
	l := logrus.New()
	l.SetOutput(io.Discard)
	entry := logrus.NewEntry(l)
	return NewSkinToneProcessor(realtone.NewEngine(realtone.WithLogger(entry)), entry)
}

func TestCalculateExposureCompensation(t *testing.T) {
	p := newTestProcessor()
	tests := []struct {
		tone     float64
		expected float64
	}{
		{80, 0.5},
		{120, 0.3},
		{180, 0.1},
		{220, 0},
		{99.9, 0.5},
		{100, 0.3},
		{150, 0.1},
		{200, 0},
	}
	for _, tt := range tests {
		if got := p.CalculateExposureCompensation(tt.tone, nil); got != tt.expected {
			t.Errorf("tone %v: expected %v, got %v", tt.tone, tt.expected, got)
		}
	}
}

func TestCalculateExposureCompensation_FaceRegion(t *testing.T) {
	p := newTestProcessor()
	face := &realtone.Region{X: 0, Y: 0, Width: 100, Height: 100}
	if got := p.CalculateExposureCompensation(80, face); got != 0.55 {
		t.Errorf("Expected 0.55 for a face region, got %v", got)
	}
	if got := p.CalculateExposureCompensation(220, face); got != 0 {
		t.Errorf("Expected 0 for light tone on a face region, got %v", got)
	}
}

func TestCalculateGammaAdjustment(t *testing.T) {
	p := newTestProcessor()
	cases := map[float64]float64{80: 1.3, 120: 1.2, 180: 1.1, 220: 1.0}
	for tone, expected := range cases {
		if got := p.CalculateGammaAdjustment(tone); got != expected {
			t.Errorf("tone %v: expected gamma %v, got %v", tone, expected, got)
		}
	}
}

func TestCalculateContrastAdjustment(t *testing.T) {
	p := newTestProcessor()
	if got := p.CalculateContrastAdjustment(120); got != 1.15 {
		t.Errorf("Expected 1.15 for dark tone, got %v", got)
	}
	if got := p.CalculateContrastAdjustment(180); got != 1.0 {
		t.Errorf("Expected 1.0 for light tone, got %v", got)
	}
}

func TestRecommendedSettings(t *testing.T) {
	p := newTestProcessor()

	dark := p.RecommendedSettings(80)
	want := RecommendedSettings{Exposure: 0.5, Gamma: 1.3, Contrast: 1.15, ISO: 400, WhiteBalance: "auto", HDR: true}
	if dark != want {
		t.Errorf("Expected %+v, got %+v", want, dark)
	}

	medium := p.RecommendedSettings(180)
	want = RecommendedSettings{Exposure: 0.1, Gamma: 1.1, Contrast: 1.0, ISO: 200, WhiteBalance: "auto", HDR: true}
	if medium != want {
		t.Errorf("Expected %+v, got %+v", want, medium)
	}
}

func TestTiersDivergeFromMonkScale(t *testing.T) {
	// A tone of 120 sits in the legacy "dark" tier (0.3 EV) while the Monk
	// scale's Dark category asks for 0.4 EV.
	p := newTestProcessor()
	if p.CalculateExposureCompensation(120, nil) == realtone.DeriveExposure(realtone.DefaultConfig(), 8) {
		t.Error("Expected legacy and Monk scale exposure to differ")
	}
}

func TestDetectSkinTones(t *testing.T) {
	p := newTestProcessor()
	regions, err := p.DetectSkinTones(context.Background(), "test.jpg")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if regions == nil || len(regions) != 0 {
		t.Errorf("Expected empty slice, got %#v", regions)
	}
}

func TestEnhanceImage(t *testing.T) {
	p := newTestProcessor()
	uri := "file:///test/image.jpg"
	if got := p.EnhanceImage(context.Background(), uri); got != uri {
		t.Errorf("Expected %q, got %q", uri, got)
	}
	if got := p.EnhanceImage(context.Background(), ""); got != "" {
		t.Errorf("Expected empty reference back, got %q", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := newTestProcessor().Config()
	if cfg.ExposureBoost != 0.3 || cfg.LocalContrast != 1.2 || cfg.Warmth != 1.1 || cfg.ShadowLift != 0.25 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}
