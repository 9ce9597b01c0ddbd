package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-realtone/internal/realtone"
)

func writePNG(t *testing.T, c color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "sample.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestClassifyImage(t *testing.T) {
	engine := realtone.NewEngine()

	tan := writePNG(t, color.NRGBA{R: 175, G: 140, B: 110, A: 255})
	assert.NoError(t, classifyImage(engine, tan))

	blue := writePNG(t, color.NRGBA{R: 30, G: 60, B: 200, A: 255})
	err := classifyImage(engine, blue)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no skin tone detected")

	assert.Error(t, classifyImage(engine, filepath.Join(t.TempDir(), "missing.png")))
}

func TestClassifyImage_UnknownRegion(t *testing.T) {
	fRegion = "eyes"
	defer func() { fRegion = "center" }()

	path := writePNG(t, color.NRGBA{R: 175, G: 140, B: 110, A: 255})
	assert.Error(t, classifyImage(realtone.NewEngine(), path))
}
