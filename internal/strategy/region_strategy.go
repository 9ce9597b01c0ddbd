package strategy

import (
	"context"
	"image"
)

// Strategy names accepted by the factory and REGION_STRATEGY
const (
	NameFullFrame = "full"
	NameCenter    = "center"
	NameFace      = "face"
)

// RegionStrategy picks the part of an image to sample for skin tone
type RegionStrategy interface {
	SelectRegion(ctx context.Context, img image.Image) image.Rectangle
	GetStrategyName() string
}

// FullFrameStrategy samples the whole image
type FullFrameStrategy struct{}

// NewFullFrameStrategy creates a full-frame strategy
func NewFullFrameStrategy() RegionStrategy {
	return FullFrameStrategy{}
}

// SelectRegion returns the image bounds
func (FullFrameStrategy) SelectRegion(ctx context.Context, img image.Image) image.Rectangle {
	return img.Bounds()
}

// GetStrategyName returns the strategy name
func (FullFrameStrategy) GetStrategyName() string {
	return NameFullFrame
}

// CenterStrategy samples the central box covering half of each dimension,
// where a portrait subject usually sits.
type CenterStrategy struct{}

// NewCenterStrategy creates a center strategy
func NewCenterStrategy() RegionStrategy {
	return CenterStrategy{}
}

// SelectRegion returns the central box
func (CenterStrategy) SelectRegion(ctx context.Context, img image.Image) image.Rectangle {
	return centerBox(img.Bounds())
}

// GetStrategyName returns the strategy name
func (CenterStrategy) GetStrategyName() string {
	return NameCenter
}

func centerBox(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		return b
	}
	x0 := b.Min.X + w/4
	y0 := b.Min.Y + h/4
	return image.Rect(x0, y0, x0+w/2, y0+h/2)
}

// RegionContext holds the active strategy and clips its choice to the image
type RegionContext struct {
	strategy RegionStrategy
}

// NewRegionContext creates a new region context
func NewRegionContext(strategy RegionStrategy) *RegionContext {
	return &RegionContext{
		strategy: strategy,
	}
}

// SelectRegion delegates to the current strategy and clips to the image
func (c *RegionContext) SelectRegion(ctx context.Context, img image.Image) image.Rectangle {
	return c.strategy.SelectRegion(ctx, img).Intersect(img.Bounds())
}

// GetCurrentStrategy returns the current strategy name
func (c *RegionContext) GetCurrentStrategy() string {
	return c.strategy.GetStrategyName()
}
