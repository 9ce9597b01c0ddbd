package repository

import (
	"context"
	"image"
)

// ImageRepository resolves image references to decoded images
type ImageRepository interface {
	// FetchImage validates the reference and loads it from the matching store
	FetchImage(ctx context.Context, imageRef string) (image.Image, error)

	// ValidateReference reports whether the reference is acceptable
	ValidateReference(imageRef string) error

	// Schemes lists the schemes with a registered store
	Schemes() []string
}
