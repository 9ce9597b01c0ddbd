package storage

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ImageFetcher loads and decodes the image behind a reference.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageRef string) (image.Image, error)
}

// decodeImage honours EXIF orientation so caller-supplied regions line up
// with the image as displayed on the device.
func decodeImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
