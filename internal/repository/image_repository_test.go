package repository

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go-realtone/internal/errors"
	"go-realtone/pkg/validation"
)

type recordingFetcher struct {
	refs []string
	err  error
}

func (f *recordingFetcher) FetchImage(ctx context.Context, imageRef string) (image.Image, error) {
	f.refs = append(f.refs, imageRef)
	if f.err != nil {
		return nil, f.err
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func TestRoutingImageRepository_RoutesByScheme(t *testing.T) {
	web := &recordingFetcher{}
	blob := &recordingFetcher{}
	local := &recordingFetcher{}

	repo := NewRoutingImageRepository(nil)
	repo.Register(web, "http", "https")
	repo.Register(blob, "azblob")
	repo.Register(local, "file")

	refs := []string{
		"https://example.com/a.jpg",
		"http://example.com/b.jpg",
		"azblob://captures/c.jpg",
		"file:///d.jpg",
		"e.jpg",
	}
	for _, ref := range refs {
		_, err := repo.FetchImage(context.Background(), ref)
		require.NoError(t, err, ref)
	}

	assert.Equal(t, []string{"https://example.com/a.jpg", "http://example.com/b.jpg"}, web.refs)
	assert.Equal(t, []string{"azblob://captures/c.jpg"}, blob.refs)
	assert.Equal(t, []string{"file:///d.jpg", "e.jpg"}, local.refs)
	assert.Equal(t, []string{"azblob", "file", "http", "https"}, repo.Schemes())
}

func TestRoutingImageRepository_InvalidReference(t *testing.T) {
	fetcher := &recordingFetcher{}
	repo := NewRoutingImageRepository(validation.NewReferenceValidatorWithOptions([]string{"https"}, nil))
	repo.Register(fetcher, "https", "file")

	_, err := repo.FetchImage(context.Background(), "local.jpg")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Empty(t, fetcher.refs)
}

func TestRoutingImageRepository_NoStore(t *testing.T) {
	repo := NewRoutingImageRepository(nil)
	repo.Register(&recordingFetcher{}, "https")

	_, err := repo.FetchImage(context.Background(), "azblob://captures/a.jpg")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnsupported))
	assert.True(t, errors.Is(err, ErrNoStore))
}

func TestRoutingImageRepository_FetchErrors(t *testing.T) {
	cause := errors.New("connection refused")
	repo := NewRoutingImageRepository(nil)
	repo.Register(&recordingFetcher{err: cause}, "https")

	_, err := repo.FetchImage(context.Background(), "https://example.com/a.jpg")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNetwork))
	assert.True(t, errors.Is(err, cause))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = repo.FetchImage(ctx, "https://example.com/a.jpg")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout))
}
