package repository

import (
	"context"
	"fmt"
	"image"
	"sort"

	apperrors "go-realtone/internal/errors"
	"go-realtone/internal/storage"
	"go-realtone/pkg/validation"
)

// RoutingImageRepository dispatches each reference to the fetcher for its scheme
type RoutingImageRepository struct {
	validator *validation.ReferenceValidator
	fetchers  map[string]storage.ImageFetcher
}

// NewRoutingImageRepository creates a repository with no stores registered
func NewRoutingImageRepository(validator *validation.ReferenceValidator) *RoutingImageRepository {
	if validator == nil {
		validator = validation.NewReferenceValidator()
	}
	return &RoutingImageRepository{
		validator: validator,
		fetchers:  make(map[string]storage.ImageFetcher),
	}
}

// Register binds a fetcher to one or more schemes
func (r *RoutingImageRepository) Register(fetcher storage.ImageFetcher, schemes ...string) {
	for _, scheme := range schemes {
		r.fetchers[scheme] = fetcher
	}
}

// Schemes lists the schemes with a registered store, sorted
func (r *RoutingImageRepository) Schemes() []string {
	schemes := make([]string, 0, len(r.fetchers))
	for scheme := range r.fetchers {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// ValidateReference checks the reference against the validator
func (r *RoutingImageRepository) ValidateReference(imageRef string) error {
	return r.validator.ValidateReference(imageRef)
}

// FetchImage validates the reference and loads it from the matching store
func (r *RoutingImageRepository) FetchImage(ctx context.Context, imageRef string) (image.Image, error) {
	if err := r.ValidateReference(imageRef); err != nil {
		return nil, err
	}

	scheme := validation.Scheme(imageRef)
	fetcher, ok := r.fetchers[scheme]
	if !ok {
		return nil, apperrors.NewUnsupportedError("image storage not configured",
			fmt.Errorf("%w: %s", ErrNoStore, scheme)).WithDetails(scheme)
	}

	img, err := fetcher.FetchImage(ctx, imageRef)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewTimeoutError("image fetch cancelled", err)
		}
		return nil, apperrors.NewNetworkError("failed to fetch image", err)
	}
	return img, nil
}
