package factory

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"go-realtone/internal/analyzer"
	"go-realtone/internal/config"
	"go-realtone/internal/realtone"
	"go-realtone/internal/repository"
	"go-realtone/internal/storage"
	"go-realtone/internal/strategy"
	"go-realtone/pkg/validation"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// storageSchemes lists the reference schemes each backend serves
var storageSchemes = map[StorageType][]string{
	HTTPStorage:  {"http", "https"},
	AzureStorage: {"azblob"},
	LocalStorage: {"file"},
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
	CreateRepository(validator *validation.ReferenceValidator) (*repository.RoutingImageRepository, error)
}

// DetectorFactory creates skin tone detectors
type DetectorFactory interface {
	CreateDetector(repo repository.ImageRepository) (realtone.SkinToneDetector, error)
	CreateRegionStrategy() strategy.RegionStrategy
}

// ComponentFactory builds configured components from the service config
type ComponentFactory struct {
	cfg *config.Config
	log *logrus.Entry
}

var (
	_ StorageFactory  = (*ComponentFactory)(nil)
	_ DetectorFactory = (*ComponentFactory)(nil)
)

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config, log *logrus.Entry) *ComponentFactory {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ComponentFactory{cfg: cfg, log: log}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *ComponentFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout), nil
	case AzureStorage:
		if f.cfg.AzureStorageAccount == "" {
			return nil, fmt.Errorf("azure storage not configured")
		}
		return storage.NewAzureBlobFetcher(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey)
	case LocalStorage:
		if f.cfg.LocalImageRoot == "" {
			return nil, fmt.Errorf("local storage not configured")
		}
		return storage.NewLocalFileFetcher(f.cfg.LocalImageRoot)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// CreateRepository registers every configured backend. HTTP is always
// available; local and Azure stores only when their settings are present.
func (f *ComponentFactory) CreateRepository(validator *validation.ReferenceValidator) (*repository.RoutingImageRepository, error) {
	repo := repository.NewRoutingImageRepository(validator)

	types := []StorageType{HTTPStorage}
	if f.cfg.LocalImageRoot != "" {
		types = append(types, LocalStorage)
	}
	if f.cfg.AzureStorageAccount != "" {
		types = append(types, AzureStorage)
	}

	for _, t := range types {
		fetcher, err := f.CreateStorage(t)
		if err != nil {
			return nil, fmt.Errorf("create %s storage: %w", t, err)
		}
		repo.Register(fetcher, storageSchemes[t]...)
	}

	f.log.WithField("schemes", repo.Schemes()).Info("Image stores registered")
	return repo, nil
}

// CreateRegionStrategy picks where skin is sampled. The face strategy needs
// a pigo cascade; without a usable one it degrades to the center strategy.
func (f *ComponentFactory) CreateRegionStrategy() strategy.RegionStrategy {
	switch f.cfg.RegionStrategy {
	case strategy.NameFullFrame:
		return strategy.NewFullFrameStrategy()
	case strategy.NameCenter:
		return strategy.NewCenterStrategy()
	}

	finder, err := f.loadFaceFinder()
	if err != nil {
		f.log.WithError(err).Warn("Face detection unavailable, sampling the image center")
		return strategy.NewCenterStrategy()
	}
	return strategy.NewFaceStrategy(finder, strategy.NewCenterStrategy(), f.log)
}

func (f *ComponentFactory) loadFaceFinder() (*strategy.PigoFaceFinder, error) {
	if f.cfg.FaceCascadePath == "" {
		return nil, fmt.Errorf("FACE_CASCADE_PATH not set")
	}
	cascade, err := os.ReadFile(f.cfg.FaceCascadePath)
	if err != nil {
		return nil, fmt.Errorf("read face cascade: %w", err)
	}
	return strategy.NewPigoFaceFinder(cascade)
}

// CreateDetector builds the detector named by the config
func (f *ComponentFactory) CreateDetector(repo repository.ImageRepository) (realtone.SkinToneDetector, error) {
	switch f.cfg.Detector {
	case config.DetectorPlaceholder:
		return realtone.PlaceholderDetector{}, nil
	case config.DetectorPixel:
		if repo == nil {
			return nil, fmt.Errorf("pixel detector needs an image repository")
		}
		opts, err := f.SamplerOptions()
		if err != nil {
			return nil, err
		}
		return analyzer.NewPixelDetector(
			repo,
			f.CreateRegionStrategy(),
			analyzer.NewSkinSampler(opts),
			validation.NewQualityValidator(),
			f.log,
		), nil
	default:
		return nil, fmt.Errorf("unsupported detector type: %s", f.cfg.Detector)
	}
}

// SamplerOptions resolves the sampler preset and applies the overrides
func (f *ComponentFactory) SamplerOptions() (analyzer.SamplerOptions, error) {
	opts, err := analyzer.OptionsForProfile(f.cfg.SamplerProfile)
	if err != nil {
		return analyzer.SamplerOptions{}, err
	}
	if f.cfg.SamplerMaxDimension > 0 {
		opts = opts.WithMaxDimension(f.cfg.SamplerMaxDimension)
	}
	if f.cfg.SamplerWorkers > 0 {
		opts = opts.WithWorkers(f.cfg.SamplerWorkers)
	}
	if f.cfg.SamplerSkipSkinMask {
		opts = opts.WithoutSkinMask()
	}
	return opts, nil
}
