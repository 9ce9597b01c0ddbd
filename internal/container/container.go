package container

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"go-realtone/internal/config"
	"go-realtone/internal/factory"
	"go-realtone/internal/legacy"
	"go-realtone/internal/logger"
	"go-realtone/internal/observer"
	"go-realtone/internal/realtone"
	"go-realtone/internal/service"
	"go-realtone/internal/transport"
	"go-realtone/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config    *config.Config
	engine    *realtone.Engine
	publisher *observer.EventPublisher
	service   service.RealToneService
	handler   http.Handler
}

// NewContainer builds the dependency graph from cfg
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger.Logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	log := logger.Component("realtone")

	opts := []realtone.Option{
		realtone.WithLogger(log),
		realtone.WithApplier(realtone.LoggingApplier{Log: logger.Component("applier")}),
	}

	if cfg.ProfilePath != "" {
		profile, err := config.LoadProfile(cfg.ProfilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		opts = append(opts, realtone.WithConfig(profile))
		log.WithField("profile", cfg.ProfilePath).Info("Real-Tone profile loaded")
	}

	validator := validation.NewReferenceValidatorWithOptions(cfg.AllowedSchemes, cfg.AllowedHosts)
	components := factory.NewComponentFactory(cfg, logger.Component("factory"))

	repo, err := components.CreateRepository(validator)
	if err != nil {
		return nil, fmt.Errorf("failed to create image repository: %w", err)
	}
	detector, err := components.CreateDetector(repo)
	if err != nil {
		return nil, fmt.Errorf("failed to create detector: %w", err)
	}
	opts = append(opts, realtone.WithDetector(detector))

	engine := realtone.NewEngine(opts...)

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	svc := service.NewRealToneService(
		engine,
		legacy.NewSkinToneProcessor(engine, logger.Component("legacy")),
		validator,
		publisher,
		metrics,
		service.Options{
			AnalysisTimeout:   cfg.AnalysisTimeout,
			BatchConcurrency:  cfg.BatchConcurrency,
			CaptureSessionTTL: cfg.CaptureSessionTTL,
			DetectorName:      cfg.Detector,
		},
		logger.Component("service"),
	)

	log.WithFields(logrus.Fields{
		"detector": cfg.Detector,
		"regions":  cfg.RegionStrategy,
		"enabled":  engine.Config().Enabled,
	}).Info("Real-Tone engine ready")

	return &Container{
		config:    cfg,
		engine:    engine,
		publisher: publisher,
		service:   svc,
		handler:   transport.NewHandler(svc, cfg),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Engine returns the Real-Tone engine
func (c *Container) Engine() *realtone.Engine {
	return c.engine
}

// Service returns the service layer
func (c *Container) Service() service.RealToneService {
	return c.service
}

// Shutdown waits for pending event notifications
func (c *Container) Shutdown() {
	c.publisher.Flush()
}
