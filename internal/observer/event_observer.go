package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Event is something that happened inside the Real-Tone service
type Event struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	ImageRef       string                 `json:"image,omitempty"`
	Category       int                    `json:"mst_category,omitempty"`
	Detected       bool                   `json:"detected"`
	Confidence     float64                `json:"confidence,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of event
type EventType string

const (
	// AnalysisStarted when skin tone analysis begins
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when analysis returns a result, detected or not
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when analysis returns an error
	AnalysisFailed EventType = "analysis_failed"
	// CategoryClassified when a bare color sample is classified
	CategoryClassified EventType = "category_classified"
	// EnhancementApplied when settings reached the applier
	EnhancementApplied EventType = "enhancement_applied"
	// EnhancementSkipped when enhancement degraded to the original image
	EnhancementSkipped EventType = "enhancement_skipped"
	// ConfigChanged when the processor configuration is updated
	ConfigChanged EventType = "config_changed"
	// CaptureReady when an auto-capture session reaches stable focus
	CaptureReady EventType = "capture_ready"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event Event)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event Event)
}

// LoggingObserver logs events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event Event) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if event.ImageRef != "" {
		fields["image"] = event.ImageRef
	}
	if event.Category != 0 {
		fields["mst_category"] = event.Category
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Debug("Skin tone analysis started")
	case AnalysisCompleted:
		entry.WithField("detected", event.Detected).Info("Skin tone analysis completed")
	case AnalysisFailed:
		entry.Error("Skin tone analysis failed")
	case CategoryClassified:
		entry.Debug("Color sample classified")
	case EnhancementApplied:
		entry.Info("Real-Tone settings applied")
	case EnhancementSkipped:
		entry.Warn("Real-Tone enhancement skipped")
	case ConfigChanged:
		entry.Info("Real-Tone configuration changed")
	case CaptureReady:
		entry.Info("Auto-capture ready")
	default:
		entry.Info("Real-Tone event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// Metrics is a point-in-time copy of MetricsObserver counters
type Metrics struct {
	TotalAnalyses       int64         `json:"total_analyses"`
	DetectedAnalyses    int64         `json:"detected_analyses"`
	UndetectedAnalyses  int64         `json:"undetected_analyses"`
	FailedAnalyses      int64         `json:"failed_analyses"`
	Classifications     int64         `json:"classifications"`
	EnhancementsApplied int64         `json:"enhancements_applied"`
	EnhancementsSkipped int64         `json:"enhancements_skipped"`
	ConfigChanges       int64         `json:"config_changes"`
	CapturesReady       int64         `json:"captures_ready"`
	CategoryCounts      map[int]int64 `json:"category_counts"`
	AvgProcessingTime   time.Duration `json:"avg_processing_time"`
}

// MetricsObserver collects counters from events
type MetricsObserver struct {
	mu                  sync.RWMutex
	metrics             Metrics
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		metrics: Metrics{CategoryCounts: make(map[int]int64)},
	}
}

// OnEvent handles events by updating counters
func (o *MetricsObserver) OnEvent(ctx context.Context, event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	m := &o.metrics
	switch event.EventType {
	case AnalysisStarted:
		m.TotalAnalyses++
	case AnalysisCompleted:
		if event.Detected {
			m.DetectedAnalyses++
			m.CategoryCounts[event.Category]++
		} else {
			m.UndetectedAnalyses++
		}
		o.totalProcessingTime += event.ProcessingTime
	case AnalysisFailed:
		m.FailedAnalyses++
	case CategoryClassified:
		m.Classifications++
		m.CategoryCounts[event.Category]++
	case EnhancementApplied:
		m.EnhancementsApplied++
	case EnhancementSkipped:
		m.EnhancementsSkipped++
	case ConfigChanged:
		m.ConfigChanges++
	case CaptureReady:
		m.CapturesReady++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := o.metrics
	out.CategoryCounts = make(map[int]int64, len(o.metrics.CategoryCounts))
	for k, v := range o.metrics.CategoryCounts {
		out.CategoryCounts[k] = v
	}
	if completed := o.metrics.DetectedAnalyses + o.metrics.UndetectedAnalyses; completed > 0 {
		out.AvgProcessingTime = o.totalProcessingTime / time.Duration(completed)
	}
	return out
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	inflight  sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Observers outlive the request
	ctx = context.WithoutCancel(ctx)
	for _, observer := range observers {
		p.inflight.Add(1)
		go func(obs Observer) {
			defer p.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Flush waits for in-flight notifications to finish
func (p *EventPublisher) Flush() {
	p.inflight.Wait()
}
