package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-realtone/internal/autocapture"
	apperrors "go-realtone/internal/errors"
	"go-realtone/internal/observer"
	"go-realtone/pkg/models"
)

type captureSession struct {
	id        string
	detector  *autocapture.Detector
	lastFaces []autocapture.Face
	frames    int
	createdAt time.Time
	lastSeen  time.Time
}

// captureSessions holds auto-capture state per client. Sessions idle for
// longer than ttl are dropped on the next create.
type captureSessions struct {
	mu       sync.Mutex
	sessions map[string]*captureSession
	ttl      time.Duration
	now      func() time.Time
}

func newCaptureSessions(ttl time.Duration, now func() time.Time) *captureSessions {
	return &captureSessions{
		sessions: make(map[string]*captureSession),
		ttl:      ttl,
		now:      now,
	}
}

func (c *captureSessions) create() *captureSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.evictLocked(now)
	session := &captureSession{
		id:        uuid.NewString(),
		detector:  autocapture.NewDetector(),
		createdAt: now,
		lastSeen:  now,
	}
	c.sessions[session.id] = session
	return session
}

func (c *captureSessions) evictLocked(now time.Time) {
	if c.ttl <= 0 {
		return
	}
	for id, s := range c.sessions {
		if now.Sub(s.lastSeen) > c.ttl {
			delete(c.sessions, id)
		}
	}
}

func (c *captureSessions) delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sessions[id]
	delete(c.sessions, id)
	return ok
}

func (c *captureSessions) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// CreateCaptureSession starts a new auto-capture session
func (s *realToneService) CreateCaptureSession(ctx context.Context) models.CaptureSessionResponse {
	session := s.sessions.create()
	s.log.WithField("session_id", session.id).Debug("Capture session created")
	return models.CaptureSessionResponse{
		ID:              session.id,
		FocusThreshold:  autocapture.DefaultFocusThreshold,
		StabilityFrames: autocapture.DefaultStabilityFrames,
		CreatedAt:       session.createdAt.UTC(),
	}
}

// ProcessCaptureFrame scores one preview frame. Stability is checked against
// previous_faces when supplied, otherwise against the session's last frame.
// Ready requires both sustained focus and stability.
func (s *realToneService) ProcessCaptureFrame(ctx context.Context, sessionID string, req models.CaptureFrameRequest) (*models.CaptureFrameResponse, error) {
	s.sessions.mu.Lock()
	session, ok := s.sessions.sessions[sessionID]
	if !ok {
		s.sessions.mu.Unlock()
		return nil, apperrors.NewNotFoundError("capture session not found", nil).WithDetails(sessionID)
	}

	previous := req.PreviousFaces
	if previous == nil {
		previous = session.lastFaces
	}
	stable := session.frames > 0 || req.PreviousFaces != nil
	stable = stable && autocapture.CheckStability(req.Faces, previous)

	score := autocapture.CalculateFocusScore(req.Faces)
	inFocus := session.detector.CheckFocus(req.Faces)

	session.frames++
	session.lastFaces = req.Faces
	session.lastSeen = s.sessions.now()
	frame := session.frames
	history := session.detector.History()
	s.sessions.mu.Unlock()

	resp := &models.CaptureFrameResponse{
		SessionID:  sessionID,
		Frame:      frame,
		FocusScore: score,
		InFocus:    inFocus,
		Stable:     stable,
		Ready:      inFocus && stable,
		History:    history,
	}
	if resp.Ready {
		s.publish(ctx, observer.Event{
			EventType: observer.CaptureReady,
			Success:   true,
			Metadata:  map[string]interface{}{"session_id": sessionID, "frame": frame},
		})
	}
	return resp, nil
}

// DeleteCaptureSession ends a session
func (s *realToneService) DeleteCaptureSession(sessionID string) error {
	if !s.sessions.delete(sessionID) {
		return apperrors.NewNotFoundError("capture session not found", nil).WithDetails(sessionID)
	}
	return nil
}
