package solve

import (
	"sync"
	"time"

	"github.com/pavelanni/studymate/internal/model"
)

// Capture is the stored payload of the most recent solve attempt. Keeping it
// lets a failed request be retried without re-photographing the problem.
type Capture struct {
	Request    model.SolveRequest
	CapturedAt time.Time
}

// CaptureCache is a one-entry cache with an overwrite-on-new-capture policy:
// each new capture replaces the previous one, and a successful retry clears it.
type CaptureCache struct {
	mu   sync.Mutex
	last *Capture
	now  func() time.Time
}

// NewCaptureCache creates an empty cache.
func NewCaptureCache() *CaptureCache {
	return &CaptureCache{now: time.Now}
}

// Put stores a capture, replacing any previous one.
func (c *CaptureCache) Put(req model.SolveRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = &Capture{Request: req, CapturedAt: c.now()}
}

// Last returns the most recent capture, if any.
func (c *CaptureCache) Last() (Capture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Capture{}, false
	}
	return *c.last, true
}

// Clear drops the stored capture.
func (c *CaptureCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = nil
}
