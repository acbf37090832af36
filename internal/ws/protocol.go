package ws

import (
	"time"

	"github.com/camsentry/backend/internal/camera"
)

// StatusEvent is the only message the service pushes to clients: one
// per camera status transition. The timestamp is RFC 3339 UTC.
//
// An older deployment variant wrapped this payload in a type/data
// envelope; that shape is deprecated and no longer emitted.
type StatusEvent struct {
	Status    camera.Status `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewStatusEvent stamps a status transition with the current time.
func NewStatusEvent(status camera.Status) StatusEvent {
	return StatusEvent{Status: status, Timestamp: time.Now().UTC()}
}
