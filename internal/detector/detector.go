package detector

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/camsentry/backend/internal/camera"
	"github.com/camsentry/backend/internal/ws"
)

// Publisher receives one event per status transition. Satisfied by
// *ws.Broadcaster.
type Publisher interface {
	Publish(ev ws.StatusEvent)
}

// Detector owns the poll cadence: each tick enumerates devices,
// classifies, and publishes only when the classification changed since
// the last emission. Emission is edge-triggered, so clients see one
// message per transition no matter how fast the loop polls.
type Detector struct {
	enum     camera.Enumerator
	pub      Publisher
	interval time.Duration
	nudge    chan struct{}

	// last is owned by the Start goroutine and never touched elsewhere.
	last camera.Status

	// current mirrors last for diagnostics readers.
	current atomic.Int32
}

func New(enum camera.Enumerator, pub Publisher, interval time.Duration) *Detector {
	return &Detector{
		enum:     enum,
		pub:      pub,
		interval: interval,
		nudge:    make(chan struct{}, 1),
	}
}

// Status returns the most recently classified status for diagnostics.
// Unknown until the first tick completes.
func (d *Detector) Status() camera.Status {
	return camera.Status(d.current.Load())
}

// Nudge requests an immediate out-of-cycle tick, e.g. on a device
// hotplug event. Coalesces: a pending nudge absorbs further ones.
func (d *Detector) Nudge() {
	select {
	case d.nudge <- struct{}{}:
	default:
	}
}

// Start runs the poll loop until ctx is cancelled. Cancellation stops
// the loop without a final emission.
func (d *Detector) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	log.Printf("Detector started (poll interval %s)", d.interval)

	d.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Detector stopped")
			return
		case <-ticker.C:
			d.tick(ctx)
		case <-d.nudge:
			d.tick(ctx)
		}
	}
}

// tick performs one enumerate-classify-publish pass. Enumeration
// failures degrade to "zero devices observed" for this tick; they must
// never take the service down.
func (d *Detector) tick(ctx context.Context) {
	names, err := d.enum.Devices(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled mid-enumeration: no partial emission.
			return
		}
		log.Printf("device enumeration error: %v", err)
		names = nil
	}

	current := camera.Classify(names)
	if current == d.last {
		return
	}
	d.last = current
	d.current.Store(int32(current))

	log.Printf("camera status: %s (%d devices)", current, len(names))
	d.pub.Publish(ws.NewStatusEvent(current))
}
