package mock

import (
	"context"
	"sync"
)

// scenario holds one scripted device population and how many poll
// ticks it lasts.
type scenario struct {
	names []string
	ticks int
}

// Enumerator feeds the detector a scripted plug/unplug sequence so the
// frontend and clients can be exercised without camera hardware. The
// script loops forever.
type Enumerator struct {
	mu     sync.Mutex
	script []scenario
	idx    int
	left   int
}

func NewEnumerator() *Enumerator {
	return &Enumerator{
		script: []scenario{
			{names: nil, ticks: 2},
			{names: []string{"HD WebCam: HD WebCam"}, ticks: 4},
			{names: []string{"HD WebCam: HD WebCam", "OBS Virtual Camera"}, ticks: 3},
			{names: []string{"OBS Virtual Camera"}, ticks: 4},
			{names: nil, ticks: 3},
		},
	}
}

func (e *Enumerator) Devices(context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.left == 0 {
		e.left = e.script[e.idx].ticks
	}
	names := e.script[e.idx].names
	e.left--
	if e.left == 0 {
		e.idx = (e.idx + 1) % len(e.script)
	}
	return append([]string(nil), names...), nil
}
