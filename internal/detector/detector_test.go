package detector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/camsentry/backend/internal/camera"
	"github.com/camsentry/backend/internal/ws"
)

type enumFunc func(ctx context.Context) ([]string, error)

func (f enumFunc) Devices(ctx context.Context) ([]string, error) { return f(ctx) }

// scriptedEnum returns each listed result once, then repeats the last
// one forever.
type scriptedEnum struct {
	mu    sync.Mutex
	steps [][]string
	errs  []error
	idx   int
}

func (s *scriptedEnum) Devices(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.idx
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	} else {
		s.idx++
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.steps[i], err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ws.StatusEvent
}

func (p *recordingPublisher) Publish(ev ws.StatusEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) snapshot() []ws.StatusEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ws.StatusEvent(nil), p.events...)
}

func assertStatuses(t *testing.T, events []ws.StatusEvent, want ...camera.Status) {
	t.Helper()
	if len(events) != len(want) {
		t.Fatalf("expected %d emissions, got %d: %v", len(want), len(events), events)
	}
	for i, w := range want {
		if events[i].Status != w {
			t.Errorf("event[%d].Status = %s, want %s", i, events[i].Status, w)
		}
	}
}

func TestDetectorEdgeTriggered(t *testing.T) {
	enum := &scriptedEnum{steps: [][]string{
		{"HD WebCam"},
		{"HD WebCam"},
		{},
	}}
	pub := &recordingPublisher{}
	d := New(enum, pub, time.Second)

	ctx := context.Background()
	d.tick(ctx) // -> RealCamera
	d.tick(ctx) // same classification, no emission
	d.tick(ctx) // -> NoCamera

	assertStatuses(t, pub.snapshot(), camera.Real, camera.None)
}

func TestDetectorFirstTickEmitsEvenNoCamera(t *testing.T) {
	pub := &recordingPublisher{}
	d := New(enumFunc(func(context.Context) ([]string, error) {
		return nil, nil
	}), pub, time.Second)

	d.tick(context.Background())
	d.tick(context.Background())

	// Unknown -> NoCamera is a transition and must be announced once.
	assertStatuses(t, pub.snapshot(), camera.None)
}

func TestDetectorEnumerationErrorDegrades(t *testing.T) {
	enum := &scriptedEnum{
		steps: [][]string{{"HD WebCam"}, nil, nil},
		errs:  []error{nil, errors.New("enumeration boom"), errors.New("enumeration boom")},
	}
	pub := &recordingPublisher{}
	d := New(enum, pub, time.Second)

	ctx := context.Background()
	d.tick(ctx) // -> RealCamera
	d.tick(ctx) // error degrades to zero devices -> NoCamera
	d.tick(ctx) // still failing, no new transition

	assertStatuses(t, pub.snapshot(), camera.Real, camera.None)
}

func TestDetectorStatusSnapshot(t *testing.T) {
	enum := &scriptedEnum{steps: [][]string{{"OBS Virtual Camera"}}}
	pub := &recordingPublisher{}
	d := New(enum, pub, time.Second)

	if got := d.Status(); got != camera.Unknown {
		t.Fatalf("Status() before first tick = %s, want unknown", got)
	}
	d.tick(context.Background())
	if got := d.Status(); got != camera.Virtual {
		t.Fatalf("Status() = %s, want %s", got, camera.Virtual)
	}
}

func TestDetectorCancelledEnumerationDoesNotEmit(t *testing.T) {
	pub := &recordingPublisher{}
	d := New(enumFunc(func(ctx context.Context) ([]string, error) {
		return nil, ctx.Err()
	}), pub, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.tick(ctx)

	if got := pub.snapshot(); len(got) != 0 {
		t.Fatalf("cancelled tick emitted %v, want nothing", got)
	}
}

func TestDetectorStartStopsOnCancel(t *testing.T) {
	pub := &recordingPublisher{}
	d := New(enumFunc(func(context.Context) ([]string, error) {
		return nil, nil
	}), pub, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()

	// Initial tick emits NoCamera, then the loop idles on the ticker.
	waitFor(t, func() bool { return len(pub.snapshot()) == 1 })

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("detector did not stop after cancellation")
	}

	assertStatuses(t, pub.snapshot(), camera.None)
}

func TestDetectorNudgeTriggersImmediateTick(t *testing.T) {
	enum := &scriptedEnum{steps: [][]string{
		{},
		{"HD WebCam"},
	}}
	pub := &recordingPublisher{}
	d := New(enum, pub, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Start(ctx)

	waitFor(t, func() bool { return len(pub.snapshot()) == 1 })

	d.Nudge()
	waitFor(t, func() bool { return len(pub.snapshot()) == 2 })

	assertStatuses(t, pub.snapshot(), camera.None, camera.Real)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}
