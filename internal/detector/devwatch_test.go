package detector

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/camsentry/backend/internal/camera"
)

// swappableEnum lets a test change the device list mid-run.
type swappableEnum struct {
	mu    sync.Mutex
	names []string
}

func (s *swappableEnum) Devices(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...), nil
}

func (s *swappableEnum) set(names []string) {
	s.mu.Lock()
	s.names = names
	s.mu.Unlock()
}

func TestWatchDevicesNudgesOnCreate(t *testing.T) {
	dir := t.TempDir()
	enum := &swappableEnum{}
	pub := &recordingPublisher{}
	d := New(enum, pub, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go d.Start(ctx)
	waitFor(t, func() bool { return len(pub.snapshot()) == 1 }) // initial NoCamera

	if err := d.WatchDevices(ctx, dir); err != nil {
		t.Fatalf("WatchDevices: %v", err)
	}

	// Simulate hotplug: the device list changes, then the node appears.
	enum.set([]string{"HD WebCam"})
	if err := os.WriteFile(filepath.Join(dir, "video9"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return len(pub.snapshot()) == 2 })
	assertStatuses(t, pub.snapshot(), camera.None, camera.Real)
}

func TestWatchDevicesIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	enum := &swappableEnum{}
	pub := &recordingPublisher{}
	d := New(enum, pub, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go d.Start(ctx)
	waitFor(t, func() bool { return len(pub.snapshot()) == 1 })

	if err := d.WatchDevices(ctx, dir); err != nil {
		t.Fatalf("WatchDevices: %v", err)
	}

	// A non-video node must not trigger a tick even though the
	// enumerator would now report a camera.
	enum.set([]string{"HD WebCam"})
	if err := os.WriteFile(filepath.Join(dir, "ttyUSB0"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	if got := len(pub.snapshot()); got != 1 {
		t.Fatalf("unrelated file triggered emission: %d events", got)
	}
}

func TestWatchDevicesMissingDir(t *testing.T) {
	d := New(&swappableEnum{}, &recordingPublisher{}, time.Hour)
	err := d.WatchDevices(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error for missing watch directory")
	}
}
