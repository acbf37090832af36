package diag

import (
	"context"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/camsentry/backend/internal/camera"
)

// HostSnapshot is the host-level diagnostics block of /api/status.
// Every field degrades to its zero value when the underlying query
// fails; diagnostics must never take a request down.
type HostSnapshot struct {
	UptimeSeconds         uint64   `json:"uptimeSeconds"`
	Processes             int      `json:"processes"`
	VirtualCameraSoftware []string `json:"virtualCameraSoftware,omitempty"`
}

// Collect gathers a best-effort snapshot of the host.
func Collect(ctx context.Context) HostSnapshot {
	var snap HostSnapshot

	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		snap.UptimeSeconds = uptime
	}
	if procs, err := process.ProcessesWithContext(ctx); err == nil {
		snap.Processes = len(procs)
	}
	snap.VirtualCameraSoftware = camera.RunningVirtualSoftware(ctx)

	return snap
}
