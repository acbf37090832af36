package camera

import (
	"context"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// virtualSoftwareProcs maps known virtual-camera software process names
// (lowercased, extension stripped) to a display label. Detecting the
// software running is diagnostics only: classification stays driven by
// device names, since installed-but-idle software exposes no device.
var virtualSoftwareProcs = map[string]string{
	"obs":            "OBS Studio",
	"obs64":          "OBS Studio",
	"manycam":        "ManyCam",
	"snap camera":    "Snap Camera",
	"xsplit.core":    "XSplit",
	"xsplitvcam":     "XSplit VCam",
	"droidcam":       "DroidCam",
	"droidcam-cli":   "DroidCam",
	"iriunwebcam":    "Iriun Webcam",
	"epoccam":        "EpocCam",
	"mmhmm":          "mmhmm",
	"streamlabs obs": "Streamlabs",
	"contacam":       "ContaCam",
}

// RunningVirtualSoftware scans the process table for known
// virtual-camera software and returns the sorted labels of whatever is
// running. Scan failures degrade to an empty result.
func RunningVirtualSoftware(ctx context.Context) []string {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var found []string
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		label, ok := virtualSoftwareProcs[normalizeProcName(name)]
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		found = append(found, label)
	}
	sort.Strings(found)
	return found
}

func normalizeProcName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, ".exe")
	return name
}
