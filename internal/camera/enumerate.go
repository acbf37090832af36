package camera

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Enumerator lists the display names of camera-class devices currently
// attached to the host. Implementations must be cheap enough to call on
// every poll tick.
type Enumerator interface {
	Devices(ctx context.Context) ([]string, error)
}

const defaultSysfsRoot = "/sys/class/video4linux"

// SysfsEnumerator reads video4linux device names from sysfs. On hosts
// without a video4linux class directory (non-Linux, or Linux without
// V4L2) it reports zero devices, which the caller treats as no camera.
type SysfsEnumerator struct {
	// Root overrides the sysfs class directory. Empty means the
	// standard /sys/class/video4linux.
	Root string
}

// NewEnumerator returns the default device enumerator for this host.
func NewEnumerator() *SysfsEnumerator {
	return &SysfsEnumerator{}
}

// Devices returns one display name per videoN node. The kernel exposes
// a "name" attribute with the card name (e.g. "HD WebCam: HD WebCam");
// nodes whose name attribute is unreadable or blank fall back to the
// node name so that an attached device is never silently dropped.
func (e *SysfsEnumerator) Devices(ctx context.Context) ([]string, error) {
	root := e.Root
	if root == "" {
		root = defaultSysfsRoot
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}

	var names []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(entry.Name(), "video") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(root, entry.Name(), "name"))
		if err != nil {
			names = append(names, entry.Name())
			continue
		}
		name := strings.TrimSpace(string(data))
		if name == "" {
			name = entry.Name()
		}
		names = append(names, name)
	}
	return names, nil
}
