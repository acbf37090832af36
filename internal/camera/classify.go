package camera

import "strings"

// virtualKeywords identifies software-emulated cameras by display name.
// A single substring hit marks the device as virtual-origin. Names come
// from the major virtual-camera products plus the v4l2 loopback driver.
var virtualKeywords = []string{
	"virtual",
	"obs",
	"manycam",
	"snap camera",
	"xsplit",
	"v4l2",
	"droidcam",
	"iriun",
	"epoccam",
	"vcam",
	"ndi",
	"mmhmm",
	"contacam",
	"streamlabs",
	"camsip",
}

// Classify maps a set of device display names to a Status. A physical
// camera always wins: virtual-camera software being installed alongside
// real hardware still means a real camera is available.
//
// Blank and whitespace-only names are ignored. Duplicates are harmless.
func Classify(names []string) Status {
	var hasReal, hasVirtual bool
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if isVirtualName(name) {
			hasVirtual = true
		} else {
			hasReal = true
		}
	}

	switch {
	case hasReal:
		return Real
	case hasVirtual:
		return Virtual
	default:
		return None
	}
}

func isVirtualName(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range virtualKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
