package camera

import (
	"encoding/json"
	"fmt"
)

// Status is the tri-state classification of the host's camera population.
// Unknown exists only as the "nothing observed yet" sentinel inside the
// detector and is never sent to clients.
type Status int

const (
	Unknown Status = iota
	Real
	Virtual
	None
)

var statusNames = map[Status]string{
	Unknown: "unknown",
	Real:    "real_camera",
	Virtual: "virtual_camera",
	None:    "no_camera",
}

var statusFromName = map[string]Status{
	"unknown":        Unknown,
	"real_camera":    Real,
	"virtual_camera": Virtual,
	"no_camera":      None,
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, ok := statusFromName[name]
	if !ok {
		return fmt.Errorf("unknown camera status %q", name)
	}
	*s = v
	return nil
}
