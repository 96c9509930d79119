package host

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cone-renderer/internal/animation"
)

// Cue rotates the device to Orientation once the clock reaches At seconds.
type Cue struct {
	At          float64               `json:"at" yaml:"at"`
	Orientation animation.Orientation `json:"orientation" yaml:"orientation"`
}

func (c Cue) String() string {
	return strconv.FormatFloat(c.At, 'g', -1, 64) + ":" + c.Orientation.String()
}

// Script is a list of cues. Validate sorts it by time.
type Script []Cue

// ParseScript reads the compact form used on the command line:
// "0:portrait,0.5:landscape-left,1.25:face-up".
func ParseScript(s string) (Script, error) {
	var out Script
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		at, name, ok := strings.Cut(field, ":")
		if !ok {
			return nil, fmt.Errorf("host: cue %q: want <seconds>:<orientation>", field)
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(at), 64)
		if err != nil {
			return nil, fmt.Errorf("host: cue %q: %w", field, err)
		}
		o, err := animation.ParseOrientation(name)
		if err != nil {
			return nil, fmt.Errorf("host: cue %q: %w", field, err)
		}
		out = append(out, Cue{At: t, Orientation: o})
	}
	return out, out.Validate()
}

// Validate rejects negative times and sorts the cues, keeping the input order
// of cues that share a time.
func (s Script) Validate() error {
	for _, c := range s {
		if c.At < 0 {
			return fmt.Errorf("host: cue %v: negative time", c)
		}
	}
	sort.SliceStable(s, func(i, j int) bool { return s[i].At < s[j].At })
	return nil
}

// End is the time of the last cue.
func (s Script) End() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].At
}

func (s Script) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
