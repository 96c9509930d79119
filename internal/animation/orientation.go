package animation

import (
	"fmt"
	"strings"

	"cone-renderer/internal/mathutil"
)

// Orientation is the classified physical orientation of the device.
type Orientation int

const (
	Unknown Orientation = iota
	Portrait
	PortraitUpsideDown
	LandscapeLeft
	LandscapeRight
	FaceUp
	FaceDown
)

var orientationNames = [...]string{
	Unknown:            "unknown",
	Portrait:           "portrait",
	PortraitUpsideDown: "portrait-upside-down",
	LandscapeLeft:      "landscape-left",
	LandscapeRight:     "landscape-right",
	FaceUp:             "face-up",
	FaceDown:           "face-down",
}

// Orientations lists every value in declaration order.
var Orientations = []Orientation{
	Unknown, Portrait, PortraitUpsideDown, LandscapeLeft, LandscapeRight, FaceUp, FaceDown,
}

func (o Orientation) String() string {
	if o < 0 || int(o) >= len(orientationNames) {
		return fmt.Sprintf("orientation(%d)", int(o))
	}
	return orientationNames[o]
}

// ParseOrientation accepts the String form, case-insensitively, with '_' or
// ' ' in place of '-' ("Landscape_Left", "face up").
func ParseOrientation(s string) (Orientation, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	for i, name := range orientationNames {
		if name == norm {
			return Orientation(i), nil
		}
	}
	return Unknown, fmt.Errorf("animation: unknown orientation %q", s)
}

// MarshalText and UnmarshalText let config files name orientations.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Orientation) UnmarshalText(b []byte) error {
	v, err := ParseOrientation(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Up returns the direction the model's apex should point toward. Unknown
// and out-of-range values behave as Portrait.
func (o Orientation) Up() mathutil.Vec3 {
	switch o {
	case PortraitUpsideDown:
		return mathutil.Vec3{0, -1, 0}
	case FaceUp:
		return mathutil.Vec3{0, 0, 1}
	case FaceDown:
		return mathutil.Vec3{0, 0, -1}
	case LandscapeLeft:
		return mathutil.Vec3{1, 0, 0}
	case LandscapeRight:
		return mathutil.Vec3{-1, 0, 0}
	}
	return mathutil.Vec3{0, 1, 0}
}
