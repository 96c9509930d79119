package animation

import "cone-renderer/internal/mathutil"

// DefaultDuration is the length of a reorientation, in seconds.
const DefaultDuration = 0.25

// ModelUp is the direction the unrotated model's apex points.
var ModelUp = mathutil.Vec3{0, 1, 0}

// State is Settled once Current has reached End, Animating before that.
type State int

const (
	Settled State = iota
	Animating
)

func (s State) String() string {
	if s == Animating {
		return "animating"
	}
	return "settled"
}

// Animation interpolates the model rotation from Start to End over Duration.
type Animation struct {
	Start    mathutil.Quat
	End      mathutil.Quat
	Current  mathutil.Quat
	Elapsed  float64
	Duration float64
}

// New returns a settled, unrotated animation.
func New(duration float64) Animation {
	id := mathutil.QuatIdentity()
	return Animation{Start: id, End: id, Current: id, Duration: duration}
}

func (a *Animation) State() State {
	if a.Current.Equal(a.End) {
		return Settled
	}
	return Animating
}

// Update advances the animation by dt seconds. Once settled it does nothing.
// Negative steps are treated as zero.
func (a *Animation) Update(dt float64) {
	if a.Current.Equal(a.End) {
		return
	}
	if dt > 0 {
		a.Elapsed += dt
	}
	if a.Elapsed >= a.Duration {
		a.Current = a.End
		return
	}
	a.Current = a.Start.Slerp(a.Elapsed/a.Duration, a.End)
}

// Retarget restarts the animation from the live Current rotation toward the
// rotation that points ModelUp along dir.
func (a *Animation) Retarget(dir mathutil.Vec3) {
	a.Elapsed = 0
	a.Start = a.Current
	a.End = mathutil.QuatFromVectors(ModelUp, dir)
}

// Rotate retargets toward the up direction of o.
func (a *Animation) Rotate(o Orientation) {
	a.Retarget(o.Up())
}

// Progress returns the completed fraction in [0, 1].
func (a *Animation) Progress() float64 {
	if a.State() == Settled || a.Duration <= 0 {
		return 1
	}
	p := a.Elapsed / a.Duration
	if p > 1 {
		p = 1
	}
	return p
}
