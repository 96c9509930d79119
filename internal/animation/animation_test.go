package animation

import (
	"math"
	"testing"

	"cone-renderer/internal/mathutil"
)

func TestNewIsSettledIdentity(t *testing.T) {
	a := New(DefaultDuration)
	if a.State() != Settled {
		t.Fatalf("state = %v", a.State())
	}
	id := mathutil.QuatIdentity()
	if a.Start != id || a.End != id || a.Current != id {
		t.Fatalf("initial quaternions %v %v %v", a.Start, a.End, a.Current)
	}
	if a.Progress() != 1 {
		t.Fatalf("progress = %v", a.Progress())
	}
}

func TestPortraitToLandscapeLeft(t *testing.T) {
	a := New(0.25)
	a.Rotate(Portrait)
	if a.State() != Settled {
		t.Fatal("rotating to the current orientation started an animation")
	}

	a.Rotate(LandscapeLeft)
	if a.State() != Animating {
		t.Fatal("rotate to landscape-left did not start an animation")
	}

	a.Update(0.1)
	if a.State() != Animating {
		t.Fatal("settled after 0.1s")
	}
	mid := a.Current
	want := a.Start.Slerp(0.4, a.End)
	if !mid.ApproxEqual(want, 1e-12) {
		t.Fatalf("current after 0.1s = %v, want %v", mid, want)
	}

	a.Update(0.1)
	a.Update(0.1)
	if a.State() != Settled || a.Current != a.End {
		t.Fatalf("after 0.3s state=%v current=%v end=%v", a.State(), a.Current, a.End)
	}
	apex := a.Current.Rotate(ModelUp)
	if !apex.ApproxEqual(mathutil.Vec3{1, 0, 0}, 1e-12) {
		t.Fatalf("apex points to %v", apex)
	}

	settled := a
	for i := 0; i < 5; i++ {
		a.Update(0.1)
	}
	if a != settled {
		t.Fatalf("updates after settling changed state: %+v vs %+v", a, settled)
	}
}

func TestRotateTwiceIsRetriggerable(t *testing.T) {
	a := New(DefaultDuration)
	a.Rotate(FaceUp)
	a.Update(0.1)
	end := a.End

	a.Rotate(FaceUp)
	if a.End != end {
		t.Fatalf("end moved from %v to %v", end, a.End)
	}
	if a.Elapsed != 0 {
		t.Fatalf("elapsed = %v", a.Elapsed)
	}

	a.Rotate(FaceUp)
	if a.End != end || a.Elapsed != 0 {
		t.Fatalf("second back-to-back rotate: end %v elapsed %v", a.End, a.Elapsed)
	}
}

func TestRetargetStartsFromLiveRotation(t *testing.T) {
	a := New(DefaultDuration)
	a.Rotate(LandscapeLeft)
	a.Update(0.1)
	live := a.Current

	a.Rotate(LandscapeRight)
	if a.Start != live {
		t.Fatalf("start = %v, want live current %v", a.Start, live)
	}
	if a.Current != live {
		t.Fatal("retarget snapped current")
	}
	a.Update(DefaultDuration)
	if got := a.Current.Rotate(ModelUp); !got.ApproxEqual(mathutil.Vec3{-1, 0, 0}, 1e-12) {
		t.Fatalf("apex ends at %v", got)
	}
}

func TestUpsideDownHasNoNaN(t *testing.T) {
	a := New(DefaultDuration)
	a.Rotate(PortraitUpsideDown)
	for i := 0; i < 4; i++ {
		a.Update(0.05)
		for _, c := range a.Current {
			if math.IsNaN(c) {
				t.Fatalf("NaN in %v", a.Current)
			}
		}
		if math.Abs(a.Current.Len()-1) > 1e-9 {
			t.Fatalf("non-unit current %v", a.Current)
		}
	}
	a.Update(1)
	if got := a.Current.Rotate(ModelUp); !got.ApproxEqual(mathutil.Vec3{0, -1, 0}, 1e-12) {
		t.Fatalf("apex ends at %v", got)
	}
}

func TestNegativeStepDoesNotRewind(t *testing.T) {
	a := New(DefaultDuration)
	a.Rotate(FaceDown)
	a.Update(0.1)
	before := a.Elapsed
	a.Update(-1)
	if a.Elapsed != before {
		t.Fatalf("elapsed moved from %v to %v", before, a.Elapsed)
	}
}

func TestZeroDurationSnaps(t *testing.T) {
	a := New(0)
	a.Rotate(LandscapeRight)
	a.Update(0)
	if a.State() != Settled {
		t.Fatal("zero-duration animation did not snap")
	}
}

func TestProgress(t *testing.T) {
	a := New(0.2)
	a.Rotate(FaceUp)
	a.Update(0.05)
	if p := a.Progress(); math.Abs(p-0.25) > 1e-12 {
		t.Fatalf("progress = %v", p)
	}
}

func TestOrientationUpTable(t *testing.T) {
	tests := []struct {
		o    Orientation
		want mathutil.Vec3
	}{
		{Unknown, mathutil.Vec3{0, 1, 0}},
		{Portrait, mathutil.Vec3{0, 1, 0}},
		{PortraitUpsideDown, mathutil.Vec3{0, -1, 0}},
		{FaceUp, mathutil.Vec3{0, 0, 1}},
		{FaceDown, mathutil.Vec3{0, 0, -1}},
		{LandscapeLeft, mathutil.Vec3{1, 0, 0}},
		{LandscapeRight, mathutil.Vec3{-1, 0, 0}},
		{Orientation(42), mathutil.Vec3{0, 1, 0}},
	}
	for _, tt := range tests {
		if got := tt.o.Up(); got != tt.want {
			t.Errorf("%v.Up() = %v, want %v", tt.o, got, tt.want)
		}
	}
}

func TestParseOrientation(t *testing.T) {
	for _, o := range Orientations {
		got, err := ParseOrientation(o.String())
		if err != nil || got != o {
			t.Errorf("ParseOrientation(%q) = %v, %v", o.String(), got, err)
		}
	}
	if got, err := ParseOrientation(" Landscape_Left "); err != nil || got != LandscapeLeft {
		t.Errorf("loose spelling = %v, %v", got, err)
	}
	if _, err := ParseOrientation("sideways"); err == nil {
		t.Error("expected an error for an unknown name")
	}
	if s := Orientation(-1).String(); s != "orientation(-1)" {
		t.Errorf("out of range String = %q", s)
	}

	var o Orientation
	if err := o.UnmarshalText([]byte("face-down")); err != nil || o != FaceDown {
		t.Errorf("UnmarshalText = %v, %v", o, err)
	}
}
