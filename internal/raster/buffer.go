package raster

// ColorBuffer holds RGBA8 pixels as a flat slice for cache locality. Row 0 is
// the bottom of the image, matching window coordinates.
type ColorBuffer struct {
	Width  int
	Height int
	Pix    []uint8 // RGBA interleaved, len = W*H*4
}

// DepthBuffer holds one depth value per pixel in [0, 1]; 1 is the far plane.
type DepthBuffer struct {
	Width  int
	Height int
	Z      []float32
}

func NewColorBuffer(w, h int) *ColorBuffer {
	return &ColorBuffer{Width: w, Height: h, Pix: make([]uint8, w*h*4)}
}

// NewDepthBuffer allocates a depth buffer cleared to the far plane.
func NewDepthBuffer(w, h int) *DepthBuffer {
	d := &DepthBuffer{Width: w, Height: h, Z: make([]float32, w*h)}
	d.Clear(1)
	return d
}

// Clear fills every pixel with the given color, components in [0, 1].
func (c *ColorBuffer) Clear(r, g, b, a float32) {
	px := [4]uint8{
		clamp255(float64(r) * 255),
		clamp255(float64(g) * 255),
		clamp255(float64(b) * 255),
		clamp255(float64(a) * 255),
	}
	for i := 0; i < len(c.Pix); i += 4 {
		copy(c.Pix[i:i+4], px[:])
	}
}

func (d *DepthBuffer) Clear(z float32) {
	for i := range d.Z {
		d.Z[i] = z
	}
}

// Target is what a draw writes to. Either buffer may be nil; when both are
// present the drawable area is their intersection.
type Target struct {
	Color *ColorBuffer
	Depth *DepthBuffer

	// DepthTest enables the GL_LESS depth comparison and depth writes.
	DepthTest bool
}

// Size returns the drawable area.
func (t *Target) Size() (w, h int) {
	switch {
	case t.Color != nil && t.Depth != nil:
		return min(t.Color.Width, t.Depth.Width), min(t.Color.Height, t.Depth.Height)
	case t.Color != nil:
		return t.Color.Width, t.Color.Height
	case t.Depth != nil:
		return t.Depth.Width, t.Depth.Height
	}
	return 0, 0
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
