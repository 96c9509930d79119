package postprocess

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	lineHeight = 13
	margin     = 4
)

var (
	textColor   = color.NRGBA{255, 255, 255, 255}
	shadowColor = color.NRGBA{0, 0, 0, 255}
)

// Annotate writes lines of text into the top-left corner of img in the 7x13
// bitmap face, each glyph with a one-pixel drop shadow. Lines too wide for
// the frame are cut short. img is modified in place and returned.
func Annotate(img *image.NRGBA, lines ...string) *image.NRGBA {
	d := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	b := img.Bounds()
	for i, line := range lines {
		baseline := b.Min.Y + margin + basicfont.Face7x13.Ascent + i*lineHeight
		if baseline > b.Max.Y {
			break
		}
		line = fit(line, b.Dx()-2*margin-1)
		for _, pass := range []struct {
			dx  int
			col color.NRGBA
		}{{1, shadowColor}, {0, textColor}} {
			d.Src = image.NewUniform(pass.col)
			d.Dot = fixed.P(b.Min.X+margin+pass.dx, baseline+pass.dx)
			d.DrawString(line)
		}
	}
	return img
}

// TextWidth is the pixel width of s in the annotation face.
func TextWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}

// fit trims s from the end until it is at most width pixels wide.
func fit(s string, width int) string {
	for s != "" && TextWidth(s) > width {
		s = s[:len(s)-1]
	}
	return s
}
