// Package postprocess turns raw engine frames into output images.
package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample reduces a supersampled frame to width x height with CatmullRom
// filtering. The scaler works on premultiplied color, so translucent pixels
// keep their hue. Frames already within the target are returned as is.
func Downsample(img *image.NRGBA, width, height int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= width && b.Dy() <= height {
		return img
	}

	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)
	return unpremultiply(scaled)
}

func unpremultiply(src *image.RGBA) *image.NRGBA {
	out := image.NewNRGBA(src.Bounds())
	for i := 0; i+3 < len(src.Pix); i += 4 {
		a := src.Pix[i+3]
		out.Pix[i+3] = a
		switch a {
		case 0:
		case 255:
			copy(out.Pix[i:i+3], src.Pix[i:i+3])
		default:
			k := 255 / float64(a)
			for c := 0; c < 3; c++ {
				out.Pix[i+c] = clamp8(float64(src.Pix[i+c]) * k)
			}
		}
	}
	return out
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
