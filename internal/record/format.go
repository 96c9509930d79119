package record

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
)

// Format is an output image encoding.
type Format string

const (
	WebP Format = "webp"
	TGA  Format = "tga"
)

// ParseFormat accepts "webp" or "tga", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case WebP, TGA:
		return f, nil
	}
	return "", fmt.Errorf("record: unknown format %q (want webp or tga)", s)
}

// Ext is the file extension without the dot.
func (f Format) Ext() string { return string(f) }

// Encode writes img to w. WebP output is lossless.
func (f Format) Encode(w io.Writer, img image.Image) error {
	switch f {
	case WebP:
		return nativewebp.Encode(w, img, nil)
	case TGA:
		return tga.Encode(w, img)
	}
	return fmt.Errorf("record: unknown format %q", string(f))
}
