// Package convert turns rendered frames into the framebuffer's native
// 16-bit RGB565 layout.
package convert

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// BytesPerPixel for RGB565.
const BytesPerPixel = 2

// RGB565 encodes one pixel: 5 bits red, 6 bits green, 5 bits blue.
func RGB565(r, g, b uint8) uint16 {
	return uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b>>3)
}

// Expand decodes an RGB565 value back to 8-bit channels by bit replication.
func Expand(v uint16) (r, g, b uint8) {
	r5 := uint8(v >> 11)
	g6 := uint8(v>>5) & 0x3F
	b5 := uint8(v) & 0x1F
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// FrameSize is the byte length of a w x h RGB565 frame (row-major, no padding).
func FrameSize(w, h int) int {
	return w * h * BytesPerPixel
}

// Fit returns img as an *image.RGBA of exactly w x h at origin 0,0. Frames
// that already match are returned as is; anything else is rescaled with
// ApproxBiLinear.
func Fit(img image.Image, w, h int) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		b := rgba.Bounds()
		if b.Min == (image.Point{}) && b.Dx() == w && b.Dy() == h {
			return rgba
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// PackRGB565 writes img into dst as little-endian RGB565.
//
// Requirements / behavior:
//
//   - img must be exactly w x h (use Fit first).
//   - dst must hold at least FrameSize(w, h) bytes.
//   - alpha is ignored; the panel has no transparency.
//
// The loop walks img.Pix by stride to avoid per-pixel At() calls.
func PackRGB565(dst []byte, img *image.RGBA) error {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if len(dst) < FrameSize(w, h) {
		return fmt.Errorf("convert: destination holds %d bytes, need %d", len(dst), FrameSize(w, h))
	}

	j := 0
	for y := 0; y < h; y++ {
		rowOff := y * img.Stride
		for x := 0; x < w; x++ {
			i := rowOff + x*4
			v := RGB565(img.Pix[i+0], img.Pix[i+1], img.Pix[i+2])
			dst[j] = byte(v)
			dst[j+1] = byte(v >> 8)
			j += 2
		}
	}
	return nil
}
