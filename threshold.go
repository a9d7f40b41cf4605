package drift

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/hajimehoshi/ebiten/v2"
	xdraw "golang.org/x/image/draw"
)

// DefaultThreshold is the luminance cut-off used when ThresholdFilter.Threshold
// is unset.
const DefaultThreshold = 126

// ThresholdFilter turns an image into a two-tone stencil: pixels brighter
// than Threshold become fully transparent white, the rest take Ink and keep
// their original alpha. Brightness is 0.3R + 0.59G + 0.11B on straight
// (non-premultiplied) 8-bit channels.
type ThresholdFilter struct {
	// Threshold in [0, 255]. Zero uses DefaultThreshold; set NoDefault to
	// use a literal zero.
	Threshold float64
	NoDefault bool
	// Ink is the color of pixels at or below the threshold. Its alpha is
	// ignored. The zero value is black.
	Ink Color
}

func (f ThresholdFilter) threshold() float64 {
	if f.Threshold == 0 && !f.NoDefault {
		return DefaultThreshold
	}
	return f.Threshold
}

// Apply returns a filtered copy of src. The result has its origin at (0, 0).
func (f ThresholdFilter) Apply(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)

	limit := f.threshold()
	ink := Color{f.Ink.R, f.Ink.G, f.Ink.B, 1}.toRGBA()

	for y := 0; y < dst.Rect.Dy(); y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+dst.Rect.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			gray := 0.3*float64(row[i]) + 0.59*float64(row[i+1]) + 0.11*float64(row[i+2])
			if gray > limit {
				row[i], row[i+1], row[i+2], row[i+3] = 255, 255, 255, 0
				continue
			}
			row[i], row[i+1], row[i+2] = ink.R, ink.G, ink.B
		}
	}
	return dst
}

// ApplyImage filters src and uploads the result as an ebiten image.
func (f ThresholdFilter) ApplyImage(src image.Image) *ebiten.Image {
	return ebiten.NewImageFromImage(f.Apply(src))
}

// EncodePNG filters src and writes it to w as PNG.
func (f ThresholdFilter) EncodePNG(w io.Writer, src image.Image) error {
	if err := png.Encode(w, f.Apply(src)); err != nil {
		return fmt.Errorf("drift: encode filtered image: %w", err)
	}
	return nil
}

// DataURL filters src and returns it as a "data:image/png;base64,..." URL.
func (f ThresholdFilter) DataURL(src image.Image) (string, error) {
	var buf bytes.Buffer
	if err := f.EncodePNG(&buf, src); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
