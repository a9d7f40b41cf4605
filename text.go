package drift

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Font is the interface for text measurement.
type Font interface {
	MeasureString(text string) (width, height float64)
	LineHeight() float64
}

// glyphDrawer is implemented by fonts that Canvas can render.
type glyphDrawer interface {
	drawText(dst *ebiten.Image, s string, x, y float64, c Color)
}

// --- TTFFont ---

// TTFFont wraps Ebitengine's text/v2 for TrueType font rendering.
type TTFFont struct {
	face   *text.GoTextFace
	source *text.GoTextFaceSource
	size   float64
	lh     float64 // cached line height
}

// LoadTTFFont loads a TrueType font from raw TTF/OTF data at the given size.
func LoadTTFFont(ttfData []byte, size float64) (*TTFFont, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(ttfData))
	if err != nil {
		return nil, fmt.Errorf("drift: failed to parse TTF data: %w", err)
	}

	face := &text.GoTextFace{
		Source: source,
		Size:   size,
	}

	m := face.Metrics()
	lh := m.HAscent + m.HDescent + m.HLineGap

	return &TTFFont{
		face:   face,
		source: source,
		size:   size,
		lh:     lh,
	}, nil
}

// MeasureString returns the width and height of the rendered text.
func (f *TTFFont) MeasureString(s string) (width, height float64) {
	return text.Measure(s, f.face, f.lh)
}

// LineHeight returns the vertical distance between baselines.
func (f *TTFFont) LineHeight() float64 {
	return f.lh
}

// Size returns the font size in pixels.
func (f *TTFFont) Size() float64 {
	return f.size
}

// Face returns the underlying GoTextFace for direct Ebitengine text/v2 rendering.
func (f *TTFFont) Face() *text.GoTextFace {
	return f.face
}

// drawText draws s with its left edge at x and its vertical middle at y.
func (f *TTFFont) drawText(dst *ebiten.Image, s string, x, y float64, c Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.Scale(float32(c.R*c.A), float32(c.G*c.A), float32(c.B*c.A), float32(c.A))
	op.LineSpacing = f.lh
	op.PrimaryAlign = text.AlignStart
	op.SecondaryAlign = text.AlignCenter
	text.Draw(dst, s, f.face, op)
}

// --- Built-in faces ---

// Font weights as CSS numbers.
const (
	WeightNormal = 400
	WeightBold   = 700
)

// ParseFontWeight accepts CSS weight keywords ("normal", "bold", "lighter",
// "bolder") or a number from 1 to 1000.
func ParseFontWeight(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return WeightNormal, nil
	case "bold":
		return WeightBold, nil
	case "lighter":
		return 300, nil
	case "bolder":
		return 800, nil
	}
	w, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || w < 1 || w > 1000 {
		return 0, fmt.Errorf("drift: invalid font weight %q", s)
	}
	return w, nil
}

// builtinFamilies maps family names to regular and bold Go font data.
var builtinFamilies = map[string][2][]byte{
	"go":      {goregular.TTF, gobold.TTF},
	"go mono": {gomono.TTF, gomonobold.TTF},
}

// DefaultFamily is the family used when none is configured.
const DefaultFamily = "Go"

// BuiltinFont returns one of the bundled Go fonts. family is "Go" or
// "Go Mono"; any other family falls back to "Go" with a warning. Weights of
// 600 and above select the bold cut.
func BuiltinFont(family string, weight int, size float64) (*TTFFont, error) {
	key := strings.ToLower(strings.TrimSpace(family))
	cuts, ok := builtinFamilies[key]
	if !ok {
		if key != "" {
			logger.Warn("font family not bundled, using Go", zap.String("family", family))
		}
		cuts = builtinFamilies["go"]
	}
	data := cuts[0]
	if weight >= 600 {
		data = cuts[1]
	}
	return LoadTTFFont(data, size)
}
