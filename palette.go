package drift

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Palette tokens that expand to a random color per item.
const (
	PaletteDark  = "dark"  // each channel in [0, 127]
	PaletteLight = "light" // each channel in [128, 255]
)

type swatchKind uint8

const (
	swatchLiteral swatchKind = iota
	swatchDark
	swatchLight
)

type swatch struct {
	kind  swatchKind
	color Color
}

// Palette is a parsed list of color tokens. Pick chooses one token uniformly
// and resolves it to a concrete color.
type Palette struct {
	swatches []swatch
}

// ParsePalette parses tokens into a Palette. Each token is "dark", "light",
// or a literal accepted by ParseColor.
func ParsePalette(tokens []string) (Palette, error) {
	if len(tokens) == 0 {
		return Palette{}, fmt.Errorf("drift: empty palette")
	}
	p := Palette{swatches: make([]swatch, 0, len(tokens))}
	for _, tok := range tokens {
		switch strings.ToLower(strings.TrimSpace(tok)) {
		case PaletteDark:
			p.swatches = append(p.swatches, swatch{kind: swatchDark})
		case PaletteLight:
			p.swatches = append(p.swatches, swatch{kind: swatchLight})
		default:
			c, err := ParseColor(tok)
			if err != nil {
				return Palette{}, err
			}
			p.swatches = append(p.swatches, swatch{kind: swatchLiteral, color: c})
		}
	}
	return p, nil
}

// Len returns the number of tokens in the palette.
func (p Palette) Len() int {
	return len(p.swatches)
}

// Pick returns a color from a uniformly chosen token.
func (p Palette) Pick(rng *rand.Rand) Color {
	s := p.swatches[rng.IntN(len(p.swatches))]
	switch s.kind {
	case swatchDark:
		return randomChannels(rng, 0, 127)
	case swatchLight:
		return randomChannels(rng, 128, 255)
	default:
		return s.color
	}
}

func randomChannels(rng *rand.Rand, lo, hi int) Color {
	return RGB(
		uint8(randomInt(rng, lo, hi)),
		uint8(randomInt(rng, lo, hi)),
		uint8(randomInt(rng, lo, hi)),
	)
}

// ParseColor parses a CSS color: "#rgb", "#rgba", "#rrggbb", "#rrggbbaa",
// "rgb()"/"rgba()" and "hsl()"/"hsla()" in comma or space syntax with an
// optional "/ alpha", "transparent", or a CSS color name.
func ParseColor(s string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "transparent":
		return Color{}, nil
	case strings.HasPrefix(v, "#"):
		return parseHex(s, v)
	case strings.HasPrefix(v, "rgb"), strings.HasPrefix(v, "hsl"):
		return parseColorFunc(s, v)
	}
	if rgba, ok := colornames.Map[v]; ok {
		return RGB(rgba.R, rgba.G, rgba.B), nil
	}
	return Color{}, fmt.Errorf("drift: unknown color %q", s)
}

// parseHex splits off the alpha digit(s) of the 4 and 8 digit forms and
// leaves the rest to colorful.
func parseHex(orig, v string) (Color, error) {
	digits := v[1:]
	alpha := 1.0
	switch len(digits) {
	case 4, 8:
		n := len(digits) / 4
		a, err := strconv.ParseUint(digits[3*n:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("drift: invalid hex color %q: %w", orig, err)
		}
		if n == 1 {
			a *= 17
		}
		alpha = float64(a) / 255
		digits = digits[:3*n]
	}
	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return Color{}, fmt.Errorf("drift: invalid hex color %q: %w", orig, err)
	}
	return Color{R: c.R, G: c.G, B: c.B, A: alpha}, nil
}

// parseColorFunc parses the rgb/rgba/hsl/hsla functional forms. rgb
// channels are 0-255 or percentages; alpha is 0-1 or a percentage.
func parseColorFunc(orig, v string) (Color, error) {
	open := strings.IndexByte(v, '(')
	if open < 0 || !strings.HasSuffix(v, ")") {
		return Color{}, fmt.Errorf("drift: invalid color %q", orig)
	}
	fn := strings.TrimSpace(v[:open])
	body := v[open+1 : len(v)-1]

	var alphaPart string
	hasAlpha := false
	if i := strings.IndexByte(body, '/'); i >= 0 {
		alphaPart, body, hasAlpha = strings.TrimSpace(body[i+1:]), body[:i], true
	}
	parts := strings.Fields(strings.ReplaceAll(body, ",", " "))
	if !hasAlpha && len(parts) == 4 {
		alphaPart, parts, hasAlpha = parts[3], parts[:3], true
	}
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("drift: color %q needs 3 components", orig)
	}

	alpha := 1.0
	if hasAlpha {
		a, err := parseScaled(alphaPart, 1)
		if err != nil {
			return Color{}, fmt.Errorf("drift: color %q alpha: %w", orig, err)
		}
		alpha = a
	}

	switch fn {
	case "rgb", "rgba":
		var ch [3]float64
		for i, part := range parts {
			f, err := parseScaled(part, 255)
			if err != nil {
				return Color{}, fmt.Errorf("drift: color %q channel: %w", orig, err)
			}
			ch[i] = f
		}
		return Color{R: ch[0], G: ch[1], B: ch[2], A: alpha}, nil
	case "hsl", "hsla":
		h, err := parseHue(parts[0])
		if err != nil {
			return Color{}, fmt.Errorf("drift: color %q hue: %w", orig, err)
		}
		sat, err := parseScaled(strings.TrimSuffix(parts[1], "%")+"%", 1)
		if err != nil {
			return Color{}, fmt.Errorf("drift: color %q saturation: %w", orig, err)
		}
		light, err := parseScaled(strings.TrimSuffix(parts[2], "%")+"%", 1)
		if err != nil {
			return Color{}, fmt.Errorf("drift: color %q lightness: %w", orig, err)
		}
		c := colorful.Hsl(h, sat, light).Clamped()
		return Color{R: c.R, G: c.G, B: c.B, A: alpha}, nil
	}
	return Color{}, fmt.Errorf("drift: invalid color %q", orig)
}

// parseScaled maps "n%" from [0, 100] or a bare n from [0, limit] onto
// [0, 1].
func parseScaled(s string, limit float64) (float64, error) {
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		s, limit = pct, 100
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if f < 0 || f > limit {
		return 0, fmt.Errorf("%q out of range", s)
	}
	return f / limit, nil
}

// parseHue reads degrees, with or without a "deg" suffix, normalised to
// [0, 360).
func parseHue(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "deg"), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid hue %q", s)
	}
	f = math.Mod(f, 360)
	if f < 0 {
		f += 360
	}
	return f, nil
}

// CSS formats c as "rgb(r, g, b)", or "rgba(r, g, b, a)" when it is not
// opaque. ParseColor accepts the result.
func (c Color) CSS() string {
	r := int(math.Round(clamp01(c.R) * 255))
	g := int(math.Round(clamp01(c.G) * 255))
	b := int(math.Round(clamp01(c.B) * 255))
	if c.A >= 1 {
		return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, strconv.FormatFloat(clamp01(c.A), 'g', 4, 64))
}
