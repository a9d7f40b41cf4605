package drift

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Surface is the immediate-mode 2D drawing contract used by LaneScroller.
// Canvas is the Ebitengine implementation; tests substitute recorders.
type Surface interface {
	// Size returns the surface size in pixels.
	Size() (w, h int)
	// MeasureText returns the advance width of s in font.
	MeasureText(s string, font Font) float64
	// DrawImage draws img scaled into the box (x, y, w, h).
	DrawImage(img *ebiten.Image, x, y, w, h float64)
	// DrawRoundedRect fills a rectangle whose corners are rounded by radius.
	DrawRoundedRect(x, y, w, h, radius float64, fill Color)
	// FillText draws s starting at x with its vertical middle at y.
	FillText(s string, x, y float64, font Font, fill Color)
	// ClearRegion resets a rectangle to transparent.
	ClearRegion(x, y, w, h float64)
	// Blit copies src onto this surface with its top-left at (x, y).
	Blit(src Surface, x, y float64)
	// NewBuffer returns an offscreen surface compatible with Blit.
	NewBuffer(w, h int) Surface
}

// Canvas is a persistent offscreen drawing surface. It can be shown on a
// Stage with AddLayer or attached to a sprite node with NewSpriteNode.
type Canvas struct {
	image  *ebiten.Image
	w, h   int
	shapes shapeBuffer
}

// NewCanvas creates a transparent canvas of the given size.
func NewCanvas(w, h int) *Canvas {
	return &Canvas{
		image: ebiten.NewImage(w, h),
		w:     w,
		h:     h,
	}
}

// Image returns the underlying *ebiten.Image for direct manipulation.
func (c *Canvas) Image() *ebiten.Image {
	return c.image
}

// Size returns the canvas size in pixels.
func (c *Canvas) Size() (w, h int) {
	return c.w, c.h
}

// Clear fills the canvas with transparent black.
func (c *Canvas) Clear() {
	c.image.Clear()
}

// Fill fills the entire canvas with the given color.
func (c *Canvas) Fill(col Color) {
	c.image.Fill(col.toRGBA())
}

// MeasureText returns the advance width of s in font.
func (c *Canvas) MeasureText(s string, font Font) float64 {
	if font == nil {
		return 0
	}
	w, _ := font.MeasureString(s)
	return w
}

// DrawImage draws img scaled to fill the box (x, y, w, h).
func (c *Canvas) DrawImage(img *ebiten.Image, x, y, w, h float64) {
	if img == nil {
		return
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	op.GeoM.Translate(x, y)
	op.Filter = ebiten.FilterLinear
	c.image.DrawImage(img, &op)
}

// DrawRoundedRect fills a rounded rectangle. The radius is clamped to half
// the shorter side.
func (c *Canvas) DrawRoundedRect(x, y, w, h, radius float64, fill Color) {
	if w <= 0 || h <= 0 {
		return
	}
	c.shapes.fill(c.image, roundedRectPath(x, y, w, h, radius), fill)
}

// FillText draws s with its left edge at x and its vertical middle at y.
// Fonts that cannot render (measurement-only fonts) draw nothing.
func (c *Canvas) FillText(s string, x, y float64, font Font, fill Color) {
	if g, ok := font.(glyphDrawer); ok {
		g.drawText(c.image, s, x, y, fill)
	}
}

// ClearRegion resets a rectangle to transparent. The rectangle is clipped to
// the canvas.
func (c *Canvas) ClearRegion(x, y, w, h float64) {
	r := image.Rect(
		int(math.Floor(x)), int(math.Floor(y)),
		int(math.Ceil(x+w)), int(math.Ceil(y+h)),
	).Intersect(c.image.Bounds())
	if r.Empty() {
		return
	}
	if r == c.image.Bounds() {
		c.image.Clear()
		return
	}
	c.image.SubImage(r).(*ebiten.Image).Clear()
}

// imageSource is implemented by surfaces that are backed by an ebiten image.
type imageSource interface {
	Image() *ebiten.Image
}

// Blit copies src onto the canvas. src must be backed by an ebiten image,
// such as another Canvas; other surfaces are ignored.
func (c *Canvas) Blit(src Surface, x, y float64) {
	is, ok := src.(imageSource)
	if !ok {
		return
	}
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(x, y)
	c.image.DrawImage(is.Image(), &op)
}

// NewBuffer returns a new offscreen Canvas.
func (c *Canvas) NewBuffer(w, h int) Surface {
	return NewCanvas(w, h)
}

// NewSpriteNode creates a sprite node that displays the canvas contents.
func (c *Canvas) NewSpriteNode(name string) *Node {
	return NewSprite(name, c.image)
}

// Resize deallocates the old image and creates a new one at the given dimensions.
func (c *Canvas) Resize(width, height int) {
	if c.image != nil {
		c.image.Deallocate()
	}
	c.image = ebiten.NewImage(width, height)
	c.w = width
	c.h = height
}

// Dispose deallocates the underlying image. The Canvas should not be
// used after calling Dispose.
func (c *Canvas) Dispose() {
	if c.image != nil {
		c.image.Deallocate()
		c.image = nil
	}
}

// toRGBA converts a Color to a premultiplied colorRGBA.
func (c Color) toRGBA() colorRGBA {
	return colorRGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

// colorRGBA implements the color.Color interface for image.Fill.
type colorRGBA struct {
	R, G, B, A uint8
}

func (c colorRGBA) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	a = uint32(c.A) * 0x101
	return
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
