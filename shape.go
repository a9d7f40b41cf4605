package drift

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// --- White pixel singleton (no sync.Once; drift draws from one goroutine) ---

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image.
// Untextured shapes are drawn with it and tinted through vertex colors.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

// tintVertices points every vertex at the centre of the white pixel and sets
// its premultiplied color to c.
func tintVertices(verts []ebiten.Vertex, c Color) {
	r := float32(c.R * c.A)
	g := float32(c.G * c.A)
	b := float32(c.B * c.A)
	a := float32(c.A)
	for i := range verts {
		v := &verts[i]
		v.SrcX = 0.5
		v.SrcY = 0.5
		v.ColorR = r
		v.ColorG = g
		v.ColorB = b
		v.ColorA = a
	}
}

// shapeBuffer holds reusable vertex and index storage for path drawing.
type shapeBuffer struct {
	verts []ebiten.Vertex
	inds  []uint16
}

// fill triangulates the interior of p and draws it onto dst in c.
func (b *shapeBuffer) fill(dst *ebiten.Image, p *vector.Path, c Color) {
	b.verts, b.inds = p.AppendVerticesAndIndicesForFilling(b.verts[:0], b.inds[:0])
	b.draw(dst, c)
}

// stroke triangulates the outline of p and draws it onto dst in c.
func (b *shapeBuffer) stroke(dst *ebiten.Image, p *vector.Path, op *vector.StrokeOptions, c Color) {
	b.verts, b.inds = p.AppendVerticesAndIndicesForStroke(b.verts[:0], b.inds[:0], op)
	b.draw(dst, c)
}

func (b *shapeBuffer) draw(dst *ebiten.Image, c Color) {
	if len(b.inds) == 0 || c.A <= 0 {
		return
	}
	tintVertices(b.verts, c)
	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	dst.DrawTriangles(b.verts, b.inds, ensureWhitePixel(), op)
}

// roundedRectPath builds a rectangle with arc corners. The radius is clamped
// to half of the shorter side, so a large radius yields a pill shape.
func roundedRectPath(x, y, w, h, r float64) *vector.Path {
	if w < 2*r {
		r = w / 2
	}
	if h < 2*r {
		r = h / 2
	}
	if r < 0 {
		r = 0
	}
	x0, y0 := float32(x), float32(y)
	x1, y1 := float32(x+w), float32(y+h)
	rr := float32(r)

	p := &vector.Path{}
	p.MoveTo(x0+rr, y0)
	p.ArcTo(x1, y0, x1, y1, rr)
	p.ArcTo(x1, y1, x0, y1, rr)
	p.ArcTo(x0, y1, x0, y0, rr)
	p.ArcTo(x0, y0, x1, y0, rr)
	p.Close()
	return p
}
