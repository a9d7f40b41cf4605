package drift

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tanema/gween/ease"
)

// LineCap selects how the ends of a ProgressRing stroke are drawn.
type LineCap uint8

const (
	CapRound  LineCap = iota // semicircular ends
	CapButt                  // flat ends at the arc endpoints
	CapSquare                // flat ends extended by half the line width
)

func (c LineCap) vector() vector.LineCap {
	switch c {
	case CapButt:
		return vector.LineCapButt
	case CapSquare:
		return vector.LineCapSquare
	default:
		return vector.LineCapRound
	}
}

// ProgressRing draws a loading indicator: a stroked arc that grows
// counter-clockwise from StartAngle as Percent goes from 0 to 100.
type ProgressRing struct {
	X, Y   float64
	Radius float64
	// LineWidth defaults to 2.
	LineWidth float64
	// Color defaults to opaque black.
	Color Color
	Cap   LineCap
	// StartAngle is in degrees, measured from the left of the centre.
	StartAngle float64
	// Percent is the filled share, 0 to 100.
	Percent float64

	shapes shapeBuffer
}

// arc returns the start and end angles in radians for percent.
func (r *ProgressRing) arc(percent float64) (start, end float64) {
	start = r.StartAngle*math.Pi/180 + math.Pi
	end = start - clampPercent(percent)/100*2*math.Pi
	return start, end
}

func clampPercent(p float64) float64 {
	return math.Max(0, math.Min(100, p))
}

// Draw strokes the ring at its current Percent onto dst.
func (r *ProgressRing) Draw(dst *ebiten.Image) {
	r.DrawPercent(dst, r.Percent)
}

// DrawPercent strokes the ring at percent onto dst. Nothing is drawn at 0.
func (r *ProgressRing) DrawPercent(dst *ebiten.Image, percent float64) {
	if clampPercent(percent) == 0 || r.Radius <= 0 {
		return
	}
	lw := r.LineWidth
	if lw == 0 {
		lw = 2
	}
	c := r.Color
	if c == (Color{}) {
		c = Color{0, 0, 0, 1}
	}

	start, end := r.arc(percent)
	p := &vector.Path{}
	p.MoveTo(float32(r.X+r.Radius*math.Cos(start)), float32(r.Y+r.Radius*math.Sin(start)))
	p.Arc(float32(r.X), float32(r.Y), float32(r.Radius), float32(start), float32(end), vector.CounterClockwise)

	op := &vector.StrokeOptions{
		Width:   float32(lw),
		LineCap: r.Cap.vector(),
	}
	r.shapes.stroke(dst, p, op, c)
}

// TweenPercent animates Percent to the given value.
func (r *ProgressRing) TweenPercent(to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return TweenValue(&r.Percent, clampPercent(to), duration, fn)
}
