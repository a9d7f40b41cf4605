package drift

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// color32 is a compact RGBA color using float32, for render commands only.
type color32 struct {
	R, G, B, A float32
}

// RenderCommand is a single draw instruction emitted during the stage walk.
type RenderCommand struct {
	Transform [6]float32
	Image     *ebiten.Image
	Color     color32
	BlendMode BlendMode
}

// affine32 converts a [6]float64 affine matrix to [6]float32.
func affine32(m [6]float64) [6]float32 {
	return [6]float32{float32(m[0]), float32(m[1]), float32(m[2]), float32(m[3]), float32(m[4]), float32(m[5])}
}

// traverse walks the node tree depth-first, updating transforms and emitting
// render commands for visible sprites. Children draw after their parent in
// insertion order.
func (s *Stage) traverse(n *Node, parentTransform [6]float64, parentAlpha float64, parentRecomputed bool) {
	if !n.Visible {
		return
	}

	recompute := n.transformDirty || parentRecomputed
	if recompute {
		local := computeLocalTransform(n)
		n.worldTransform = multiplyAffine(parentTransform, local)
		n.worldAlpha = parentAlpha * n.Alpha
		n.transformDirty = false
	}

	if n.Type == NodeTypeSprite && n.Image != nil && n.worldAlpha > 0 {
		s.commands = append(s.commands, RenderCommand{
			Transform: affine32(n.worldTransform),
			Image:     n.Image,
			Color:     color32{float32(n.Color.R), float32(n.Color.G), float32(n.Color.B), float32(n.Color.A * n.worldAlpha)},
			BlendMode: n.BlendMode,
		})
	}

	for _, child := range n.children {
		s.traverse(child, n.worldTransform, n.worldAlpha, recompute)
	}
}

// submit draws every queued command onto target.
func (s *Stage) submit(target *ebiten.Image) {
	var op ebiten.DrawImageOptions
	for i := range s.commands {
		cmd := &s.commands[i]
		op.GeoM.Reset()
		op.GeoM.Concat(commandGeoM(cmd))

		// Premultiplied color scale.
		op.ColorScale.Reset()
		a := cmd.Color.A
		op.ColorScale.Scale(cmd.Color.R*a, cmd.Color.G*a, cmd.Color.B*a, a)

		op.Blend = cmd.BlendMode.EbitenBlend()
		target.DrawImage(cmd.Image, &op)
	}
}

// commandGeoM converts a command's transform into an ebiten.GeoM.
func commandGeoM(cmd *RenderCommand) ebiten.GeoM {
	var m ebiten.GeoM
	m.SetElement(0, 0, float64(cmd.Transform[0]))
	m.SetElement(1, 0, float64(cmd.Transform[1]))
	m.SetElement(0, 1, float64(cmd.Transform[2]))
	m.SetElement(1, 1, float64(cmd.Transform[3]))
	m.SetElement(0, 2, float64(cmd.Transform[4]))
	m.SetElement(1, 2, float64(cmd.Transform[5]))
	return m
}
