package drift

import (
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// traverseStage runs the stage walk without drawing.
func traverseStage(s *Stage) {
	s.commands = s.commands[:0]
	s.traverse(s.root, identityTransform, 1.0, false)
}

// --- Command emission ---

func TestSingleSpriteEmitsOneCommand(t *testing.T) {
	s := NewStage(100, 100)
	img := ebiten.NewImage(32, 32)
	s.AddChild(NewSprite("s", img))

	traverseStage(s)

	if len(s.commands) != 1 {
		t.Fatalf("commands = %d, want 1", len(s.commands))
	}
	if s.commands[0].Image != img {
		t.Error("command should carry the sprite image")
	}
}

func TestInvisibleNodeNoCommands(t *testing.T) {
	s := NewStage(100, 100)
	sprite := NewSprite("s", ebiten.NewImage(32, 32))
	sprite.Visible = false
	s.AddChild(sprite)

	traverseStage(s)

	if len(s.commands) != 0 {
		t.Errorf("commands = %d, want 0 for invisible node", len(s.commands))
	}
}

func TestInvisibleSubtreeSkipped(t *testing.T) {
	s := NewStage(100, 100)
	parent := NewContainer("parent")
	parent.Visible = false
	parent.AddChild(NewSprite("child", ebiten.NewImage(32, 32)))
	s.AddChild(parent)

	traverseStage(s)

	if len(s.commands) != 0 {
		t.Errorf("commands = %d, want 0 for invisible subtree", len(s.commands))
	}
}

func TestContainerNoCommand(t *testing.T) {
	s := NewStage(100, 100)
	s.AddChild(NewContainer("empty"))
	s.AddChild(NewSprite("no image", nil))

	traverseStage(s)

	if len(s.commands) != 0 {
		t.Errorf("containers and imageless sprites should not emit commands, got %d", len(s.commands))
	}
}

func TestTransparentSpriteSkipped(t *testing.T) {
	s := NewStage(100, 100)
	sprite := NewSprite("s", ebiten.NewImage(8, 8))
	sprite.Alpha = 0
	s.AddChild(sprite)

	traverseStage(s)

	if len(s.commands) != 0 {
		t.Errorf("commands = %d, want 0 for alpha 0", len(s.commands))
	}
}

func TestCommandsFollowTreeOrder(t *testing.T) {
	s := NewStage(100, 100)
	imgs := []*ebiten.Image{ebiten.NewImage(1, 1), ebiten.NewImage(2, 2), ebiten.NewImage(3, 3)}
	group := NewContainer("group")
	group.AddChild(NewSprite("b", imgs[1]))
	s.AddChild(NewSprite("a", imgs[0]))
	s.AddChild(group)
	s.AddChild(NewSprite("c", imgs[2]))

	traverseStage(s)

	if len(s.commands) != 3 {
		t.Fatalf("commands = %d, want 3", len(s.commands))
	}
	for i, img := range imgs {
		if s.commands[i].Image != img {
			t.Errorf("command %d out of tree order", i)
		}
	}
}

func TestWorldAlphaInCommand(t *testing.T) {
	s := NewStage(100, 100)
	parent := NewContainer("parent")
	parent.Alpha = 0.5
	child := NewSprite("child", ebiten.NewImage(32, 32))
	child.Alpha = 0.8
	child.Color = Color{1, 0.5, 0.25, 1}
	parent.AddChild(child)
	s.AddChild(parent)

	traverseStage(s)

	if len(s.commands) != 1 {
		t.Fatalf("commands = %d, want 1", len(s.commands))
	}
	c := s.commands[0].Color
	if math.Abs(float64(c.A)-0.4) > 1e-6 {
		t.Errorf("command alpha = %v, want 0.4", c.A)
	}
	if c.G != 0.5 || c.B != 0.25 {
		t.Errorf("command tint = %v, want the node color", c)
	}
}

func TestCommandTransformAndBlend(t *testing.T) {
	s := NewStage(100, 100)
	sprite := NewSprite("s", ebiten.NewImage(10, 10))
	sprite.SetPosition(30, 40)
	sprite.SetScale(2, 2)
	sprite.BlendMode = BlendAdd
	s.AddChild(sprite)

	traverseStage(s)

	cmd := s.commands[0]
	want := [6]float32{2, 0, 0, 2, 30, 40}
	if cmd.Transform != want {
		t.Errorf("Transform = %v, want %v", cmd.Transform, want)
	}
	if cmd.BlendMode != BlendAdd {
		t.Errorf("BlendMode = %d, want BlendAdd", cmd.BlendMode)
	}

	g := commandGeoM(&cmd)
	x, y := g.Apply(5, 5)
	if x != 40 || y != 50 {
		t.Errorf("GeoM maps (5,5) to (%v,%v), want (40,50)", x, y)
	}
}

func TestSubmitDraws(t *testing.T) {
	s := NewStage(4, 4)
	img := ebiten.NewImage(2, 2)
	img.Fill(ColorWhite.toRGBA())
	s.AddChild(NewSprite("s", img))

	traverseStage(s)
	target := ebiten.NewImage(4, 4)
	s.submit(target) // must not panic
}

// --- Benchmarks ---

func buildSpriteStage(count int) *Stage {
	s := NewStage(800, 600)
	img := ebiten.NewImage(16, 16)
	for i := 0; i < count; i++ {
		sp := NewSprite("", img)
		sp.X = float64(i % 800)
		sp.Y = float64(i / 800)
		s.AddChild(sp)
	}
	return s
}

func BenchmarkTraverse1000(b *testing.B) {
	s := buildSpriteStage(1000)
	b.ReportAllocs()
	for b.Loop() {
		traverseStage(s)
	}
}
