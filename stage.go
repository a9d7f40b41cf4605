package drift

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// DisplayList is the scene-graph backend a ParticleField renders through.
// Stage is the Ebitengine implementation.
type DisplayList interface {
	// AddChild attaches n to the top level of the display list.
	AddChild(n *Node)
	// RemoveChild detaches n from the display list.
	RemoveChild(n *Node)
	// TransformedBounds returns n's on-screen axis-aligned bounds.
	TransformedBounds(n *Node) Rect
	// Bounds returns the visible canvas rectangle.
	Bounds() Rect
	// Redraw requests that the display list be recomposed.
	Redraw()
}

const defaultCommandCap = 256

// Stage is the top-level object that owns the node tree, the frame clock and
// the composed frame. Like a canvas stage, the node tree is only recomposed
// when Redraw has been requested since the last Draw; overlay layers are
// drawn on top every frame.
type Stage struct {
	root  *Node
	clock *FrameClock
	w, h  int
	debug bool

	// ClearColor fills the composed frame before nodes are drawn.
	ClearColor Color
	// ScreenshotDir is where Screenshot writes PNGs.
	ScreenshotDir string

	commands []RenderCommand
	frame    *ebiten.Image
	dirty    bool
	redraws  uint64
	layers   []*Canvas

	screenshotQueue []string
	script          *ScriptRunner
}

// NewStage creates a stage of the given canvas size with its own FrameClock.
func NewStage(w, h int) *Stage {
	return &Stage{
		root:     NewContainer("root"),
		clock:    NewFrameClock(),
		w:        w,
		h:        h,
		commands: make([]RenderCommand, 0, defaultCommandCap),
		dirty:    true,

		ScreenshotDir: "screenshots",
	}
}

// Root returns the stage's root container node.
func (s *Stage) Root() *Node {
	return s.root
}

// Clock returns the frame clock advanced by Update.
func (s *Stage) Clock() *FrameClock {
	return s.clock
}

// Size returns the canvas size in pixels.
func (s *Stage) Size() (w, h int) {
	return s.w, s.h
}

// Bounds returns the canvas rectangle.
func (s *Stage) Bounds() Rect {
	return Rect{Width: float64(s.w), Height: float64(s.h)}
}

// AddChild attaches n to the root container.
func (s *Stage) AddChild(n *Node) {
	s.root.AddChild(n)
}

// RemoveChild detaches n from the root container. Nodes that are not
// children of the root are ignored.
func (s *Stage) RemoveChild(n *Node) {
	if n.Parent != s.root {
		return
	}
	s.root.RemoveChild(n)
}

// TransformedBounds returns n's world-space bounds.
func (s *Stage) TransformedBounds(n *Node) Rect {
	return n.TransformedBounds()
}

// Redraw marks the node tree for recomposition on the next Draw.
func (s *Stage) Redraw() {
	s.dirty = true
	s.redraws++
}

// Redraws returns how many times Redraw has been requested.
func (s *Stage) Redraws() uint64 {
	return s.redraws
}

// AddLayer draws c on top of the node tree every frame.
func (s *Stage) AddLayer(c *Canvas) {
	s.layers = append(s.layers, c)
}

// RemoveLayer stops drawing c.
func (s *Stage) RemoveLayer(c *Canvas) {
	for i, l := range s.layers {
		if l == c {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return
		}
	}
}

// Update steps the attached script, if any, then advances the frame clock
// by one tick.
func (s *Stage) Update() {
	if s.script != nil {
		s.script.step(s)
	}
	s.clock.Tick()
}

// Draw recomposes the node tree if a redraw was requested, then draws the
// composed frame and the overlay layers onto screen.
func (s *Stage) Draw(screen *ebiten.Image) {
	if s.frame == nil {
		s.frame = ebiten.NewImage(s.w, s.h)
		s.dirty = true
	}
	if s.dirty {
		s.compose()
		s.dirty = false
	}

	screen.DrawImage(s.frame, nil)
	for _, l := range s.layers {
		screen.DrawImage(l.Image(), nil)
	}
	s.flushScreenshots(screen)
}

// compose renders the node tree into the cached frame image.
func (s *Stage) compose() {
	var stats debugStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	s.commands = s.commands[:0]
	s.traverse(s.root, identityTransform, 1.0, false)

	if s.debug {
		stats.traverseTime = time.Since(t0)
		t0 = time.Now()
	}

	s.frame.Fill(s.ClearColor.toRGBA())
	s.submit(s.frame)

	if s.debug {
		stats.submitTime = time.Since(t0)
		stats.commandCount = len(s.commands)
		s.debugLog(stats)
	}
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics, child count warnings are logged, and per-compose timing
// stats are logged at debug level.
func (s *Stage) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// globalDebug mirrors the most recently set Stage debug flag so that node
// operations (which lack a Stage pointer) can check it cheaply. Only valid
// with a single Stage.
var globalDebug bool
