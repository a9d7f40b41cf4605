package drift

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float64 fields simultaneously. Create one with
// TweenValue or TweenAlpha and either call Update(dt) yourself or hand it to
// a FrameClock with Run. When the group has a target node it marks the node
// dirty after every step and stops as soon as the node is disposed.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	fields [4]*float64
	target *Node
	Done   bool

	clock  *FrameClock
	sub    Subscription
	onDone func()
}

// Update advances all tweens by dt seconds and writes the values to the
// target fields. If the target node has been disposed, Done is set to true
// and no writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}

	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone

	if g.target != nil {
		g.target.MarkDirty()
	}
}

// Run subscribes the group to clock, advancing it by dt seconds per tick.
// Once the group is done it unsubscribes itself and calls onDone (if
// non-nil). Run on a running group is a no-op.
func (g *TweenGroup) Run(clock *FrameClock, dt float32, onDone func()) {
	if g.clock != nil {
		return
	}
	g.clock = clock
	g.onDone = onDone
	g.sub = clock.Subscribe(func() {
		g.Update(dt)
		if g.Done {
			g.Cancel()
			if g.onDone != nil {
				g.onDone()
			}
		}
	})
}

// Cancel unsubscribes a group started with Run. Fields keep their current
// values.
func (g *TweenGroup) Cancel() {
	if g.clock == nil {
		return
	}
	g.clock.Unsubscribe(g.sub)
	g.clock = nil
}

// Running reports whether the group is subscribed to a clock.
func (g *TweenGroup) Running() bool {
	return g.clock != nil
}

// TweenValue creates a TweenGroup that animates *v to the given value. It has
// no target node.
func TweenValue(v *float64, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1}
	g.tweens[0] = gween.New(float32(*v), float32(to), duration, fn)
	g.fields[0] = v
	return g
}

// TweenAlpha creates a TweenGroup that animates node.Alpha. ParticleField
// uses it for FieldConfig.FadeIn.
func TweenAlpha(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(float32(node.Alpha), float32(to), duration, fn)
	g.fields[0] = &node.Alpha
	return g
}
