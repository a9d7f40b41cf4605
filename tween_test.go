package drift

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

func TestTweenValue(t *testing.T) {
	tests := []struct {
		name     string
		from, to float64
		steps    []float32
		want     []float64
	}{
		{"up", 0, 80, []float32{0.5, 0.5}, []float64{40, 80}},
		{"down", 100, 0, []float32{0.25, 0.25, 0.5}, []float64{75, 50, 0}},
		{"overshoot clamps", 10, 20, []float32{2}, []float64{20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.from
			g := TweenValue(&v, tt.to, 1.0, ease.Linear)
			for i, dt := range tt.steps {
				g.Update(dt)
				if math.Abs(v-tt.want[i]) > 0.01 {
					t.Errorf("step %d: v = %f, want %f", i, v, tt.want[i])
				}
			}
			if !g.Done {
				t.Error("group should be done after the full duration")
			}
		})
	}
}

func TestTweenGroupStaysDone(t *testing.T) {
	v := 0.0
	g := TweenValue(&v, 1, 0.5, ease.Linear)
	if g.Done {
		t.Fatal("new group should not be done")
	}
	g.Update(0.25)
	if g.Done {
		t.Fatal("group finished early")
	}
	g.Update(0.25)
	v = 7
	g.Update(0.1)
	if !g.Done || v != 7 {
		t.Errorf("done group wrote %f after finishing", v)
	}
}

func TestTweenAlphaFadesNode(t *testing.T) {
	node := NewContainer("alpha")
	node.Alpha = 0
	node.transformDirty = false

	g := TweenAlpha(node, 0.8, 10, ease.Linear)
	g.Update(5)
	if math.Abs(node.Alpha-0.4) > 1e-6 {
		t.Errorf("alpha halfway = %f, want 0.4", node.Alpha)
	}
	if !node.transformDirty {
		t.Error("tween step should mark the node dirty")
	}
	g.Update(5)
	if !g.Done {
		t.Fatal("fade should be done")
	}
	if math.Abs(node.Alpha-0.8) > 1e-6 {
		t.Errorf("alpha = %f, want 0.8", node.Alpha)
	}
}

func TestTweenAlphaStopsOnDisposedNode(t *testing.T) {
	node := NewContainer("gone")
	node.Alpha = 1
	g := TweenAlpha(node, 0, 1, ease.Linear)
	g.Update(0.25)
	a := node.Alpha

	node.Dispose()
	g.Update(0.25)
	if !g.Done {
		t.Error("group should finish once its node is disposed")
	}
	if node.Alpha != a {
		t.Errorf("alpha changed to %f after dispose", node.Alpha)
	}
}

func TestTweenEasingShapesCurve(t *testing.T) {
	linear, cubic := 0.0, 0.0
	TweenValue(&linear, 100, 1, ease.Linear).Update(0.5)
	TweenValue(&cubic, 100, 1, ease.OutCubic).Update(0.5)
	if cubic <= linear+1 {
		t.Errorf("OutCubic %f should lead Linear %f at the midpoint", cubic, linear)
	}
}

func TestTweenGroupUpdateZeroAlloc(t *testing.T) {
	v := 0.0
	g := TweenValue(&v, 100, 1000, ease.Linear)
	g.Update(0.01)
	if n := testing.AllocsPerRun(100, func() { g.Update(0.001) }); n > 0 {
		t.Errorf("Update allocated %f times per run, want 0", n)
	}
}

func TestTweenGroupRunOnClock(t *testing.T) {
	clock := NewFrameClock()
	node := NewContainer("run")
	g := TweenAlpha(node, 0, 0.5, ease.Linear)

	finished := 0
	g.Run(clock, 0.25, func() { finished++ })
	g.Run(clock, 0.25, nil)
	if clock.Listeners() != 1 {
		t.Fatalf("listeners = %d, want 1", clock.Listeners())
	}

	clock.Tick()
	if g.Done || !g.Running() {
		t.Fatal("group should still be running after one tick")
	}
	clock.Tick()
	if !g.Done || g.Running() {
		t.Fatal("group should be done and detached after two ticks")
	}
	if finished != 1 {
		t.Errorf("onDone ran %d times, want 1", finished)
	}
	if clock.Listeners() != 0 {
		t.Errorf("listeners = %d, want 0", clock.Listeners())
	}
	clock.Tick()
	if finished != 1 {
		t.Error("onDone ran again after detaching")
	}
}

func TestTweenGroupCancel(t *testing.T) {
	clock := NewFrameClock()
	v := 0.0
	g := TweenValue(&v, 10, 1.0, ease.Linear)
	g.Run(clock, 0.1, nil)
	clock.Tick()
	g.Cancel()
	got := v
	clock.Tick()
	if v != got {
		t.Errorf("v changed after Cancel: %f -> %f", got, v)
	}
	if g.Running() {
		t.Error("cancelled group should not be running")
	}
}
