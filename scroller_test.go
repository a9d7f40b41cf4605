package drift

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// fixedFont measures every rune as 10 pixels wide.
type fixedFont struct{}

func (fixedFont) MeasureString(s string) (float64, float64) {
	return float64(len([]rune(s))) * 10, 20
}

func (fixedFont) LineHeight() float64 { return 20 }

type textCall struct {
	text string
	x, y float64
	fill Color
}

// recordSurface records draw calls instead of rasterising them.
type recordSurface struct {
	w, h    int
	texts   []textCall
	rects   int
	images  int
	clears  int
	blits   int
	buffers []*recordSurface
}

func newRecordSurface(w, h int) *recordSurface {
	return &recordSurface{w: w, h: h}
}

func (s *recordSurface) Size() (int, int) { return s.w, s.h }

func (s *recordSurface) MeasureText(text string, font Font) float64 {
	w, _ := font.MeasureString(text)
	return w
}

func (s *recordSurface) DrawImage(img *ebiten.Image, x, y, w, h float64) { s.images++ }

func (s *recordSurface) DrawRoundedRect(x, y, w, h, radius float64, fill Color) { s.rects++ }

func (s *recordSurface) FillText(text string, x, y float64, font Font, fill Color) {
	s.texts = append(s.texts, textCall{text, x, y, fill})
}

// ClearRegion also forgets the recorded texts so each frame starts empty.
func (s *recordSurface) ClearRegion(x, y, w, h float64) {
	s.clears++
	s.texts = s.texts[:0]
	s.rects = 0
	s.images = 0
}

func (s *recordSurface) Blit(src Surface, x, y float64) { s.blits++ }

func (s *recordSurface) NewBuffer(w, h int) Surface {
	b := newRecordSurface(w, h)
	s.buffers = append(s.buffers, b)
	return b
}

func (s *recordSurface) buffer() *recordSurface {
	return s.buffers[len(s.buffers)-1]
}

func newTestScroller(t *testing.T, cfg ScrollerConfig) (*LaneScroller, *recordSurface, *FrameClock) {
	t.Helper()
	target := newRecordSurface(200, 100)
	cfg.Target = target
	cfg.Font = fixedFont{}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(1, 2))
	}
	clock := NewFrameClock()
	l, err := NewLaneScroller(clock, cfg)
	if err != nil {
		t.Fatalf("NewLaneScroller: %v", err)
	}
	return l, target, clock
}

func texts(items []LaneItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

func TestScrollerDefaults(t *testing.T) {
	l, _, _ := newTestScroller(t, ScrollerConfig{})
	cfg := l.cfg
	if cfg.Rows != 4 || l.Rows() != 4 {
		t.Errorf("Rows = %d, want 4", cfg.Rows)
	}
	if cfg.Width != 200 || cfg.Height != 100 {
		t.Errorf("size = %dx%d, want target size 200x100", cfg.Width, cfg.Height)
	}
	if cfg.AvatarSize != 40 || cfg.Padding != 12 || cfg.FontSize != 24 {
		t.Errorf("sizes = %v/%v/%v, want 40/12/24", cfg.AvatarSize, cfg.Padding, cfg.FontSize)
	}
	if cfg.Speed != 2 || cfg.MinSpace != 20 || cfg.MaxSpace != 60 {
		t.Errorf("motion = %v [%d,%d], want 2 [20,60]", cfg.Speed, cfg.MinSpace, cfg.MaxSpace)
	}
	if len(cfg.Colors) != 1 || cfg.Colors[0] != PaletteDark {
		t.Errorf("Colors = %v, want [dark]", cfg.Colors)
	}
}

func TestScrollerLaneGeometry(t *testing.T) {
	l, _, _ := newTestScroller(t, ScrollerConfig{})
	for i, ln := range l.lanes {
		assertNear(t, "lane y", ln.y, 12.5+float64(i)*25)
		assertNear(t, "lane speed", ln.speed, 2+float64(i)*0.2)
	}
}

func TestScrollerConfigErrors(t *testing.T) {
	clock := NewFrameClock()
	target := newRecordSurface(200, 100)
	tests := []struct {
		name string
		cfg  ScrollerConfig
	}{
		{"no target", ScrollerConfig{Font: fixedFont{}}},
		{"negative rows", ScrollerConfig{Target: target, Font: fixedFont{}, Rows: -1}},
		{"empty palette", ScrollerConfig{Target: target, Font: fixedFont{}, Colors: []string{}}},
		{"bad color", ScrollerConfig{Target: target, Font: fixedFont{}, Colors: []string{"notacolor"}}},
		{"inverted spacing", ScrollerConfig{Target: target, Font: fixedFont{}, MinSpace: 50, MaxSpace: 10}},
		{"bad weight", ScrollerConfig{Target: target, FontWeight: "heavy-ish"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLaneScroller(clock, tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestScrollerIsEmpty(t *testing.T) {
	l, _, _ := newTestScroller(t, ScrollerConfig{})
	if !l.IsEmpty() {
		t.Error("new scroller with no list should be empty")
	}
	l.Add(LaneItem{Text: "hi"})
	if l.IsEmpty() {
		t.Error("scroller should not be empty after Add")
	}
}

func TestScrollerAddPrepends(t *testing.T) {
	l, _, _ := newTestScroller(t, ScrollerConfig{List: []LaneItem{{Text: "a"}, {Text: "b"}}})
	l.Add(LaneItem{Text: "first"})
	got := strings.Join(texts(l.Backlog()), ",")
	if got != "first,a,b" {
		t.Errorf("backlog = %s, want first,a,b", got)
	}
}

func TestScrollerShootPlacesItem(t *testing.T) {
	l, _, _ := newTestScroller(t, ScrollerConfig{
		List: []LaneItem{{Name: "ann", Text: "hi", Color: "#ff0000"}},
	})
	l.Play()

	ln := l.lanes[0]
	if len(ln.live) != 1 {
		t.Fatalf("lane 0 live = %d, want 1", len(ln.live))
	}
	f := ln.live[0]
	if f.label != "ann：hi" {
		t.Errorf("label = %q, want %q", f.label, "ann：hi")
	}
	assertNear(t, "width", f.width, 60)
	if f.x < 220 || f.x > 260 {
		t.Errorf("x = %v, want in [220, 260]", f.x)
	}
	if f.fill != (Color{1, 0, 0, 1}) {
		t.Errorf("fill = %+v, want red", f.fill)
	}
}

func TestScrollerWidthIncludesAvatarAndPadding(t *testing.T) {
	avatar := ebiten.NewImage(8, 8)
	defer avatar.Deallocate()

	l, _, _ := newTestScroller(t, ScrollerConfig{
		Background: true,
		List:       []LaneItem{{Text: "abc", Avatar: avatar}, {Text: "pre", Width: 7}},
	})
	l.Play()

	assertNear(t, "measured width", l.lanes[0].live[0].width, 30+40+5+24)
	assertNear(t, "precomputed width", l.lanes[1].live[0].width, 7)
}

func TestScrollerItemsMoveBySpeed(t *testing.T) {
	l, _, clock := newTestScroller(t, ScrollerConfig{
		Rows: 1,
		List: []LaneItem{{Text: "a"}, {Text: "b"}, {Text: "c"}},
	})
	l.Play()
	clock.Tick()

	prev := map[*flight]float64{}
	for frame := 0; frame < 200; frame++ {
		ln := l.lanes[0]
		for _, f := range ln.live {
			prev[f] = f.x
		}
		clock.Tick()
		ln = l.lanes[0]
		for i, f := range ln.live {
			if i > 0 && ln.live[i-1].x >= f.x {
				t.Fatalf("frame %d: lane order broken at %d", frame, i)
			}
			if x, ok := prev[f]; ok {
				assertNear(t, "step", x-f.x, 2)
			}
		}
	}
}

func TestScrollerRefillsLaneAfterTailEnters(t *testing.T) {
	l, _, clock := newTestScroller(t, ScrollerConfig{
		Rows: 1,
		List: []LaneItem{{Text: "a"}, {Text: "b"}},
	})
	l.Play()
	if got := l.InFlight(); got != 1 {
		t.Fatalf("in flight = %d, want 1", got)
	}
	for i := 0; i < 60 && l.InFlight() < 2; i++ {
		clock.Tick()
	}
	if got := l.InFlight(); got != 2 {
		t.Fatalf("in flight = %d, want 2 once the first item fully entered", got)
	}
	a, b := l.lanes[0].live[0], l.lanes[0].live[1]
	if a.x+a.width >= b.x {
		t.Errorf("items overlap: a ends at %v, b starts at %v", a.x+a.width, b.x)
	}
}

func TestScrollerLoopRequeuesOnce(t *testing.T) {
	l, _, clock := newTestScroller(t, ScrollerConfig{
		Rows: 1,
		Loop: true,
		List: []LaneItem{{Name: "n", Text: "a", Color: "light"}},
	})
	l.Play()
	first := l.lanes[0].live[0]

	for i := 0; i < 500 && len(l.Backlog()) == 0; i++ {
		clock.Tick()
		if len(l.lanes[0].live) == 0 {
			break
		}
	}
	backlog := l.Backlog()
	if len(backlog) != 1 {
		t.Fatalf("backlog = %d items, want exactly 1", len(backlog))
	}
	if backlog[0].Text != "n：a" || backlog[0].Name != "" {
		t.Errorf("requeued item = %+v, want prefixed text without name", backlog[0])
	}
	assertNear(t, "requeued width", backlog[0].Width, first.width)
	c, err := ParseColor(backlog[0].Color)
	if err != nil {
		t.Fatalf("requeued color %q: %v", backlog[0].Color, err)
	}
	if c.toRGBA() != first.fill.toRGBA() {
		t.Errorf("requeued color = %v, want %v", c, first.fill)
	}
	if len(l.Completed()) != 0 {
		t.Error("loop mode must not archive items")
	}

	clock.Tick()
	if len(l.lanes[0].live) != 1 || l.lanes[0].live[0].label != "n：a" {
		t.Error("requeued item should re-enter the lane with the same label")
	}
}

func TestScrollerOverPromotesCompleted(t *testing.T) {
	l, target, clock := newTestScroller(t, ScrollerConfig{
		Rows: 4,
		List: []LaneItem{{Text: "a"}, {Text: "b"}},
	})
	overs := 0
	l.OnOver(func() { overs++ })

	l.Play()
	for i := 0; i < 1000 && !l.Over(); i++ {
		clock.Tick()
	}
	if !l.Over() {
		t.Fatal("scroller should be over once both items exit")
	}
	if !l.Paused() {
		t.Error("over scroller should be paused")
	}
	if overs != 1 {
		t.Errorf("OnOver ran %d times, want 1", overs)
	}
	// Lanes move at different speeds, so exit order is not fixed.
	got := texts(l.Backlog())
	slices.Sort(got)
	if strings.Join(got, ",") != "a,b" {
		t.Errorf("backlog after over = %v, want a and b", got)
	}
	if len(l.Completed()) != 0 {
		t.Error("completed list should be cleared after over")
	}
	if l.InFlight() != 0 {
		t.Error("no item should be in flight after over")
	}

	frames, blits := l.Frames(), target.blits
	clock.Tick()
	clock.Tick()
	if l.Frames() != frames || target.blits != blits {
		t.Error("over scroller kept drawing")
	}

	l.Play()
	if l.Over() || l.InFlight() == 0 {
		t.Error("Play after over should replay the promoted backlog")
	}
}

func TestScrollerReplayFromOnOverWaitsForTick(t *testing.T) {
	l, _, clock := newTestScroller(t, ScrollerConfig{Rows: 2})
	overs := 0
	l.OnOver(func() {
		overs++
		l.Play()
	})

	l.Play()
	if overs != 1 {
		t.Fatalf("OnOver ran %d times on Play, want 1", overs)
	}
	if l.Over() || l.Paused() {
		t.Error("Play from OnOver should clear the over state")
	}
	if clock.Pending() != 1 {
		t.Fatalf("pending = %d, want the replay scheduled once", clock.Pending())
	}

	for i := 0; i < 5; i++ {
		clock.Tick()
	}
	if overs != 6 {
		t.Errorf("OnOver ran %d times after 5 ticks, want 6", overs)
	}
	if clock.Pending() != 1 {
		t.Errorf("pending = %d, want 1", clock.Pending())
	}
}

func TestScrollerCompletedExactlyOnce(t *testing.T) {
	l, _, clock := newTestScroller(t, ScrollerConfig{
		Rows: 1,
		List: []LaneItem{{Text: "a"}, {Text: "b"}, {Text: "c"}},
	})
	l.Play()
	for i := 0; i < 2000 && !l.Over(); i++ {
		clock.Tick()
		seen := map[string]int{}
		for _, it := range l.Completed() {
			seen[it.Text]++
			if seen[it.Text] > 1 {
				t.Fatalf("%q archived twice", it.Text)
			}
		}
		for _, it := range l.Backlog() {
			if seen[it.Text] > 0 {
				t.Fatalf("%q archived and pending at once", it.Text)
			}
		}
	}
	if got := strings.Join(texts(l.Backlog()), ","); got != "a,b,c" {
		t.Errorf("backlog after over = %s, want a,b,c", got)
	}
}

func TestScrollerPauseStopsScheduling(t *testing.T) {
	l, _, clock := newTestScroller(t, ScrollerConfig{List: []LaneItem{{Text: "a"}}})
	l.Play()
	clock.Tick()
	x := l.lanes[0].live[0].x

	l.Pause()
	clock.Tick()
	if clock.Pending() != 0 {
		t.Error("paused scroller should not schedule another frame")
	}
	clock.Tick()
	assertNear(t, "x while paused", l.lanes[0].live[0].x, x)

	l.Resume()
	assertNear(t, "x after resume", l.lanes[0].live[0].x, x-2)
	if clock.Pending() != 1 {
		t.Errorf("pending = %d, want 1 after Resume", clock.Pending())
	}
}

func TestScrollerPlayDoesNotDoubleSchedule(t *testing.T) {
	l, _, clock := newTestScroller(t, ScrollerConfig{List: []LaneItem{{Text: "a"}}})
	l.Play()
	l.Play()
	l.Resume()
	if clock.Pending() != 1 {
		t.Errorf("pending = %d, want 1", clock.Pending())
	}
	if l.Frames() != 1 {
		t.Errorf("frames = %d, want 1", l.Frames())
	}
}

func TestScrollerSetListResets(t *testing.T) {
	l, target, clock := newTestScroller(t, ScrollerConfig{List: []LaneItem{{Text: "a"}, {Text: "b"}}})
	l.Play()
	clock.Tick()
	clears := target.clears

	l.SetList([]LaneItem{{Text: "z"}})
	if l.InFlight() != 0 {
		t.Error("SetList should clear every lane")
	}
	if got := strings.Join(texts(l.Backlog()), ","); got != "z" {
		t.Errorf("backlog = %s, want z", got)
	}
	if target.clears <= clears {
		t.Error("SetList should clear the target")
	}
}

func TestScrollerDrawsBackgroundAndAvatar(t *testing.T) {
	avatar := ebiten.NewImage(8, 8)
	defer avatar.Deallocate()

	l, target, _ := newTestScroller(t, ScrollerConfig{
		Rows:       1,
		Background: true,
		List:       []LaneItem{{Text: "a", Avatar: avatar}},
	})
	l.Play() // shoots only
	l.draw() // draws the flight

	buf := target.buffer()
	if buf.rects != 1 || buf.images != 1 || len(buf.texts) != 1 {
		t.Fatalf("rects/images/texts = %d/%d/%d, want 1/1/1", buf.rects, buf.images, len(buf.texts))
	}
	f := l.lanes[0].live[0]
	assertNear(t, "text x", buf.texts[0].x, f.x+12+40+5)
	assertNear(t, "text y", buf.texts[0].y, f.y)
}
