package drift

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// LaneItem is one message for a LaneScroller.
type LaneItem struct {
	// Avatar is drawn as a square left of the text when non-nil.
	Avatar *ebiten.Image
	// Name, when set, is prefixed to Text as "Name：Text".
	Name string
	Text string
	// Color is a palette token or literal color. Empty picks from the
	// scroller's palette.
	Color string
	// Width is the precomputed pixel width. Zero means measure at spawn.
	Width float64
}

// nameSeparator joins a speaker name to its message.
const nameSeparator = "："

// avatarGap is the space between an avatar and its text.
const avatarGap = 5

// backgroundFill is the color of the rounded box behind each item.
var backgroundFill = Color{0, 0, 0, 0.5}

// ScrollerConfig configures a LaneScroller. Zero fields take the defaults
// noted on each one.
type ScrollerConfig struct {
	// Target is the visible surface. Required.
	Target Surface
	// Width and Height default to the target's size.
	Width, Height int
	// Colors is the palette. Default ["dark"]. A non-nil empty slice is an error.
	Colors []string
	// AvatarSize is the avatar edge length. Default 40.
	AvatarSize float64
	// Padding is the background box padding. Default 12.
	Padding float64
	// FontSize in pixels. Default 24.
	FontSize float64
	// FontWeight is a CSS weight. Default "normal".
	FontWeight string
	// FontFamily selects a bundled face. Default "Go".
	FontFamily string
	// Font overrides FontSize, FontWeight and FontFamily when set.
	Font Font
	// Rows is the lane count. Default 4.
	Rows int
	// Speed is lane 0's speed in pixels per frame; lane i moves at
	// Speed + 0.2*i. Default 2.
	Speed float64
	// MinSpace and MaxSpace bound the random gap before each item enters.
	// Default 20 and 60.
	MinSpace, MaxSpace int
	// Loop requeues items that leave the screen instead of archiving them.
	Loop bool
	// List is the initial backlog.
	List []LaneItem
	// Background draws a translucent rounded box behind each item.
	Background bool
	// Rand is the randomness source. Default: a runtime-seeded PCG.
	Rand *rand.Rand
}

func (c ScrollerConfig) withDefaults() ScrollerConfig {
	if c.Target != nil && (c.Width == 0 || c.Height == 0) {
		w, h := c.Target.Size()
		if c.Width == 0 {
			c.Width = w
		}
		if c.Height == 0 {
			c.Height = h
		}
	}
	if c.Colors == nil {
		c.Colors = []string{PaletteDark}
	}
	if c.AvatarSize == 0 {
		c.AvatarSize = 40
	}
	if c.Padding == 0 {
		c.Padding = 12
	}
	if c.FontSize == 0 {
		c.FontSize = 24
	}
	if c.FontWeight == "" {
		c.FontWeight = "normal"
	}
	if c.FontFamily == "" {
		c.FontFamily = DefaultFamily
	}
	if c.Rows == 0 {
		c.Rows = 4
	}
	if c.Speed == 0 {
		c.Speed = 2
	}
	if c.MinSpace == 0 && c.MaxSpace == 0 {
		c.MinSpace, c.MaxSpace = 20, 60
	}
	if c.Rand == nil {
		c.Rand = newRand()
	}
	return c
}

func (c ScrollerConfig) validate() error {
	switch {
	case c.Target == nil:
		return fmt.Errorf("drift: scroller needs a target surface")
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("drift: scroller size %dx%d must be positive", c.Width, c.Height)
	case c.Rows < 0:
		return fmt.Errorf("drift: scroller rows %d must be positive", c.Rows)
	case c.Speed < 0:
		return fmt.Errorf("drift: scroller speed %g must not be negative", c.Speed)
	case c.MinSpace < 0 || c.MaxSpace < c.MinSpace:
		return fmt.Errorf("drift: scroller spacing [%d, %d] is invalid", c.MinSpace, c.MaxSpace)
	case c.AvatarSize < 0 || c.Padding < 0 || c.FontSize < 0:
		return fmt.Errorf("drift: scroller sizes must not be negative")
	}
	return nil
}

type lane struct {
	y     float64
	speed float64
	live  []*flight
}

// flight is an item moving across a lane.
type flight struct {
	avatar *ebiten.Image
	label  string
	fill   Color
	x, y   float64
	width  float64
}

// item converts f back into a LaneItem that respawns with the same label,
// color and width.
func (f *flight) item() LaneItem {
	return LaneItem{
		Avatar: f.avatar,
		Text:   f.label,
		Color:  f.fill.CSS(),
		Width:  f.width,
	}
}

// LaneScroller drifts messages right-to-left across fixed horizontal lanes,
// barrage style. Each frame it draws into an offscreen buffer and copies the
// buffer to the target in one blit. Items that leave the left edge are
// requeued (Loop) or archived; once every lane is empty and nothing is
// pending, the scroller stops and the archive becomes the new backlog.
//
// Frames are scheduled one at a time with FrameClock.Next. LaneScroller is
// not safe for concurrent use.
type LaneScroller struct {
	clock   *FrameClock
	cfg     ScrollerConfig
	target  Surface
	buffer  Surface
	font    Font
	palette Palette
	w, h    float64

	lanes     []lane
	backlog   []LaneItem
	completed []LaneItem

	paused    bool
	over      bool
	scheduled bool
	notifying bool
	frames    uint64
	observers []func()
}

// NewLaneScroller validates cfg and builds a scroller that draws to
// cfg.Target. It does not start playing.
func NewLaneScroller(clock *FrameClock, cfg ScrollerConfig) (*LaneScroller, error) {
	if clock == nil {
		return nil, fmt.Errorf("drift: scroller needs a frame clock")
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	palette, err := ParsePalette(cfg.Colors)
	if err != nil {
		return nil, err
	}

	font := cfg.Font
	if font == nil {
		weight, err := ParseFontWeight(cfg.FontWeight)
		if err != nil {
			return nil, err
		}
		f, err := BuiltinFont(cfg.FontFamily, weight, cfg.FontSize)
		if err != nil {
			return nil, err
		}
		font = f
	}

	l := &LaneScroller{
		clock:   clock,
		cfg:     cfg,
		target:  cfg.Target,
		buffer:  cfg.Target.NewBuffer(cfg.Width, cfg.Height),
		font:    font,
		palette: palette,
		w:       float64(cfg.Width),
		h:       float64(cfg.Height),
		backlog: append([]LaneItem(nil), cfg.List...),
	}

	lineHeight := l.h / float64(cfg.Rows)
	l.lanes = make([]lane, cfg.Rows)
	for i := range l.lanes {
		l.lanes[i] = lane{
			y:     lineHeight/2 + float64(i)*lineHeight,
			speed: cfg.Speed + float64(i)*0.2,
		}
	}
	return l, nil
}

// Play starts or restarts the frame loop. The first frame is drawn
// immediately and each frame schedules the next. Called from an OnOver
// observer, the first frame waits for the next clock tick.
func (l *LaneScroller) Play() {
	l.paused = false
	l.over = false
	if l.notifying {
		l.schedule()
		return
	}
	if l.scheduled {
		return
	}
	l.draw()
}

// Resume is Play.
func (l *LaneScroller) Resume() {
	l.Play()
}

// Pause stops the loop at the next frame. Only Play or Resume restart it.
func (l *LaneScroller) Pause() {
	l.paused = true
}

// Stop is Pause.
func (l *LaneScroller) Stop() {
	l.paused = true
}

// SetList replaces the backlog and clears every lane, the archive and both
// surfaces. Configuration and the paused state are kept.
func (l *LaneScroller) SetList(items []LaneItem) {
	l.backlog = append(l.backlog[:0:0], items...)
	l.completed = nil
	for i := range l.lanes {
		clear(l.lanes[i].live)
		l.lanes[i].live = l.lanes[i].live[:0]
	}
	l.over = false
	l.Clean()
}

// Add queues item to play next, ahead of everything already pending.
func (l *LaneScroller) Add(item LaneItem) {
	l.backlog = append(l.backlog, LaneItem{})
	copy(l.backlog[1:], l.backlog)
	l.backlog[0] = item
}

// Clean clears the buffer and the target.
func (l *LaneScroller) Clean() {
	l.buffer.ClearRegion(0, 0, l.w, l.h)
	l.target.ClearRegion(0, 0, l.w, l.h)
}

// IsEmpty reports whether nothing is pending, archived or in flight.
func (l *LaneScroller) IsEmpty() bool {
	if len(l.backlog) > 0 || len(l.completed) > 0 {
		return false
	}
	return l.InFlight() == 0
}

// InFlight returns the number of items currently on a lane.
func (l *LaneScroller) InFlight() int {
	n := 0
	for i := range l.lanes {
		n += len(l.lanes[i].live)
	}
	return n
}

// Backlog returns a copy of the pending items in play order.
func (l *LaneScroller) Backlog() []LaneItem {
	return append([]LaneItem(nil), l.backlog...)
}

// Completed returns a copy of the items archived since the last replay.
func (l *LaneScroller) Completed() []LaneItem {
	return append([]LaneItem(nil), l.completed...)
}

// Over reports whether the scroller ran out of items and stopped itself.
func (l *LaneScroller) Over() bool {
	return l.over
}

// Paused reports whether Pause or Stop is in effect.
func (l *LaneScroller) Paused() bool {
	return l.paused
}

// Frames returns the number of frames drawn.
func (l *LaneScroller) Frames() uint64 {
	return l.frames
}

// Rows returns the lane count.
func (l *LaneScroller) Rows() int {
	return len(l.lanes)
}

// OnOver registers fn to run each time the scroller runs out of items.
// Observers run on the frame thread after the archive has been promoted to
// the backlog, so calling Play from fn replays it from the next tick.
func (l *LaneScroller) OnOver(fn func()) {
	if fn == nil {
		panic("drift: nil over observer")
	}
	l.observers = append(l.observers, fn)
}

// draw runs one frame.
func (l *LaneScroller) draw() {
	l.scheduled = false
	if l.paused {
		return
	}
	l.frames++
	l.buffer.ClearRegion(0, 0, l.w, l.h)

	empty := 0
	for i := range l.lanes {
		ln := &l.lanes[i]
		if len(ln.live) == 0 {
			if len(l.backlog) == 0 {
				empty++
				if empty == len(l.lanes) {
					l.finish()
					return
				}
			}
			l.shoot(i)
			continue
		}

		for j := 0; j < len(ln.live); j++ {
			f := ln.live[j]
			if f.x+f.width <= 0 {
				last := len(ln.live) - 1
				copy(ln.live[j:], ln.live[j+1:])
				ln.live[last] = nil
				ln.live = ln.live[:last]
				if l.cfg.Loop {
					l.backlog = append(l.backlog, f.item())
				} else {
					l.completed = append(l.completed, f.item())
				}
				j--
				continue
			}
			f.x -= ln.speed
			l.drawFlight(f)
			if j == len(ln.live)-1 && f.x+f.width < l.w {
				l.shoot(i)
			}
		}
	}

	l.target.ClearRegion(0, 0, l.w, l.h)
	l.target.Blit(l.buffer, 0, 0)
	l.schedule()
}

func (l *LaneScroller) schedule() {
	if l.scheduled {
		return
	}
	l.scheduled = true
	l.clock.Next(l.draw)
}

// finish moves the scroller into the over state.
func (l *LaneScroller) finish() {
	l.paused = true
	l.over = true
	l.backlog = l.completed
	l.completed = nil
	logger.Debug("scroller finished", zap.Int("replayable", len(l.backlog)), zap.Uint64("frames", l.frames))
	l.notifying = true
	defer func() { l.notifying = false }()
	for _, fn := range l.observers {
		fn()
	}
}

// shoot moves the next pending item onto lane i, just past the right edge.
func (l *LaneScroller) shoot(i int) {
	if len(l.backlog) == 0 {
		return
	}
	item := l.backlog[0]
	l.backlog[0] = LaneItem{}
	l.backlog = l.backlog[1:]

	label := item.Text
	if item.Name != "" {
		label = item.Name + nameSeparator + label
	}
	fill := l.resolveColor(item.Color)

	width := item.Width
	if width == 0 {
		width = math.Ceil(l.buffer.MeasureText(label, l.font))
		if item.Avatar != nil {
			width += l.cfg.AvatarSize + avatarGap
		}
		if l.cfg.Background {
			width += l.cfg.Padding * 2
		}
	}

	ln := &l.lanes[i]
	ln.live = append(ln.live, &flight{
		avatar: item.Avatar,
		label:  label,
		fill:   fill,
		x:      l.w + float64(randomInt(l.cfg.Rand, l.cfg.MinSpace, l.cfg.MaxSpace)),
		y:      ln.y,
		width:  width,
	})
}

// resolveColor turns an item's color token into a concrete color. Unusable
// tokens fall back to the palette.
func (l *LaneScroller) resolveColor(token string) Color {
	if token == "" {
		return l.palette.Pick(l.cfg.Rand)
	}
	p, err := ParsePalette([]string{token})
	if err != nil {
		logger.Warn("invalid item color, using palette", zap.String("color", token), zap.Error(err))
		return l.palette.Pick(l.cfg.Rand)
	}
	return p.Pick(l.cfg.Rand)
}

func (l *LaneScroller) drawFlight(f *flight) {
	x := f.x
	if l.cfg.Background {
		bgHeight := l.cfg.FontSize + l.cfg.Padding*2
		l.buffer.DrawRoundedRect(f.x, f.y-bgHeight/2, f.width, bgHeight, bgHeight, backgroundFill)
		x += l.cfg.Padding
	}
	if f.avatar != nil {
		size := l.cfg.AvatarSize
		l.buffer.DrawImage(f.avatar, x, f.y-size/2, size, size)
		x += size + avatarGap
	}
	l.buffer.FillText(f.label, x, f.y, l.font, f.fill)
}
