package drift

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"

	"github.com/tanema/gween/ease"
	"go.uber.org/zap"
)

// SpawnRegion selects where a ParticleField places new particles.
type SpawnRegion uint8

const (
	SpawnTop    SpawnRegion = iota // just above the top edge, random x
	SpawnBottom                    // just below the bottom edge, random x
	SpawnPoint                     // at FieldConfig.Point
)

// particle holds per-particle simulation state. Unexported; managed by
// ParticleField. Position, scale and alpha live on the node.
type particle struct {
	node      *Node
	kind      string
	vx, vy    float64
	rotation  float64 // degrees
	vrotation float64 // degrees per tick
	fade      *TweenGroup
}

// advance moves the particle one tick along its velocity and spin.
func (p *particle) advance() {
	p.node.X += p.vx
	p.node.Y += p.vy
	p.rotation += p.vrotation
	if p.rotation >= 360 || p.rotation <= -360 {
		p.rotation = 0
	}
	p.node.Rotation = p.rotation * math.Pi / 180
	p.node.MarkDirty()
	if p.fade != nil {
		p.fade.Update(1)
		if p.fade.Done {
			p.fade = nil
		}
	}
}

// FieldConfig controls how a ParticleField spawns and moves particles.
// Zero fields take the defaults noted on each one.
type FieldConfig struct {
	// Interval is the number of ticks between spawns. Default 20.
	Interval int
	// VelocityX is the horizontal velocity range in pixels per tick. Default [-2, 2].
	VelocityX Range
	// VelocityY is the vertical velocity range in pixels per tick. Default [1, 4].
	VelocityY Range
	// Capacity caps the number of live particles. Default 64.
	Capacity int
	// Spawn selects the spawn region. Default SpawnTop.
	Spawn SpawnRegion
	// Point is the spawn origin for SpawnPoint.
	Point Vec2
	// NoRotation disables the per-tick spin.
	NoRotation bool
	// MinDrift, when positive, nudges particles whose |vx| and |vy| are both
	// below it outward by MinDrift on each axis so none hang in place.
	MinDrift float64
	// FadeIn, when positive, fades new particles from transparent to their
	// spawn alpha over that many ticks.
	FadeIn int
	// BlendMode is the compositing operation for particle sprites.
	BlendMode BlendMode
	// Rand is the randomness source. Default: a runtime-seeded PCG.
	Rand *rand.Rand
}

func (c FieldConfig) withDefaults() FieldConfig {
	if c.Interval <= 0 {
		c.Interval = 20
	}
	if c.VelocityX == (Range{}) {
		c.VelocityX = Range{-2, 2}
	}
	if c.VelocityY == (Range{}) {
		c.VelocityY = Range{1, 4}
	}
	if c.Capacity == 0 {
		c.Capacity = 64
	}
	if c.Capacity < 0 {
		panic("drift: negative particle capacity")
	}
	if c.FadeIn < 0 {
		c.FadeIn = 0
	}
	if c.Rand == nil {
		c.Rand = newRand()
	}
	return c
}

// Spawn-time attribute ranges.
var (
	spawnAlpha    = Range{0.5, 1.0}
	spawnScale    = Range{0.5, 1.0}
	spawnRotation = Range{0, 360}
)

// FieldStats counts particle lifecycle events since the field was created.
type FieldStats struct {
	Spawned  int // particles constructed
	Reused   int // particles taken from the pool
	Recycled int // particles returned to the pool
	Dropped  int // spawns skipped at capacity or with no assets
}

// ErrNotInitialized is returned by WaitReady when Init was never called.
var ErrNotInitialized = errors.New("drift: particle field has no pending asset load")

type assetResult struct {
	set *AssetSet
	err error
}

// ParticleField spawns image particles at a fixed tick interval, drifts them
// across the display, and recycles each one into a per-image pool once it
// has left the canvas. It is driven by a FrameClock and draws through a
// DisplayList.
type ParticleField struct {
	display DisplayList
	clock   *FrameClock
	cfg     FieldConfig

	assets  *AssetSet
	kinds   []string
	ready   bool
	loaded  chan assetResult
	onReady func(*AssetSet)

	sub     Subscription
	running bool
	paused  bool
	time    int

	live        []*particle
	pool        Pool[*particle]
	stats       FieldStats
	warnedEmpty bool
}

// NewParticleField creates a field that draws into display and is ticked by
// clock once started.
func NewParticleField(display DisplayList, clock *FrameClock, cfg FieldConfig) *ParticleField {
	return &ParticleField{
		display: display,
		clock:   clock,
		cfg:     cfg.withDefaults(),
	}
}

// Configure replaces the simulation parameters. Live particles keep the
// velocity they were spawned with; if the new capacity is below the live
// count, the newest particles are recycled at once.
func (f *ParticleField) Configure(cfg FieldConfig) {
	if cfg.Rand == nil {
		cfg.Rand = f.cfg.Rand
	}
	f.cfg = cfg.withDefaults()
	if len(f.live) <= f.cfg.Capacity {
		return
	}
	for len(f.live) > f.cfg.Capacity {
		f.recycle(len(f.live) - 1)
	}
	f.display.Redraw()
}

// Config returns the effective configuration.
func (f *ParticleField) Config() FieldConfig {
	return f.cfg
}

// Init loads assets through loader in the background. When the batch
// completes, the next tick installs the images and calls onReady (if
// non-nil) on the frame thread. Assets that fail to load are logged and
// never spawned. Until then the field ignores ticks.
func (f *ParticleField) Init(ctx context.Context, loader ImageLoader, assets []Asset, onReady func(*AssetSet)) {
	f.ready = false
	f.onReady = onReady
	ch := make(chan assetResult, 1)
	f.loaded = ch
	go func() {
		set, err := LoadAssets(ctx, loader, assets, nil)
		ch <- assetResult{set: set, err: err}
	}()
}

// WaitReady blocks until the load started by Init completes, then installs
// the assets and calls onReady. It returns the load error, or ctx's error if
// ctx ends first.
func (f *ParticleField) WaitReady(ctx context.Context) error {
	if f.ready {
		return nil
	}
	if f.loaded == nil {
		return ErrNotInitialized
	}
	select {
	case r := <-f.loaded:
		return f.installAssets(r)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UseAssets installs an already loaded set and marks the field ready. A nil
// set counts as empty, so every spawn is skipped.
func (f *ParticleField) UseAssets(set *AssetSet) {
	f.loaded = nil
	f.onReady = nil
	_ = f.installAssets(assetResult{set: set})
}

// Ready reports whether assets are installed.
func (f *ParticleField) Ready() bool {
	return f.ready
}

func (f *ParticleField) pollAssets() {
	if f.loaded == nil {
		return
	}
	select {
	case r := <-f.loaded:
		_ = f.installAssets(r)
	default:
	}
}

func (f *ParticleField) installAssets(r assetResult) error {
	f.loaded = nil
	if r.err != nil {
		logger.Error("particle assets did not load", zap.Error(r.err))
		return r.err
	}
	if r.set == nil {
		r.set = &AssetSet{}
	}
	f.assets = r.set
	f.kinds = r.set.IDs()
	f.ready = true
	f.warnedEmpty = false
	if f.onReady != nil {
		fn := f.onReady
		f.onReady = nil
		fn(r.set)
	}
	return nil
}

// Start subscribes the field to its clock. Calling Start while running only
// clears the paused flag.
func (f *ParticleField) Start() {
	f.paused = false
	if f.running {
		return
	}
	f.sub = f.clock.Subscribe(f.Tick)
	f.running = true
}

// Stop unsubscribes the field from its clock. Live particles stay where
// they are until Reset.
func (f *ParticleField) Stop() {
	if !f.running {
		return
	}
	f.clock.Unsubscribe(f.sub)
	f.running = false
}

// Pause freezes spawning and movement. The field stays subscribed.
func (f *ParticleField) Pause() {
	f.paused = true
}

// Resume undoes Pause.
func (f *ParticleField) Resume() {
	f.paused = false
}

// Paused reports whether the field is paused.
func (f *ParticleField) Paused() bool {
	return f.paused
}

// Running reports whether the field is subscribed to its clock.
func (f *ParticleField) Running() bool {
	return f.running
}

// Live returns the number of particles on screen.
func (f *ParticleField) Live() int {
	return len(f.live)
}

// Pooled returns the number of retired particles waiting for kind.
func (f *ParticleField) Pooled(kind string) int {
	return f.pool.Len(kind)
}

// Stats returns lifecycle counters.
func (f *ParticleField) Stats() FieldStats {
	return f.stats
}

// Reset recycles every live particle and restarts the spawn timer.
func (f *ParticleField) Reset() {
	for len(f.live) > 0 {
		f.recycle(len(f.live) - 1)
	}
	f.time = 0
	f.display.Redraw()
}

// Tick advances the simulation by one frame. It is registered with the clock
// by Start but may also be called directly.
func (f *ParticleField) Tick() {
	if !f.ready {
		f.pollAssets()
		if !f.ready {
			return
		}
	}
	if f.paused {
		return
	}

	f.time++
	if f.time >= f.cfg.Interval {
		f.time = 0
		f.spawn()
	}

	canvas := f.display.Bounds()
	for i := 0; i < len(f.live); {
		p := f.live[i]
		p.advance()
		if f.display.TransformedBounds(p.node).Outside(canvas) {
			f.recycle(i)
			continue
		}
		i++
	}

	if len(f.live) > 0 {
		f.display.Redraw()
	}
}

// spawn places one particle of a random kind, reusing a pooled one when
// available.
func (f *ParticleField) spawn() {
	if len(f.live) >= f.cfg.Capacity {
		f.stats.Dropped++
		return
	}
	if len(f.kinds) == 0 {
		f.stats.Dropped++
		if !f.warnedEmpty {
			logger.Warn("particle field has no loaded assets; spawning skipped")
			f.warnedEmpty = true
		}
		return
	}

	rng := f.cfg.Rand
	kind := f.kinds[rng.IntN(len(f.kinds))]
	img, _ := f.assets.Image(kind)

	vx := f.cfg.VelocityX.Random(rng)
	vy := f.cfg.VelocityY.Random(rng)
	if d := f.cfg.MinDrift; d > 0 && math.Abs(vx) < d && math.Abs(vy) < d {
		vx += math.Copysign(d, vx)
		vy += math.Copysign(d, vy)
	}
	alpha := spawnAlpha.Random(rng)
	scale := spawnScale.Random(rng)
	rotation := spawnRotation.Random(rng)

	b := img.Bounds()
	w := float64(b.Dx()) * scale
	h := float64(b.Dy()) * scale
	canvas := f.display.Bounds()

	var x, y float64
	switch f.cfg.Spawn {
	case SpawnTop:
		x = Range{canvas.X + w/2, canvas.X + canvas.Width - w/2}.Random(rng)
		y = canvas.Y - h/2
	case SpawnBottom:
		x = Range{canvas.X + w/2, canvas.X + canvas.Width - w/2}.Random(rng)
		y = canvas.Y + canvas.Height + h/2
	default:
		x, y = f.cfg.Point.X, f.cfg.Point.Y
	}

	var vrotation float64
	if !f.cfg.NoRotation {
		vrotation = 1
		if vx < 0 {
			vrotation = -1
		}
	}

	p, ok := f.pool.Acquire(kind)
	if ok {
		f.stats.Reused++
	} else {
		p = &particle{node: NewSprite(kind, img)}
		f.stats.Spawned++
	}

	p.kind = kind
	p.vx, p.vy = vx, vy
	p.rotation = rotation
	p.vrotation = vrotation

	n := p.node
	n.Image = img
	n.CenterPivot()
	n.SetPosition(x, y)
	n.SetScale(scale, scale)
	n.SetRotation(rotation * math.Pi / 180)
	n.SetAlpha(alpha)
	n.BlendMode = f.cfg.BlendMode
	if f.cfg.FadeIn > 0 {
		n.SetAlpha(0)
		p.fade = TweenAlpha(n, alpha, float32(f.cfg.FadeIn), ease.OutQuad)
	}

	f.live = append(f.live, p)
	f.display.AddChild(n)
}

// recycle detaches the live particle at index i and pools it.
// Swap-removes, so the slot is refilled by the last live particle.
func (f *ParticleField) recycle(i int) {
	p := f.live[i]
	p.fade = nil
	f.display.RemoveChild(p.node)
	f.pool.Release(p.kind, p)
	f.stats.Recycled++

	last := len(f.live) - 1
	f.live[i] = f.live[last]
	f.live[last] = nil
	f.live = f.live[:last]
}
