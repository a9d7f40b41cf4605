// Package drift animates ambient layers for [Ebitengine]: image particles
// that drift across the screen, and chat messages that scroll right to left
// in lanes.
//
// # Quick start
//
// The simplest way to get started is [Run], which opens a window and drives
// a [Stage] for you:
//
//	stage := drift.NewStage(750, 1334)
//	field := drift.NewParticleField(stage, stage.Clock(), drift.FieldConfig{})
//	field.Init(ctx, drift.FSLoader{FS: assets}, manifest, nil)
//	field.Start()
//	drift.Run(stage, drift.RunConfig{Title: "snow"})
//
// For full control, implement [ebiten.Game] yourself and call
// [Stage.Update] and [Stage.Draw] directly.
//
// # Frame clock
//
// Every component is driven by a [FrameClock], advanced once per tick by
// [Stage.Update]. Components either subscribe for every tick
// ([FrameClock.Subscribe]) or schedule one callback for the next tick
// ([FrameClock.Next]), the way a browser's requestAnimationFrame works.
//
// # Particle fields
//
// A [ParticleField] loads an image manifest in the background, then spawns
// one particle every Interval ticks at the top edge, the bottom edge or a
// fixed point. Particles carry a random velocity, scale, alpha and spin, and
// are returned to a per-image [Pool] once they leave the canvas. The field
// draws through a [DisplayList]; [Stage] is the Ebitengine implementation.
//
// # Lane scrollers
//
// A [LaneScroller] moves [LaneItem] messages across a fixed number of lanes
// on a [Surface], usually a [Canvas] shown with [Stage.AddLayer]. Items
// come from a backlog; when everything has left the screen the scroller
// stops, promotes the finished items back to the backlog and notifies
// [LaneScroller.OnOver] observers. With Loop set, items requeue as soon as
// they leave instead.
//
// Colors are palette tokens ("dark", "light") or CSS colors; see
// [ParsePalette] and [ParseColor].
//
// # Extras
//
// [ProgressRing] draws an arc loading indicator, [ThresholdFilter] turns an
// image into a single-color stencil, and [TweenValue] and friends animate
// fields with [gween] easing. Scenes can be described in YAML and loaded
// with [LoadSceneConfig].
//
// # Logging
//
// drift logs through a [zap.Logger] installed with [SetLogger]. The default
// logger discards everything.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
// [zap.Logger]: https://pkg.go.dev/go.uber.org/zap#Logger
package drift
