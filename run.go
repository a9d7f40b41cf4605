package drift

import (
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title string
	// Width and Height size the window. Zero uses the stage size.
	Width, Height int
	// TPS sets ticks per second, and so the FrameClock rate. Zero keeps
	// Ebitengine's default of 60.
	TPS     int
	ShowFPS bool
	// Update, when set, runs every tick before the stage's clock advances.
	// Returning an error (such as ebiten.Termination) ends Run.
	Update func() error
}

// game adapts a Stage to ebiten.Game.
type game struct {
	stage  *Stage
	update func() error
	fps    *fpsOverlay
}

func (g *game) Update() error {
	if g.update != nil {
		if err := g.update(); err != nil {
			return err
		}
	}
	g.stage.Update()
	if g.fps != nil {
		g.fps.update()
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.stage.Draw(screen)
	if g.fps != nil {
		g.fps.draw(screen)
	}
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.stage.Size()
}

// Run opens a window and drives stage until the window closes or
// cfg.Update returns an error. It blocks and must be called from the main
// goroutine.
func Run(stage *Stage, cfg RunConfig) error {
	w, h := stage.Size()
	if cfg.Width == 0 {
		cfg.Width = w
	}
	if cfg.Height == 0 {
		cfg.Height = h
	}
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}

	g := &game{stage: stage, update: cfg.Update}
	if cfg.ShowFPS {
		g.fps = &fpsOverlay{}
	}
	logger.Info("starting run loop",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
	)
	return ebiten.RunGame(g)
}
