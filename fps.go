package drift

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// fpsOverlay prints the current FPS and TPS in the top-left corner. The text
// is refreshed every fpsRefreshTicks ticks so it stays readable.
type fpsOverlay struct {
	ticks int
	label string
}

const fpsRefreshTicks = 30

func (o *fpsOverlay) update() {
	if o.ticks%fpsRefreshTicks == 0 {
		o.label = fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
	}
	o.ticks++
}

func (o *fpsOverlay) draw(screen *ebiten.Image) {
	ebitenutil.DebugPrint(screen, o.label)
}
