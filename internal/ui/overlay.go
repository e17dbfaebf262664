//go:build ebiten

package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"mana-ca/internal/core"
	"mana-ca/internal/sims/dandelifeon"
)

type outcomeProvider interface {
	Done() bool
	Outcome() dandelifeon.Outcome
}

// Overlay outlines the forbidden zone and optionally draws cell grid lines.
// The outline turns red once a replay has reached its breach frame.
type Overlay struct {
	sim      core.Sim
	scale    int
	showZone bool
	showGrid bool
	pixel    *ebiten.Image
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	o := &Overlay{sim: sim, scale: scale, showZone: true}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update toggles layers: 1 for the zone outline, 2 for grid lines.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showZone = !o.showZone
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showGrid = !o.showGrid
	}
}

// Draw renders the enabled layers onto the provided screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	size := o.sim.Size()
	scale := o.scale
	if scale <= 0 {
		scale = 1
	}
	if o.showGrid && scale >= 4 {
		col := color.RGBA{R: 40, G: 40, B: 52, A: 255}
		for i := 1; i < size.W; i++ {
			o.fillRect(screen, float64(i*scale), 0, 1, float64(size.H*scale), col)
		}
		for i := 1; i < size.H; i++ {
			o.fillRect(screen, 0, float64(i*scale), float64(size.W*scale), 1, col)
		}
	}
	if !o.showZone {
		return
	}
	zone := dandelifeon.ForbiddenZone()
	first, last := zone[0], zone[len(zone)-1]
	x0, y0 := float64(first.Col*scale), float64(first.Row*scale)
	w := float64((last.Col - first.Col + 1) * scale)
	h := float64((last.Row - first.Row + 1) * scale)

	col := color.RGBA{R: 230, G: 90, B: 120, A: 200}
	thick := 1.0
	if p, ok := o.sim.(outcomeProvider); ok && p.Done() && p.Outcome().Reason == dandelifeon.ForbiddenZoneBreach {
		col = color.RGBA{R: 255, G: 40, B: 40, A: 255}
		thick = 2
	}
	o.fillRect(screen, x0, y0, w, thick, col)
	o.fillRect(screen, x0, y0+h-thick, w, thick, col)
	o.fillRect(screen, x0, y0, thick, h, col)
	o.fillRect(screen, x0+w-thick, y0, thick, h, col)
}

func (o *Overlay) fillRect(screen *ebiten.Image, x, y, w, h float64, col color.RGBA) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w, h)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}
