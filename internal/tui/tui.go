// Package tui shows a replay in the terminal.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"mana-ca/internal/core"
	"mana-ca/internal/replay"
	"mana-ca/internal/sims/dandelifeon"
)

// Each board cell is two terminal columns wide so the grid looks square.
const cellWidth = 2

const frameInterval = time.Second / 30

// Viewer draws a replay and reacts to keys: space pauses, n steps once,
// r rewinds and q or Esc quits.
type Viewer struct {
	screen tcell.Screen
	sim    *replay.Sim
	timer  *core.FixedStep
	paused bool
	styles []tcell.Style
	cells  []uint8
}

// New binds a viewer to an initialised screen.
func New(screen tcell.Screen, sim *replay.Sim, tps int) *Viewer {
	v := &Viewer{screen: screen, sim: sim, timer: core.NewFixedStep(tps)}
	for _, c := range dandelifeon.Palette() {
		col := tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
		v.styles = append(v.styles, tcell.StyleDefault.Background(col).Foreground(tcell.ColorWhite))
	}
	return v
}

// Paused reports whether playback is halted.
func (v *Viewer) Paused() bool { return v.paused }

// Run plays until the user quits or ctx ends.
func (v *Viewer) Run(ctx context.Context) error {
	events := make(chan tcell.Event)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	tick := time.NewTicker(frameInterval)
	defer tick.Stop()
	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if v.HandleEvent(ev) {
				return nil
			}
			v.Draw()
		case <-tick.C:
			if !v.paused && !v.sim.Done() && v.timer.ShouldStep() {
				v.sim.Step()
				v.Draw()
			}
		}
	}
}

// HandleEvent applies one input event and reports whether to quit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true
			case ' ':
				v.paused = !v.paused
			case 'n':
				v.sim.Step()
			case 'r':
				v.sim.SetIntParameter("frame", 0)
			}
		}
	}
	return false
}

// Draw paints the current frame and a status line under it.
func (v *Viewer) Draw() {
	v.screen.Clear()
	v.cells = v.sim.Cells()
	last := len(v.styles) - 1
	for idx, code := range v.cells {
		row, col := idx/dandelifeon.Size, idx%dandelifeon.Size
		c := int(code)
		if c > last {
			c = last
		}
		glyph := ' '
		if code == dandelifeon.DisplayBlocked {
			glyph = '#'
		}
		for k := 0; k < cellWidth; k++ {
			v.screen.SetContent(col*cellWidth+k, row, glyph, nil, v.styles[c])
		}
	}

	out := v.sim.Outcome()
	status := fmt.Sprintf("frame %d/%d  alive %d", v.sim.Frame(), v.sim.Frames()-1, v.sim.Board().Alive())
	if v.sim.Done() {
		status += fmt.Sprintf("  %s  mana %d  cost %d", out.Reason, out.Mana, out.Cost)
	}
	if v.paused {
		status += "  [paused]"
	}
	v.printLine(dandelifeon.Size+1, status)
	v.printLine(dandelifeon.Size+2, "space pause  n step  r rewind  q quit")
	v.screen.Show()
}

func (v *Viewer) printLine(y int, s string) {
	x := 0
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
		x++
	}
}

// Play opens the terminal, runs the viewer and restores the terminal.
func Play(ctx context.Context, sim *replay.Sim, tps int) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	return New(screen, sim, tps).Run(ctx)
}
