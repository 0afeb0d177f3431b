package main

import (
	"fmt"
	"image/color"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/scenechanger/common"
	"github.com/milk9111/scenechanger/ecs"
	"github.com/milk9111/scenechanger/ecs/component"
	"github.com/milk9111/scenechanger/host"
	"github.com/milk9111/scenechanger/runstate"
	"github.com/rs/zerolog"
	"golang.design/x/clipboard"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"
)

type Game struct {
	app   *host.App
	log   zerolog.Logger
	pause *ebitenui.UI
	face  text.Face

	clipboardReady bool
	clipboardTried bool
	quit           bool
}

func NewGame(app *host.App, log zerolog.Logger) *Game {
	g := &Game{
		app:  app,
		log:  log,
		face: text.NewGoXFace(basicfont.Face7x13),
	}
	g.pause = NewPauseUI(func() { g.app.TogglePause() }, func() { g.quit = true })
	return g
}

func (g *Game) Update() error {
	if g.quit {
		return ebiten.Termination
	}

	// the overlay swallows scene input while fully shown
	if !g.app.Screen.BlocksInput() {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) && g.app.Tracker.State() == runstate.Playing {
			if err := g.app.Next(); err != nil {
				g.log.Warn().Err(err).Msg("next scene")
			}
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyP) {
			g.app.TogglePause()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copyTrace()
	}
	if g.app.Tracker.State() == runstate.Paused {
		g.pause.Update()
	}

	if err := g.app.Frame(); err != nil {
		g.log.Warn().Err(err).Msg("scene change failed")
	}
	return nil
}

func (g *Game) copyTrace() {
	if !g.clipboardTried {
		g.clipboardTried = true
		if err := clipboard.Init(); err != nil {
			g.log.Warn().Err(err).Msg("clipboard unavailable")
		} else {
			g.clipboardReady = true
		}
	}
	if !g.clipboardReady {
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(g.app.Trace.String()))
	g.log.Info().Int("updates", len(g.app.Trace.Values())).Msg("progress trace copied")
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Midnightblue)
	g.drawScene(screen)
	g.drawStatus(screen)
	drawOverlay(screen, g.app.Screen, g.face)
	if g.app.Tracker.State() == runstate.Paused {
		g.pause.Draw(screen)
	}
}

// drawScene fits the active level's tiles to the screen.
func (g *Game) drawScene(screen *ebiten.Image) {
	sc := g.app.Manager.ActiveScene()
	if sc == nil || sc.Level() == nil {
		return
	}
	lvl := sc.Level()
	scale := min(
		float64(common.BaseWidth)/float64(lvl.Width*common.TileSize),
		float64(common.BaseHeight)/float64(lvl.Height*common.TileSize),
	)
	size := float32(common.TileSize * scale)
	offX := (float32(common.BaseWidth) - size*float32(lvl.Width)) / 2
	offY := (float32(common.BaseHeight) - size*float32(lvl.Height)) / 2

	w := sc.World()
	for _, e := range w.Query(component.TileComponent.Kind()) {
		tile, ok := ecs.Get(w, e, component.TileComponent)
		if !ok {
			continue
		}
		x := offX + float32(tile.X)*size
		y := offY + float32(tile.Y)*size
		vector.FillRect(screen, x, y, size, size, tileColor(tile), false)
	}
}

func tileColor(t component.Tile) color.Color {
	switch {
	case t.Value == 2:
		return colornames.Firebrick
	case t.Solid:
		return colornames.Olivedrab
	default:
		return colornames.Slategray
	}
}

func (g *Game) drawStatus(screen *ebiten.Image) {
	scene := "-"
	if sc := g.app.Manager.ActiveScene(); sc != nil {
		scene = string(sc.ID())
	}
	status := fmt.Sprintf("scene %s  %s x%.0f  t=%.1fs  FPS %.0f   [N] next  [P] pause  [C] copy trace",
		scene, g.app.Tracker.State(), g.app.Tracker.TimeScale(), g.app.Clock(), ebiten.ActualFPS())
	op := &text.DrawOptions{}
	op.GeoM.Translate(8, 8)
	op.ColorScale.ScaleWithColor(colornames.White)
	text.Draw(screen, status, g.face, op)
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return common.BaseWidth, common.BaseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
