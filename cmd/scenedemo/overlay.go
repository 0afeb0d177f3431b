package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/scenechanger/common"
	"github.com/milk9111/scenechanger/loadingscreen"
)

const (
	barWidth  = common.BaseWidth / 2
	barHeight = 24
)

// drawOverlay draws the loading screen at its current alpha: a dark backdrop
// and a progress bar filled to the last reported value.
func drawOverlay(screen *ebiten.Image, s *loadingscreen.Screen, face text.Face) {
	if !s.Visible() {
		return
	}
	a := s.Alpha()
	fade := func(c color.NRGBA) color.NRGBA {
		c.A = uint8(float64(c.A) * a)
		return c
	}

	vector.FillRect(screen, 0, 0, common.BaseWidth, common.BaseHeight, fade(color.NRGBA{A: 235}), false)

	x := float32(common.BaseWidth-barWidth) / 2
	y := float32(common.BaseHeight-barHeight) / 2
	vector.FillRect(screen, x, y, barWidth, barHeight, fade(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}), false)
	vector.FillRect(screen, x, y, float32(barWidth*s.Fill()), barHeight, fade(color.NRGBA{R: 0x6b, G: 0x8e, B: 0x23, A: 0xff}), false)
	vector.StrokeRect(screen, x, y, barWidth, barHeight, 2, fade(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}), false)

	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y)+barHeight+8)
	op.ColorScale.ScaleWithColor(fade(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}))
	text.Draw(screen, fmt.Sprintf("Loading %3.0f%%", s.Fill()*100), face, op)
}
