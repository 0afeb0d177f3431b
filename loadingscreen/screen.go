// Package loadingscreen tracks the loading overlay state driven by
// transition events: a fade in on StartLoading, a progress fill, and a fade
// out on FinishedLoading.
package loadingscreen

import (
	"github.com/milk9111/scenechanger/common"
	"github.com/milk9111/scenechanger/transition"
)

// Screen is updated once per frame. It starts hidden.
type Screen struct {
	fadeTicks int

	alpha  float64
	from   float64
	to     float64
	tick   int
	fading bool

	fill   float64
	blocks bool

	subs []*transition.Subscription
}

// New subscribes a screen to bus. Fades take fadeTicks frames; values below
// one make them instant on the next Update.
func New(bus *transition.Bus, fadeTicks int) *Screen {
	if fadeTicks < 1 {
		fadeTicks = 1
	}
	s := &Screen{fadeTicks: fadeTicks}
	s.subs = []*transition.Subscription{
		bus.OnStartLoading(func() { s.fadeTo(1) }),
		bus.OnFinishedLoading(func() { s.fadeTo(0) }),
		bus.OnProgress(func(v float64) { s.fill = common.Clamp01(v) }),
	}
	return s
}

func (s *Screen) fadeTo(target float64) {
	s.from = s.alpha
	s.to = target
	s.tick = 0
	s.fading = true
}

func (s *Screen) Update() {
	if !s.fading {
		return
	}
	s.tick++
	s.alpha = common.Lerp(s.from, s.to, float64(s.tick)/float64(s.fadeTicks))
	if s.tick >= s.fadeTicks {
		s.alpha = s.to
		s.fading = false
		s.blocks = s.to >= 1
	}
}

// Alpha is the overlay opacity in [0, 1].
func (s *Screen) Alpha() float64 {
	return s.alpha
}

// Fill is the last reported progress.
func (s *Screen) Fill() float64 {
	return s.fill
}

// BlocksInput reports whether the overlay is fully shown and should swallow
// input meant for the scene beneath.
func (s *Screen) BlocksInput() bool {
	return s.blocks
}

func (s *Screen) Visible() bool {
	return s.alpha > 0
}

func (s *Screen) Fading() bool {
	return s.fading
}

// Close unsubscribes the screen from its bus.
func (s *Screen) Close() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
}
