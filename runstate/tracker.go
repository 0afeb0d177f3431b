// Package runstate tracks whether the game is playing, loading a scene or
// paused, and the time scale that goes with each.
package runstate

import (
	"fmt"

	"github.com/milk9111/scenechanger/transition"
	"github.com/rs/zerolog"
)

type State int

const (
	Playing State = iota
	Loading
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Loading:
		return "loading"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Tracker follows scene change events. Like the bus it listens to, it
// belongs to the frame loop goroutine.
type Tracker struct {
	state     State
	timeScale float64
	log       zerolog.Logger
	subs      []*transition.Subscription
}

// NewTracker starts in Playing at normal speed and subscribes to bus.
func NewTracker(bus *transition.Bus, log zerolog.Logger) *Tracker {
	t := &Tracker{
		state:     Playing,
		timeScale: 1,
		log:       log,
	}
	t.subs = append(t.subs,
		bus.OnStartLoading(t.onStartLoading),
		bus.OnFinishedLoading(t.onFinishedLoading),
	)
	return t
}

func (t *Tracker) State() State {
	return t.state
}

// TimeScale is the multiplier the host applies to simulation time.
func (t *Tracker) TimeScale() float64 {
	return t.timeScale
}

// Pause toggles between Playing and Paused. It refuses, returning false and
// changing nothing, while a scene is loading.
func (t *Tracker) Pause() bool {
	switch t.state {
	case Loading:
		return false
	case Playing:
		t.set(Paused, 0)
		return true
	case Paused:
		t.set(Playing, 1)
		return true
	default:
		panic(fmt.Sprintf("runstate: unreachable state %s", t.state))
	}
}

// Close detaches the tracker from its bus.
func (t *Tracker) Close() {
	for _, sub := range t.subs {
		sub.Unsubscribe()
	}
	t.subs = nil
}

func (t *Tracker) onStartLoading() {
	t.set(Loading, 1)
}

func (t *Tracker) onFinishedLoading() {
	t.set(Playing, 1)
}

func (t *Tracker) set(state State, scale float64) {
	if t.state != state {
		t.log.Debug().Stringer("from", t.state).Stringer("to", state).Msg("run state changed")
	}
	t.state = state
	t.timeScale = scale
}
