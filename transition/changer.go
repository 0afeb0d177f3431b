package transition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/milk9111/scenechanger/common"
	"github.com/rs/zerolog"
)

// ErrTransitionInProgress is returned by ChangeScene while another scene
// change has not finished.
var ErrTransitionInProgress = errors.New("transition: scene change already in progress")

// DefaultLoadProgressSlots is the divisor applied to content load progress.
// The load reports inside the first fifth of the Loading half regardless of
// how many setup tasks follow it.
const DefaultLoadProgressSlots = 5

type step int

const (
	stepIdle step = iota
	stepCleanup
	stepUnload
	stepLoad
	stepSetup
)

func (s step) String() string {
	switch s {
	case stepIdle:
		return "idle"
	case stepCleanup:
		return "cleanup"
	case stepUnload:
		return "unload"
	case stepLoad:
		return "load"
	case stepSetup:
		return "setup"
	default:
		return "unknown"
	}
}

// Option configures a Changer.
type Option func(*Changer)

// WithLogger sets the logger used for transition lifecycle messages.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Changer) {
		c.log = l
	}
}

// WithLoadProgressSlots overrides DefaultLoadProgressSlots. Values below 1
// are ignored.
func WithLoadProgressSlots(n int) Option {
	return func(c *Changer) {
		if n >= 1 {
			c.loadSlots = n
		}
	}
}

// Changer sequences a scene change: cleanup tasks, unload, load, setup
// tasks. It is polled from the host frame loop and never blocks.
type Changer struct {
	loader    Loader
	bus       *Bus
	log       zerolog.Logger
	loadSlots int

	step      step
	id        string
	target    ContentID
	unloading Content
	runner    *phaseRunner
	op        Operation

	cleanupCount int
	setupCount   int
	frames       int
	last         float64
}

func NewChanger(loader Loader, bus *Bus, opts ...Option) *Changer {
	c := &Changer{
		loader:    loader,
		bus:       bus,
		log:       zerolog.Nop(),
		loadSlots: DefaultLoadProgressSlots,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bus returns the event stream the changer publishes to.
func (c *Changer) Bus() *Bus {
	return c.bus
}

// Busy reports whether a scene change is in flight.
func (c *Changer) Busy() bool {
	return c.step != stepIdle
}

// Target returns the scene being loaded, or "" when idle.
func (c *Changer) Target() ContentID {
	return c.target
}

// TransitionID returns the id of the in-flight scene change, or "" when idle.
func (c *Changer) TransitionID() string {
	return c.id
}

// LastProgress returns the most recent progress value published.
func (c *Changer) LastProgress() float64 {
	return c.last
}

// ChangeScene starts a scene change to target. StartLoading and the first
// round of progress are published before it returns; the rest happens over
// subsequent Update calls.
func (c *Changer) ChangeScene(target ContentID) error {
	if c.step != stepIdle {
		return ErrTransitionInProgress
	}

	c.step = stepCleanup
	c.id = uuid.NewString()
	c.target = target
	c.frames = 0
	c.last = 0

	c.bus.EmitStartLoading()

	c.unloading = c.loader.Active()
	var cleanup []Task
	if c.unloading != nil {
		cleanup = c.unloading.CleanupTasks()
	}
	c.cleanupCount = len(cleanup)
	c.runner = newPhaseRunner(cleanup, c.unloadSlots(), Unloading)

	ev := c.log.Info().
		Str("transition_id", c.id).
		Str("target", string(target)).
		Int("cleanup_tasks", c.cleanupCount)
	if c.unloading != nil {
		ev = ev.Str("from", string(c.unloading.ID()))
	}
	ev.Msg("scene change started")

	return c.advance()
}

// Update advances the in-flight scene change by one frame. It returns the
// collaborator error that ended the change, if any.
func (c *Changer) Update() error {
	if c.step == stepIdle {
		return nil
	}
	c.frames++
	return c.advance()
}

// Drive calls Update on every tick until the current scene change ends or
// ctx is done. frame, when non-nil, runs before each Update so the host can
// advance loaders and task systems. Stopping early leaves the change in
// flight.
func (c *Changer) Drive(ctx context.Context, ticks <-chan time.Time, frame func()) error {
	for c.Busy() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticks:
			if frame != nil {
				frame()
			}
			if err := c.Update(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Changer) unloadSlots() int {
	return c.cleanupCount + 1
}

func (c *Changer) advance() error {
	for {
		switch c.step {
		case stepCleanup:
			if !c.runner.step(c.emit) {
				return nil
			}
			c.runner = nil
			if c.unloading == nil {
				if err := c.beginLoad(); err != nil {
					return err
				}
				continue
			}
			op, err := c.loader.BeginUnload(c.unloading)
			if err != nil {
				return c.fail(fmt.Errorf("transition: begin unload %s: %w", c.unloading.ID(), err))
			}
			c.op = op
			c.step = stepUnload

		case stepUnload:
			if err := operationErr(c.op); err != nil {
				return c.fail(fmt.Errorf("transition: unload %s: %w", c.unloading.ID(), err))
			}
			if !c.op.Done() {
				p := common.Clamp01(c.op.Progress())
				c.emit(Unloading.Scale(MapSubProgress(c.cleanupCount, p, c.unloadSlots())))
				return nil
			}
			c.unloading = nil
			if err := c.beginLoad(); err != nil {
				return err
			}

		case stepLoad:
			if err := operationErr(c.op); err != nil {
				return c.fail(fmt.Errorf("transition: load %s: %w", c.target, err))
			}
			if !c.op.Done() {
				p := common.Clamp01(c.op.Progress())
				c.emit(Loading.Scale(MapSubProgress(0, p, c.loadSlots)))
				return nil
			}
			c.op = nil

			var setup []Task
			if loaded := c.loader.Active(); loaded != nil {
				setup = loaded.SetupTasks()
			}
			c.setupCount = len(setup)
			c.runner = newPhaseRunner(setup, c.setupCount+1, Loading)
			c.step = stepSetup

		case stepSetup:
			if !c.runner.step(c.emit) {
				return nil
			}
			c.finish()
			return nil

		default:
			return nil
		}
	}
}

func (c *Changer) beginLoad() error {
	op, err := c.loader.BeginLoad(c.target)
	if err != nil {
		return c.fail(fmt.Errorf("transition: begin load %s: %w", c.target, err))
	}
	c.op = op
	c.step = stepLoad
	return nil
}

// emit publishes v, held at the previous value if a later slot computes a
// lower figure than an earlier one.
func (c *Changer) emit(v float64) {
	if v < c.last {
		v = c.last
	}
	c.last = v
	c.bus.EmitProgress(v)
}

func (c *Changer) finish() {
	c.log.Info().
		Str("transition_id", c.id).
		Str("target", string(c.target)).
		Int("setup_tasks", c.setupCount).
		Int("frames", c.frames).
		Msg("scene change finished")

	c.runner = nil
	c.bus.EmitFinishedLoading()
	c.reset()
}

// fail abandons the scene change. Subscribers and anything they drive keep
// whatever state the last event left them in.
func (c *Changer) fail(err error) error {
	c.log.Error().
		Err(err).
		Str("transition_id", c.id).
		Str("target", string(c.target)).
		Str("step", c.step.String()).
		Int("frames", c.frames).
		Msg("scene change failed")
	c.reset()
	return err
}

func (c *Changer) reset() {
	c.step = stepIdle
	c.id = ""
	c.target = ""
	c.unloading = nil
	c.runner = nil
	c.op = nil
}

func operationErr(op Operation) error {
	if f, ok := op.(failer); ok {
		return f.Err()
	}
	return nil
}
