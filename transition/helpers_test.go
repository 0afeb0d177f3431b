package transition

import (
	"errors"
	"math"
	"testing"
)

// frameClock is the shared frame counter that fake tasks and operations
// measure elapsed time against.
type frameClock struct {
	frame int
}

func (c *frameClock) tick() {
	c.frame++
}

type fakeTask struct {
	name      string
	clock     *frameClock
	frames    int
	started   bool
	starts    int
	startedAt int
}

func newFakeTask(name string, clock *frameClock, frames int) *fakeTask {
	return &fakeTask{name: name, clock: clock, frames: frames}
}

func (t *fakeTask) Start() {
	t.started = true
	t.starts++
	t.startedAt = t.clock.frame
}

func (t *fakeTask) Progress() float64 {
	if !t.started {
		return 0
	}
	if t.frames <= 0 {
		return 1
	}
	p := float64(t.clock.frame-t.startedAt) / float64(t.frames)
	return math.Min(p, 1)
}

type fakeOp struct {
	clock  *frameClock
	frames int
	begun  int
	err    error
	onDone func()
	done   bool
}

func (o *fakeOp) Done() bool {
	if o.done {
		return true
	}
	if o.clock.frame-o.begun >= o.frames {
		o.done = true
		if o.onDone != nil {
			o.onDone()
		}
	}
	return o.done
}

func (o *fakeOp) Progress() float64 {
	if o.frames <= 0 {
		return 1
	}
	return math.Min(float64(o.clock.frame-o.begun)/float64(o.frames), 1)
}

func (o *fakeOp) Err() error {
	return o.err
}

type fakeContent struct {
	id      ContentID
	cleanup []Task
	setup   []Task
}

func (c *fakeContent) ID() ContentID        { return c.id }
func (c *fakeContent) CleanupTasks() []Task { return c.cleanup }
func (c *fakeContent) SetupTasks() []Task   { return c.setup }

type fakeLoader struct {
	clock        *frameClock
	active       *fakeContent
	scenes       map[ContentID]*fakeContent
	unloadFrames int
	loadFrames   int
	beginLoadErr error
	calls        []string
	lastOp       *fakeOp

	// cleanupDoneAtUnload records whether every cleanup task had finished
	// when BeginUnload was called.
	cleanupDoneAtUnload bool
}

func newFakeLoader(clock *frameClock, scenes ...*fakeContent) *fakeLoader {
	l := &fakeLoader{
		clock:        clock,
		scenes:       map[ContentID]*fakeContent{},
		unloadFrames: 2,
		loadFrames:   2,
	}
	for _, sc := range scenes {
		l.scenes[sc.id] = sc
	}
	return l
}

func (l *fakeLoader) Active() Content {
	if l.active == nil {
		return nil
	}
	return l.active
}

func (l *fakeLoader) BeginUnload(c Content) (Operation, error) {
	l.calls = append(l.calls, "unload:"+string(c.ID()))
	l.cleanupDoneAtUnload = true
	for _, task := range c.CleanupTasks() {
		if task.Progress() < 1 {
			l.cleanupDoneAtUnload = false
		}
	}
	op := &fakeOp{clock: l.clock, frames: l.unloadFrames, begun: l.clock.frame}
	op.onDone = func() { l.active = nil }
	l.lastOp = op
	return op, nil
}

func (l *fakeLoader) BeginLoad(id ContentID) (Operation, error) {
	l.calls = append(l.calls, "load:"+string(id))
	if l.beginLoadErr != nil {
		return nil, l.beginLoadErr
	}
	sc, ok := l.scenes[id]
	if !ok {
		return nil, errors.New("no such scene")
	}
	op := &fakeOp{clock: l.clock, frames: l.loadFrames, begun: l.clock.frame}
	op.onDone = func() { l.active = sc }
	l.lastOp = op
	return op, nil
}

type recordedEvent struct {
	kind  EventKind
	value float64
}

type recorder struct {
	events []recordedEvent
	subs   []*Subscription
}

func record(bus *Bus) *recorder {
	r := &recorder{}
	r.subs = append(r.subs,
		bus.OnStartLoading(func() { r.events = append(r.events, recordedEvent{kind: StartLoading}) }),
		bus.OnFinishedLoading(func() { r.events = append(r.events, recordedEvent{kind: FinishedLoading}) }),
		bus.OnProgress(func(v float64) { r.events = append(r.events, recordedEvent{kind: ProgressUpdated, value: v}) }),
	)
	return r
}

func (r *recorder) progress() []float64 {
	var out []float64
	for _, ev := range r.events {
		if ev.kind == ProgressUpdated {
			out = append(out, ev.value)
		}
	}
	return out
}

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.kind == kind {
			n++
		}
	}
	return n
}

// runFrames ticks the clock and polls the changer until it goes idle or
// limit frames pass.
func runFrames(t *testing.T, c *Changer, clock *frameClock, limit int) int {
	t.Helper()
	n := 0
	for c.Busy() && n < limit {
		clock.tick()
		n++
		if err := c.Update(); err != nil {
			t.Fatalf("Update at frame %d: %v", clock.frame, err)
		}
	}
	return n
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
