package transition

// EventKind identifies one of the three transition events.
type EventKind int

const (
	StartLoading EventKind = iota
	FinishedLoading
	ProgressUpdated
)

func (k EventKind) String() string {
	switch k {
	case StartLoading:
		return "start_loading"
	case FinishedLoading:
		return "finished_loading"
	case ProgressUpdated:
		return "progress_updated"
	default:
		return "unknown"
	}
}

type listener[F any] struct {
	fn      F
	removed bool
}

// listenerList is copy-on-write: delivery iterates a snapshot while
// subscribe/unsubscribe replace the slice.
type listenerList[F any] struct {
	items []*listener[F]
}

func (l *listenerList[F]) add(fn F) *listener[F] {
	entry := &listener[F]{fn: fn}
	next := make([]*listener[F], 0, len(l.items)+1)
	next = append(next, l.items...)
	l.items = append(next, entry)
	return entry
}

func (l *listenerList[F]) remove(entry *listener[F]) {
	entry.removed = true
	next := make([]*listener[F], 0, len(l.items))
	for _, it := range l.items {
		if it != entry {
			next = append(next, it)
		}
	}
	l.items = next
}

func (l *listenerList[F]) each(call func(F)) {
	for _, it := range l.items {
		if it.removed {
			continue
		}
		call(it.fn)
	}
}

// Bus delivers transition events synchronously to every current subscriber.
// It is not safe for concurrent use; subscribe and publish from the frame
// loop goroutine.
type Bus struct {
	start    listenerList[func()]
	finish   listenerList[func()]
	progress listenerList[func(float64)]
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscription is the handle returned by the On* methods.
type Subscription struct {
	cancel func()
}

// Unsubscribe stops delivery to the handler, including any remaining
// delivery of the event currently being published. Safe to call more than
// once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
}

func (b *Bus) OnStartLoading(fn func()) *Subscription {
	entry := b.start.add(fn)
	return &Subscription{cancel: func() { b.start.remove(entry) }}
}

func (b *Bus) OnFinishedLoading(fn func()) *Subscription {
	entry := b.finish.add(fn)
	return &Subscription{cancel: func() { b.finish.remove(entry) }}
}

func (b *Bus) OnProgress(fn func(float64)) *Subscription {
	entry := b.progress.add(fn)
	return &Subscription{cancel: func() { b.progress.remove(entry) }}
}

// Unsubscribe is shorthand for sub.Unsubscribe.
func (b *Bus) Unsubscribe(sub *Subscription) {
	sub.Unsubscribe()
}

// Subscribers returns the number of live handlers for kind.
func (b *Bus) Subscribers(kind EventKind) int {
	switch kind {
	case StartLoading:
		return len(b.start.items)
	case FinishedLoading:
		return len(b.finish.items)
	case ProgressUpdated:
		return len(b.progress.items)
	default:
		return 0
	}
}

// EmitStartLoading delivers StartLoading to every subscriber.
func (b *Bus) EmitStartLoading() {
	b.start.each(func(fn func()) { fn() })
}

// EmitFinishedLoading delivers FinishedLoading to every subscriber.
func (b *Bus) EmitFinishedLoading() {
	b.finish.each(func(fn func()) { fn() })
}

// EmitProgress delivers ProgressUpdated(v) to every subscriber.
func (b *Bus) EmitProgress(v float64) {
	b.progress.each(func(fn func(float64)) { fn(v) })
}
