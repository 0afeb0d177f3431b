package host

import (
	"fmt"
	"strings"

	"github.com/milk9111/scenechanger/transition"
)

// Trace records the progress values of the most recent scene change.
type Trace struct {
	id     func() string
	lastID string
	values []float64
	done   bool
	subs   []*transition.Subscription
}

func NewTrace(bus *transition.Bus, id func() string) *Trace {
	t := &Trace{id: id}
	t.subs = []*transition.Subscription{
		bus.OnStartLoading(func() {
			t.values = t.values[:0]
			t.done = false
			if t.id != nil {
				t.lastID = t.id()
			}
		}),
		bus.OnProgress(func(v float64) { t.values = append(t.values, v) }),
		bus.OnFinishedLoading(func() { t.done = true }),
	}
	return t
}

func (t *Trace) Values() []float64 {
	return append([]float64(nil), t.values...)
}

// Done reports whether the recorded change finished.
func (t *Trace) Done() bool {
	return t.done
}

// String formats the trace one value per line under a header naming the
// transition.
func (t *Trace) String() string {
	var b strings.Builder
	status := "incomplete"
	if t.done {
		status = "finished"
	}
	fmt.Fprintf(&b, "transition %s (%s, %d updates)\n", t.lastID, status, len(t.values))
	for i, v := range t.values {
		fmt.Fprintf(&b, "%4d %.4f\n", i, v)
	}
	return b.String()
}

func (t *Trace) Close() {
	for _, sub := range t.subs {
		sub.Unsubscribe()
	}
	t.subs = nil
}
