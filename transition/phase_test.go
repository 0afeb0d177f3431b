package transition

import "testing"

func TestPhaseRunnerEmpty(t *testing.T) {
	r := newPhaseRunner(nil, 1, Unloading)
	emitted := 0
	if !r.step(func(float64) { emitted++ }) {
		t.Fatalf("empty runner should finish on first step")
	}
	if emitted != 0 {
		t.Fatalf("empty runner emitted %d values", emitted)
	}
}

func TestPhaseRunnerSequential(t *testing.T) {
	clock := &frameClock{}
	a := newFakeTask("a", clock, 3)
	b := newFakeTask("b", clock, 2)
	r := newPhaseRunner([]Task{a, b}, 3, Unloading)

	var values []float64
	emit := func(v float64) { values = append(values, v) }

	done := r.step(emit)
	for !done {
		if b.started && a.Progress() < 1 {
			t.Fatalf("second task started before the first finished")
		}
		clock.tick()
		done = r.step(emit)
	}

	if a.starts != 1 || b.starts != 1 {
		t.Fatalf("expected each task started once, got a=%d b=%d", a.starts, b.starts)
	}
	if len(values) != 5 {
		t.Fatalf("expected 5 progress values (3+2 frames), got %d: %v", len(values), values)
	}
	for i, v := range values {
		if v < 0 || v >= 0.5 {
			t.Fatalf("value %d = %v outside unloading range", i, v)
		}
		if i > 0 && v <= values[i-1] {
			t.Fatalf("values not strictly increasing: %v", values)
		}
	}
	if r.current() != 2 {
		t.Fatalf("runner index = %d, want 2", r.current())
	}
}

func TestPhaseRunnerLoadingRange(t *testing.T) {
	clock := &frameClock{}
	tasks := []Task{newFakeTask("a", clock, 4), newFakeTask("b", clock, 1), newFakeTask("c", clock, 0)}
	r := newPhaseRunner(tasks, len(tasks)+1, Loading)

	var values []float64
	for frames := 0; !r.step(func(v float64) { values = append(values, v) }); frames++ {
		if frames > 20 {
			t.Fatalf("runner did not finish")
		}
		clock.tick()
	}
	for _, v := range values {
		if v < 0.5 || v > 1 {
			t.Fatalf("loading value %v outside [0.5,1]", v)
		}
	}
	// the reserved slot is never reached by tasks alone
	if last := values[len(values)-1]; last >= Loading.Scale(float64(len(tasks))/float64(len(tasks)+1)) {
		t.Fatalf("last task value %v spilled into the reserved slot", last)
	}
}

func TestPhaseRunnerStalledTask(t *testing.T) {
	clock := &frameClock{}
	stuck := newFakeTask("stuck", clock, 1_000_000)
	r := newPhaseRunner([]Task{stuck}, 2, Unloading)
	for i := 0; i < 50; i++ {
		if r.step(func(float64) {}) {
			t.Fatalf("runner finished with a stalled task")
		}
		clock.tick()
	}
	if stuck.starts != 1 {
		t.Fatalf("stalled task started %d times", stuck.starts)
	}
}
