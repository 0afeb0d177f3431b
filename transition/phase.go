package transition

// phaseRunner drains an ordered task list one task at a time. step is polled
// once per frame and never runs two tasks concurrently.
type phaseRunner struct {
	tasks   []Task
	slots   int
	phase   Phase
	index   int
	started bool
}

func newPhaseRunner(tasks []Task, slots int, phase Phase) *phaseRunner {
	return &phaseRunner{tasks: tasks, slots: slots, phase: phase}
}

// step polls the current task and reports whether every task has finished.
// A finished task hands over to the next one within the same call.
func (r *phaseRunner) step(emit func(float64)) bool {
	for r.index < len(r.tasks) {
		task := r.tasks[r.index]
		if !r.started {
			task.Start()
			r.started = true
		}
		p := task.Progress()
		if p < 1 {
			emit(r.phase.Scale(MapSubProgress(r.index, p, r.slots)))
			return false
		}
		r.index++
		r.started = false
	}
	r.tasks = nil
	return true
}

// current returns the index of the task being polled.
func (r *phaseRunner) current() int {
	return r.index
}
