package scenes

import "github.com/milk9111/scenechanger/transition"

// frameTask completes a fixed number of ticks after it starts.
type frameTask struct {
	frames  int
	tick    int
	started bool
}

func newFrameTask(spec TaskSpec, _ *Scene, _ transition.Phase) (transition.Task, error) {
	frames := spec.Frames
	if frames < 1 {
		frames = 1
	}
	return &frameTask{frames: frames}, nil
}

func (t *frameTask) Start() {
	t.started = true
}

func (t *frameTask) Tick() {
	if t.started && t.tick < t.frames {
		t.tick++
	}
}

func (t *frameTask) Progress() float64 {
	return float64(t.tick) / float64(t.frames)
}
