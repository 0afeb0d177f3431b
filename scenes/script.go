package scenes

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/scenechanger/common"
	"github.com/milk9111/scenechanger/transition"
	"github.com/rs/zerolog"
)

// scriptTask runs a tengo script once per tick. The script sees globals
// tick, frames, phase and scene and reports by assigning progress.
type scriptTask struct {
	name     string
	compiled *tengo.Compiled
	tick     int
	progress float64
	started  bool
	log      zerolog.Logger
}

func (r *Registry) newScriptTask(spec TaskSpec, sc *Scene, phase transition.Phase) (transition.Task, error) {
	if spec.Script == "" {
		return nil, fmt.Errorf("scenes: script task %q has no script", spec.Name)
	}
	src, err := r.assets.ReadScript(spec.Script)
	if err != nil {
		return nil, fmt.Errorf("scenes: read script %s: %w", spec.Script, err)
	}

	script := tengo.NewScript(src)
	_ = script.Add("tick", 0)
	_ = script.Add("frames", spec.Frames)
	_ = script.Add("progress", 0.0)
	_ = script.Add("phase", phase.String())
	_ = script.Add("scene", string(sc.ID()))
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("scenes: compile script %s: %w", spec.Script, err)
	}
	return &scriptTask{
		name:     spec.Name,
		compiled: compiled,
		log:      r.log.With().Str("task", spec.Name).Str("script", spec.Script).Logger(),
	}, nil
}

func (t *scriptTask) Start() {
	t.started = true
}

// Tick runs the script. A runtime error finishes the task so the scene
// change is not held up by it.
func (t *scriptTask) Tick() {
	if !t.started || t.progress >= 1 {
		return
	}
	t.tick++
	if err := t.compiled.Set("tick", t.tick); err != nil {
		t.abort(err)
		return
	}
	if err := t.compiled.Run(); err != nil {
		t.abort(err)
		return
	}
	if v := common.Clamp01(t.compiled.Get("progress").Float()); v > t.progress {
		t.progress = v
	}
}

func (t *scriptTask) abort(err error) {
	t.log.Error().Err(err).Int("tick", t.tick).Msg("script task failed")
	t.progress = 1
}

func (t *scriptTask) Progress() float64 {
	return t.progress
}
