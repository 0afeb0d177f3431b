package scenes

import (
	"errors"
	"testing"

	"github.com/milk9111/scenechanger/transition"
	"github.com/rs/zerolog"
)

func TestRegistryOrder(t *testing.T) {
	reg := NewRegistry(mustManifest(t, testManifest), Assets{}, zerolog.Nop())

	tests := []struct {
		from transition.ContentID
		want transition.ContentID
	}{
		{"a", "b"},
		{"b", "broken"},
		{"broken", "a"},
		{"", "a"},
		{"missing", "a"},
	}
	for _, tc := range tests {
		if got := reg.Next(tc.from); got != tc.want {
			t.Fatalf("Next(%q) = %q, want %q", tc.from, got, tc.want)
		}
	}
	if reg.Initial() != "a" {
		t.Fatalf("expected initial a, got %q", reg.Initial())
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(mustManifest(t, testManifest), Assets{}, zerolog.Nop())
	if _, err := reg.Lookup("nope"); !errors.Is(err, ErrUnknownScene) {
		t.Fatalf("expected ErrUnknownScene, got %v", err)
	}
	sc := newScene(SceneSpec{ID: "x"}, nil)
	if _, err := reg.newTask(TaskSpec{Name: "t", Kind: "teleport"}, sc, transition.Loading); !errors.Is(err, ErrUnknownTaskKind) {
		t.Fatalf("expected ErrUnknownTaskKind, got %v", err)
	}
}

func TestRegistryReplace(t *testing.T) {
	reg := NewRegistry(mustManifest(t, testManifest), Assets{}, zerolog.Nop())
	reg.Replace(mustManifest(t, "scenes:\n  - {id: z, level: tiny}\n"))

	if ids := reg.IDs(); len(ids) != 1 || ids[0] != "z" {
		t.Fatalf("expected [z], got %v", ids)
	}
	if reg.Initial() != "z" {
		t.Fatalf("initial should default to the first scene, got %q", reg.Initial())
	}
	if _, err := reg.Lookup("a"); !errors.Is(err, ErrUnknownScene) {
		t.Fatalf("old scene should be gone, got %v", err)
	}
}

func TestRegistryCustomKind(t *testing.T) {
	reg := NewRegistry(mustManifest(t, testManifest), Assets{}, zerolog.Nop())
	var gotPhase transition.Phase = -1
	reg.RegisterKind("instant", func(spec TaskSpec, sc *Scene, phase transition.Phase) (transition.Task, error) {
		gotPhase = phase
		return &frameTask{frames: 1, tick: 1}, nil
	})
	task, err := reg.newTask(TaskSpec{Name: "i", Kind: "instant"}, newScene(SceneSpec{ID: "x"}, nil), transition.Unloading)
	if err != nil {
		t.Fatal(err)
	}
	if gotPhase != transition.Unloading || task.Progress() != 1 {
		t.Fatalf("factory not used: phase=%v progress=%v", gotPhase, task.Progress())
	}
}
