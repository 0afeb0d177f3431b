package transition

import (
	"fmt"

	"github.com/milk9111/scenechanger/common"
)

// Phase is the half of a scene change a sub-operation belongs to.
type Phase int

const (
	// Unloading covers cleanup tasks and the content unload, overall [0, 0.5).
	Unloading Phase = iota
	// Loading covers the content load and setup tasks, overall [0.5, 1].
	Loading
)

func (p Phase) String() string {
	switch p {
	case Unloading:
		return "unloading"
	case Loading:
		return "loading"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Scale maps a phase-local fraction onto the overall transition range.
func (p Phase) Scale(v float64) float64 {
	if p == Loading {
		return v/2 + 0.5
	}
	return v / 2
}

// MapSubProgress places sub-operation subIndex, subProgress complete, inside
// its slot of [0, 1] divided evenly into totalSubOps slots.
//
// Callers reserve one slot beyond their task count for the content
// load/unload step, so totalSubOps is always at least 1.
func MapSubProgress(subIndex int, subProgress float64, totalSubOps int) float64 {
	if totalSubOps < 1 {
		panic(fmt.Sprintf("transition: MapSubProgress with %d total sub-operations", totalSubOps))
	}
	total := float64(totalSubOps)
	idx := float64(subIndex)
	return common.Lerp(idx/total, (idx+1)/total, subProgress)
}
