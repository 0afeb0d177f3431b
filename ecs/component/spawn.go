package component

// Spawn marks a level-authored entity placement (player start, pickups,
// enemies). The scene only stores it; gameplay systems interpret Type.
type Spawn struct {
	Type  string
	X     int
	Y     int
	Props map[string]any
}

var SpawnComponent = NewComponent[Spawn]()
