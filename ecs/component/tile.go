package component

// Tile is one non-empty cell of a level layer, in tile coordinates.
type Tile struct {
	Layer int
	X     int
	Y     int
	Value int
	// Solid tiles belong to a physics layer and get a static collision shape.
	Solid bool
}

var TileComponent = NewComponent[Tile]()
