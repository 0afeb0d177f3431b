package common

const (
	BaseWidth  = 1280
	BaseHeight = 720
	TileSize   = 32
)

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// Clamp01 limits v to the closed range [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
