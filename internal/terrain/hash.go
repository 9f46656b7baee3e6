package terrain

// splitmix64 is a fast, high-quality 64-bit mixer.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// coordKey packs a chunk coordinate into a cache key. The uint32 conversion
// keeps negative coordinates distinct without sign extension.
func coordKey(cx, cy int) uint64 {
	return uint64(uint32(cx))<<32 | uint64(uint32(cy))
}

// floorMod returns a mod b in [0, b) for positive b.
func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
