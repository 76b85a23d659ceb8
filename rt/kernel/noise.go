package kernel

// NoiseBank supplies per-pixel random seeds, cycled by frame number
// modulo the bank size. The default bank is filled with hash-scrambled
// values; hosts with precomputed blue-noise textures can overwrite the
// planes for better low-frequency distribution.
type NoiseBank struct {
	Width  int
	Height int
	Planes [16][]uint32
}

func NewNoiseBank(width, height int) *NoiseBank {
	nb := &NoiseBank{Width: width, Height: height}
	for p := range nb.Planes {
		plane := make([]uint32, width*height)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				plane[y*width+x] = scramble(uint32(x), uint32(y), uint32(p))
			}
		}
		nb.Planes[p] = plane
	}
	return nb
}

// Seed for a pixel at the given frame.
func (nb *NoiseBank) Seed(frame uint32, x, y int) uint32 {
	plane := nb.Planes[frame%16]
	return plane[y*nb.Width+x] ^ frame*0x9e3779b9
}

// scramble is a 3-word integer hash (Wang-style avalanche).
func scramble(x, y, z uint32) uint32 {
	h := x*0x85ebca6b ^ y*0xc2b2ae35 ^ z*0x27d4eb2f
	h ^= h >> 16
	h *= 0x7feb352d
	h ^= h >> 15
	h *= 0x846ca68b
	h ^= h >> 16
	return h
}
