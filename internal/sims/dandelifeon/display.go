package dandelifeon

import "image/color"

// Display codes written by Encode. Living cells use DisplayAliveBase plus an
// age bucket of ten generations each.
const (
	DisplayDead uint8 = iota
	DisplayZone
	DisplayBlocked
	DisplayAliveBase
)

const ageBuckets = MaxAge/10 + 1

var boardPalette = buildPalette()

// Palette exposes the colours used for each display code.
func Palette() []color.RGBA { return boardPalette }

// Encode writes one display code per cell into dst, growing it if needed, and
// returns the filled slice.
func (b *Board) Encode(dst []uint8) []uint8 {
	if cap(dst) < CellCount {
		dst = make([]uint8, CellCount)
	}
	dst = dst[:CellCount]
	for idx, c := range b.cells {
		switch c.state {
		case StateAlive:
			dst[idx] = DisplayAliveBase + c.age/10
		case StateBlocked:
			dst[idx] = DisplayBlocked
		default:
			if IsForbidden(idx/Size, idx%Size) {
				dst[idx] = DisplayZone
			} else {
				dst[idx] = DisplayDead
			}
		}
	}
	return dst
}

func buildPalette() []color.RGBA {
	palette := make([]color.RGBA, int(DisplayAliveBase)+ageBuckets)
	palette[DisplayDead] = color.RGBA{R: 18, G: 18, B: 24, A: 255}
	palette[DisplayZone] = color.RGBA{R: 90, G: 20, B: 40, A: 255}
	palette[DisplayBlocked] = color.RGBA{R: 120, G: 120, B: 130, A: 255}
	young := color.RGBA{R: 250, G: 240, B: 120, A: 255}
	old := color.RGBA{R: 40, G: 200, B: 110, A: 255}
	for i := 0; i < ageBuckets; i++ {
		t := float64(i) / float64(ageBuckets-1)
		palette[int(DisplayAliveBase)+i] = lerp(young, old, t)
	}
	return palette
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
