// Package render turns boards into pixels, either as still images for files
// or as an ebiten texture in the GUI build.
package render

import (
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"io"

	"mana-ca/internal/sims/dandelifeon"
)

// Image draws b with each cell as a scale*scale block.
func Image(b *dandelifeon.Board, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	n := dandelifeon.Size
	cells := b.Encode(nil)
	src := make([]byte, 4*len(cells))
	fillPaletteRGBA(src, cells, dandelifeon.Palette())

	img := image.NewRGBA(image.Rect(0, 0, n*scale, n*scale))
	scalePixels(img.Pix, src, n, n, scale)
	return img
}

// WritePNG encodes a snapshot of b.
func WritePNG(w io.Writer, b *dandelifeon.Board, scale int) error {
	return png.Encode(w, Image(b, scale))
}

// WriteGIF encodes frames as an animation with delay hundredths of a second
// between them.
func WriteGIF(w io.Writer, frames []*dandelifeon.Board, scale, delay int) error {
	anim := &gif.GIF{LoopCount: 0}
	pal := gifPalette()
	for _, f := range frames {
		src := Image(f, scale)
		dst := image.NewPaletted(src.Bounds(), pal)
		draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
		anim.Image = append(anim.Image, dst)
		anim.Delay = append(anim.Delay, delay)
	}
	return gif.EncodeAll(w, anim)
}

// gifPalette puts the board colours first so they map exactly, then pads with
// the web-safe palette.
func gifPalette() color.Palette {
	pal := make(color.Palette, 0, 256)
	for _, c := range dandelifeon.Palette() {
		pal = append(pal, c)
	}
	for _, c := range palette.WebSafe {
		if len(pal) == cap(pal) {
			break
		}
		pal = append(pal, c)
	}
	return pal
}
