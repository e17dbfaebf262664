package render

import "image/color"

// fillPaletteRGBA converts cell codes into RGBA pixels using a palette. Codes
// past the end of the palette take its last colour. When the palette is empty
// the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:len(cells)*4])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// scalePixels copies a w*h RGBA buffer into dst, repeating every source
// pixel as a scale*scale block.
func scalePixels(dst, src []byte, w, h, scale int) {
	if scale <= 1 {
		copy(dst, src)
		return
	}
	stride := w * scale * 4
	for y := 0; y < h; y++ {
		row := dst[y*scale*stride : (y*scale+1)*stride]
		for x := 0; x < w; x++ {
			px := src[(y*w+x)*4 : (y*w+x)*4+4]
			for k := 0; k < scale; k++ {
				copy(row[(x*scale+k)*4:], px)
			}
		}
		for k := 1; k < scale; k++ {
			copy(dst[(y*scale+k)*stride:(y*scale+k+1)*stride], row)
		}
	}
}
