package render

import (
	"bytes"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mana-ca/internal/sims/dandelifeon"
)

func TestFillPaletteClampsCodes(t *testing.T) {
	pal := []color.RGBA{{R: 1, A: 255}, {G: 2, A: 255}}
	buf := make([]byte, 12)
	fillPaletteRGBA(buf, []uint8{0, 1, 9}, pal)
	assert.Equal(t, []byte{1, 0, 0, 255, 0, 2, 0, 255, 0, 2, 0, 255}, buf)

	fillPaletteRGBA(buf, []uint8{0, 1, 9}, nil)
	assert.Equal(t, make([]byte, 12), buf)
}

func TestImageColoursCells(t *testing.T) {
	b, err := dandelifeon.New([]dandelifeon.Placement{
		dandelifeon.AliveAt(0, 0),
		dandelifeon.BlockedAt(0, 1),
	})
	require.NoError(t, err)
	pal := dandelifeon.Palette()

	img := Image(b, 3)
	require.Equal(t, 25*3, img.Bounds().Dx())

	assert.Equal(t, pal[dandelifeon.DisplayAliveBase], img.RGBAAt(2, 2))
	assert.Equal(t, pal[dandelifeon.DisplayBlocked], img.RGBAAt(3, 0))
	assert.Equal(t, pal[dandelifeon.DisplayBlocked], img.RGBAAt(5, 2))
	assert.Equal(t, pal[dandelifeon.DisplayDead], img.RGBAAt(6, 0))
	assert.Equal(t, pal[dandelifeon.DisplayZone], img.RGBAAt(12*3+1, 12*3+1))
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, dandelifeon.ReferenceLayout(), 4))
	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
}

func TestWriteGIF(t *testing.T) {
	frames, _ := dandelifeon.Trajectory(dandelifeon.ReferenceLayout(), 5)
	var buf bytes.Buffer
	require.NoError(t, WriteGIF(&buf, frames, 2, 10))
	anim, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, anim.Image, len(frames))
}
