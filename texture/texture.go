/*
Package texture implements an encoder for the texel formats read by the
Nintendo 64 RDP.

Texels are written row by row, left to right, with no padding between rows.
Multi-byte texels are big-endian. The formats are:

	rgba16  RRRRRGGG GGBBBBBA        5 bits per color, 1 bit alpha
	rgba32  RRRRRRRR GGGGGGGG ...    8 bits per channel
	i4      IIII                     two texels per byte
	i8      IIIIIIII
	ia4     IIIA                     two texels per byte
	ia8     IIIIAAAA
	ia16    IIIIIIII AAAAAAAA
	ci4     PPPP                     two palette indices per byte
	ci8     PPPPPPPP

Intensity is taken from the red channel. In the 4-bit formats the first
texel of each pair is in the high nibble.
*/
package texture

import (
	"image/color"
)

// Source is the decoded image being encoded.
type Source interface {
	Width() int
	Height() int
	// Pixel returns the non-premultiplied color at x, y
	Pixel(x, y int) color.NRGBA
	// Index returns the palette index at x, y for indexed formats
	Index(x, y int) uint8
	// BytesPerPixel is the size of a pixel in the decoded source
	BytesPerPixel() float64
}
