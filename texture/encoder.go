package texture

import (
	"image/color"

	"github.com/pkg/errors"

	"github.com/Decompollaborate/texture2c/buffer"
)

var (
	ErrOddWidth     = errors.New("texture: width must be even for 4-bit formats")
	ErrPaletteIndex = errors.New("texture: palette index out of range")
)

func alphaBit(a uint8) uint8 {
	if a != 0 {
		return 1
	}
	return 0
}

// pack16 quantizes c to RRRRRGGGGGBBBBBA
func pack16(c color.NRGBA) uint16 {
	return uint16(c.R/8)<<11 | uint16(c.G/8)<<6 | uint16(c.B/8)<<1 | uint16(alphaBit(c.A))
}

type encoder struct {
	src  Source
	w, h int
	buf  []byte
}

func (e *encoder) rgba16() {
	for y := 0; y < e.h; y++ {
		for x := 0; x < e.w; x++ {
			v := pack16(e.src.Pixel(x, y))

			i := (y*e.w + x) * 2
			e.buf[i+0] = byte(v >> 8)
			e.buf[i+1] = byte(v)
		}
	}
}

func (e *encoder) rgba32() {
	for y := 0; y < e.h; y++ {
		for x := 0; x < e.w; x++ {
			p := e.src.Pixel(x, y)

			i := (y*e.w + x) * 4
			e.buf[i+0] = p.R
			e.buf[i+1] = p.G
			e.buf[i+2] = p.B
			e.buf[i+3] = p.A
		}
	}
}

// nibbles packs the 4-bit values returned by fn for each pair of pixels
func (e *encoder) nibbles(fn func(x, y int) uint8) {
	for y := 0; y < e.h; y++ {
		for x := 0; x < e.w; x += 2 {
			i := (y*e.w + x) >> 1
			e.buf[i] |= (fn(x, y) & 0x0f) << 4
			e.buf[i] |= fn(x+1, y) & 0x0f
		}
	}
}

// bytes writes the 8-bit value returned by fn for each pixel
func (e *encoder) bytes(fn func(x, y int) uint8) {
	for y := 0; y < e.h; y++ {
		for x := 0; x < e.w; x++ {
			e.buf[y*e.w+x] = fn(x, y)
		}
	}
}

func (e *encoder) i4() {
	e.nibbles(func(x, y int) uint8 {
		return e.src.Pixel(x, y).R / 16
	})
}

func (e *encoder) i8() {
	e.bytes(func(x, y int) uint8 {
		return e.src.Pixel(x, y).R
	})
}

func (e *encoder) ia4() {
	e.nibbles(func(x, y int) uint8 {
		p := e.src.Pixel(x, y)
		return p.R/32<<1 | alphaBit(p.A)
	})
}

func (e *encoder) ia8() {
	e.bytes(func(x, y int) uint8 {
		p := e.src.Pixel(x, y)
		return p.R/16<<4 | p.A/16
	})
}

func (e *encoder) ia16() {
	for y := 0; y < e.h; y++ {
		for x := 0; x < e.w; x++ {
			p := e.src.Pixel(x, y)

			i := (y*e.w + x) * 2
			e.buf[i+0] = p.R
			e.buf[i+1] = p.A
		}
	}
}

func (e *encoder) ci4() error {
	for y := 0; y < e.h; y++ {
		for x := 0; x < e.w; x++ {
			if i := e.src.Index(x, y); i > 0x0f {
				return errors.Wrapf(ErrPaletteIndex, "index %d at (%d, %d)", i, x, y)
			}
		}
	}
	e.nibbles(e.src.Index)
	return nil
}

func (e *encoder) ci8() {
	e.bytes(e.src.Index)
}

// Encode packs the pixels of src into format f. Formats storing two texels
// per byte require an even width. For CI4, every palette index must fit in
// four bits.
func Encode(src Source, f Format) (*buffer.Buffer, error) {
	if !f.Valid() {
		return nil, errors.Wrapf(ErrUnknownFormat, "%d", int(f))
	}

	w, h := src.Width(), src.Height()
	if f.BitsPerPixel() == 4 && w%2 != 0 {
		return nil, errors.Wrapf(ErrOddWidth, "%dx%d", w, h)
	}

	e := encoder{
		src: src,
		w:   w,
		h:   h,
		buf: make([]byte, f.Len(w, h)),
	}

	switch f {
	case RGBA16:
		e.rgba16()
	case RGBA32:
		e.rgba32()
	case I4:
		e.i4()
	case I8:
		e.i8()
	case IA4:
		e.ia4()
	case IA8:
		e.ia8()
	case IA16:
		e.ia16()
	case CI4:
		if err := e.ci4(); err != nil {
			return nil, err
		}
	case CI8:
		e.ci8()
	}

	return buffer.New(e.buf), nil
}

// EncodePalette packs a palette as RGBA16 texels, the layout of a texture
// lookup table. The palette is padded with transparent black to n entries.
func EncodePalette(p color.Palette, n int) []byte {
	if len(p) > n {
		n = len(p)
	}

	out := make([]byte, n*2)
	for i, c := range p {
		v := pack16(color.NRGBAModel.Convert(c).(color.NRGBA))
		out[i*2+0] = byte(v >> 8)
		out[i*2+1] = byte(v)
	}

	return out
}
