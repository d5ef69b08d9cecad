/*
Package source adapts decoded images to the texture encoder.

Color formats read each pixel as non-premultiplied 8-bit RGBA. Indexed
formats need a paletted image whose indices fit the format; paletted images
already within range are used as is, anything else is reduced with a median
cut quantizer to at most 16 or 256 colors.
*/
package source

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"

	"github.com/Decompollaborate/texture2c/texture"
)

// Image implements texture.Source.
type Image struct {
	m      image.Image
	pm     *image.Paletted
	bounds image.Rectangle
}

// New returns a source for encoding m in format f.
func New(m image.Image, f texture.Format) *Image {
	i := &Image{
		m:      m,
		bounds: m.Bounds(),
	}
	if f.Indexed() {
		i.pm = paletted(m, f.Colors())
	}
	return i
}

func maxIndex(m *image.Paletted) int {
	var max uint8
	for _, i := range m.Pix {
		if i > max {
			max = i
		}
	}
	return int(max)
}

func paletted(m image.Image, colors int) *image.Paletted {
	b := m.Bounds()

	pm, _ := m.(*image.Paletted)
	if pm == nil {
		if cp, ok := m.ColorModel().(color.Palette); ok {
			pm = image.NewPaletted(b, cp)
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					pm.Set(x, y, cp.Convert(m.At(x, y)))
				}
			}
		}
	}

	if pm == nil || maxIndex(pm) >= colors {
		q := quantize.MedianCutQuantizer{}
		pm = image.NewPaletted(b, q.Quantize(make(color.Palette, 0, colors), m))
		draw.Draw(pm, b, m, b.Min, draw.Src)
	}

	// Unused entries beyond what the format can address
	if len(pm.Palette) > colors {
		dup := *pm
		dup.Palette = pm.Palette[:colors]
		pm = &dup
	}

	return pm
}

// Width returns the width of the image.
func (i *Image) Width() int {
	return i.bounds.Dx()
}

// Height returns the height of the image.
func (i *Image) Height() int {
	return i.bounds.Dy()
}

// Pixel returns the color at x, y relative to the top-left corner.
func (i *Image) Pixel(x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(i.m.At(i.bounds.Min.X+x, i.bounds.Min.Y+y)).(color.NRGBA)
}

// Index returns the palette index at x, y relative to the top-left corner.
// It is always zero when the source was not created for an indexed format.
func (i *Image) Index(x, y int) uint8 {
	if i.pm == nil {
		return 0
	}
	return i.pm.ColorIndexAt(i.bounds.Min.X+x, i.bounds.Min.Y+y)
}

// Palette returns the palette the indices refer to, or nil.
func (i *Image) Palette() color.Palette {
	if i.pm == nil {
		return nil
	}
	return i.pm.Palette
}

// BytesPerPixel returns the size of a pixel in the decoded image.
func (i *Image) BytesPerPixel() float64 {
	switch i.m.(type) {
	case *image.Paletted, *image.Gray, *image.Alpha:
		return 1
	case *image.Gray16, *image.Alpha16:
		return 2
	case *image.RGBA64, *image.NRGBA64:
		return 8
	}
	return 4
}

// Resize scales m to w by h with nearest neighbour sampling so no new
// colors are introduced. A paletted image stays paletted with the same
// palette.
func Resize(m image.Image, w, h int) image.Image {
	r := imaging.Resize(m, w, h, imaging.NearestNeighbor)

	if pm, ok := m.(*image.Paletted); ok {
		dup := image.NewPaletted(r.Bounds(), pm.Palette)
		draw.Draw(dup, dup.Bounds(), r, r.Bounds().Min, draw.Src)
		return dup
	}

	return r
}
