package texture

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Format is one of the texel layouts understood by the texture unit.
type Format int

const (
	RGBA16 Format = iota
	RGBA32
	I4
	I8
	IA4
	IA8
	IA16
	CI4
	CI8
)

var formatNames = [...]string{
	RGBA16: "rgba16",
	RGBA32: "rgba32",
	I4:     "i4",
	I8:     "i8",
	IA4:    "ia4",
	IA8:    "ia8",
	IA16:   "ia16",
	CI4:    "ci4",
	CI8:    "ci8",
}

// Formats lists every supported format.
var Formats = []Format{RGBA16, RGBA32, I4, I8, IA4, IA8, IA16, CI4, CI8}

// ErrUnknownFormat is returned for a format outside the defined set.
var ErrUnknownFormat = errors.New("texture: unknown format")

// FormatNames returns the names accepted by ParseFormat.
func FormatNames() []string {
	return lo.Map(Formats, func(f Format, _ int) string {
		return f.String()
	})
}

// ParseFormat returns the Format with the given case-insensitive name.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(name, f.String()) {
			return f, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownFormat, "%q", name)
}

func (f Format) String() string {
	if !f.Valid() {
		return "unknown"
	}
	return formatNames[f]
}

// Valid reports whether f is one of the defined formats.
func (f Format) Valid() bool {
	return f >= RGBA16 && f <= CI8
}

// BitsPerPixel returns the number of bits each texel occupies.
func (f Format) BitsPerPixel() int {
	switch f {
	case I4, IA4, CI4:
		return 4
	case I8, IA8, CI8:
		return 8
	case RGBA16, IA16:
		return 16
	case RGBA32:
		return 32
	}
	return 0
}

// BytesPerPixel returns the number of bytes each texel occupies, 0.5 for the
// formats packing two texels per byte.
func (f Format) BytesPerPixel() float64 {
	return float64(f.BitsPerPixel()) / 8
}

// Indexed reports whether f stores palette indices rather than colors.
func (f Format) Indexed() bool {
	return f == CI4 || f == CI8
}

// Colors returns the number of palette entries addressable by an indexed
// format, or zero.
func (f Format) Colors() int {
	switch f {
	case CI4:
		return 16
	case CI8:
		return 256
	}
	return 0
}

// Len returns the size in bytes of a w by h texture, rounded up.
func (f Format) Len(w, h int) int {
	return (w*h*f.BitsPerPixel() + 7) / 8
}
