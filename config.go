package texture2c

import (
	"image"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Decompollaborate/texture2c/buffer"
	"github.com/Decompollaborate/texture2c/texture"
)

// Config selects how a texture is encoded and written.
type Config struct {
	// Format is the texel format to encode to
	Format texture.Format
	// Width is the element width of the text output, zero picks one
	// based on Format
	Width buffer.Width
	// Compress wraps the texture in a Yaz0 container
	Compress bool
	// Binary writes raw bytes instead of a C array initializer
	Binary bool
	// Resize scales the image first when non-zero
	Resize image.Point
	// TLUT is where the palette of an indexed format is written, if set
	TLUT string
}

var errBadSize = errors.New("texture2c: invalid size, expected WxH")

// ParseSize parses a size given as WxH.
func ParseSize(s string) (image.Point, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return image.Point{}, errors.Wrapf(errBadSize, "%q", s)
	}

	w, err := strconv.Atoi(parts[0])
	if err != nil || w <= 0 {
		return image.Point{}, errors.Wrapf(errBadSize, "%q", s)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h <= 0 {
		return image.Point{}, errors.Wrapf(errBadSize, "%q", s)
	}

	return image.Pt(w, h), nil
}

// DefaultWidth returns the natural element width for f: one texel per
// element for the 16 and 32-bit formats, bytes otherwise.
func DefaultWidth(f texture.Format) buffer.Width {
	switch f {
	case texture.RGBA32:
		return buffer.Width32
	case texture.RGBA16, texture.IA16:
		return buffer.Width16
	}
	return buffer.Width8
}

// ElementWidth returns the element width used for text output.
// Compressed data is only guaranteed to be a whole number of bytes.
func (c Config) ElementWidth() buffer.Width {
	switch {
	case c.Width != 0:
		return c.Width
	case c.Compress:
		return buffer.Width8
	}
	return DefaultWidth(c.Format)
}

// Validate checks the configuration is consistent.
func (c Config) Validate() error {
	if !c.Format.Valid() {
		return errors.Wrapf(texture.ErrUnknownFormat, "%d", int(c.Format))
	}
	switch c.Width {
	case 0, buffer.Width8, buffer.Width16, buffer.Width32, buffer.Width64:
	default:
		return errors.Wrapf(buffer.ErrUnknownWidth, "%d bytes", int(c.Width))
	}
	if c.Resize.X < 0 || c.Resize.Y < 0 {
		return errors.Wrapf(errBadSize, "%dx%d", c.Resize.X, c.Resize.Y)
	}
	if c.TLUT != "" && !c.Format.Indexed() {
		return errors.Errorf("texture2c: %s has no palette to write", c.Format)
	}
	return nil
}

// Ext returns the file extension used for batch output.
func (c Config) Ext() string {
	switch {
	case c.Binary && c.Compress:
		return ".yaz0"
	case c.Binary:
		return ".bin"
	}
	return ".inc.c"
}
