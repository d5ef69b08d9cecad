package buffer

import (
	"io"

	"github.com/pkg/errors"
)

const (
	screenWidth  = 320
	screenHeight = 240

	// JPEGSize is the size of the framebuffer a raw JPEG background is
	// loaded into by the game, 16 bits per pixel
	JPEGSize = screenWidth * screenHeight * 2
)

// ErrJPEGTooLarge is returned by ReadJPEG when the file does not fit the
// framebuffer.
var ErrJPEGTooLarge = errors.New("buffer: jpeg does not fit in framebuffer")

// ReadJPEG reads an already encoded JPEG file verbatim. The file must be
// smaller than JPEGSize.
func ReadJPEG(r io.Reader) (*Buffer, error) {
	return readJPEG(r, false)
}

// ReadJPEGFilled is like ReadJPEG but pads the result to JPEGSize.
func ReadJPEGFilled(r io.Reader) (*Buffer, error) {
	return readJPEG(r, true)
}

func readJPEG(r io.Reader, fill bool) (*Buffer, error) {
	buf := make([]byte, JPEGSize)

	n, err := io.ReadFull(r, buf)
	switch err {
	case io.EOF, io.ErrUnexpectedEOF:
	case nil:
		// Filled the framebuffer exactly or there is more to come
		return nil, ErrJPEGTooLarge
	default:
		return nil, err
	}

	b := New(buf)
	if !fill {
		b.length = n
	}

	return b, nil
}
