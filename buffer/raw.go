package buffer

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const elementsPerLine = 4

// Width is the size in bytes of each element written by WriteRaw.
type Width int

const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
	Width64 Width = 8
)

var widths = []Width{Width8, Width16, Width32, Width64}

// ErrUnknownWidth is returned by ParseWidth for an unsupported element
// width.
var ErrUnknownWidth = errors.New("buffer: unknown element width")

// ParseWidth parses an element width given in bits.
func ParseWidth(s string) (Width, error) {
	bits, err := strconv.Atoi(s)
	if err != nil || bits%8 != 0 || !lo.Contains(widths, Width(bits/8)) {
		return 0, errors.Wrapf(ErrUnknownWidth, "%q", s)
	}
	return Width(bits / 8), nil
}

// Bits returns the element width in bits.
func (w Width) Bits() int {
	return int(w) * 8
}

func (w Width) String() string {
	return strconv.Itoa(w.Bits())
}

func (w Width) valid() bool {
	return lo.Contains(widths, w)
}

func (w Width) element(b []byte) uint64 {
	switch w {
	case Width8:
		return uint64(b[0])
	case Width16:
		return uint64(binary.BigEndian.Uint16(b))
	case Width32:
		return uint64(binary.BigEndian.Uint32(b))
	default:
		return binary.BigEndian.Uint64(b)
	}
}

// WriteRaw writes the buffer to out as comma separated big-endian
// hexadecimal literals of the given width, four to a line. The length of
// the buffer must be a multiple of the width.
func (b *Buffer) WriteRaw(out io.Writer, width Width) error {
	if !b.hasData {
		return ErrNoData
	}
	if !width.valid() {
		return errors.Wrapf(ErrUnknownWidth, "%d bytes", int(width))
	}
	if b.length%int(width) != 0 {
		return errors.Wrapf(ErrPartialElement, "%d bytes into %d byte elements", b.length, int(width))
	}

	w := bufio.NewWriter(out)
	data := b.Bytes()
	digits := int(width) * 2

	for i := 0; i < len(data); i += int(width) {
		if _, err := fmt.Fprintf(w, "0x%0*X, ", digits, width.element(data[i:])); err != nil {
			return err
		}
		if (i/int(width)+1)%elementsPerLine == 0 {
			if err := w.WriteByte('\n'); err != nil {
				return err
			}
		}
	}

	return w.Flush()
}
