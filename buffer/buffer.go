/*
Package buffer implements the packed byte buffer produced by the texture
encoder and its serializations.

A buffer can be written out as a C array initializer of 8, 16, 32 or 64-bit
hexadecimal literals, four per line, or as raw bytes. It can also be
compressed once, in which case its contents are replaced by a 16 byte header
followed by the compressed payload:

	0x00  4 bytes  magic, "Yaz0"
	0x04  4 bytes  uncompressed size, big-endian
	0x08  8 bytes  reserved, zero
	0x10  ...      compressed payload
*/
package buffer

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	// Magic is the tag at the start of a compressed buffer
	Magic = "Yaz0"

	// HeaderSize is the size in bytes of the compressed buffer header
	HeaderSize = 16
)

var (
	ErrNoData         = errors.New("buffer: no data")
	ErrCompressed     = errors.New("buffer: already compressed")
	ErrNotCompressed  = errors.New("buffer: not compressed")
	ErrPartialElement = errors.New("buffer: length is not a multiple of the element width")
	ErrBadHeader      = errors.New("buffer: invalid compressed header")
)

// Codec is the byte level compression algorithm applied by Compress.
type Codec interface {
	// Bound returns the worst case compressed size of n bytes
	Bound(n int) int
	// Encode compresses src into dst and returns the number of bytes
	// written
	Encode(dst, src []byte) (int, error)
	// Decode decompresses src, filling dst
	Decode(dst, src []byte) error
}

// Buffer holds packed texture data. The zero value is an empty buffer with
// no data. A Buffer is not safe for concurrent use; ownership is passed
// from one stage to the next.
type Buffer struct {
	buf          []byte
	length       int
	hasData      bool
	isCompressed bool
}

// New returns a Buffer holding b, which it takes ownership of.
func New(b []byte) *Buffer {
	return &Buffer{
		buf:     b,
		length:  len(b),
		hasData: true,
	}
}

// Bytes returns the logical contents of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.buf[:b.length]
}

// Len returns the logical length of the buffer, which can be less than
// the allocated size after compression.
func (b *Buffer) Len() int {
	return b.length
}

// HasData reports whether the buffer has been populated.
func (b *Buffer) HasData() bool {
	return b.hasData
}

// IsCompressed reports whether Compress has been applied.
func (b *Buffer) IsCompressed() bool {
	return b.isCompressed
}

// Compress replaces the contents of the buffer with the compressed header
// followed by the output of c. It can only be applied once.
func (b *Buffer) Compress(c Codec) error {
	if !b.hasData {
		return ErrNoData
	}
	if b.isCompressed {
		return ErrCompressed
	}

	size := b.length

	tmp := make([]byte, c.Bound(size))
	n, err := c.Encode(tmp, b.buf[:size])
	if err != nil {
		return errors.Wrap(err, "buffer: compress")
	}

	if cap(b.buf) < HeaderSize+n {
		b.buf = make([]byte, HeaderSize+n)
	} else {
		b.buf = b.buf[:HeaderSize+n]
	}

	copy(b.buf, Magic)
	binary.BigEndian.PutUint32(b.buf[4:], uint32(size))
	for i := 8; i < HeaderSize; i++ {
		b.buf[i] = 0
	}
	copy(b.buf[HeaderSize:], tmp[:n])

	b.length = HeaderSize + n
	b.isCompressed = true

	return nil
}

// Decompress reverses Compress.
func (b *Buffer) Decompress(c Codec) error {
	if !b.hasData {
		return ErrNoData
	}
	if !b.isCompressed {
		return ErrNotCompressed
	}

	data := b.Bytes()
	if len(data) < HeaderSize || !bytes.Equal(data[:4], []byte(Magic)) {
		return ErrBadHeader
	}

	out := make([]byte, binary.BigEndian.Uint32(data[4:]))
	if err := c.Decode(out, data[HeaderSize:]); err != nil {
		return errors.Wrap(err, "buffer: decompress")
	}

	b.buf = out
	b.length = len(out)
	b.isCompressed = false

	return nil
}

// WriteTo writes the raw contents of the buffer to w. It implements the
// io.WriterTo interface.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	if !b.hasData {
		return 0, ErrNoData
	}
	n, err := w.Write(b.Bytes())
	return int64(n), err
}

// MarshalBinary encodes the buffer and its compression state
func (b *Buffer) MarshalBinary() ([]byte, error) {
	if !b.hasData {
		return nil, ErrNoData
	}

	out := make([]byte, 1+b.length)
	if b.isCompressed {
		out[0] = 1
	}
	copy(out[1:], b.Bytes())

	return out, nil
}

// UnmarshalBinary decodes the buffer from the form produced by MarshalBinary
func (b *Buffer) UnmarshalBinary(data []byte) error {
	if len(data) < 1 || data[0] > 1 {
		return errors.New("buffer: invalid binary form")
	}

	b.buf = append([]byte(nil), data[1:]...)
	b.length = len(b.buf)
	b.hasData = true
	b.isCompressed = data[0] == 1

	return nil
}
