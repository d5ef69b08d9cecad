/*
Package yaz0 implements the Yaz0 LZ77 variant used to compress assets for
Nintendo consoles.

The stream is a sequence of groups. Each group starts with a header byte
whose bits, most significant first, describe the following eight chunks: a
set bit copies one literal byte, a clear bit is a back reference into the
last 4096 bytes of output encoded as two or three bytes.

This package only deals with the compressed payload; the 16 byte file header
is written by the buffer package.
*/
package yaz0

import (
	"github.com/pkg/errors"
)

const (
	windowSize = 0x1000
	minMatch   = 3
	maxMatch   = 0xff + 0x12

	hashBits  = 12
	hashSize  = 1 << hashBits
	maxChain  = 256
	groupSize = 8
)

var (
	errShortBuffer = errors.New("yaz0: destination buffer too small")
	errCorrupt     = errors.New("yaz0: corrupt input")
)

// Bound returns the maximum number of bytes Encode can produce for n bytes
// of input, which is every byte stored as a literal plus one header byte per
// group of eight.
func Bound(n int) int {
	return n + (n+groupSize-1)/groupSize
}

func hash(b []byte) int {
	return int((uint32(b[0])<<16|uint32(b[1])<<8|uint32(b[2]))*2654435761>>(32-hashBits)) & (hashSize - 1)
}

type matcher struct {
	src  []byte
	head [hashSize]int32
	prev []int32
}

func newMatcher(src []byte) *matcher {
	m := &matcher{
		src:  src,
		prev: make([]int32, len(src)),
	}
	for i := range m.head {
		m.head[i] = -1
	}
	return m
}

func (m *matcher) insert(pos int) {
	if pos+minMatch > len(m.src) {
		return
	}
	h := hash(m.src[pos:])
	m.prev[pos] = m.head[h]
	m.head[h] = int32(pos)
}

// find returns the longest match for the data at pos within the window.
func (m *matcher) find(pos int) (dist, length int) {
	if pos+minMatch > len(m.src) {
		return 0, 0
	}

	limit := len(m.src) - pos
	if limit > maxMatch {
		limit = maxMatch
	}

	cand := m.head[hash(m.src[pos:])]
	for chain := 0; cand >= 0 && chain < maxChain; chain++ {
		c := int(cand)
		if pos-c > windowSize {
			break
		}

		n := 0
		for n < limit && m.src[c+n] == m.src[pos+n] {
			n++
		}
		if n > length {
			dist, length = pos-c, n
			if n == limit {
				break
			}
		}

		cand = m.prev[c]
	}

	if length < minMatch {
		return 0, 0
	}
	return dist, length
}

// Encode compresses src into dst and returns the number of bytes written.
// dst must be at least Bound(len(src)) bytes long.
func Encode(dst, src []byte) (int, error) {
	if len(dst) < Bound(len(src)) {
		return 0, errShortBuffer
	}

	m := newMatcher(src)

	var (
		out    int
		header int
		bit    = groupSize
	)

	for pos := 0; pos < len(src); {
		if bit == groupSize {
			header = out
			dst[out] = 0
			out++
			bit = 0
		}

		dist, length := m.find(pos)

		// One step lazy evaluation, a longer match at the next
		// position is worth a literal now
		if length >= minMatch && length < maxMatch {
			m.insert(pos)
			if _, next := m.find(pos + 1); next > length+1 {
				length = 0
			}
		} else {
			m.insert(pos)
		}

		if length < minMatch {
			dst[header] |= 0x80 >> bit
			dst[out] = src[pos]
			out++
			pos++
		} else {
			d := dist - 1
			if length >= 0x12 {
				dst[out] = byte(d >> 8)
				dst[out+1] = byte(d)
				dst[out+2] = byte(length - 0x12)
				out += 3
			} else {
				dst[out] = byte((length-2)<<4 | d>>8)
				dst[out+1] = byte(d)
				out += 2
			}
			for i := 1; i < length; i++ {
				m.insert(pos + i)
			}
			pos += length
		}
		bit++
	}

	return out, nil
}

// Decode decompresses src into dst, which must be exactly the uncompressed
// size recorded in the file header.
func Decode(dst, src []byte) error {
	var (
		in, out int
		header  byte
		bit     = groupSize
	)

	for out < len(dst) {
		if bit == groupSize {
			if in >= len(src) {
				return errors.Wrap(errCorrupt, "truncated group header")
			}
			header = src[in]
			in++
			bit = 0
		}

		if header&(0x80>>bit) != 0 {
			if in >= len(src) {
				return errors.Wrap(errCorrupt, "truncated literal")
			}
			dst[out] = src[in]
			in++
			out++
		} else {
			if in+2 > len(src) {
				return errors.Wrap(errCorrupt, "truncated back reference")
			}
			b0, b1 := src[in], src[in+1]
			in += 2

			dist := int(b0&0x0f)<<8 | int(b1) + 1
			length := int(b0 >> 4)
			if length == 0 {
				if in >= len(src) {
					return errors.Wrap(errCorrupt, "truncated back reference")
				}
				length = int(src[in]) + 0x12
				in++
			} else {
				length += 2
			}

			if dist > out {
				return errors.Wrapf(errCorrupt, "back reference %d before start of output", dist)
			}
			if out+length > len(dst) {
				return errors.Wrap(errCorrupt, "back reference past end of output")
			}

			// Byte by byte as source and destination may overlap
			for i := 0; i < length; i++ {
				dst[out] = dst[out-dist]
				out++
			}
		}
		bit++
	}

	return nil
}

// Codec is the Yaz0 implementation of buffer.Codec.
type Codec struct{}

// Bound returns the worst case compressed size for n bytes.
func (Codec) Bound(n int) int { return Bound(n) }

// Encode compresses src into dst.
func (Codec) Encode(dst, src []byte) (int, error) { return Encode(dst, src) }

// Decode decompresses src into dst.
func (Codec) Decode(dst, src []byte) error { return Decode(dst, src) }
