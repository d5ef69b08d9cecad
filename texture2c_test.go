package texture2c

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/image/bmp"

	"github.com/Decompollaborate/texture2c/buffer"
	"github.com/Decompollaborate/texture2c/texture"
	"github.com/Decompollaborate/texture2c/yaz0"
)

func fillImage(w, h int, c color.NRGBA) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetNRGBA(x, y, c)
		}
	}
	return m
}

func palettedImage(w, h int, indices ...uint8) *image.Paletted {
	p := make(color.Palette, 16)
	for i := range p {
		p[i] = color.NRGBA{uint8(i * 16), 0x00, uint8(0xff - i*16), 0xff}
	}
	m := image.NewPaletted(image.Rect(0, 0, w, h), p)
	copy(m.Pix, indices)
	return m
}

func writePNG(t *testing.T, fs afero.Fs, name string, m image.Image) {
	t.Helper()
	var b bytes.Buffer
	require.NoError(t, png.Encode(&b, m))
	require.NoError(t, afero.WriteFile(fs, name, b.Bytes(), 0644))
}

func readString(t *testing.T, fs afero.Fs, name string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, name)
	require.NoError(t, err)
	return string(b)
}

func newTestConverter(t *testing.T, opts ...Option) (*Converter, afero.Fs) {
	fs := afero.NewMemMapFs()
	return New(fs, zaptest.NewLogger(t), opts...), fs
}

var white = color.NRGBA{0xff, 0xff, 0xff, 0xff}

func TestConvert(t *testing.T) {
	c, fs := newTestConverter(t)
	writePNG(t, fs, "in/white.png", fillImage(8, 2, white))

	require.NoError(t, c.Convert("in/white.png", "out/white.rgba16.inc.c", Config{Format: texture.RGBA16}))
	assert.Equal(t, strings.Repeat("0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF, \n", 4), readString(t, fs, "out/white.rgba16.inc.c"))

	require.NoError(t, c.Convert("in/white.png", "out/white.rgba16.64.inc.c", Config{Format: texture.RGBA16, Width: buffer.Width64}))
	assert.Equal(t, strings.Repeat("0xFFFFFFFFFFFFFFFF, ", 4)+"\n", readString(t, fs, "out/white.rgba16.64.inc.c"))
}

func TestConvertStdout(t *testing.T) {
	var out bytes.Buffer
	c, fs := newTestConverter(t, WithOutput(&out))
	writePNG(t, fs, "ci.png", palettedImage(2, 1, 3, 10))

	require.NoError(t, c.Convert("ci.png", "", Config{Format: texture.CI4}))
	assert.Equal(t, "0x3A, ", out.String())
}

func TestConvertTLUT(t *testing.T) {
	c, fs := newTestConverter(t)
	writePNG(t, fs, "ci.png", palettedImage(4, 1, 0, 1, 2, 15))

	require.NoError(t, c.Convert("ci.png", "ci.inc.c", Config{Format: texture.CI4, TLUT: "ci.tlut.inc.c"}))
	assert.Equal(t, "0x01, 0x2F, ", readString(t, fs, "ci.inc.c"))

	tlut := readString(t, fs, "ci.tlut.inc.c")
	assert.Equal(t, 4, strings.Count(tlut, "\n"))
	assert.True(t, strings.HasPrefix(tlut, "0x003F, 0x103B, "), tlut)
}

func TestConvertCompressed(t *testing.T) {
	c, fs := newTestConverter(t)
	writePNG(t, fs, "white.png", fillImage(32, 32, white))

	cfg := Config{Format: texture.RGBA16, Compress: true, Binary: true}
	require.NoError(t, c.Convert("white.png", "white.yaz0", cfg))

	data, err := afero.ReadFile(fs, "white.yaz0")
	require.NoError(t, err)
	require.Greater(t, len(data), buffer.HeaderSize)
	assert.Equal(t, []byte("Yaz0"), data[:4])
	assert.Equal(t, uint32(32*32*2), binary.BigEndian.Uint32(data[4:8]))
	assert.Less(t, len(data), 32*32*2)

	var b buffer.Buffer
	require.NoError(t, b.UnmarshalBinary(append([]byte{1}, data...)))
	require.NoError(t, b.Decompress(yaz0.Codec{}))
	assert.Equal(t, bytes.Repeat([]byte{0xff}, 32*32*2), b.Bytes())

	// Text output of compressed data defaults to bytes
	require.NoError(t, c.Convert("white.png", "white.inc.c", Config{Format: texture.RGBA16, Compress: true}))
	assert.True(t, strings.HasPrefix(readString(t, fs, "white.inc.c"), "0x59, 0x61, 0x7A, 0x30, \n0x00, 0x00, 0x08, 0x00, \n"))
}

func TestConvertBMP(t *testing.T) {
	c, fs := newTestConverter(t)

	m := image.NewGray(image.Rect(0, 0, 4, 1))
	copy(m.Pix, []byte{0x00, 0x40, 0x80, 0xff})
	var b bytes.Buffer
	require.NoError(t, bmp.Encode(&b, m))
	require.NoError(t, afero.WriteFile(fs, "gray.bmp", b.Bytes(), 0644))

	require.NoError(t, c.Convert("gray.bmp", "gray.bin", Config{Format: texture.I8, Binary: true}))
	data, err := afero.ReadFile(fs, "gray.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x40, 0x80, 0xff}, data)
}

func TestConvertResize(t *testing.T) {
	c, fs := newTestConverter(t)
	writePNG(t, fs, "white.png", fillImage(3, 3, white))

	require.NoError(t, c.Convert("white.png", "white.bin", Config{Format: texture.I4, Binary: true, Resize: image.Pt(4, 2)}))
	data, err := afero.ReadFile(fs, "white.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, data)
}

func TestConvertErrors(t *testing.T) {
	c, fs := newTestConverter(t)
	writePNG(t, fs, "odd.png", fillImage(3, 2, white))
	require.NoError(t, afero.WriteFile(fs, "junk.png", []byte("not an image"), 0644))

	assert.Error(t, c.Convert("missing.png", "out.inc.c", Config{Format: texture.I8}))
	assert.Error(t, c.Convert("junk.png", "out.inc.c", Config{Format: texture.I8}))

	err := c.Convert("odd.png", "out.inc.c", Config{Format: texture.I4})
	assert.ErrorIs(t, err, texture.ErrOddWidth)

	err = c.Convert("odd.png", "out.inc.c", Config{Format: texture.RGBA16, Width: buffer.Width64})
	assert.ErrorIs(t, err, buffer.ErrPartialElement)

	exists, err := afero.Exists(fs, "out.inc.c")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWriteFileKeepsExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "dir/out.inc.c", []byte("old"), 0644))

	failed := errors.New("failed")
	err := writeFile(fs, "dir/out.inc.c", func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return failed
	})
	assert.ErrorIs(t, err, failed)
	assert.Equal(t, "old", readString(t, fs, "dir/out.inc.c"))

	entries, err := afero.ReadDir(fs, "dir")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, writeFile(fs, "dir/out.inc.c", func(w io.Writer) error {
		_, err := w.Write([]byte("new"))
		return err
	}))
	assert.Equal(t, "new", readString(t, fs, "dir/out.inc.c"))
}

func TestConvertJPEG(t *testing.T) {
	c, fs := newTestConverter(t)
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}
	require.NoError(t, afero.WriteFile(fs, "bg.jpg", jpeg, 0644))

	require.NoError(t, c.ConvertJPEG("bg.jpg", "bg.inc.c", false, Config{}))
	assert.Equal(t, "0xFF, 0xD8, 0xFF, 0xE0, \n0x00, ", readString(t, fs, "bg.inc.c"))

	require.NoError(t, c.ConvertJPEG("bg.jpg", "bg.bin", true, Config{Binary: true}))
	data, err := afero.ReadFile(fs, "bg.bin")
	require.NoError(t, err)
	assert.Len(t, data, buffer.JPEGSize)

	require.NoError(t, c.ConvertJPEG("bg.jpg", "bg.yaz0", true, Config{Binary: true, Compress: true}))
	data, err = afero.ReadFile(fs, "bg.yaz0")
	require.NoError(t, err)
	assert.Equal(t, []byte("Yaz0"), data[:4])
	assert.Equal(t, uint32(buffer.JPEGSize), binary.BigEndian.Uint32(data[4:8]))
}

func TestBatch(t *testing.T) {
	var progress bytes.Buffer
	c, fs := newTestConverter(t, WithWorkers(2), WithProgress(&progress))

	writePNG(t, fs, "textures/a.png", palettedImage(4, 4))
	writePNG(t, fs, "textures/sub/b.png", palettedImage(2, 2, 1, 2, 3, 4))
	writePNG(t, fs, "textures/c.PNG", fillImage(8, 1, white))
	writePNG(t, fs, "textures/.hidden.png", fillImage(3, 3, white))
	writePNG(t, fs, "textures/.git/d.png", fillImage(3, 3, white))
	require.NoError(t, afero.WriteFile(fs, "textures/readme.txt", []byte("hello"), 0644))

	require.NoError(t, c.Batch(context.Background(), "textures", "build", Config{Format: texture.CI8}))

	for _, name := range []string{"a", "b", "c"} {
		for _, kind := range []string{"ci8", "tlut"} {
			exists, err := afero.Exists(fs, filepath.Join("build", name+"."+kind+".inc.c"))
			require.NoError(t, err)
			assert.True(t, exists, "%s.%s", name, kind)
		}
	}

	entries, err := afero.ReadDir(fs, "build")
	require.NoError(t, err)
	assert.Len(t, entries, 6)

	assert.Equal(t, "0x01, 0x02, 0x03, 0x04, \n", readString(t, fs, "build/b.ci8.inc.c"))
	assert.NotZero(t, progress.Len())
}

func TestBatchBinary(t *testing.T) {
	c, fs := newTestConverter(t)
	writePNG(t, fs, "textures/a.png", fillImage(4, 4, white))

	require.NoError(t, c.Batch(context.Background(), "textures", "build", Config{Format: texture.IA16, Binary: true, Compress: true}))

	data, err := afero.ReadFile(fs, "build/a.ia16.yaz0")
	require.NoError(t, err)
	assert.Equal(t, []byte("Yaz0"), data[:4])

	exists, err := afero.Exists(fs, "build/a.tlut.yaz0")
	require.NoError(t, err)
	assert.False(t, exists)

	// The palette is written uncompressed so it gets a plain binary name
	writePNG(t, fs, "indexed/p.png", palettedImage(2, 2, 1, 2, 3, 4))
	require.NoError(t, c.Batch(context.Background(), "indexed", "build", Config{Format: texture.CI8, Binary: true, Compress: true}))

	data, err = afero.ReadFile(fs, "build/p.ci8.yaz0")
	require.NoError(t, err)
	assert.Equal(t, []byte("Yaz0"), data[:4])

	exists, err = afero.Exists(fs, "build/p.tlut.yaz0")
	require.NoError(t, err)
	assert.False(t, exists)

	data, err = afero.ReadFile(fs, "build/p.tlut.bin")
	require.NoError(t, err)
	assert.Len(t, data, 256*2)
	assert.Equal(t, []byte{0x00, 0x3f, 0x10, 0x3b}, data[:4])
}

func TestBatchErrors(t *testing.T) {
	c, fs := newTestConverter(t, WithWorkers(3))
	for _, name := range []string{"a", "b", "c", "d"} {
		writePNG(t, fs, "textures/"+name+".png", fillImage(4, 4, white))
	}
	writePNG(t, fs, "textures/odd.png", fillImage(5, 4, white))

	err := c.Batch(context.Background(), "textures", "build", Config{Format: texture.I4})
	assert.ErrorIs(t, err, texture.ErrOddWidth)

	require.NoError(t, fs.MkdirAll("empty", 0755))
	assert.Error(t, c.Batch(context.Background(), "empty", "build", Config{Format: texture.I4}))

	assert.Error(t, c.Batch(context.Background(), "textures", "build", Config{Format: texture.Format(-1)}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Batch(ctx, "textures", "build", Config{Format: texture.I8}), context.Canceled)
}
