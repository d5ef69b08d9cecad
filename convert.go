package texture2c

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/inhies/go-bytesize"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/Decompollaborate/texture2c/buffer"
	"github.com/Decompollaborate/texture2c/source"
	"github.com/Decompollaborate/texture2c/texture"
)

// Texture is a decoded input image.
type Texture struct {
	Path  string
	Image image.Image
	// Sum is the SHA-1 of the file contents
	Sum string
}

// Result is an encoded texture and, for indexed formats, its palette.
type Result struct {
	Texture *buffer.Buffer
	TLUT    *buffer.Buffer
}

func size(n int) zap.Field {
	return zap.Stringer("size", bytesize.New(float64(n)))
}

// Load reads and decodes the image at path.
func (c *Converter) Load(path string) (*Texture, error) {
	b, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, err
	}

	m, err := imaging.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}

	return &Texture{
		Path:  path,
		Image: m,
		Sum:   fmt.Sprintf("%X", sha1.Sum(b)),
	}, nil
}

// Encode packs t according to cfg, compressing it if requested.
func (c *Converter) Encode(t *Texture, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := c.logger.With(zap.String("path", t.Path), zap.Stringer("format", cfg.Format))

	if c.cacheable(cfg) {
		r, err := c.cache.Get(t.Sum, cfg)
		if err != nil {
			return nil, err
		}
		if r != nil {
			log.Debug("cache hit", zap.String("sha1", t.Sum))
			return r, nil
		}
	}

	m := t.Image
	if cfg.Resize != (image.Point{}) {
		m = source.Resize(m, cfg.Resize.X, cfg.Resize.Y)
	}

	src := source.New(m, cfg.Format)

	log.Debug("encoding",
		zap.Int("width", src.Width()),
		zap.Int("height", src.Height()),
		zap.Float64("source_bpp", src.BytesPerPixel()),
	)

	b, err := texture.Encode(src, cfg.Format)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", t.Path)
	}

	r := &Result{Texture: b}
	if cfg.Format.Indexed() {
		r.TLUT = buffer.New(texture.EncodePalette(src.Palette(), cfg.Format.Colors()))
	}

	if cfg.Compress {
		n := b.Len()
		if err := b.Compress(c.codec); err != nil {
			return nil, errors.Wrapf(err, "compress %s", t.Path)
		}
		log.Debug("compressed", zap.Stringer("from", bytesize.New(float64(n))), size(b.Len()))
	}

	if c.cacheable(cfg) {
		if err := c.cache.Put(t.Sum, cfg, r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Write serializes b to w as configured by cfg.
func (c *Converter) Write(w io.Writer, b *buffer.Buffer, cfg Config) error {
	if cfg.Binary {
		_, err := b.WriteTo(w)
		return err
	}
	return b.WriteRaw(w, cfg.ElementWidth())
}

func (c *Converter) output(path string, fn func(w io.Writer) error) error {
	if path == "" {
		return fn(c.stdout)
	}
	return writeFile(c.fs, path, fn)
}

func (c *Converter) write(path string, r *Result, cfg Config) error {
	if err := c.output(path, func(w io.Writer) error {
		return c.Write(w, r.Texture, cfg)
	}); err != nil {
		return errors.Wrapf(err, "write %s", lo.Ternary(path == "", "output", path))
	}

	if cfg.TLUT != "" && r.TLUT != nil {
		if err := writeFile(c.fs, cfg.TLUT, func(w io.Writer) error {
			return c.Write(w, r.TLUT, Config{Binary: cfg.Binary, Width: buffer.Width16})
		}); err != nil {
			return errors.Wrapf(err, "write %s", cfg.TLUT)
		}
	}

	c.logger.Debug("written", zap.String("path", path), size(r.Texture.Len()))

	return nil
}

// Convert encodes the image at in and writes it to out, or to the
// configured output when out is empty.
func (c *Converter) Convert(in, out string, cfg Config) error {
	t, err := c.Load(in)
	if err != nil {
		return err
	}

	r, err := c.Encode(t, cfg)
	if err != nil {
		return err
	}

	return c.write(out, r, cfg)
}

// ConvertJPEG copies a JPEG background verbatim into a framebuffer sized
// buffer and writes it to out. If fill is set the output covers the whole
// framebuffer. Only the Compress, Binary and Width settings of cfg apply,
// the default width being bytes.
func (c *Converter) ConvertJPEG(in, out string, fill bool, cfg Config) error {
	f, err := c.fs.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := lo.Ternary(fill, buffer.ReadJPEGFilled, buffer.ReadJPEG)(f)
	if err != nil {
		return errors.Wrapf(err, "read %s", in)
	}

	if cfg.Compress {
		if err := b.Compress(c.codec); err != nil {
			return errors.Wrapf(err, "compress %s", in)
		}
	}

	// Plain bytes unless a width was given
	cfg.Format = texture.I8
	cfg.TLUT = ""

	return c.write(out, &Result{Texture: b}, cfg)
}
