/*
Package texture2c is a library for converting PNG and BMP images into the
texture formats used by Nintendo 64 games, written out either as C array
initializers for inclusion in a decompilation or as binary files.
*/
package texture2c

import (
	"io"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/Decompollaborate/texture2c/buffer"
	"github.com/Decompollaborate/texture2c/yaz0"
)

const defaultWorkers = 4

// Converter reads images from a filesystem and writes encoded textures
// back to it.
type Converter struct {
	fs       afero.Fs
	logger   *zap.Logger
	cache    *Cache
	codec    buffer.Codec
	stdout   io.Writer
	progress io.Writer
	workers  int
}

// Option configures a Converter.
type Option func(c *Converter)

// WithCache reuses previously encoded textures stored in cache.
func WithCache(cache *Cache) Option {
	return func(c *Converter) {
		c.cache = cache
	}
}

// WithCodec replaces the Yaz0 codec used for compression. Compressed
// results are then neither read from nor stored in the cache.
func WithCodec(codec buffer.Codec) Option {
	return func(c *Converter) {
		c.codec = codec
	}
}

// WithOutput sets where textures without an output path are written,
// os.Stdout by default.
func WithOutput(w io.Writer) Option {
	return func(c *Converter) {
		c.stdout = w
	}
}

// WithProgress renders a progress bar to w during batch conversion.
func WithProgress(w io.Writer) Option {
	return func(c *Converter) {
		c.progress = w
	}
}

// WithWorkers sets the number of textures converted in parallel by Batch.
func WithWorkers(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.workers = n
		}
	}
}

// cacheable reports whether results for cfg can be shared through the
// cache. Compressed entries are always Yaz0, so another codec bypasses it.
func (c *Converter) cacheable(cfg Config) bool {
	return c.cache != nil && (!cfg.Compress || c.codec == (yaz0.Codec{}))
}

// New returns a Converter working on fs.
func New(fs afero.Fs, logger *zap.Logger, opts ...Option) *Converter {
	c := &Converter{
		fs:       fs,
		logger:   logger,
		codec:    yaz0.Codec{},
		stdout:   os.Stdout,
		progress: io.Discard,
		workers:  defaultWorkers,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}
