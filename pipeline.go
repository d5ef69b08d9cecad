package texture2c

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var imageExts = []string{".png", ".bmp"}

func (c *Converter) findImages(base string) ([]string, error) {
	var files []string
	err := afero.Walk(c.fs, base, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Ignore any hidden files or directories, this includes our
		// own temporary files
		if file != base && info.Name()[0] == '.' {
			if info.Mode().IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		if lo.Contains(imageExts, strings.ToLower(filepath.Ext(file))) {
			files = append(files, file)
		}

		return nil
	})
	return files, err
}

func feed(ctx context.Context, files []string) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		for _, file := range files {
			select {
			case out <- file:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func outputName(dir, file, kind string, cfg Config) string {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return filepath.Join(dir, base+"."+kind+cfg.Ext())
}

func (c *Converter) worker(ctx context.Context, in <-chan string, outDir string, cfg Config, bar *progressbar.ProgressBar) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if ctx.Err() != nil {
				return
			}

			t, err := c.Load(file)
			if err != nil {
				errc <- err
				return
			}

			r, err := c.Encode(t, cfg)
			if err != nil {
				errc <- err
				return
			}

			// The palette goes next to the texture, it is never
			// compressed
			tcfg := cfg
			tcfg.TLUT = ""
			if r.TLUT != nil {
				tcfg.TLUT = outputName(outDir, file, "tlut", Config{Binary: cfg.Binary})
			}

			if err := c.write(outputName(outDir, file, cfg.Format.String(), cfg), r, tcfg); err != nil {
				errc <- err
				return
			}

			_ = bar.Add(1)
		}
	}()
	return errc
}

// waitForPipeline returns the first error from errs. On error cancel is
// called and the remaining channels are drained so no stage outlives it.
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Batch converts every PNG and BMP image under dir, writing the results to
// outDir. Indexed formats also get their palette written alongside. It
// stops at the first error.
func (c *Converter) Batch(ctx context.Context, dir, outDir string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	files, err := c.findImages(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("texture2c: no images found")
	}

	if err := c.fs.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	c.logger.Info("converting", zap.Int("images", len(files)), zap.Int("workers", c.workers), zap.Stringer("format", cfg.Format))

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(c.progress),
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionShowCount(),
	)

	in := feed(ctx, files)

	var errcList []<-chan error
	for i := 0; i < c.workers; i++ {
		errcList = append(errcList, c.worker(ctx, in, outDir, cfg, bar))
	}

	if err := waitForPipeline(cancelFunc, errcList...); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return bar.Finish()
}
