package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/Decompollaborate/texture2c"
	"github.com/Decompollaborate/texture2c/buffer"
	"github.com/Decompollaborate/texture2c/texture"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "compress",
			Aliases: []string{"c"},
			Usage:   "compress the output with Yaz0",
		},
		&cli.BoolFlag{
			Name:    "binary",
			Aliases: []string{"b"},
			Usage:   "write raw bytes instead of a C array",
		},
		&cli.StringFlag{
			Name:    "width",
			Aliases: []string{"w"},
			Usage:   "element width in bits of the C array (8, 16, 32 or 64)",
		},
	}
}

func textureFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:     "format",
			Aliases:  []string{"f"},
			Usage:    "texture format (" + strings.Join(texture.FormatNames(), ", ") + ")",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "resize",
			Usage: "resize the image to WxH first",
		},
	}, outputFlags()...)
}

func config(c *cli.Context) (texture2c.Config, error) {
	var cfg texture2c.Config

	if c.IsSet("format") {
		f, err := texture.ParseFormat(c.String("format"))
		if err != nil {
			return cfg, err
		}
		cfg.Format = f
	}

	if c.IsSet("width") {
		w, err := buffer.ParseWidth(c.String("width"))
		if err != nil {
			return cfg, err
		}
		cfg.Width = w
	}

	if c.IsSet("resize") {
		p, err := texture2c.ParseSize(c.String("resize"))
		if err != nil {
			return cfg, err
		}
		cfg.Resize = p
	}

	cfg.Compress = c.Bool("compress")
	cfg.Binary = c.Bool("binary")
	cfg.TLUT = c.String("tlut")

	return cfg, nil
}

func newConverter(c *cli.Context, opts ...texture2c.Option) (*texture2c.Converter, func(), error) {
	logger := zap.NewNop()
	if c.Bool("verbose") {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, nil, err
		}
	}

	closer := func() {
		_ = logger.Sync()
	}

	if file := c.String("cache"); file != "" {
		cache, err := texture2c.NewCache(file)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, texture2c.WithCache(cache))
		closer = func() {
			cache.Close()
			_ = logger.Sync()
		}
	}

	return texture2c.New(afero.NewOsFs(), logger, opts...), closer, nil
}

func main() {
	app := cli.NewApp()

	app.Name = "texture2c"
	app.Usage = "Nintendo 64 texture conversion utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "cache",
			EnvVars: []string{"TEXTURE2C_CACHE"},
			Usage:   "path to cache database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Convert an image to a texture",
			Description: "Encodes a PNG or BMP image. Without an output file the result is written to standard output.",
			ArgsUsage:   "FILE",
			Flags: append(textureFlags(),
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "output file",
				},
				&cli.StringFlag{
					Name:  "tlut",
					Usage: "write the palette of an indexed format to `FILE`",
				},
			),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cfg, err := config(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				conv, closer, err := newConverter(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				if err := conv.Convert(c.Args().First(), c.String("output"), cfg); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "batch",
			Usage:       "Convert every image in a directory",
			Description: "Walks DIRECTORY converting each PNG or BMP image, hidden files are skipped. Indexed formats also get a .tlut file.",
			ArgsUsage:   "DIRECTORY",
			Flags: append(textureFlags(),
				&cli.StringFlag{
					Name:    "out-dir",
					Aliases: []string{"d"},
					Value:   ".",
					Usage:   "output directory",
				},
				&cli.IntFlag{
					Name:    "workers",
					Aliases: []string{"j"},
					Value:   4,
					Usage:   "number of images converted in parallel",
				},
			),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cfg, err := config(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				conv, closer, err := newConverter(c, texture2c.WithWorkers(c.Int("workers")), texture2c.WithProgress(os.Stderr))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
				defer stop()

				if err := conv.Batch(ctx, c.Args().First(), c.String("out-dir"), cfg); err != nil {
					return cli.NewExitError(err, 1)
				}
				fmt.Fprintln(os.Stderr)

				return nil
			},
		},
		{
			Name:        "jpeg",
			Usage:       "Convert a JPEG background",
			Description: "Copies a JPEG file verbatim into a 320x240 16-bit framebuffer sized buffer.",
			ArgsUsage:   "FILE",
			Flags: append(outputFlags(),
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "output file",
				},
				&cli.BoolFlag{
					Name:  "fill",
					Usage: "pad the output to the size of the framebuffer",
				},
			),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cfg, err := config(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				conv, closer, err := newConverter(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				if err := conv.ConvertJPEG(c.Args().First(), c.String("output"), c.Bool("fill"), cfg); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
