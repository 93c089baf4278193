// markbatch applies a watermark to every photo in a directory without the
// GUI. The watermark can come from a saved template or from flags.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/photomark/photomark/config"
	"github.com/photomark/photomark/pkg/export"
	"github.com/photomark/photomark/pkg/imageio"
	"github.com/photomark/photomark/pkg/template"
	"github.com/photomark/photomark/pkg/watermark"
	"github.com/photomark/photomark/util/log"
)

type cliConfig struct {
	Input    string `mapstructure:"input"`
	Output   string `mapstructure:"output"`
	Template string `mapstructure:"template"`

	Text    string  `mapstructure:"text"`
	Size    int     `mapstructure:"size"`
	Logo    string  `mapstructure:"logo"`
	Scale   int     `mapstructure:"scale"`
	Opacity int     `mapstructure:"opacity"`
	Angle   float64 `mapstructure:"angle"`
	Anchor  string  `mapstructure:"anchor"`

	Format        string `mapstructure:"format"`
	Quality       int    `mapstructure:"quality"`
	Suffix        string `mapstructure:"suffix"`
	ResizePercent int    `mapstructure:"resize-percent"`
	Workers       int    `mapstructure:"workers"`
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("markbatch", pflag.ContinueOnError)
	fs.StringP("input", "i", "", "directory of photos to watermark")
	fs.StringP("output", "o", "", "output directory")
	fs.StringP("template", "t", "", "name of a saved template to use")
	fs.String("text", "", "watermark text (ignored when --logo is set)")
	fs.Int("size", 48, "text size in pixels")
	fs.String("logo", "", "path to a PNG/JPEG watermark image")
	fs.Int("scale", 100, "logo scale in percent")
	fs.Int("opacity", 180, "watermark opacity, 0-255")
	fs.Float64("angle", 0, "rotation in degrees, counter-clockwise")
	fs.String("anchor", string(watermark.AnchorBottomRight),
		"placement anchor: top-left, top-center, ..., bottom-right")
	fs.StringP("format", "f", "png", "output format: png or jpeg")
	fs.IntP("quality", "q", 90, "jpeg output quality")
	fs.String("suffix", "_watermarked", "suffix appended to output names")
	fs.Int("resize-percent", 0, "scale output by percent, 0 keeps original size")
	fs.Int("workers", runtime.NumCPU(), "number of parallel workers")
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) (*cliConfig, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("photomark")
	// Dashed flag names like resize-percent map to PHOTOMARK_RESIZE_PERCENT.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	var c cliConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func buildJob(c *cliConfig, sources []string) (export.Job, error) {
	if c.Template != "" {
		store := template.NewStore(config.GetTemplatesPath(), config.GetLastUsedPath())
		sess, err := store.Load(c.Template)
		if err != nil {
			return export.Job{}, err
		}
		opts := sess.Options
		opts.OutputDir = c.Output
		return export.Job{Sources: sources, Descriptor: sess.Descriptor, Options: opts}, nil
	}

	d := watermark.DefaultDescriptor()
	switch {
	case c.Logo != "":
		d.Kind = watermark.KindImage
		d.Text = nil
		d.Image = &watermark.ImageWatermark{AssetPath: c.Logo, ScalePercent: c.Scale}
	case c.Text != "":
		d.Text.Content = c.Text
		d.Text.Style.Size = c.Size
	default:
		return export.Job{}, fmt.Errorf("either --text, --logo or --template is required")
	}
	d.Opacity = uint8(c.Opacity)
	d.Angle = c.Angle
	d.Placement = watermark.AnchorPlacement(watermark.Anchor(c.Anchor))
	if err := d.Validate(); err != nil {
		return export.Job{}, err
	}

	format, err := imageio.ParseFormat(c.Format)
	if err != nil {
		return export.Job{}, err
	}

	opts := export.DefaultOptions()
	opts.Format = format
	opts.Quality = c.Quality
	opts.Naming = export.Naming{Mode: export.NamingSuffix, Suffix: c.Suffix}
	if c.ResizePercent > 0 {
		opts.Resize = export.Resize{Mode: export.ResizePercent, Percent: c.ResizePercent}
	}
	opts.OutputDir = c.Output
	return export.Job{Sources: sources, Descriptor: d, Options: opts}, nil
}

func main() {
	fs := newFlagSet()
	c, err := parseFlags(fs, os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}
	if c.Input == "" || c.Output == "" {
		fs.Usage()
		os.Exit(2)
	}

	sources, err := export.CollectSources(c.Input)
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", c.Input, err)
	}
	if len(sources) == 0 {
		log.Fatalf("No supported images found in %s", c.Input)
	}

	job, err := buildJob(c, sources)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := export.NewPipeline(watermark.NewCompositor(), c.Workers)
	report, err := pipeline.Run(ctx, job, func(completed, total int, item export.ItemResult) {
		if item.Err != nil {
			fmt.Fprintf(os.Stderr, "[%d/%d] FAILED %s: %v\n", completed, total, item.Source, item.Err)
		} else {
			fmt.Printf("[%d/%d] %s -> %s\n", completed, total, item.Source, item.Output)
		}
	})
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	fmt.Printf("%d exported, %d failed\n", report.Done, report.Failed)
	if report.Failed > 0 {
		os.Exit(1)
	}
}
