package export

import (
	"fmt"
	"math"

	"github.com/photomark/photomark/pkg/imageio"
)

// NamingMode selects how output file names derive from source names.
type NamingMode string

const (
	// NamingKeep keeps the original stem.
	NamingKeep NamingMode = "keep"
	// NamingPrefix prepends a fixed prefix to the stem.
	NamingPrefix NamingMode = "prefix"
	// NamingSuffix appends a fixed suffix to the stem.
	NamingSuffix NamingMode = "suffix"
)

// Naming is the output file naming rule.
type Naming struct {
	Mode   NamingMode `json:"mode"`
	Prefix string     `json:"prefix"`
	Suffix string     `json:"suffix"`
}

// DefaultNaming matches the application defaults: suffix "_watermarked".
func DefaultNaming() Naming {
	return Naming{Mode: NamingSuffix, Prefix: "wm_", Suffix: "_watermarked"}
}

// Apply derives the output stem from the source stem.
func (n Naming) Apply(stem string) string {
	switch n.Mode {
	case NamingPrefix:
		return n.Prefix + stem
	case NamingSuffix:
		return stem + n.Suffix
	default:
		return stem
	}
}

// ResizeMode selects the output resize rule.
type ResizeMode string

const (
	// ResizeNone keeps the composited dimensions.
	ResizeNone ResizeMode = "none"
	// ResizeWidth scales to an absolute width, preserving aspect ratio.
	ResizeWidth ResizeMode = "width"
	// ResizeHeight scales to an absolute height, preserving aspect ratio.
	ResizeHeight ResizeMode = "height"
	// ResizePercent scales both dimensions by a percentage.
	ResizePercent ResizeMode = "percent"
	// ResizeExact uses both Width and Height, ignoring aspect ratio.
	ResizeExact ResizeMode = "exact"
)

// Resize is the output resize rule. Width/Height/Percent are interpreted
// according to Mode; the unused fields are ignored.
type Resize struct {
	Mode    ResizeMode `json:"mode"`
	Width   int        `json:"width,omitempty"`
	Height  int        `json:"height,omitempty"`
	Percent int        `json:"percent,omitempty"`
}

// TargetSize computes the output dimensions for a w×h input.
// Aspect ratio is preserved unless both dimensions are explicitly given.
func (r Resize) TargetSize(w, h int) (int, int) {
	switch r.Mode {
	case ResizeWidth:
		if r.Width < 1 || w < 1 {
			return w, h
		}
		return r.Width, maxDim(1, int(math.Round(float64(h)*float64(r.Width)/float64(w))))
	case ResizeHeight:
		if r.Height < 1 || h < 1 {
			return w, h
		}
		return maxDim(1, int(math.Round(float64(w)*float64(r.Height)/float64(h)))), r.Height
	case ResizePercent:
		if r.Percent < 1 {
			return w, h
		}
		return maxDim(1, w*r.Percent/100), maxDim(1, h*r.Percent/100)
	case ResizeExact:
		if r.Width < 1 || r.Height < 1 {
			return w, h
		}
		return r.Width, r.Height
	default:
		return w, h
	}
}

// Options are the per-job export settings.
type Options struct {
	Format    imageio.Format `json:"format"`
	Quality   int            `json:"quality"` // JPEG quality 0-100
	Resize    Resize         `json:"resize"`
	Naming    Naming         `json:"naming"`
	OutputDir string         `json:"output_dir"`
	// AllowSourceOverwrite relaxes the directory half of the overwrite guard;
	// an output path equal to a source path is always refused.
	AllowSourceOverwrite bool `json:"allow_source_overwrite"`
}

// DefaultOptions returns the export settings used on first launch.
func DefaultOptions() Options {
	return Options{
		Format:  imageio.PNG,
		Quality: 90,
		Resize:  Resize{Mode: ResizeNone},
		Naming:  DefaultNaming(),
	}
}

// Validate checks settings that would make every item fail.
func (o Options) Validate() error {
	if o.OutputDir == "" {
		return fmt.Errorf("%w: output directory not set", imageio.ErrEncode)
	}
	switch o.Format {
	case imageio.JPEG, imageio.PNG:
	default:
		return fmt.Errorf("%w: format %q", imageio.ErrEncode, o.Format)
	}
	return nil
}

func maxDim(a, b int) int {
	if a > b {
		return a
	}
	return b
}
