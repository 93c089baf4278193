package watermark

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/photomark/photomark/pkg/imageio"
)

// ErrAssetLoad reports an unreadable or corrupt watermark asset.
var ErrAssetLoad = errors.New("unreadable watermark asset")

// RenderResult is a composited image plus render metadata.
type RenderResult struct {
	Image *image.NRGBA
	// FontUsed is the font that actually rendered a text watermark,
	// which may differ from the requested one after fallback.
	FontUsed string
	// LayerBounds is the rectangle the watermark layer occupies on the output.
	LayerBounds image.Rectangle
}

// Compositor alpha-blends a rendered watermark layer onto base images.
type Compositor struct {
	fonts     *FontResolver
	resampler imaging.ResampleFilter
}

// NewCompositor creates a compositor with Lanczos resampling.
func NewCompositor() *Compositor {
	return &Compositor{
		fonts:     NewFontResolver(),
		resampler: imaging.Lanczos,
	}
}

// Render composites the watermark described by d onto base and returns a new
// image of identical dimensions. The base is never modified.
func (c *Compositor) Render(ctx context.Context, base image.Image, d Descriptor) (*RenderResult, error) {
	// Validation normalizes in place; work on a detached copy so the
	// caller's payloads stay untouched.
	d = d.Clone()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var (
		layer    *image.NRGBA
		fontUsed string
		err      error
	)
	switch d.Kind {
	case KindText:
		layer, fontUsed, err = c.renderTextLayer(d)
	case KindImage:
		layer, err = c.renderImageLayer(d)
	}
	if err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	baseBounds := base.Bounds()
	pos := ResolvePlacement(baseBounds.Dx(), baseBounds.Dy(), layer.Bounds().Dx(), layer.Bounds().Dy(), d.Placement)
	out := imaging.Overlay(base, layer, pos, float64(d.Opacity)/255.0)

	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return &RenderResult{
		Image:       out,
		FontUsed:    fontUsed,
		LayerBounds: layer.Bounds().Add(pos),
	}, nil
}

// RenderPreview composites against a downscaled copy of base whose long edge
// does not exceed maxEdge, scaling the descriptor to match. It returns the
// result and the scale factor applied (1 when no downscale happened).
func (c *Compositor) RenderPreview(ctx context.Context, base image.Image, d Descriptor, maxEdge int) (*RenderResult, float64, error) {
	b := base.Bounds()
	long := b.Dx()
	if b.Dy() > long {
		long = b.Dy()
	}
	if maxEdge <= 0 || long <= maxEdge {
		res, err := c.Render(ctx, base, d)
		return res, 1, err
	}

	factor := float64(maxEdge) / float64(long)
	small := imaging.Fit(base, maxEdge, maxEdge, imaging.Linear)
	res, err := c.Render(ctx, small, scaleDescriptor(d, factor))
	return res, factor, err
}

// scaleDescriptor proportionally shrinks a descriptor for preview rendering.
func scaleDescriptor(d Descriptor, f float64) Descriptor {
	if d.Text != nil {
		text := *d.Text
		text.Style.Size = int(math.Max(1, math.Round(float64(text.Style.Size)*f)))
		text.Style.StrokeWidth = int(math.Round(float64(text.Style.StrokeWidth) * f))
		text.Style.ShadowDX = int(math.Round(float64(text.Style.ShadowDX) * f))
		text.Style.ShadowDY = int(math.Round(float64(text.Style.ShadowDY) * f))
		d.Text = &text
	}
	if d.Image != nil {
		img := *d.Image
		img.ScalePercent = int(math.Max(1, math.Round(float64(img.ScalePercent)*f)))
		d.Image = &img
	}
	if d.Placement.Mode == ModeOffset {
		d.Placement.X = int(math.Round(float64(d.Placement.X) * f))
		d.Placement.Y = int(math.Round(float64(d.Placement.Y) * f))
	}
	return d
}

// renderTextLayer draws the text onto a tight canvas: shadow first, then the
// stroke underlayer, then the fill, then rotation.
func (c *Compositor) renderTextLayer(d Descriptor) (*image.NRGBA, string, error) {
	style := d.Text.Style
	face, fontUsed, err := c.fonts.Face(style)
	if err != nil {
		return nil, "", err
	}
	defer face.Close()

	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	textW := font.MeasureString(face, d.Text.Content).Ceil()
	textH := (metrics.Ascent + metrics.Descent).Ceil()
	if textW <= 0 || textH <= 0 {
		return nil, "", fmt.Errorf("%w: text measures to an empty box", ErrInvalidDescriptor)
	}

	strokeW := 0
	if style.Stroke {
		strokeW = style.StrokeWidth
	}
	shadowDX, shadowDY := 0, 0
	if style.Shadow {
		shadowDX, shadowDY = style.ShadowDX, style.ShadowDY
	}

	padLeft := strokeW + maxInt(0, -shadowDX)
	padTop := strokeW + maxInt(0, -shadowDY)
	padRight := strokeW + maxInt(0, shadowDX)
	padBottom := strokeW + maxInt(0, shadowDY)

	layer := image.NewNRGBA(image.Rect(0, 0, textW+padLeft+padRight, textH+padTop+padBottom))
	dot := fixed.P(padLeft, padTop+ascent)

	drawString := func(at fixed.Point26_6, col color.NRGBA) {
		drawer := &font.Drawer{
			Dst:  layer,
			Src:  image.NewUniform(col),
			Face: face,
			Dot:  at,
		}
		drawer.DrawString(d.Text.Content)
	}

	if style.Shadow {
		drawString(dot.Add(fixed.P(shadowDX, shadowDY)), style.ShadowColor.NRGBA())
	}
	if style.Stroke && strokeW > 0 {
		for dy := -strokeW; dy <= strokeW; dy++ {
			for dx := -strokeW; dx <= strokeW; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if dx*dx+dy*dy > strokeW*strokeW {
					continue
				}
				drawString(dot.Add(fixed.P(dx, dy)), style.StrokeColor.NRGBA())
			}
		}
	}
	drawString(dot, style.Color.NRGBA())

	return rotateLayer(layer, d.Angle), fontUsed, nil
}

// renderImageLayer loads, scales and rotates the overlay asset.
func (c *Compositor) renderImageLayer(d Descriptor) (*image.NRGBA, error) {
	asset, _, err := imageio.Decode(d.Image.AssetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetLoad, err)
	}

	layer := imaging.Clone(asset)
	if d.Image.ScalePercent != 100 {
		b := layer.Bounds()
		w := maxInt(1, b.Dx()*d.Image.ScalePercent/100)
		h := maxInt(1, b.Dy()*d.Image.ScalePercent/100)
		layer = imaging.Resize(layer, w, h, c.resampler)
	}
	return rotateLayer(layer, d.Angle), nil
}

// rotateLayer rotates counter-clockwise, expanding the canvas, with a
// transparent background. Near-zero angles skip the resample entirely.
func rotateLayer(layer *image.NRGBA, angle float64) *image.NRGBA {
	if math.Abs(angle) <= 0.01 {
		return layer
	}
	return imaging.Rotate(layer, angle, color.NRGBA{})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
