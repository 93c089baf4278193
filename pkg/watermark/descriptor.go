package watermark

import (
	"errors"
	"fmt"
	"image/color"
)

// Kind discriminates the two watermark variants.
type Kind string

const (
	// KindText is a rendered text watermark.
	KindText Kind = "text"
	// KindImage is an overlay image watermark (PNG with alpha preferred).
	KindImage Kind = "image"
)

// RGBA is a plain color value that round-trips through JSON exactly.
type RGBA struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// NRGBA converts the value to a color.NRGBA.
func (c RGBA) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// TextStyle describes how a text watermark is drawn.
type TextStyle struct {
	FontPath    string `json:"font_path,omitempty"` // .ttf/.otf/.ttc; empty means system fallback
	Size        int    `json:"size"`                // point size at 72 DPI
	Color       RGBA   `json:"color"`
	Stroke      bool   `json:"stroke"`
	StrokeWidth int    `json:"stroke_width"`
	StrokeColor RGBA   `json:"stroke_color"`
	Shadow      bool   `json:"shadow"`
	ShadowDX    int    `json:"shadow_dx"`
	ShadowDY    int    `json:"shadow_dy"`
	ShadowColor RGBA   `json:"shadow_color"`
}

// TextWatermark is the text variant payload.
type TextWatermark struct {
	Content string    `json:"content"`
	Style   TextStyle `json:"style"`
}

// ImageWatermark is the overlay-image variant payload.
type ImageWatermark struct {
	AssetPath    string `json:"asset_path"`
	ScalePercent int    `json:"scale_percent"` // 1-400, 100 = native size
}

// PlacementMode selects between anchored and free placement.
type PlacementMode string

const (
	// ModeAnchor places the watermark at one of the nine fixed positions.
	ModeAnchor PlacementMode = "anchor"
	// ModeOffset places the watermark at an absolute top-left pixel offset.
	ModeOffset PlacementMode = "offset"
)

// Placement is where the rendered watermark lands on the base image.
type Placement struct {
	Mode   PlacementMode `json:"mode"`
	Anchor Anchor        `json:"anchor,omitempty"`
	X      int           `json:"x,omitempty"`
	Y      int           `json:"y,omitempty"`
}

// AnchorPlacement returns an anchored placement.
func AnchorPlacement(a Anchor) Placement {
	return Placement{Mode: ModeAnchor, Anchor: a}
}

// OffsetPlacement returns a free placement at the given top-left offset.
func OffsetPlacement(x, y int) Placement {
	return Placement{Mode: ModeOffset, X: x, Y: y}
}

// Descriptor is the full specification of one watermark instance.
// Exactly one of Text or Image is set, per Kind.
type Descriptor struct {
	Kind      Kind            `json:"kind"`
	Text      *TextWatermark  `json:"text,omitempty"`
	Image     *ImageWatermark `json:"image,omitempty"`
	Opacity   uint8           `json:"opacity"` // 0-255, multiplies the layer's own alpha
	Angle     float64         `json:"angle"`   // degrees, counter-clockwise
	Placement Placement       `json:"placement"`
}

// Clone returns a copy with detached variant payloads, so normalization or
// edits on the copy never reach the original.
func (d Descriptor) Clone() Descriptor {
	if d.Text != nil {
		text := *d.Text
		d.Text = &text
	}
	if d.Image != nil {
		img := *d.Image
		d.Image = &img
	}
	return d
}

// ErrInvalidDescriptor reports a descriptor that cannot be rendered.
var ErrInvalidDescriptor = errors.New("invalid watermark descriptor")

// Validate checks the variant payloads and normalizes out-of-range values.
func (d *Descriptor) Validate() error {
	switch d.Kind {
	case KindText:
		if d.Text == nil || d.Text.Content == "" {
			return fmt.Errorf("%w: text watermark requires content", ErrInvalidDescriptor)
		}
		if d.Text.Style.Size < 1 {
			d.Text.Style.Size = 1
		}
		if d.Text.Style.StrokeWidth < 0 {
			d.Text.Style.StrokeWidth = 0
		}
	case KindImage:
		if d.Image == nil || d.Image.AssetPath == "" {
			return fmt.Errorf("%w: image watermark requires an asset path", ErrInvalidDescriptor)
		}
		if d.Image.ScalePercent < 1 {
			d.Image.ScalePercent = 1
		}
		if d.Image.ScalePercent > 400 {
			d.Image.ScalePercent = 400
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDescriptor, d.Kind)
	}
	if d.Placement.Mode == "" {
		d.Placement = AnchorPlacement(AnchorBottomRight)
	}
	if d.Placement.Mode == ModeAnchor && !d.Placement.Anchor.Valid() {
		return fmt.Errorf("%w: unknown anchor %q", ErrInvalidDescriptor, d.Placement.Anchor)
	}
	return nil
}

// DefaultDescriptor returns the descriptor used on first launch.
func DefaultDescriptor() Descriptor {
	return Descriptor{
		Kind: KindText,
		Text: &TextWatermark{
			Content: "© Photomark",
			Style: TextStyle{
				Size:        48,
				Color:       RGBA{R: 255, G: 255, B: 255, A: 255},
				Stroke:      true,
				StrokeWidth: 2,
				StrokeColor: RGBA{A: 200},
				Shadow:      true,
				ShadowDX:    2,
				ShadowDY:    2,
				ShadowColor: RGBA{A: 160},
			},
		},
		Opacity:   180,
		Angle:     0,
		Placement: AnchorPlacement(AnchorBottomRight),
	}
}
