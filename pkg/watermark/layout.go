package watermark

import "image"

// Anchor is one of the nine fixed relative positions on the base image.
type Anchor string

const (
	AnchorTopLeft      Anchor = "top-left"
	AnchorTopCenter    Anchor = "top-center"
	AnchorTopRight     Anchor = "top-right"
	AnchorMiddleLeft   Anchor = "middle-left"
	AnchorCenter       Anchor = "center"
	AnchorMiddleRight  Anchor = "middle-right"
	AnchorBottomLeft   Anchor = "bottom-left"
	AnchorBottomCenter Anchor = "bottom-center"
	AnchorBottomRight  Anchor = "bottom-right"
)

// Anchors lists all nine anchors in reading order (left to right, top to bottom).
var Anchors = []Anchor{
	AnchorTopLeft, AnchorTopCenter, AnchorTopRight,
	AnchorMiddleLeft, AnchorCenter, AnchorMiddleRight,
	AnchorBottomLeft, AnchorBottomCenter, AnchorBottomRight,
}

// Valid reports whether a is one of the nine anchors.
func (a Anchor) Valid() bool {
	for _, known := range Anchors {
		if a == known {
			return true
		}
	}
	return false
}

// AnchorMargin is the inward inset, in pixels, applied to anchored placements.
const AnchorMargin = 16

// ResolvePlacement maps a placement request to the top-left pixel coordinate
// for compositing. Deterministic: same inputs always yield the same point.
//
// Anchored placements are inset by AnchorMargin and kept fully inside the
// base whenever the watermark fits; a watermark larger than the base clips.
// Offset placements are clamped so at least one watermark pixel stays inside.
func ResolvePlacement(baseW, baseH, wmW, wmH int, p Placement) image.Point {
	if p.Mode == ModeOffset {
		return image.Pt(
			clamp(p.X, 1-wmW, baseW-1),
			clamp(p.Y, 1-wmH, baseH-1),
		)
	}

	var x, y int
	switch p.Anchor {
	case AnchorTopLeft, AnchorMiddleLeft, AnchorBottomLeft:
		x = AnchorMargin
	case AnchorTopCenter, AnchorCenter, AnchorBottomCenter:
		x = (baseW - wmW) / 2
	default:
		x = baseW - wmW - AnchorMargin
	}
	switch p.Anchor {
	case AnchorTopLeft, AnchorTopCenter, AnchorTopRight:
		y = AnchorMargin
	case AnchorMiddleLeft, AnchorCenter, AnchorMiddleRight:
		y = (baseH - wmH) / 2
	default:
		y = baseH - wmH - AnchorMargin
	}

	// The margin must never push a fitting watermark out of bounds.
	if wmW <= baseW {
		x = clamp(x, 0, baseW-wmW)
	}
	if wmH <= baseH {
		y = clamp(y, 0, baseH-wmH)
	}
	return image.Pt(x, y)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
