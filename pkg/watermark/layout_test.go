package watermark

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePlacementAnchorsStayInBounds(t *testing.T) {
	const baseW, baseH = 800, 600
	const wmW, wmH = 200, 80

	for _, anchor := range Anchors {
		t.Run(string(anchor), func(t *testing.T) {
			pos := ResolvePlacement(baseW, baseH, wmW, wmH, AnchorPlacement(anchor))

			assert.GreaterOrEqual(t, pos.X, 0)
			assert.GreaterOrEqual(t, pos.Y, 0)
			assert.LessOrEqual(t, pos.X+wmW, baseW)
			assert.LessOrEqual(t, pos.Y+wmH, baseH)
		})
	}
}

func TestResolvePlacementAnchorPositions(t *testing.T) {
	const baseW, baseH = 1000, 500
	const wmW, wmH = 100, 50

	tests := []struct {
		anchor Anchor
		want   image.Point
	}{
		{AnchorTopLeft, image.Pt(AnchorMargin, AnchorMargin)},
		{AnchorTopCenter, image.Pt((baseW-wmW)/2, AnchorMargin)},
		{AnchorTopRight, image.Pt(baseW-wmW-AnchorMargin, AnchorMargin)},
		{AnchorMiddleLeft, image.Pt(AnchorMargin, (baseH-wmH)/2)},
		{AnchorCenter, image.Pt((baseW-wmW)/2, (baseH-wmH)/2)},
		{AnchorMiddleRight, image.Pt(baseW-wmW-AnchorMargin, (baseH-wmH)/2)},
		{AnchorBottomLeft, image.Pt(AnchorMargin, baseH-wmH-AnchorMargin)},
		{AnchorBottomCenter, image.Pt((baseW-wmW)/2, baseH-wmH-AnchorMargin)},
		{AnchorBottomRight, image.Pt(baseW-wmW-AnchorMargin, baseH-wmH-AnchorMargin)},
	}

	for _, tc := range tests {
		t.Run(string(tc.anchor), func(t *testing.T) {
			pos := ResolvePlacement(baseW, baseH, wmW, wmH, AnchorPlacement(tc.anchor))
			assert.Equal(t, tc.want, pos)
		})
	}
}

func TestResolvePlacementOversizedWatermarkClips(t *testing.T) {
	// Watermark larger than the base image: it clips instead of being
	// forced inside, centered anchors stay centered.
	pos := ResolvePlacement(100, 100, 300, 300, AnchorPlacement(AnchorCenter))
	assert.Equal(t, image.Pt(-100, -100), pos)
}

func TestResolvePlacementOffsetClamped(t *testing.T) {
	const baseW, baseH = 400, 300
	const wmW, wmH = 100, 50

	tests := []struct {
		x, y int
		want image.Point
	}{
		{50, 60, image.Pt(50, 60)},                   // inside, untouched
		{-500, -500, image.Pt(1-wmW, 1-wmH)},         // at least one pixel visible
		{5000, 5000, image.Pt(baseW-1, baseH-1)},     // same on the far side
		{baseW - 10, baseH - 10, image.Pt(390, 290)}, // partial overlap allowed
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("%d_%d", tc.x, tc.y), func(t *testing.T) {
			pos := ResolvePlacement(baseW, baseH, wmW, wmH, OffsetPlacement(tc.x, tc.y))
			assert.Equal(t, tc.want, pos)
		})
	}
}

func TestAnchorValid(t *testing.T) {
	for _, anchor := range Anchors {
		assert.True(t, anchor.Valid(), string(anchor))
	}
	assert.False(t, Anchor("middle").Valid())
	assert.False(t, Anchor("").Valid())
}
