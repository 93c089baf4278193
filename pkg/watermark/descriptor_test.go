package watermark

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateText(t *testing.T) {
	d := DefaultDescriptor()
	require.NoError(t, d.Validate())

	d.Text.Content = ""
	assert.ErrorIs(t, d.Validate(), ErrInvalidDescriptor)

	d = DefaultDescriptor()
	d.Text = nil
	assert.ErrorIs(t, d.Validate(), ErrInvalidDescriptor)
}

func TestValidateTextNormalizes(t *testing.T) {
	d := DefaultDescriptor()
	d.Text.Style.Size = 0
	d.Text.Style.StrokeWidth = -3

	require.NoError(t, d.Validate())
	assert.Equal(t, 1, d.Text.Style.Size)
	assert.Equal(t, 0, d.Text.Style.StrokeWidth)
}

func TestValidateImage(t *testing.T) {
	d := Descriptor{
		Kind:    KindImage,
		Image:   &ImageWatermark{AssetPath: "logo.png", ScalePercent: 100},
		Opacity: 200,
	}
	require.NoError(t, d.Validate())
	// Empty placement defaults to the bottom-right anchor.
	assert.Equal(t, ModeAnchor, d.Placement.Mode)
	assert.Equal(t, AnchorBottomRight, d.Placement.Anchor)

	d.Image.AssetPath = ""
	assert.ErrorIs(t, d.Validate(), ErrInvalidDescriptor)
}

func TestValidateImageClampsScale(t *testing.T) {
	d := Descriptor{Kind: KindImage, Image: &ImageWatermark{AssetPath: "logo.png", ScalePercent: 9000}}
	require.NoError(t, d.Validate())
	assert.Equal(t, 400, d.Image.ScalePercent)

	d.Image.ScalePercent = -5
	require.NoError(t, d.Validate())
	assert.Equal(t, 1, d.Image.ScalePercent)
}

func TestValidateRejectsUnknownKindAndAnchor(t *testing.T) {
	d := Descriptor{Kind: Kind("video")}
	assert.ErrorIs(t, d.Validate(), ErrInvalidDescriptor)

	d = DefaultDescriptor()
	d.Placement = AnchorPlacement(Anchor("somewhere"))
	assert.ErrorIs(t, d.Validate(), ErrInvalidDescriptor)
}

func TestCloneDetachesPayloads(t *testing.T) {
	d := DefaultDescriptor()
	clone := d.Clone()

	clone.Text.Content = "changed"
	assert.Equal(t, "© Photomark", d.Text.Content)

	d = Descriptor{Kind: KindImage, Image: &ImageWatermark{AssetPath: "a.png", ScalePercent: 100}}
	clone = d.Clone()
	clone.Image.ScalePercent = 25
	assert.Equal(t, 100, d.Image.ScalePercent)
}

func TestDescriptorJSONRoundTrip(t *testing.T) {
	d := DefaultDescriptor()
	d.Angle = -30.5
	d.Placement = OffsetPlacement(120, 42)

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var back Descriptor
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back)
}
