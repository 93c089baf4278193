package export

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/photomark/photomark/pkg/imageio"
)

func TestNamingApply(t *testing.T) {
	tests := []struct {
		name   string
		naming Naming
		want   string
	}{
		{"keep", Naming{Mode: NamingKeep}, "holiday"},
		{"prefix", Naming{Mode: NamingPrefix, Prefix: "wm_"}, "wm_holiday"},
		{"suffix", Naming{Mode: NamingSuffix, Suffix: "_watermarked"}, "holiday_watermarked"},
		{"unknown_mode_keeps", Naming{Mode: "mystery"}, "holiday"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.naming.Apply("holiday"))
		})
	}
}

func TestResizeTargetSize(t *testing.T) {
	tests := []struct {
		name   string
		resize Resize
		w, h   int
		wantW  int
		wantH  int
	}{
		{"none", Resize{Mode: ResizeNone}, 800, 600, 800, 600},
		{"percent_half", Resize{Mode: ResizePercent, Percent: 50}, 800, 600, 400, 300},
		{"percent_double", Resize{Mode: ResizePercent, Percent: 200}, 100, 50, 200, 100},
		{"width_keeps_aspect", Resize{Mode: ResizeWidth, Width: 400}, 800, 600, 400, 300},
		{"height_keeps_aspect", Resize{Mode: ResizeHeight, Height: 300}, 800, 600, 400, 300},
		{"width_rounds", Resize{Mode: ResizeWidth, Width: 333}, 1000, 500, 333, 167},
		{"exact_ignores_aspect", Resize{Mode: ResizeExact, Width: 100, Height: 100}, 800, 600, 100, 100},
		{"zero_width_noop", Resize{Mode: ResizeWidth}, 800, 600, 800, 600},
		{"tiny_never_below_one", Resize{Mode: ResizePercent, Percent: 1}, 50, 50, 1, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, h := tc.resize.TargetSize(tc.w, tc.h)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()
	assert.NoError(t, opts.Validate())

	opts.OutputDir = ""
	assert.Error(t, opts.Validate())

	opts = DefaultOptions()
	opts.OutputDir = t.TempDir()
	opts.Format = "bmp"
	assert.ErrorIs(t, opts.Validate(), imageio.ErrEncode)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, imageio.PNG, opts.Format)
	assert.Equal(t, 90, opts.Quality)
	assert.Equal(t, ResizeNone, opts.Resize.Mode)
	assert.Equal(t, NamingSuffix, opts.Naming.Mode)
	assert.Equal(t, "_watermarked", opts.Naming.Suffix)
}
