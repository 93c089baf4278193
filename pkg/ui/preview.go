package ui

import (
	"context"
	"image"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/time/rate"

	"github.com/photomark/photomark/pkg/watermark"
	"github.com/photomark/photomark/util/log"
)

// PreviewArea shows the composited preview of the selected photo and lets the
// user drag the watermark to a free position. Drag positions are reported in
// base-image pixel coordinates.
type PreviewArea struct {
	widget.BaseWidget

	img         *canvas.Image
	placeholder *widget.Label

	mu    sync.Mutex
	baseW int
	baseH int

	// OnDrag receives the cursor position in base-image coordinates while a
	// drag is in progress.
	OnDrag func(x, y int)
}

var _ fyne.Draggable = (*PreviewArea)(nil)

// NewPreviewArea creates an empty preview area.
func NewPreviewArea() *PreviewArea {
	pa := &PreviewArea{
		img:         canvas.NewImageFromImage(nil),
		placeholder: widget.NewLabel("Add photos to see a preview"),
	}
	pa.img.FillMode = canvas.ImageFillContain
	pa.placeholder.Alignment = fyne.TextAlignCenter
	pa.ExtendBaseWidget(pa)
	return pa
}

// CreateRenderer builds the fyne renderer for the preview area.
func (pa *PreviewArea) CreateRenderer() fyne.WidgetRenderer {
	return &previewRenderer{pa: pa}
}

// SetImage replaces the displayed preview. baseW/baseH are the dimensions of
// the full-size photo the preview was rendered from; they drive the mapping
// of drag positions back to photo coordinates. Must run on the fyne thread.
func (pa *PreviewArea) SetImage(img image.Image, baseW, baseH int) {
	pa.mu.Lock()
	pa.baseW, pa.baseH = baseW, baseH
	pa.mu.Unlock()

	pa.img.Image = img
	pa.img.Refresh()
	pa.Refresh()
}

// Clear removes the preview and shows the placeholder again.
func (pa *PreviewArea) Clear() {
	pa.mu.Lock()
	pa.baseW, pa.baseH = 0, 0
	pa.mu.Unlock()

	pa.img.Image = nil
	pa.Refresh()
}

// Dragged implements fyne.Draggable.
func (pa *PreviewArea) Dragged(e *fyne.DragEvent) {
	if pa.OnDrag == nil {
		return
	}
	if x, y, ok := pa.toImageCoords(e.Position); ok {
		pa.OnDrag(x, y)
	}
}

// DragEnd implements fyne.Draggable.
func (pa *PreviewArea) DragEnd() {}

// toImageCoords maps a widget position to base-image pixel coordinates,
// accounting for the letterboxing of the contained image fill.
func (pa *PreviewArea) toImageCoords(pos fyne.Position) (int, int, bool) {
	pa.mu.Lock()
	baseW, baseH := pa.baseW, pa.baseH
	pa.mu.Unlock()
	if baseW <= 0 || baseH <= 0 {
		return 0, 0, false
	}

	size := pa.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return 0, 0, false
	}

	scale := float32(size.Width) / float32(baseW)
	if s := float32(size.Height) / float32(baseH); s < scale {
		scale = s
	}
	dispW := float32(baseW) * scale
	dispH := float32(baseH) * scale
	offX := (size.Width - dispW) / 2
	offY := (size.Height - dispH) / 2

	x := int((pos.X - offX) / scale)
	y := int((pos.Y - offY) / scale)
	if x < 0 || y < 0 || x >= baseW || y >= baseH {
		return 0, 0, false
	}
	return x, y, true
}

type previewRenderer struct {
	pa *PreviewArea
}

func (r *previewRenderer) Layout(size fyne.Size) {
	r.pa.img.Resize(size)
	r.pa.placeholder.Resize(size)
}

func (r *previewRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

func (r *previewRenderer) Refresh() {
	if r.pa.img.Image == nil {
		r.pa.img.Hide()
		r.pa.placeholder.Show()
	} else {
		r.pa.placeholder.Hide()
		r.pa.img.Show()
	}
	canvas.Refresh(r.pa)
}

func (r *previewRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.pa.placeholder, r.pa.img}
}

func (r *previewRenderer) Destroy() {}

// previewState is the snapshot a render pass works from.
type previewState struct {
	base       image.Image
	descriptor watermark.Descriptor
	maxEdge    int
}

// previewLoop re-renders the preview in the background. Triggers are
// coalesced and rate limited so slider drags do not queue up a render per
// tick; the trailing trigger always renders, so the preview settles on the
// final value.
type previewLoop struct {
	comp    *watermark.Compositor
	area    *PreviewArea
	trigger chan struct{}
	limiter *rate.Limiter

	mu    sync.Mutex
	state *previewState

	// OnResult runs on the fyne thread after each successful render.
	OnResult func(res *watermark.RenderResult, factor float64)
}

func newPreviewLoop(comp *watermark.Compositor, area *PreviewArea) *previewLoop {
	return &previewLoop{
		comp:    comp,
		area:    area,
		trigger: make(chan struct{}, 1),
		limiter: rate.NewLimiter(rate.Every(80*time.Millisecond), 1),
	}
}

// Update replaces the render state and requests a render. A nil base clears
// the preview.
func (pl *previewLoop) Update(base image.Image, d watermark.Descriptor, maxEdge int) {
	pl.mu.Lock()
	if base == nil {
		pl.state = nil
	} else {
		pl.state = &previewState{base: base, descriptor: d, maxEdge: maxEdge}
	}
	pl.mu.Unlock()

	select {
	case pl.trigger <- struct{}{}:
	default:
	}
}

// Run processes render triggers until ctx is cancelled.
func (pl *previewLoop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-pl.trigger:
		}
		if err := pl.limiter.Wait(ctx); err != nil {
			return
		}

		pl.mu.Lock()
		state := pl.state
		pl.mu.Unlock()

		if state == nil {
			fyne.Do(pl.area.Clear)
			continue
		}

		res, factor, err := pl.comp.RenderPreview(ctx, state.base, state.descriptor, state.maxEdge)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("Preview render failed: %v", err)
			}
			continue
		}

		b := state.base.Bounds()
		fyne.Do(func() {
			pl.area.SetImage(res.Image, b.Dx(), b.Dy())
			if pl.OnResult != nil {
				pl.OnResult(res, factor)
			}
		})
	}
}
