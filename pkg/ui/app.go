// Package ui is the desktop front end: a single window with the source
// list, the live preview and the watermark and export controls.
package ui

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/photomark/photomark/asset"
	"github.com/photomark/photomark/config"
	"github.com/photomark/photomark/pkg/export"
	"github.com/photomark/photomark/pkg/imageio"
	"github.com/photomark/photomark/pkg/template"
	"github.com/photomark/photomark/pkg/watermark"
	"github.com/photomark/photomark/util"
	"github.com/photomark/photomark/util/log"
)

// PhotomarkApp represents the application.
type PhotomarkApp struct {
	app      fyne.App
	win      fyne.Window
	assetMgr *asset.Manager
	cfg      *config.AppConfig
	store    *template.Store
	comp     *watermark.Compositor
	loop     *previewLoop

	preview    *PreviewArea
	sourceList *widget.List

	mu        sync.Mutex
	sources   []string
	selected  int
	baseCache image.Image
	basePath  string
	session   template.Session

	// Watermark layer size at base-image scale, from the last preview
	// render. Drives drag positioning.
	lastLayerW int
	lastLayerH int

	exporting *util.SafeFlag
}

var (
	instance *PhotomarkApp
	once     sync.Once
)

// GetInstance returns the singleton instance of the application.
func GetInstance() *PhotomarkApp {
	once.Do(func() {
		a := app.NewWithID(config.AppID)
		comp := watermark.NewCompositor()

		store := template.NewStore(config.GetTemplatesPath(), config.GetLastUsedPath())
		instance = &PhotomarkApp{
			app:       a,
			assetMgr:  asset.NewManager(),
			cfg:       config.NewAppConfig(a.Preferences()),
			store:     store,
			comp:      comp,
			selected:  -1,
			session:   store.LoadLastUsed(),
			exporting: util.NewSafeBool(),
		}
		instance.normalizeSession()
		if icon, err := instance.assetMgr.GetIcon("photomark.png"); err == nil {
			a.SetIcon(icon)
		}
	})
	return instance
}

// normalizeSession fills in payloads the controls bind to, so a session
// saved with only one variant never leaves the other nil.
func (pa *PhotomarkApp) normalizeSession() {
	def := watermark.DefaultDescriptor()
	if pa.session.Descriptor.Text == nil {
		pa.session.Descriptor.Text = def.Text
	}
	if pa.session.Descriptor.Opacity == 0 && pa.session.Descriptor.Kind == "" {
		pa.session.Descriptor = def
	}
	if pa.session.Options.OutputDir == "" {
		pa.session.Options.OutputDir = pa.cfg.GetLastOutputDir()
	}
}

// Run builds the main window and blocks until the application exits.
func (pa *PhotomarkApp) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pa.win = pa.app.NewWindow(config.AppName)
	pa.preview = NewPreviewArea()
	pa.preview.OnDrag = pa.onPreviewDrag

	pa.loop = newPreviewLoop(pa.comp, pa.preview)
	pa.loop.OnResult = func(res *watermark.RenderResult, factor float64) {
		pa.mu.Lock()
		pa.lastLayerW = int(float64(res.LayerBounds.Dx()) / factor)
		pa.lastLayerH = int(float64(res.LayerBounds.Dy()) / factor)
		pa.mu.Unlock()
	}
	go pa.loop.Run(ctx)

	content := container.NewBorder(
		pa.buildTemplateBar(),
		nil,
		pa.buildSourcePanel(),
		container.NewVScroll(container.NewVBox(
			pa.buildWatermarkControls(),
			widget.NewSeparator(),
			pa.buildExportControls(),
			widget.NewSeparator(),
			pa.buildExportButton(),
		)),
		pa.preview,
	)

	pa.win.SetContent(content)
	pa.win.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("Edit", fyne.NewMenuItem("Settings...", pa.showSettings)),
		fyne.NewMenu("Help", fyne.NewMenuItem("About "+config.AppName, pa.showAbout)),
	))
	pa.win.Resize(fyne.NewSize(1100, 720))
	pa.win.SetOnDropped(pa.onDropped)
	pa.win.SetCloseIntercept(func() {
		pa.persistSession()
		pa.win.Close()
	})

	pa.win.ShowAndRun()
}

// showSettings edits the application preferences.
func (pa *PhotomarkApp) showSettings() {
	edgeEntry := widget.NewEntry()
	edgeEntry.SetText(strconv.Itoa(pa.cfg.GetPreviewMaxEdge()))

	confirmCheck := widget.NewCheck("", nil)
	confirmCheck.SetChecked(pa.cfg.GetConfirmOnExport())

	dialog.ShowForm("Settings", "Save", "Cancel", []*widget.FormItem{
		widget.NewFormItem("Preview size limit (px)", edgeEntry),
		widget.NewFormItem("Confirm before export", confirmCheck),
	}, func(ok bool) {
		if !ok {
			return
		}
		if v, err := strconv.Atoi(edgeEntry.Text); err == nil && v >= 200 {
			pa.cfg.SetPreviewMaxEdge(v)
		}
		pa.cfg.SetConfirmOnExport(confirmCheck.Checked)
		pa.refreshPreview()
	}, pa.win)
}

// showAbout displays the embedded about text.
func (pa *PhotomarkApp) showAbout() {
	text, err := pa.assetMgr.GetText("about.txt")
	if err != nil {
		log.Printf("Failed to load about text: %v", err)
		return
	}
	dialog.ShowInformation("About "+config.AppName, text, pa.win)
}

// persistSession saves the working state for the next launch.
func (pa *PhotomarkApp) persistSession() {
	sess := pa.snapshotSession()
	if err := pa.store.SaveLastUsed(sess); err != nil {
		log.Printf("Failed to save session: %v", err)
	}
	if sess.Options.OutputDir != "" {
		pa.cfg.SetLastOutputDir(sess.Options.OutputDir)
	}
}

// snapshotSession returns a copy of the current session safe to use off the
// UI thread.
func (pa *PhotomarkApp) snapshotSession() template.Session {
	pa.mu.Lock()
	defer pa.mu.Unlock()

	sess := pa.session
	if sess.Descriptor.Text != nil {
		text := *sess.Descriptor.Text
		sess.Descriptor.Text = &text
	}
	if sess.Descriptor.Image != nil {
		img := *sess.Descriptor.Image
		sess.Descriptor.Image = &img
	}
	return sess
}

// applySession replaces the session, typically after loading a template,
// and rebuilds the controls around the new values.
func (pa *PhotomarkApp) applySession(sess template.Session) {
	pa.mu.Lock()
	pa.session = sess
	pa.mu.Unlock()
	pa.normalizeSession()

	// Controls capture the session by pointer at build time, so a wholesale
	// replacement needs a rebuild.
	pa.win.SetContent(container.NewBorder(
		pa.buildTemplateBar(),
		nil,
		pa.buildSourcePanel(),
		container.NewVScroll(container.NewVBox(
			pa.buildWatermarkControls(),
			widget.NewSeparator(),
			pa.buildExportControls(),
			widget.NewSeparator(),
			pa.buildExportButton(),
		)),
		pa.preview,
	))
	pa.refreshPreview()
}

// editDescriptor mutates the working descriptor and refreshes the preview.
func (pa *PhotomarkApp) editDescriptor(fn func(*watermark.Descriptor)) {
	pa.mu.Lock()
	fn(&pa.session.Descriptor)
	pa.mu.Unlock()
	pa.refreshPreview()
}

// editOptions mutates the working export options.
func (pa *PhotomarkApp) editOptions(fn func(*export.Options)) {
	pa.mu.Lock()
	fn(&pa.session.Options)
	pa.mu.Unlock()
}

// onPreviewDrag moves the watermark so it centers on the cursor, in
// base-image coordinates.
func (pa *PhotomarkApp) onPreviewDrag(x, y int) {
	pa.mu.Lock()
	w, h := pa.lastLayerW, pa.lastLayerH
	pa.mu.Unlock()

	pa.editDescriptor(func(d *watermark.Descriptor) {
		d.Placement = watermark.OffsetPlacement(x-w/2, y-h/2)
	})
}

// refreshPreview re-renders the preview for the selected source.
func (pa *PhotomarkApp) refreshPreview() {
	if pa.loop == nil {
		return
	}

	pa.mu.Lock()
	var path string
	if pa.selected >= 0 && pa.selected < len(pa.sources) {
		path = pa.sources[pa.selected]
	}
	base := pa.baseCache
	cached := path != "" && path == pa.basePath
	d := pa.session.Descriptor
	if d.Text != nil {
		text := *d.Text
		d.Text = &text
	}
	if d.Image != nil {
		img := *d.Image
		d.Image = &img
	}
	pa.mu.Unlock()

	if path == "" {
		pa.loop.Update(nil, d, 0)
		return
	}

	if !cached {
		img, _, err := imageio.Decode(path)
		if err != nil {
			log.Printf("Failed to decode %s: %v", path, err)
			pa.loop.Update(nil, d, 0)
			return
		}
		pa.mu.Lock()
		pa.baseCache = img
		pa.basePath = path
		pa.mu.Unlock()
		base = img
	}

	pa.loop.Update(base, d, pa.cfg.GetPreviewMaxEdge())
}

// buildSourcePanel creates the photo list with add and clear actions.
func (pa *PhotomarkApp) buildSourcePanel() fyne.CanvasObject {
	pa.sourceList = widget.NewList(
		func() int {
			pa.mu.Lock()
			defer pa.mu.Unlock()
			return len(pa.sources)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("source")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			pa.mu.Lock()
			defer pa.mu.Unlock()
			if id < len(pa.sources) {
				obj.(*widget.Label).SetText(filepath.Base(pa.sources[id]))
			}
		},
	)
	pa.sourceList.OnSelected = func(id widget.ListItemID) {
		pa.mu.Lock()
		pa.selected = id
		pa.mu.Unlock()
		pa.refreshPreview()
	}

	addFilesBtn := widget.NewButton("Add Photos...", func() {
		dialog.ShowFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil || r == nil {
				return
			}
			r.Close()
			pa.addSources([]string{r.URI().Path()})
		}, pa.win)
	})
	addFolderBtn := widget.NewButton("Add Folder...", func() {
		dialog.ShowFolderOpen(func(u fyne.ListableURI, err error) {
			if err != nil || u == nil {
				return
			}
			paths, err := export.CollectSources(u.Path())
			if err != nil {
				dialog.ShowError(err, pa.win)
				return
			}
			pa.addSources(paths)
		}, pa.win)
	})
	clearBtn := widget.NewButton("Clear", func() {
		pa.mu.Lock()
		pa.sources = nil
		pa.selected = -1
		pa.baseCache = nil
		pa.basePath = ""
		pa.mu.Unlock()
		pa.sourceList.Refresh()
		pa.refreshPreview()
	})

	panel := container.NewBorder(
		container.NewVBox(addFilesBtn, addFolderBtn, clearBtn),
		nil, nil, nil,
		pa.sourceList,
	)
	return container.NewGridWrap(fyne.NewSize(220, 600), panel)
}

// onDropped handles files and folders dropped onto the window.
func (pa *PhotomarkApp) onDropped(_ fyne.Position, uris []fyne.URI) {
	var paths []string
	for _, u := range uris {
		p := u.Path()
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.IsDir() {
			found, err := export.CollectSources(p)
			if err != nil {
				log.Printf("Failed to scan dropped folder %s: %v", p, err)
				continue
			}
			paths = append(paths, found...)
		} else if imageio.SupportedInput(p) {
			paths = append(paths, p)
		}
	}
	pa.addSources(paths)
}

// addSources appends new unique paths to the source list and selects the
// first photo when nothing was selected yet.
func (pa *PhotomarkApp) addSources(paths []string) {
	if len(paths) == 0 {
		return
	}

	pa.mu.Lock()
	known := make(map[string]bool, len(pa.sources))
	for _, s := range pa.sources {
		known[s] = true
	}
	for _, p := range paths {
		if !known[p] && imageio.SupportedInput(p) {
			pa.sources = append(pa.sources, p)
			known[p] = true
		}
	}
	selectFirst := pa.selected < 0 && len(pa.sources) > 0
	pa.mu.Unlock()

	pa.sourceList.Refresh()
	if selectFirst {
		pa.sourceList.Select(0)
	}
}

// buildExportButton creates the export action with its progress dialog.
func (pa *PhotomarkApp) buildExportButton() fyne.CanvasObject {
	btn := widget.NewButton("Export All", func() {
		if pa.exporting.Value() {
			return
		}

		pa.mu.Lock()
		sources := make([]string, len(pa.sources))
		copy(sources, pa.sources)
		pa.mu.Unlock()

		if len(sources) == 0 {
			dialog.ShowInformation("Nothing to export", "Add photos first.", pa.win)
			return
		}

		job := export.Job{
			Sources:    sources,
			Descriptor: pa.snapshotSession().Descriptor,
			Options:    pa.snapshotSession().Options,
		}
		if err := job.Options.Validate(); err != nil {
			dialog.ShowError(err, pa.win)
			return
		}

		if pa.cfg.GetConfirmOnExport() {
			msg := fmt.Sprintf("Export %d photos to %s?", len(sources), job.Options.OutputDir)
			dialog.ShowConfirm("Export", msg, func(ok bool) {
				if ok {
					pa.runExport(job)
				}
			}, pa.win)
			return
		}
		pa.runExport(job)
	})
	btn.Importance = widget.HighImportance
	return btn
}

// runExport executes the job in the background behind a cancellable
// progress dialog.
func (pa *PhotomarkApp) runExport(job export.Job) {
	pa.exporting.Set(true)

	ctx, cancel := context.WithCancel(context.Background())

	bar := widget.NewProgressBar()
	status := widget.NewLabel(fmt.Sprintf("0 / %d", len(job.Sources)))
	prog := dialog.NewCustom("Exporting", "Cancel", container.NewVBox(status, bar), pa.win)
	prog.SetOnClosed(cancel)
	prog.Show()

	pipeline := export.NewPipeline(pa.comp, runtime.NumCPU())
	go func() {
		defer cancel()
		defer pa.exporting.Set(false)

		report, err := pipeline.Run(ctx, job, func(completed, total int, item export.ItemResult) {
			fyne.Do(func() {
				bar.SetValue(float64(completed) / float64(total))
				status.SetText(fmt.Sprintf("%d / %d", completed, total))
			})
		})

		fyne.Do(func() {
			prog.Hide()
			if err != nil {
				dialog.ShowError(err, pa.win)
				return
			}
			pa.cfg.SetLastOutputDir(job.Options.OutputDir)
			summary := fmt.Sprintf("%d exported, %d failed.", report.Done, report.Failed)
			if report.Failed > 0 {
				for _, item := range report.Items {
					if item.Err != nil {
						summary += fmt.Sprintf("\n%s: %v", filepath.Base(item.Source), item.Err)
						break
					}
				}
			}
			dialog.ShowInformation("Export finished", summary, pa.win)
		})
	}()
}
