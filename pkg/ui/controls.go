package ui

import (
	"fmt"
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/photomark/photomark/pkg/export"
	"github.com/photomark/photomark/pkg/imageio"
	"github.com/photomark/photomark/pkg/watermark"
)

// anchorLabels are the button glyphs for the nine placement positions, in
// the same reading order as watermark.Anchors.
var anchorLabels = []string{"↖", "↑", "↗", "←", "•", "→", "↙", "↓", "↘"}

// buildWatermarkControls creates the watermark editing panel.
func (pa *PhotomarkApp) buildWatermarkControls() fyne.CanvasObject {
	d := &pa.session.Descriptor

	textEntry := widget.NewEntry()
	textEntry.SetText(d.Text.Content)
	textEntry.OnChanged = func(s string) {
		pa.editDescriptor(func(d *watermark.Descriptor) { d.Text.Content = s })
	}

	fontPathEntry := widget.NewEntry()
	fontPathEntry.SetPlaceHolder("System font")
	fontPathEntry.SetText(d.Text.Style.FontPath)
	fontPathEntry.OnChanged = func(s string) {
		pa.editDescriptor(func(d *watermark.Descriptor) { d.Text.Style.FontPath = s })
	}

	sizeSlider := widget.NewSlider(8, 300)
	sizeSlider.SetValue(float64(d.Text.Style.Size))
	sizeLabel := widget.NewLabel(fmt.Sprintf("%d px", d.Text.Style.Size))
	sizeSlider.OnChanged = func(v float64) {
		sizeLabel.SetText(fmt.Sprintf("%d px", int(v)))
		pa.editDescriptor(func(d *watermark.Descriptor) { d.Text.Style.Size = int(v) })
	}

	textColorBtn := pa.colorPickerButton("Text color", func(d *watermark.Descriptor, c watermark.RGBA) {
		d.Text.Style.Color = c
	})

	strokeCheck := widget.NewCheck("Outline", func(on bool) {
		pa.editDescriptor(func(d *watermark.Descriptor) { d.Text.Style.Stroke = on })
	})
	strokeCheck.SetChecked(d.Text.Style.Stroke)

	strokeWidthSlider := widget.NewSlider(1, 10)
	strokeWidthSlider.SetValue(float64(d.Text.Style.StrokeWidth))
	strokeWidthLabel := widget.NewLabel(fmt.Sprintf("%d px", d.Text.Style.StrokeWidth))
	strokeWidthSlider.OnChanged = func(v float64) {
		strokeWidthLabel.SetText(fmt.Sprintf("%d px", int(v)))
		pa.editDescriptor(func(d *watermark.Descriptor) { d.Text.Style.StrokeWidth = int(v) })
	}
	strokeColorBtn := pa.colorPickerButton("Outline color", func(d *watermark.Descriptor, c watermark.RGBA) {
		d.Text.Style.StrokeColor = c
	})

	shadowCheck := widget.NewCheck("Shadow", func(on bool) {
		pa.editDescriptor(func(d *watermark.Descriptor) { d.Text.Style.Shadow = on })
	})
	shadowCheck.SetChecked(d.Text.Style.Shadow)

	shadowDXSlider := widget.NewSlider(-20, 20)
	shadowDXSlider.SetValue(float64(d.Text.Style.ShadowDX))
	shadowDXSlider.OnChanged = func(v float64) {
		pa.editDescriptor(func(d *watermark.Descriptor) { d.Text.Style.ShadowDX = int(v) })
	}
	shadowDYSlider := widget.NewSlider(-20, 20)
	shadowDYSlider.SetValue(float64(d.Text.Style.ShadowDY))
	shadowDYSlider.OnChanged = func(v float64) {
		pa.editDescriptor(func(d *watermark.Descriptor) { d.Text.Style.ShadowDY = int(v) })
	}
	shadowColorBtn := pa.colorPickerButton("Shadow color", func(d *watermark.Descriptor, c watermark.RGBA) {
		d.Text.Style.ShadowColor = c
	})

	textBox := container.NewVBox(
		createSettingTitleLabel("Text"),
		textEntry,
		createSettingTitleLabel("Font file (optional)"),
		fontPathEntry,
		container.NewBorder(nil, nil, createSettingTitleLabel("Size"), sizeLabel, sizeSlider),
		textColorBtn,
		container.NewBorder(nil, nil, strokeCheck, strokeColorBtn,
			container.NewBorder(nil, nil, nil, strokeWidthLabel, strokeWidthSlider)),
		container.NewBorder(nil, nil, shadowCheck, shadowColorBtn,
			container.NewGridWithColumns(2, shadowDXSlider, shadowDYSlider)),
	)

	assetEntry := widget.NewEntry()
	assetEntry.SetPlaceHolder("Path to a PNG logo")
	assetBrowse := widget.NewButton("Browse...", func() {
		dialog.ShowFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil || r == nil {
				return
			}
			r.Close()
			assetEntry.SetText(r.URI().Path())
		}, pa.win)
	})
	scaleSlider := widget.NewSlider(1, 400)
	scaleSlider.SetValue(100)
	scaleLabel := widget.NewLabel("100%")

	if d.Image != nil {
		assetEntry.SetText(d.Image.AssetPath)
		scaleSlider.SetValue(float64(d.Image.ScalePercent))
		scaleLabel.SetText(fmt.Sprintf("%d%%", d.Image.ScalePercent))
	}
	assetEntry.OnChanged = func(s string) {
		pa.editDescriptor(func(d *watermark.Descriptor) {
			pa.ensureImagePayload(d)
			d.Image.AssetPath = s
		})
	}
	scaleSlider.OnChanged = func(v float64) {
		scaleLabel.SetText(fmt.Sprintf("%d%%", int(v)))
		pa.editDescriptor(func(d *watermark.Descriptor) {
			pa.ensureImagePayload(d)
			d.Image.ScalePercent = int(v)
		})
	}

	imageBox := container.NewVBox(
		createSettingTitleLabel("Logo image"),
		container.NewBorder(nil, nil, nil, assetBrowse, assetEntry),
		container.NewBorder(nil, nil, createSettingTitleLabel("Scale"), scaleLabel, scaleSlider),
	)

	if d.Kind == watermark.KindImage {
		textBox.Hide()
	} else {
		imageBox.Hide()
	}

	kindRadio := widget.NewRadioGroup([]string{"Text", "Image"}, func(choice string) {
		pa.editDescriptor(func(d *watermark.Descriptor) {
			if choice == "Image" {
				d.Kind = watermark.KindImage
				pa.ensureImagePayload(d)
				textBox.Hide()
				imageBox.Show()
			} else {
				d.Kind = watermark.KindText
				textBox.Show()
				imageBox.Hide()
			}
		})
	})
	kindRadio.Horizontal = true
	if d.Kind == watermark.KindImage {
		kindRadio.SetSelected("Image")
	} else {
		kindRadio.SetSelected("Text")
	}

	opacitySlider := widget.NewSlider(0, 255)
	opacitySlider.SetValue(float64(d.Opacity))
	opacitySlider.OnChanged = func(v float64) {
		pa.editDescriptor(func(d *watermark.Descriptor) { d.Opacity = uint8(v) })
	}

	angleSlider := widget.NewSlider(-180, 180)
	angleSlider.SetValue(d.Angle)
	angleLabel := widget.NewLabel(fmt.Sprintf("%.0f°", d.Angle))
	angleSlider.OnChanged = func(v float64) {
		angleLabel.SetText(fmt.Sprintf("%.0f°", v))
		pa.editDescriptor(func(d *watermark.Descriptor) { d.Angle = v })
	}

	anchorButtons := make([]fyne.CanvasObject, 0, len(watermark.Anchors))
	for i, anchor := range watermark.Anchors {
		a := anchor
		anchorButtons = append(anchorButtons, widget.NewButton(anchorLabels[i], func() {
			pa.editDescriptor(func(d *watermark.Descriptor) {
				d.Placement = watermark.AnchorPlacement(a)
			})
		}))
	}
	anchorGrid := container.NewGridWithColumns(3, anchorButtons...)

	return container.NewVBox(
		createSectionTitleLabel("Watermark"),
		kindRadio,
		textBox,
		imageBox,
		container.NewBorder(nil, nil, createSettingTitleLabel("Opacity"), nil, opacitySlider),
		container.NewBorder(nil, nil, createSettingTitleLabel("Angle"), angleLabel, angleSlider),
		createSettingTitleLabel("Position"),
		createSettingDescriptionLabel("Pick a corner or drag the watermark in the preview."),
		anchorGrid,
	)
}

// colorPickerButton opens the fyne color picker and routes the choice into
// the descriptor through apply.
func (pa *PhotomarkApp) colorPickerButton(label string, apply func(*watermark.Descriptor, watermark.RGBA)) *widget.Button {
	return widget.NewButton(label+"...", func() {
		picker := dialog.NewColorPicker(label, "", func(c color.Color) {
			pa.editDescriptor(func(d *watermark.Descriptor) {
				apply(d, rgbaFromColor(c))
			})
		}, pa.win)
		picker.Advanced = true
		picker.Show()
	})
}

// rgbaFromColor converts any color.Color to the descriptor's plain RGBA,
// un-premultiplying alpha on the way.
func rgbaFromColor(c color.Color) watermark.RGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return watermark.RGBA{R: n.R, G: n.G, B: n.B, A: n.A}
}

// ensureImagePayload initializes the image variant when switching to it for
// the first time.
func (pa *PhotomarkApp) ensureImagePayload(d *watermark.Descriptor) {
	if d.Image == nil {
		d.Image = &watermark.ImageWatermark{ScalePercent: 100}
	}
}

// buildExportControls creates the export settings panel.
func (pa *PhotomarkApp) buildExportControls() fyne.CanvasObject {
	opts := &pa.session.Options

	outDirEntry := widget.NewEntry()
	outDirEntry.SetPlaceHolder("Output folder")
	outDirEntry.SetText(opts.OutputDir)
	outDirEntry.OnChanged = func(s string) {
		pa.editOptions(func(o *export.Options) { o.OutputDir = s })
	}
	outDirBrowse := widget.NewButton("Browse...", func() {
		dialog.ShowFolderOpen(func(u fyne.ListableURI, err error) {
			if err != nil || u == nil {
				return
			}
			outDirEntry.SetText(u.Path())
		}, pa.win)
	})

	qualitySlider := widget.NewSlider(0, 100)
	qualitySlider.SetValue(float64(opts.Quality))
	qualityRow := container.NewBorder(nil, nil, createSettingTitleLabel("JPEG quality"), nil, qualitySlider)
	qualitySlider.OnChanged = func(v float64) {
		pa.editOptions(func(o *export.Options) { o.Quality = int(v) })
	}
	if opts.Format != imageio.JPEG {
		qualityRow.Hide()
	}

	formatSelect := widget.NewSelect([]string{"PNG", "JPEG"}, func(choice string) {
		pa.editOptions(func(o *export.Options) {
			if choice == "JPEG" {
				o.Format = imageio.JPEG
				qualityRow.Show()
			} else {
				o.Format = imageio.PNG
				qualityRow.Hide()
			}
		})
	})
	if opts.Format == imageio.JPEG {
		formatSelect.SetSelected("JPEG")
	} else {
		formatSelect.SetSelected("PNG")
	}

	prefixEntry := widget.NewEntry()
	prefixEntry.SetText(opts.Naming.Prefix)
	prefixEntry.OnChanged = func(s string) {
		pa.editOptions(func(o *export.Options) { o.Naming.Prefix = s })
	}
	suffixEntry := widget.NewEntry()
	suffixEntry.SetText(opts.Naming.Suffix)
	suffixEntry.OnChanged = func(s string) {
		pa.editOptions(func(o *export.Options) { o.Naming.Suffix = s })
	}

	namingRadio := widget.NewRadioGroup([]string{"Keep name", "Add prefix", "Add suffix"}, func(choice string) {
		pa.editOptions(func(o *export.Options) {
			switch choice {
			case "Add prefix":
				o.Naming.Mode = export.NamingPrefix
			case "Add suffix":
				o.Naming.Mode = export.NamingSuffix
			default:
				o.Naming.Mode = export.NamingKeep
			}
		})
	})
	switch opts.Naming.Mode {
	case export.NamingPrefix:
		namingRadio.SetSelected("Add prefix")
	case export.NamingKeep:
		namingRadio.SetSelected("Keep name")
	default:
		namingRadio.SetSelected("Add suffix")
	}

	resizeValue := widget.NewEntry()
	resizeValue.SetPlaceHolder("Value")
	resizeSelect := widget.NewSelect([]string{"Original size", "Width", "Height", "Percent"}, nil)
	applyResize := func() {
		v, _ := strconv.Atoi(resizeValue.Text)
		pa.editOptions(func(o *export.Options) {
			switch resizeSelect.Selected {
			case "Width":
				o.Resize = export.Resize{Mode: export.ResizeWidth, Width: v}
			case "Height":
				o.Resize = export.Resize{Mode: export.ResizeHeight, Height: v}
			case "Percent":
				o.Resize = export.Resize{Mode: export.ResizePercent, Percent: v}
			default:
				o.Resize = export.Resize{Mode: export.ResizeNone}
			}
		})
	}
	resizeSelect.OnChanged = func(string) { applyResize() }
	resizeValue.OnChanged = func(string) { applyResize() }
	switch opts.Resize.Mode {
	case export.ResizeWidth:
		resizeSelect.SetSelected("Width")
		resizeValue.SetText(strconv.Itoa(opts.Resize.Width))
	case export.ResizeHeight:
		resizeSelect.SetSelected("Height")
		resizeValue.SetText(strconv.Itoa(opts.Resize.Height))
	case export.ResizePercent:
		resizeSelect.SetSelected("Percent")
		resizeValue.SetText(strconv.Itoa(opts.Resize.Percent))
	default:
		resizeSelect.SetSelected("Original size")
	}

	return container.NewVBox(
		createSectionTitleLabel("Export"),
		createSettingTitleLabel("Output folder"),
		container.NewBorder(nil, nil, nil, outDirBrowse, outDirEntry),
		container.NewBorder(nil, nil, createSettingTitleLabel("Format"), nil, formatSelect),
		qualityRow,
		createSettingTitleLabel("File names"),
		namingRadio,
		container.NewGridWithColumns(2, prefixEntry, suffixEntry),
		createSettingTitleLabel("Resize"),
		container.NewGridWithColumns(2, resizeSelect, resizeValue),
	)
}

// buildTemplateBar creates the save/load/delete controls for templates.
func (pa *PhotomarkApp) buildTemplateBar() fyne.CanvasObject {
	templateSelect := widget.NewSelect(nil, nil)
	templateSelect.PlaceHolder = "Templates"

	refresh := func() {
		names, err := pa.store.Names()
		if err != nil {
			dialog.ShowError(err, pa.win)
			return
		}
		templateSelect.Options = names
		templateSelect.Refresh()
	}
	refresh()

	templateSelect.OnChanged = func(name string) {
		if name == "" {
			return
		}
		sess, err := pa.store.Load(name)
		if err != nil {
			dialog.ShowError(err, pa.win)
			return
		}
		pa.applySession(sess)
	}

	saveBtn := widget.NewButton("Save...", func() {
		nameEntry := widget.NewEntry()
		nameEntry.SetPlaceHolder("Template name")
		dialog.ShowForm("Save template", "Save", "Cancel",
			[]*widget.FormItem{widget.NewFormItem("Name", nameEntry)},
			func(ok bool) {
				if !ok {
					return
				}
				if err := pa.store.Save(nameEntry.Text, pa.snapshotSession()); err != nil {
					dialog.ShowError(err, pa.win)
					return
				}
				refresh()
			}, pa.win)
	})

	deleteBtn := widget.NewButton("Delete", func() {
		name := templateSelect.Selected
		if name == "" {
			return
		}
		dialog.ShowConfirm("Delete template", fmt.Sprintf("Delete %q?", name), func(ok bool) {
			if !ok {
				return
			}
			if err := pa.store.Delete(name); err != nil {
				dialog.ShowError(err, pa.win)
				return
			}
			templateSelect.ClearSelected()
			refresh()
		}, pa.win)
	})

	return container.NewBorder(nil, nil, nil, container.NewHBox(saveBtn, deleteBtn), templateSelect)
}
