package config

import "fyne.io/fyne/v2"

// PreviewMaxEdgeKey is the key for the preview long-edge cap preference.
const PreviewMaxEdgeKey = "preview_max_edge"

// LastOutputDirKey is the key for the last export output directory preference.
const LastOutputDirKey = "last_output_dir"

// ConfirmOnExportKey is the key for the export confirmation dialog preference.
const ConfirmOnExportKey = "confirm_on_export"

// AppConfig holds the application-wide configuration
type AppConfig struct {
	prefs fyne.Preferences
}

// NewAppConfig creates a new AppConfig instance
func NewAppConfig(p fyne.Preferences) *AppConfig {
	return &AppConfig{prefs: p}
}

// GetPreviewMaxEdge returns the long-edge pixel cap used for preview rendering.
func (c *AppConfig) GetPreviewMaxEdge() int {
	return c.prefs.IntWithFallback(PreviewMaxEdgeKey, 1200)
}

// SetPreviewMaxEdge sets the long-edge pixel cap used for preview rendering.
func (c *AppConfig) SetPreviewMaxEdge(edge int) {
	c.prefs.SetInt(PreviewMaxEdgeKey, edge)
}

// GetLastOutputDir returns the output directory used by the last export.
func (c *AppConfig) GetLastOutputDir() string {
	return c.prefs.StringWithFallback(LastOutputDirKey, "")
}

// SetLastOutputDir sets the output directory used by the last export.
func (c *AppConfig) SetLastOutputDir(dir string) {
	c.prefs.SetString(LastOutputDirKey, dir)
}

// GetConfirmOnExport returns whether a confirmation dialog is shown before export.
func (c *AppConfig) GetConfirmOnExport() bool {
	return c.prefs.BoolWithFallback(ConfirmOnExportKey, true)
}

// SetConfirmOnExport sets whether a confirmation dialog is shown before export.
func (c *AppConfig) SetConfirmOnExport(enabled bool) {
	c.prefs.SetBool(ConfirmOnExportKey, enabled)
}
