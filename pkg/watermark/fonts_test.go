package watermark

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func TestFaceExplicitPath(t *testing.T) {
	// A real font on disk wins over every fallback.
	path := filepath.Join(t.TempDir(), "custom.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0644))

	r := NewFontResolver()
	face, used, err := r.Face(TextStyle{FontPath: path, Size: 24})
	require.NoError(t, err)
	defer face.Close()

	assert.Equal(t, path, used)
}

func TestFaceEmbeddedFallback(t *testing.T) {
	r := NewFontResolver()
	face, used, err := r.Face(TextStyle{FontPath: filepath.Join(t.TempDir(), "nope.ttf"), Size: 24})
	require.NoError(t, err)
	defer face.Close()

	// The missing explicit path is skipped; whatever was used instead is
	// either a system font or the embedded one, never an error.
	assert.NotEmpty(t, used)
	assert.NotContains(t, used, "nope.ttf")
}

func TestFaceCorruptFontSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ttf")
	require.NoError(t, os.WriteFile(path, []byte("not a font"), 0644))

	r := NewFontResolver()
	face, used, err := r.Face(TextStyle{FontPath: path, Size: 24})
	require.NoError(t, err)
	defer face.Close()

	assert.NotEqual(t, path, used)
}

func TestFontCaching(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cached.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0644))

	r := NewFontResolver()
	first, err := r.load(path)
	require.NoError(t, err)

	// Deleting the file must not matter once the font is cached.
	require.NoError(t, os.Remove(path))
	second, err := r.load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
}
