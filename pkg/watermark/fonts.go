package watermark

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// EmbeddedFontName is reported when rendering fell through to the bundled font.
const EmbeddedFontName = "goregular (embedded)"

// FontResolver loads and caches fonts for text rendering.
//
// Resolution order is deterministic:
//  1. the explicit font path from the text style, if set and loadable;
//  2. the per-OS system candidates, walked in fixed order;
//  3. the embedded Go Regular font.
//
// The substitution is silent for the user but observable: Face returns the
// name of the font actually used.
type FontResolver struct {
	mu    sync.Mutex
	cache map[string]*sfnt.Font
}

// NewFontResolver creates an empty resolver.
func NewFontResolver() *FontResolver {
	return &FontResolver{cache: make(map[string]*sfnt.Font)}
}

// Face resolves a font face for the given style.
// It returns the face, the name of the font used, and an error only if even
// the embedded fallback fails to parse (which would indicate a broken build).
func (r *FontResolver) Face(style TextStyle) (font.Face, string, error) {
	candidates := make([]string, 0, 8)
	if style.FontPath != "" {
		candidates = append(candidates, style.FontPath)
	}
	candidates = append(candidates, systemFontCandidates()...)

	for _, path := range candidates {
		f, err := r.load(path)
		if err != nil {
			continue
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    float64(style.Size),
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			continue
		}
		return face, path, nil
	}

	f, err := r.loadEmbedded()
	if err != nil {
		return nil, "", err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(style.Size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, "", fmt.Errorf("creating embedded font face: %w", err)
	}
	return face, EmbeddedFontName, nil
}

// load reads and parses a font file, caching the parsed font by path.
func (r *FontResolver) load(path string) (*sfnt.Font, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.cache[path]; ok {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f *sfnt.Font
	if strings.EqualFold(filepath.Ext(path), ".ttc") {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parsing font collection %s: %w", path, err)
		}
		// Collections use the first font; keeps the choice deterministic.
		f, err = coll.Font(0)
		if err != nil {
			return nil, fmt.Errorf("reading font 0 from collection %s: %w", path, err)
		}
	} else {
		f, err = opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing font %s: %w", path, err)
		}
	}

	r.cache[path] = f
	return f, nil
}

func (r *FontResolver) loadEmbedded() (*sfnt.Font, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.cache[EmbeddedFontName]; ok {
		return f, nil
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded font: %w", err)
	}
	r.cache[EmbeddedFontName] = f
	return f, nil
}

// systemFontCandidates returns the per-OS font probe list in fixed order.
func systemFontCandidates() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\Windows\Fonts\msyh.ttc`,
			`C:\Windows\Fonts\simhei.ttf`,
			`C:\Windows\Fonts\simsun.ttc`,
			`C:\Windows\Fonts\arial.ttf`,
		}
	case "darwin":
		return []string{
			"/System/Library/Fonts/PingFang.ttc",
			"/System/Library/Fonts/Songti.ttc",
			"/System/Library/Fonts/Helvetica.ttc",
			"/System/Library/Fonts/Supplemental/Arial.ttf",
		}
	default:
		return []string{
			"/usr/share/fonts/truetype/noto/NotoSansCJK-Regular.ttc",
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
		}
	}
}
