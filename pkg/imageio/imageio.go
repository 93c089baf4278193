// Package imageio is the raster I/O adapter: it decodes source photos and
// watermark assets and encodes export output, delegating the codecs to the
// standard image packages.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

var (
	// ErrDecode reports an unreadable or unsupported input image.
	ErrDecode = errors.New("unsupported or corrupt image")
	// ErrEncode reports unsupported export settings.
	ErrEncode = errors.New("unsupported export settings")
)

// Format is an output image format.
type Format string

const (
	// JPEG output; alpha is flattened onto white.
	JPEG Format = "jpeg"
	// PNG output; alpha is preserved.
	PNG Format = "png"
)

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	return ".png"
}

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return JPEG, nil
	case "png":
		return PNG, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrEncode, s)
	}
}

// Options controls encoding.
type Options struct {
	Format  Format
	Quality int // JPEG only, clamped to 0-100
}

// SupportedInput reports whether the file extension is an accepted source format.
func SupportedInput(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// Decode reads and decodes an image file.
func Decode(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: opening %s: %v", ErrDecode, path, err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("%w: decoding %s: %v", ErrDecode, path, err)
	}
	return img, format, nil
}

// DecodeReader decodes an image from a reader.
func DecodeReader(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// Sniff returns the pixel dimensions of an image file without decoding it fully.
func Sniff(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: opening %s: %v", ErrDecode, path, err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: reading header of %s: %v", ErrDecode, path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Encode writes img to w in the requested format.
// JPEG flattens any alpha channel onto a white background first, so the
// output matches what an opaque viewer would have shown.
func Encode(w io.Writer, img image.Image, opts Options) error {
	switch opts.Format {
	case JPEG:
		quality := opts.Quality
		if quality < 0 {
			quality = 0
		}
		if quality > 100 {
			quality = 100
		}
		flat := flattenOnWhite(img)
		if err := jpeg.Encode(w, flat, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("encoding jpeg: %w", err)
		}
		return nil
	case PNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encoding png: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: format %q", ErrEncode, opts.Format)
	}
}

// EncodeFile encodes img into a new file at path.
func EncodeFile(path string, img image.Image, opts Options) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Encode(file, img, opts); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// flattenOnWhite composites img over an opaque white background.
func flattenOnWhite(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
