package common

// Image processor for favicon and splash generation
//
// Resamples the source image to each target's size and encodes it by extension:
//   - .png: raster PNG
//   - .ico: single-image ICO container (at most 256x256)
//   - .svg: SVG wrapper around an embedded base64 PNG

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	ico "github.com/sergeymakinen/go-ico"
)

// MaxICOSide is the largest width or height an ICO directory entry can describe.
const MaxICOSide = 256

var filters = map[string]imaging.ResampleFilter{
	"lanczos":    imaging.Lanczos,
	"catmullrom": imaging.CatmullRom,
	"linear":     imaging.Linear,
	"box":        imaging.Box,
	"nearest":    imaging.NearestNeighbor,
}

// FilterByName maps a resample.filter config value to an imaging filter.
func FilterByName(name string) (imaging.ResampleFilter, error) {
	f, ok := filters[name]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter %q", name)
	}
	return f, nil
}

// Resize resamples src to exactly size, ignoring aspect ratio.
func Resize(src image.Image, size Size, filter imaging.ResampleFilter) (*image.NRGBA, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("invalid target size %s", size)
	}
	return imaging.Resize(src, size.Width, size.Height, filter), nil
}

// ClampSize limits size to what format can represent.
func ClampSize(size Size, format Format) Size {
	if format != FormatICO {
		return size
	}
	if size.Width > MaxICOSide {
		size.Width = MaxICOSide
	}
	if size.Height > MaxICOSide {
		size.Height = MaxICOSide
	}
	return size
}

// EncodePNG writes img as a lossless PNG
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// EncodeICO writes img as the only entry of an ICO container
func EncodeICO(w io.Writer, img image.Image) error {
	b := img.Bounds()
	if b.Dx() > MaxICOSide || b.Dy() > MaxICOSide {
		return fmt.Errorf("ico image %dx%d exceeds %dx%d", b.Dx(), b.Dy(), MaxICOSide, MaxICOSide)
	}
	return ico.Encode(w, img)
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		return EncodePNG(w, img)
	case FormatICO:
		return EncodeICO(w, img)
	case FormatSVG:
		return EncodeSVG(w, img)
	default:
		return ErrUnsupportedFormat
	}
}

// Render resamples src to size and writes it to path, creating parent
// directories as needed. Unsupported extensions return ErrUnsupportedFormat
// without touching the filesystem.
func Render(path string, src image.Image, size Size, filter imaging.ResampleFilter) error {
	format := FormatOf(path)
	if format == FormatUnknown {
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	resized, err := Resize(src, ClampSize(size, format), filter)
	if err != nil {
		return fmt.Errorf("failed to resize for %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, resized, format); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
