package common

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"strings"

	// Decoders probed by image.DecodeConfig and image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/gabriel-vasile/mimetype"
	_ "github.com/sergeymakinen/go-ico"
)

// ResolveSize decides the size path should be rendered at. An existing file
// keeps its current dimensions; a missing file gets the source size. When the
// existing file cannot be read as an image the source size is used and the
// probe error is returned alongside it so the caller can report it.
func ResolveSize(path string, source Size) (size Size, existed bool, probeErr error) {
	format := FormatOf(path)

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// ICO sizes are capped at 256 per side, so a fresh favicon.ico
			// from a larger source does not get the source's native size.
			return ClampSize(source, format), false, nil
		}
		return ClampSize(source, format), false, err
	}

	size, err := ProbeSize(path)
	if err != nil {
		return ClampSize(source, format), true, err
	}

	return ClampSize(size, format), true, nil
}

// ProbeSize reads the pixel dimensions of the image stored at path. The
// decoder is chosen from the file's content, not its extension.
func ProbeSize(path string) (Size, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Size{}, fmt.Errorf("failed to detect type: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return Size{}, err
	}
	defer f.Close()

	var size Size
	if isSVG(mtype, path) {
		size, err = SVGSize(f)
		if err != nil {
			return Size{}, err
		}
	} else {
		cfg, _, err := image.DecodeConfig(f)
		if err != nil {
			return Size{}, fmt.Errorf("failed to decode %s: %w", mtype.String(), err)
		}
		size = Size{Width: cfg.Width, Height: cfg.Height}
	}

	if !size.Valid() {
		return Size{}, fmt.Errorf("image has invalid size %s", size)
	}
	return size, nil
}

// isSVG reports whether the probe should read SVG root attributes. Exports
// that open with a comment sniff as text/html, so any text type counts for
// a .svg path.
func isSVG(mtype *mimetype.MIME, path string) bool {
	if mtype.Is("image/svg+xml") {
		return true
	}
	return FormatOf(path) == FormatSVG && strings.HasPrefix(mtype.String(), "text/")
}
