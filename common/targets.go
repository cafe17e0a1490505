package common

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultTargets lists every asset regenerated from the source image, in
// processing order. Paths are relative to the output base directory.
var DefaultTargets = []string{
	"static/favicon/apple-touch-icon.png",
	"static/favicon/favicon-96x96.png",
	"static/favicon/favicon.ico",
	"static/favicon/favicon.svg",
	"static/favicon/web-app-manifest-192x192.png",
	"static/favicon/web-app-manifest-512x512.png",
	"static/static/favicon.png",
	"static/static/splash.png",
	"static/static/splash-dark.png",
}

// Format is the output encoding implied by a target's file extension
type Format int

const (
	FormatUnknown Format = iota
	FormatPNG
	FormatICO
	FormatSVG
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "PNG"
	case FormatICO:
		return "ICO"
	case FormatSVG:
		return "SVG"
	default:
		return "unknown"
	}
}

// ErrUnsupportedFormat is returned by Render for extensions it cannot encode.
var ErrUnsupportedFormat = errors.New("unsupported file extension")

// FormatOf returns the output format for path based on its lower-cased extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG
	case ".ico":
		return FormatICO
	case ".svg":
		return FormatSVG
	default:
		return FormatUnknown
	}
}

// Size is a target's pixel dimensions
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}
