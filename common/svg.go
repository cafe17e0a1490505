package common

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"image"
	"image/png"
	"io"
	"strconv"
	"strings"
)

const pngDataURIPrefix = "data:image/png;base64,"

const svgTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
  <image width="%d" height="%d" href="%s%s" />
</svg>
`

// EncodeSVG writes an SVG document whose only content is img, embedded as a
// base64 PNG data URI. The root and <image> sizes match img's bounds.
func EncodeSVG(w io.Writer, img image.Image) error {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return fmt.Errorf("failed to encode embedded PNG: %w", err)
	}

	b := img.Bounds()
	data := base64.StdEncoding.EncodeToString(buf.Bytes())
	_, err := fmt.Fprintf(w, svgTemplate, b.Dx(), b.Dy(), b.Dx(), b.Dy(), pngDataURIPrefix, data)
	return err
}

type svgDocument struct {
	XMLName xml.Name `xml:"svg"`
	Width   string   `xml:"width,attr"`
	Height  string   `xml:"height,attr"`
	Image   struct {
		Width  string `xml:"width,attr"`
		Height string `xml:"height,attr"`
		Href   string `xml:"href,attr"`
	} `xml:"image"`
}

func parseSVG(r io.Reader) (*svgDocument, Size, error) {
	var doc svgDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, Size{}, fmt.Errorf("failed to parse svg: %w", err)
	}

	w, err := parseLength(doc.Width)
	if err != nil {
		return nil, Size{}, fmt.Errorf("svg width: %w", err)
	}
	h, err := parseLength(doc.Height)
	if err != nil {
		return nil, Size{}, fmt.Errorf("svg height: %w", err)
	}

	return &doc, Size{Width: w, Height: h}, nil
}

// SVGSize reads the pixel size from the width and height attributes of an
// SVG root element.
func SVGSize(r io.Reader) (Size, error) {
	_, size, err := parseSVG(r)
	return size, err
}

// DecodeSVGEmbedded parses an SVG written by EncodeSVG and returns the root
// size together with the decoded embedded PNG.
func DecodeSVGEmbedded(r io.Reader) (Size, image.Image, error) {
	doc, size, err := parseSVG(r)
	if err != nil {
		return Size{}, nil, err
	}

	href := doc.Image.Href
	if !strings.HasPrefix(href, pngDataURIPrefix) {
		return Size{}, nil, fmt.Errorf("svg image href is not a PNG data URI")
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(href, pngDataURIPrefix))
	if err != nil {
		return Size{}, nil, fmt.Errorf("failed to decode data URI: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return Size{}, nil, fmt.Errorf("failed to decode embedded PNG: %w", err)
	}

	return size, img, nil
}

// parseLength accepts unitless or px lengths.
func parseLength(s string) (int, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("non-positive length %d", n)
	}
	return n, nil
}
