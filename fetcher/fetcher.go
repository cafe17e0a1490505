package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"net/http"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	_ "github.com/sergeymakinen/go-ico"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// StatusError is returned when the source URL answers with anything but 200 OK.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to download image: %d (%s)", e.Code, e.Status)
}

// Fetcher downloads and decodes the source image
type Fetcher struct {
	url    string
	client *resty.Client
}

// New creates a fetcher for url. A zero timeout lets the request block until
// the server answers.
func New(url string, timeout time.Duration) *Fetcher {
	client := resty.New().
		SetRetryCount(0).
		SetHeader("User-Agent", "favicongen")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &Fetcher{url: url, client: client}
}

// Fetch issues a single GET and decodes the body. Nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context) (image.Image, error) {
	log.Printf("⬇️  Downloading source image from %s", f.url)

	resp, err := f.client.R().SetContext(ctx).Get(f.url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode(), Status: resp.Status()}
	}

	img, err := Decode(resp.Body())
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	log.Printf("✓ Download complete: %dx%d", b.Dx(), b.Dy())
	return img, nil
}

// Decode sniffs data and decodes it as a raster image.
func Decode(data []byte) (image.Image, error) {
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("source is %s, not an image", mtype.String())
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", mtype.String(), err)
	}
	return img, nil
}
