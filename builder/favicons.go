package builder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"path/filepath"

	"github.com/disintegration/imaging"

	"favicongen/common"
	"favicongen/config"
	"favicongen/fetcher"
)

// Source provides the image every target is resampled from
type Source interface {
	Fetch(ctx context.Context) (image.Image, error)
}

// FaviconBuilder regenerates the favicon and splash assets
type FaviconBuilder struct {
	cfg    *config.Config
	source Source
	filter imaging.ResampleFilter

	// Targets are resolved against cfg.Output.BaseDir.
	Targets []string
}

// Result describes what happened to one target
type Result struct {
	Path     string
	Format   common.Format
	Size     common.Size
	Existed  bool
	// ProbeErr is set when an existing file could not be read and the
	// source size was used instead.
	ProbeErr error
	Skipped  bool
}

// Report collects the results of a build in target order
type Report struct {
	Source  common.Size
	Results []Result
}

// Written returns the number of targets that were rendered.
func (r *Report) Written() int {
	n := 0
	for _, res := range r.Results {
		if !res.Skipped {
			n++
		}
	}
	return n
}

// NewFaviconBuilder creates a builder that downloads from cfg.Source.URL.
func NewFaviconBuilder(cfg *config.Config) (*FaviconBuilder, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	return NewFaviconBuilderWithSource(cfg, fetcher.New(cfg.Source.URL, timeout))
}

// NewFaviconBuilderWithSource creates a builder reading from source.
func NewFaviconBuilderWithSource(cfg *config.Config, source Source) (*FaviconBuilder, error) {
	filter, err := common.FilterByName(cfg.Resample.Filter)
	if err != nil {
		return nil, err
	}

	return &FaviconBuilder{
		cfg:     cfg,
		source:  source,
		filter:  filter,
		Targets: common.DefaultTargets,
	}, nil
}

// Build downloads the source image once and renders every target in order.
// A download failure returns before any file is touched. A render failure
// stops the build; targets written before it are kept.
func (b *FaviconBuilder) Build(ctx context.Context) (*Report, error) {
	src, err := b.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	report := &Report{
		Source: common.Size{Width: bounds.Dx(), Height: bounds.Dy()},
	}

	for _, target := range b.Targets {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res, err := b.buildTarget(src, report.Source, target)
		report.Results = append(report.Results, res)
		if err != nil {
			return report, fmt.Errorf("failed to render %s: %w", target, err)
		}
	}

	log.Printf("✅ Script completed: %d of %d targets written", report.Written(), len(b.Targets))
	return report, nil
}

func (b *FaviconBuilder) buildTarget(src image.Image, sourceSize common.Size, target string) (Result, error) {
	path := filepath.Join(b.cfg.Output.BaseDir, target)
	res := Result{Path: path, Format: common.FormatOf(path)}

	log.Printf("Processing %s ...", target)

	if res.Format == common.FormatUnknown {
		log.Printf("Unsupported file extension for %s. Skipping.", target)
		res.Skipped = true
		return res, nil
	}

	res.Size, res.Existed, res.ProbeErr = common.ResolveSize(path, sourceSize)
	switch {
	case res.ProbeErr != nil:
		log.Printf("⚠️  Could not read image size from %s: %v. Using source size %s.", target, res.ProbeErr, res.Size)
	case res.Existed:
		log.Printf("Found existing file with size: %s", res.Size)
	default:
		log.Printf("%s does not exist. Using source image size %s.", target, res.Size)
	}

	if err := common.Render(path, src, res.Size, b.filter); err != nil {
		if errors.Is(err, common.ErrUnsupportedFormat) {
			res.Skipped = true
			return res, nil
		}
		return res, err
	}

	log.Printf("✓ Saved resized %s to %s.", res.Format, target)
	return res, nil
}
