package builder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"favicongen/common"
	"favicongen/config"
	"favicongen/fetcher"
)

type staticSource struct {
	img   image.Image
	calls int
}

func (s *staticSource) Fetch(ctx context.Context) (image.Image, error) {
	s.calls++
	return s.img, nil
}

func sourceImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	return img
}

func testConfig(baseDir string) *config.Config {
	cfg := config.Default()
	cfg.Output.BaseDir = baseDir
	return cfg
}

func newTestBuilder(t *testing.T, baseDir string, src image.Image) *FaviconBuilder {
	t.Helper()
	b, err := NewFaviconBuilderWithSource(testConfig(baseDir), &staticSource{img: src})
	if err != nil {
		t.Fatalf("NewFaviconBuilderWithSource failed: %v", err)
	}
	return b
}

func probe(t *testing.T, path string) common.Size {
	t.Helper()
	size, err := common.ProbeSize(path)
	if err != nil {
		t.Fatalf("Failed to probe %s: %v", path, err)
	}
	return size
}

func TestBuildFreshTree(t *testing.T) {
	baseDir := t.TempDir()
	b := newTestBuilder(t, baseDir, sourceImage(512, 512))

	report, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if report.Written() != len(common.DefaultTargets) {
		t.Errorf("Expected %d written targets, got %d", len(common.DefaultTargets), report.Written())
	}

	for _, target := range common.DefaultTargets {
		path := filepath.Join(baseDir, target)
		want := common.Size{Width: 512, Height: 512}
		if common.FormatOf(path) == common.FormatICO {
			want = common.Size{Width: common.MaxICOSide, Height: common.MaxICOSide}
		}
		if got := probe(t, path); got != want {
			t.Errorf("%s: expected %s, got %s", target, want, got)
		}
	}
}

func TestBuildKeepsExistingSizes(t *testing.T) {
	baseDir := t.TempDir()
	seed := sourceImage(64, 64)

	icoPath := filepath.Join(baseDir, "static/favicon/favicon.ico")
	apple := filepath.Join(baseDir, "static/favicon/apple-touch-icon.png")
	svg := filepath.Join(baseDir, "static/favicon/favicon.svg")

	seeds := map[string]common.Size{
		icoPath: {Width: 32, Height: 32},
		apple:   {Width: 180, Height: 180},
		svg:     {Width: 96, Height: 96},
	}
	for path, size := range seeds {
		if err := common.Render(path, seed, size, imaging.Lanczos); err != nil {
			t.Fatalf("Failed to seed %s: %v", path, err)
		}
	}

	b := newTestBuilder(t, baseDir, sourceImage(512, 512))

	// Running twice must not drift any size.
	for run := 0; run < 2; run++ {
		if _, err := b.Build(context.Background()); err != nil {
			t.Fatalf("Build %d failed: %v", run, err)
		}

		for path, want := range seeds {
			if got := probe(t, path); got != want {
				t.Errorf("run %d: %s expected %s, got %s", run, filepath.Base(path), want, got)
			}
		}

		splash := filepath.Join(baseDir, "static/static/splash.png")
		if got := probe(t, splash); got != (common.Size{Width: 512, Height: 512}) {
			t.Errorf("run %d: splash expected 512x512, got %s", run, got)
		}
	}
}

func TestBuildSVGRoundTrip(t *testing.T) {
	baseDir := t.TempDir()
	b := newTestBuilder(t, baseDir, sourceImage(300, 200))

	if _, err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(baseDir, "static/favicon/favicon.svg"))
	if err != nil {
		t.Fatalf("SVG missing: %v", err)
	}

	size, img, err := common.DecodeSVGEmbedded(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeSVGEmbedded failed: %v", err)
	}
	if size != (common.Size{Width: 300, Height: 200}) {
		t.Errorf("Expected 300x200 root, got %s", size)
	}
	if bb := img.Bounds(); bb.Dx() != size.Width || bb.Dy() != size.Height {
		t.Errorf("Embedded PNG %dx%d does not match root %s", bb.Dx(), bb.Dy(), size)
	}
}

func TestBuildDownloadFailureTouchesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	baseDir := t.TempDir()
	cfg := testConfig(baseDir)
	cfg.Source.URL = server.URL

	b, err := NewFaviconBuilder(cfg)
	if err != nil {
		t.Fatalf("NewFaviconBuilder failed: %v", err)
	}

	_, err = b.Build(context.Background())

	var statusErr *fetcher.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %v", err)
	}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no files after failed download, found %d entries", len(entries))
	}
}

func TestBuildFromHTTPSource(t *testing.T) {
	var body bytes.Buffer
	if err := png.Encode(&body, sourceImage(128, 128)); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body.Bytes())
	}))
	defer server.Close()

	baseDir := t.TempDir()
	cfg := testConfig(baseDir)
	cfg.Source.URL = server.URL

	b, err := NewFaviconBuilder(cfg)
	if err != nil {
		t.Fatalf("NewFaviconBuilder failed: %v", err)
	}

	report, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if report.Source != (common.Size{Width: 128, Height: 128}) {
		t.Errorf("Expected source 128x128, got %s", report.Source)
	}
}

func TestBuildSkipsUnsupportedExtension(t *testing.T) {
	baseDir := t.TempDir()
	b := newTestBuilder(t, baseDir, sourceImage(64, 64))
	b.Targets = []string{"docs/readme.txt", "static/favicon/favicon.png"}

	report, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !report.Results[0].Skipped {
		t.Error("Expected .txt target to be skipped")
	}
	if _, err := os.Stat(filepath.Join(baseDir, "docs")); !os.IsNotExist(err) {
		t.Errorf("Skipped target should leave no trace, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(baseDir, "static/favicon/favicon.png")); err != nil {
		t.Errorf("Supported target after skip was not written: %v", err)
	}
}

func TestBuildCorruptExistingFallsBack(t *testing.T) {
	baseDir := t.TempDir()
	path := filepath.Join(baseDir, "static/static/favicon.png")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("truncated"), 0644); err != nil {
		t.Fatal(err)
	}

	b := newTestBuilder(t, baseDir, sourceImage(100, 80))
	b.Targets = []string{"static/static/favicon.png"}

	report, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	res := report.Results[0]
	if res.ProbeErr == nil {
		t.Error("Expected probe error to be reported")
	}
	if got := probe(t, path); got != (common.Size{Width: 100, Height: 80}) {
		t.Errorf("Expected source size 100x80, got %s", got)
	}
}

func TestBuildStopsOnRenderError(t *testing.T) {
	baseDir := t.TempDir()

	// A regular file where a directory is needed makes MkdirAll fail.
	if err := os.WriteFile(filepath.Join(baseDir, "blocked"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	b := newTestBuilder(t, baseDir, sourceImage(32, 32))
	b.Targets = []string{
		"first/icon.png",
		"blocked/icon.png",
		"last/icon.png",
	}

	report, err := b.Build(context.Background())
	if err == nil {
		t.Fatal("Expected render error")
	}

	if len(report.Results) != 2 {
		t.Errorf("Expected 2 attempted targets, got %d", len(report.Results))
	}
	if _, err := os.Stat(filepath.Join(baseDir, "first/icon.png")); err != nil {
		t.Errorf("Earlier target should be kept: %v", err)
	}
	if _, err := os.Stat(filepath.Join(baseDir, "last")); !os.IsNotExist(err) {
		t.Errorf("Later target should not be processed, stat err = %v", err)
	}
}

func TestNewFaviconBuilderUnknownFilter(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Resample.Filter = "sinc"

	if _, err := NewFaviconBuilderWithSource(cfg, &staticSource{}); err == nil {
		t.Error("Expected error for unknown filter")
	}
}
