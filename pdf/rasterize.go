package pdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultRasterizer is the poppler binary used to render pages.
const DefaultRasterizer = "pdftoppm"

// RasterOptions selects the output encoding and resolution.
type RasterOptions struct {
	Format string // FormatPNG or FormatJPG
	DPI    int
}

// Normalize applies defaults and validates the options.
func (o RasterOptions) Normalize() (RasterOptions, error) {
	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	switch o.Format {
	case "":
		o.Format = FormatPNG
	case "jpeg":
		o.Format = FormatJPG
	case FormatPNG, FormatJPG:
	default:
		return o, Validationf("invalid format %q (supported: %s, %s)", o.Format, FormatPNG, FormatJPG)
	}

	if o.DPI == 0 {
		o.DPI = DefaultDPI
	}
	if o.DPI < MinDPI || o.DPI > MaxDPI {
		return o, Validationf("dpi must be between %d and %d, got %d", MinDPI, MaxDPI, o.DPI)
	}
	return o, nil
}

// RasterImage is one rendered page.
type RasterImage struct {
	Name string
	Data []byte
}

// Rasterizer renders pages with an external command line tool.
type Rasterizer struct {
	name    string
	path    string
	timeout time.Duration
}

// NewRasterizer resolves the rasterizer binary. A missing binary is not an error here;
// Rasterize reports it as a ConfigurationError so only page rendering is affected.
func NewRasterizer(name string) *Rasterizer {
	if name == "" {
		name = DefaultRasterizer
	}
	r := &Rasterizer{name: name, timeout: RasterizeTimeout}
	if path, err := exec.LookPath(name); err == nil {
		r.path = path
	}
	return r
}

// Available reports whether the rasterizer binary was found.
func (r *Rasterizer) Available() bool {
	return r != nil && r.path != ""
}

// Check returns a ConfigurationError when the rasterizer is unavailable.
func (r *Rasterizer) Check() error {
	if r.Available() {
		return nil
	}
	name := DefaultRasterizer
	if r != nil {
		name = r.name
	}
	return &ConfigurationError{
		Capability: "PDF to image conversion",
		Message:    fmt.Sprintf("%s was not found in PATH; install poppler-utils on the server", name),
	}
}

// Rasterize renders every page of doc into workDir and returns the images in page order.
// workDir must exist; files written there are left for the caller to remove.
func (r *Rasterizer) Rasterize(ctx context.Context, doc *Document, workDir string, opts RasterOptions) ([]RasterImage, error) {
	if err := r.Check(); err != nil {
		return nil, err
	}
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	inFile := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(inFile, doc.Bytes(), 0o600); err != nil {
		return nil, transformErr("rasterize", err)
	}

	formatFlag := "-png"
	if opts.Format == FormatJPG {
		formatFlag = "-jpeg"
	}

	prefix := filepath.Join(workDir, "page")
	output, err := execCommandWithTimeout(ctx, r.timeout, r.path, "-r", strconv.Itoa(opts.DPI), formatFlag, inFile, prefix)
	if err != nil {
		detail := err.Error()
		if out := strings.TrimSpace(string(output)); out != "" {
			detail += ": " + out
		}
		return nil, &TransformError{Op: "rasterize", Detail: detail, Err: err}
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		return nil, transformErr("rasterize", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "page-") && strings.HasSuffix(e.Name(), "."+opts.Format) {
			names = append(names, e.Name())
		}
	}
	// pdftoppm zero-pads page numbers to a common width, so lexical order is page order.
	sort.Strings(names)

	if len(names) == 0 {
		return nil, &TransformError{Op: "rasterize", Detail: "rasterizer produced no images"}
	}

	images := make([]RasterImage, 0, len(names))
	for i, name := range names {
		data, err := os.ReadFile(filepath.Join(workDir, name))
		if err != nil {
			return nil, transformErr("rasterize", err)
		}
		images = append(images, RasterImage{
			Name: fmt.Sprintf("%s_page_%d.%s", doc.BaseName(), i+1, opts.Format),
			Data: data,
		})
	}
	return images, nil
}
