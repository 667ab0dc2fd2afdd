package pdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	_ "golang.org/x/image/webp"
)

// Image fallback policies for encodings pdfcpu cannot embed directly.
const (
	FallbackTranscode = "transcode"
	FallbackSkip      = "skip"
)

// ImageInput is one uploaded image.
type ImageInput struct {
	Name string
	Data []byte
}

// ImageImportOptions controls page layout for ImagesToDocument.
type ImageImportOptions struct {
	PageSize string // PageSizeAuto, PageSizeA4 or PageSizeLetter
	Fallback string // FallbackTranscode or FallbackSkip
}

// ImportReport lists the images left out of the document and why.
type ImportReport struct {
	Imported int
	Skipped  map[string]string
}

// ImagesToDocument places each image on its own page, scaled to fit and centered.
// PNG and JPEG are embedded as is; GIF and WEBP are transcoded to PNG or skipped
// depending on the fallback policy. Images that cannot be decoded are skipped.
func ImagesToDocument(images []ImageInput, opts ImageImportOptions) (*Document, ImportReport, error) {
	report := ImportReport{Skipped: map[string]string{}}

	if len(images) == 0 {
		return nil, report, Validationf("at least one image file is required")
	}
	if opts.PageSize == "" {
		opts.PageSize = PageSizeAuto
	}
	if opts.PageSize != PageSizeAuto && opts.PageSize != PageSizeA4 && opts.PageSize != PageSizeLetter {
		return nil, report, Validationf("invalid page size %q (supported: %s, %s, %s)", opts.PageSize, PageSizeAuto, PageSizeA4, PageSizeLetter)
	}
	if opts.Fallback == "" {
		opts.Fallback = FallbackTranscode
	}

	var pages [][]byte
	for _, img := range images {
		data, cfg, err := embeddable(img.Data, opts.Fallback)
		if err != nil {
			report.Skipped[img.Name] = err.Error()
			continue
		}

		page, err := imagePage(data, cfg, opts.PageSize)
		if err != nil {
			return nil, report, err
		}
		pages = append(pages, page)
	}

	report.Imported = len(pages)
	if len(pages) == 0 {
		return nil, report, Validationf("no supported images to convert")
	}

	if len(pages) == 1 {
		doc, err := Decode("images.pdf", pages[0])
		return doc, report, err
	}

	readers := make([]io.ReadSeeker, len(pages))
	for i, page := range pages {
		readers[i] = bytes.NewReader(page)
	}
	doc, err := mergeReaders(readers, "images.pdf")
	return doc, report, err
}

// embeddable returns image bytes pdfcpu can embed along with the image dimensions.
func embeddable(data []byte, fallback string) ([]byte, image.Config, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, cfg, fmt.Errorf("unreadable image: %w", err)
	}

	switch format {
	case "png", "jpeg":
		return data, cfg, nil
	}

	if fallback != FallbackTranscode {
		return nil, cfg, fmt.Errorf("unsupported image format %s", format)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, cfg, fmt.Errorf("decode %s: %w", format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, cfg, fmt.Errorf("transcode %s: %w", format, err)
	}
	return buf.Bytes(), cfg, nil
}

func imagePage(data []byte, cfg image.Config, pageSize string) (page []byte, err error) {
	defer recoverTransform("image import", &err)

	desc := "formsize:" + pageSize
	if pageSize == PageSizeAuto {
		desc = fmt.Sprintf("dimensions:%d %d", cfg.Width, cfg.Height)
	}
	desc += ", position:c, scalefactor:1 rel"

	imp, err := api.Import(desc, types.POINTS)
	if err != nil {
		return nil, transformErr("image import", err)
	}

	var buf bytes.Buffer
	if err := api.ImportImages(nil, &buf, []io.Reader{bytes.NewReader(data)}, imp, newConfiguration()); err != nil {
		return nil, transformErr("image import", err)
	}
	return buf.Bytes(), nil
}
