// Package transform maps an operation name and validated parameters to a document
// transform and turns its output into a downloadable artifact.
package transform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pdfpro/artifact"
	"pdfpro/pdf"
)

// Result is the outcome of a successful dispatch: either an output artifact to stream
// or a JSON payload.
type Result struct {
	Artifact    *artifact.Artifact
	Filename    string
	ContentType string
	Headers     map[string]string
	Payload     any
}

// TextResult is the payload of OpExtractText.
type TextResult struct {
	Success bool `json:"success"`
	*pdf.TextContent
}

// Options configures a Dispatcher.
type Options struct {
	Artifacts     *artifact.Manager
	Rasterizer    *pdf.Rasterizer
	ImageFallback string
	Logger        *logrus.Logger
}

// Dispatcher runs document transforms on request artifacts.
type Dispatcher struct {
	artifacts     *artifact.Manager
	rasterizer    *pdf.Rasterizer
	imageFallback string
	logger        *logrus.Logger
}

// NewDispatcher returns a Dispatcher.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Rasterizer == nil {
		opts.Rasterizer = pdf.NewRasterizer("")
	}
	if opts.ImageFallback == "" {
		opts.ImageFallback = pdf.FallbackTranscode
	}
	return &Dispatcher{
		artifacts:     opts.Artifacts,
		rasterizer:    opts.Rasterizer,
		imageFallback: opts.ImageFallback,
		logger:        opts.Logger,
	}
}

// Dispatch validates params, decodes the inputs, runs op and stores its output. The
// inputs are released before Dispatch returns, whatever the outcome; the returned
// result artifact belongs to the caller. Errors are always one of
// *pdf.ValidationError, *pdf.TransformError or *pdf.ConfigurationError.
func (d *Dispatcher) Dispatch(ctx context.Context, op Operation, inputs []*artifact.Artifact, params Params) (res *Result, err error) {
	defer d.artifacts.ReleaseAll(inputs...)

	start := time.Now()
	log := d.logger.WithFields(logrus.Fields{"operation": op, "inputs": len(inputs)})

	defer func() {
		if r := recover(); r != nil {
			err = &pdf.TransformError{Op: string(op), Detail: fmt.Sprint(r)}
		}
		if err != nil {
			err = normalize(op, err)
			log.WithError(err).Warn("Operation failed")
			return
		}
		log.WithField("duration", time.Since(start).String()).Info("Operation completed")
	}()

	if err := d.validate(op, inputs, &params); err != nil {
		return nil, err
	}

	switch op {
	case OpImageToPDF:
		return d.imagesToPDF(inputs, params, log)
	case OpMerge:
		docs, err := d.decodeAll(ctx, inputs)
		if err != nil {
			return nil, err
		}
		out, err := pdf.Merge(docs)
		if err != nil {
			return nil, err
		}
		return d.documentResult(out)
	}

	doc, err := d.decode(inputs[0])
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &pdf.TransformError{Op: string(op), Detail: "request cancelled", Err: err}
	}

	switch op {
	case OpSplit:
		outs, err := pdf.Split(doc, pdf.SplitOptions{Mode: params.SplitMode, Ranges: params.Ranges})
		if err != nil {
			return nil, err
		}
		if len(outs) == 1 {
			return d.documentResult(outs[0])
		}
		entries := make([]artifact.ArchiveEntry, len(outs))
		for i, out := range outs {
			entries[i] = artifact.ArchiveEntry{Name: out.Name, Data: out.Bytes()}
		}
		return d.archiveResult(entries, doc.BaseName()+"_split.zip")

	case OpCompress:
		out, stats, err := pdf.Compress(doc)
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"original":   stats.OriginalSize,
			"compressed": stats.CompressedSize,
		}).Infof("Compression: %.2f%% reduction", stats.Ratio)

		res, err := d.documentResult(out)
		if err != nil {
			return nil, err
		}
		res.Headers = map[string]string{
			"X-Original-Size":     fmt.Sprint(stats.OriginalSize),
			"X-Compressed-Size":   fmt.Sprint(stats.CompressedSize),
			"X-Compression-Ratio": fmt.Sprintf("%.2f", stats.Ratio),
		}
		return res, nil

	case OpRotate:
		out, err := pdf.Rotate(doc, pdf.RotateOptions{Angle: params.Angle, Pages: params.Pages})
		if err != nil {
			return nil, err
		}
		return d.documentResult(out)

	case OpWatermark:
		out, err := pdf.AddWatermark(doc, params.Watermark)
		if err != nil {
			return nil, err
		}
		return d.documentResult(out)

	case OpDeletePages:
		out, err := pdf.DeletePages(doc, params.Pages)
		if err != nil {
			return nil, err
		}
		log.WithField("pages", doc.PageCount()-out.PageCount()).Info("Deleted pages from PDF")
		return d.documentResult(out)

	case OpReorderPages:
		out, err := pdf.ReorderPages(doc, params.Order)
		if err != nil {
			return nil, err
		}
		return d.documentResult(out)

	case OpExtractText:
		content, err := pdf.ExtractText(doc)
		if err != nil {
			return nil, err
		}
		log.WithField("pages", content.Pages).Info("Extracted text")
		return &Result{Payload: TextResult{Success: true, TextContent: content}}, nil

	case OpPDFToImage:
		return d.pdfToImages(ctx, doc, params.Raster)
	}

	return nil, pdf.Validationf("unknown operation %q", op)
}

func (d *Dispatcher) decode(in *artifact.Artifact) (*pdf.Document, error) {
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, &pdf.TransformError{Op: "decode", Detail: "failed to read upload", Err: err}
	}
	doc, err := pdf.Decode(in.OriginalName, data)
	if err != nil {
		return nil, err
	}
	d.artifacts.ReleaseAll(in)
	return doc, nil
}

// decodeAll decodes the inputs concurrently, keeping their order.
func (d *Dispatcher) decodeAll(ctx context.Context, inputs []*artifact.Artifact) ([]*pdf.Document, error) {
	docs := make([]*pdf.Document, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := d.decode(in)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (d *Dispatcher) imagesToPDF(inputs []*artifact.Artifact, params Params, log *logrus.Entry) (*Result, error) {
	images := make([]pdf.ImageInput, 0, len(inputs))
	for _, in := range inputs {
		data, err := os.ReadFile(in.Path)
		if err != nil {
			return nil, &pdf.TransformError{Op: "image import", Detail: "failed to read upload", Err: err}
		}
		images = append(images, pdf.ImageInput{Name: in.OriginalName, Data: data})
		d.artifacts.ReleaseAll(in)
	}

	doc, report, err := pdf.ImagesToDocument(images, pdf.ImageImportOptions{
		PageSize: params.PageSize,
		Fallback: d.imageFallback,
	})
	for name, reason := range report.Skipped {
		log.WithFields(logrus.Fields{"image": name, "reason": reason}).Warn("Skipped image")
	}
	if err != nil {
		return nil, err
	}

	res, err := d.documentResult(doc)
	if err != nil {
		return nil, err
	}
	if len(report.Skipped) > 0 {
		res.Headers = map[string]string{"X-Skipped-Images": fmt.Sprint(len(report.Skipped))}
	}
	return res, nil
}

func (d *Dispatcher) pdfToImages(ctx context.Context, doc *pdf.Document, opts pdf.RasterOptions) (*Result, error) {
	workDir, err := d.artifacts.ScratchDir("raster")
	if err != nil {
		return nil, &pdf.TransformError{Op: "rasterize", Detail: "failed to create work directory", Err: err}
	}
	defer d.artifacts.RemoveScratch(workDir)

	images, err := d.rasterizer.Rasterize(ctx, doc, workDir, opts)
	if err != nil {
		return nil, err
	}

	entries := make([]artifact.ArchiveEntry, len(images))
	for i, img := range images {
		entries[i] = artifact.ArchiveEntry{Name: img.Name, Data: img.Data}
	}
	return d.archiveResult(entries, doc.BaseName()+"_images.zip")
}

func (d *Dispatcher) documentResult(doc *pdf.Document) (*Result, error) {
	a, err := d.artifacts.Write(artifact.KindDocument, ".pdf", doc.Bytes())
	if err != nil {
		return nil, &pdf.TransformError{Op: "write output", Detail: "failed to store result", Err: err}
	}
	return &Result{Artifact: a, Filename: artifact.SanitizeFilename(doc.Name), ContentType: a.ContentType}, nil
}

func (d *Dispatcher) archiveResult(entries []artifact.ArchiveEntry, name string) (*Result, error) {
	a, err := d.artifacts.WriteArchive(entries)
	if err != nil {
		return nil, &pdf.TransformError{Op: "write archive", Detail: "failed to store result", Err: err}
	}
	return &Result{Artifact: a, Filename: artifact.SanitizeFilename(name), ContentType: a.ContentType}, nil
}

// normalize maps any error onto the ValidationError / TransformError /
// ConfigurationError taxonomy.
func normalize(op Operation, err error) error {
	var (
		validation    *pdf.ValidationError
		transform     *pdf.TransformError
		configuration *pdf.ConfigurationError
	)
	switch {
	case errors.As(err, &validation):
		return validation
	case errors.As(err, &configuration):
		return configuration
	case errors.As(err, &transform):
		return transform
	}
	return &pdf.TransformError{Op: string(op), Detail: err.Error(), Err: err}
}
