package transform

import (
	"strings"

	"pdfpro/artifact"
	"pdfpro/pdf"
)

// Operation names a document transform. The names double as route paths.
type Operation string

const (
	OpMerge        Operation = "merge"
	OpSplit        Operation = "split"
	OpCompress     Operation = "compress"
	OpRotate       Operation = "rotate"
	OpWatermark    Operation = "watermark"
	OpImageToPDF   Operation = "image-to-pdf"
	OpPDFToImage   Operation = "pdf-to-image"
	OpExtractText  Operation = "extract-text"
	OpDeletePages  Operation = "delete-pages"
	OpReorderPages Operation = "reorder-pages"
)

// Operations lists every supported operation.
func Operations() []Operation {
	return []Operation{
		OpMerge, OpSplit, OpCompress, OpRotate, OpWatermark,
		OpImageToPDF, OpPDFToImage, OpExtractText, OpDeletePages, OpReorderPages,
	}
}

// InputKind returns the artifact kind an operation accepts.
func (op Operation) InputKind() artifact.Kind {
	if op == OpImageToPDF {
		return artifact.KindImage
	}
	return artifact.KindDocument
}

// Params carries the operation parameters parsed from a request. Fields an operation
// does not use are ignored.
type Params struct {
	SplitMode string
	Ranges    string
	Pages     string // rotate targets or pages to delete
	Order     string
	Angle     int
	Watermark pdf.WatermarkOptions
	PageSize  string
	Raster    pdf.RasterOptions
}

// inputRule bounds the number of inputs an operation takes.
type inputRule struct {
	min, max int
	missing  string
}

var inputRules = map[Operation]inputRule{
	OpMerge:        {min: 2, max: 0, missing: "at least 2 PDF files are required for merging"},
	OpSplit:        {min: 1, max: 1, missing: "PDF file is required"},
	OpCompress:     {min: 1, max: 1, missing: "PDF file is required"},
	OpRotate:       {min: 1, max: 1, missing: "PDF file is required"},
	OpWatermark:    {min: 1, max: 1, missing: "PDF file is required"},
	OpImageToPDF:   {min: 1, max: 0, missing: "at least one image file is required"},
	OpPDFToImage:   {min: 1, max: 1, missing: "PDF file is required"},
	OpExtractText:  {min: 1, max: 1, missing: "PDF file is required"},
	OpDeletePages:  {min: 1, max: 1, missing: "PDF file is required"},
	OpReorderPages: {min: 1, max: 1, missing: "PDF file is required"},
}

// validate checks inputs and parameters without touching any file. It fills in
// parameter defaults.
func (d *Dispatcher) validate(op Operation, inputs []*artifact.Artifact, p *Params) error {
	rule, ok := inputRules[op]
	if !ok {
		return pdf.Validationf("unknown operation %q", op)
	}
	if len(inputs) < rule.min {
		return pdf.Validationf("%s", rule.missing)
	}
	if rule.max > 0 && len(inputs) > rule.max {
		return pdf.Validationf("%s accepts exactly %d file, got %d", op, rule.max, len(inputs))
	}
	for _, in := range inputs {
		if in == nil {
			return pdf.Validationf("%s", rule.missing)
		}
		if in.Kind != op.InputKind() {
			return pdf.Validationf("%s expects %s files, got %s %q", op, op.InputKind(), in.Kind, in.OriginalName)
		}
	}

	switch op {
	case OpSplit:
		p.SplitMode = strings.ToLower(strings.TrimSpace(p.SplitMode))
		if p.SplitMode == "" {
			p.SplitMode = pdf.SplitAll
			if strings.TrimSpace(p.Ranges) != "" {
				p.SplitMode = pdf.SplitRange
			}
		}
		if p.SplitMode != pdf.SplitAll && p.SplitMode != pdf.SplitRange {
			return pdf.Validationf("invalid split mode %q (supported: %s, %s)", p.SplitMode, pdf.SplitAll, pdf.SplitRange)
		}
		if p.SplitMode == pdf.SplitRange && strings.TrimSpace(p.Ranges) == "" {
			return pdf.Validationf("ranges are required when mode is %q", pdf.SplitRange)
		}

	case OpRotate:
		if p.Angle == 0 {
			p.Angle = pdf.DefaultRotationAngle
		}
		if p.Angle != 90 && p.Angle != 180 && p.Angle != 270 {
			return pdf.Validationf("angle must be 90, 180, or 270 degrees")
		}

	case OpWatermark:
		return p.Watermark.Validate()

	case OpImageToPDF:
		switch strings.ToLower(strings.TrimSpace(p.PageSize)) {
		case "", "auto":
			p.PageSize = pdf.PageSizeAuto
		case "a4":
			p.PageSize = pdf.PageSizeA4
		case "letter":
			p.PageSize = pdf.PageSizeLetter
		default:
			return pdf.Validationf("invalid page size %q (supported: %s, %s, %s)", p.PageSize, pdf.PageSizeAuto, pdf.PageSizeA4, pdf.PageSizeLetter)
		}

	case OpPDFToImage:
		raster, err := p.Raster.Normalize()
		if err != nil {
			return err
		}
		p.Raster = raster
		return d.rasterizer.Check()

	case OpDeletePages:
		if strings.TrimSpace(p.Pages) == "" {
			return pdf.Validationf("pages to delete are required")
		}

	case OpReorderPages:
		if strings.TrimSpace(p.Order) == "" {
			return pdf.Validationf("page order is required")
		}
	}

	return nil
}
