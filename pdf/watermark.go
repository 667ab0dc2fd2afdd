package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// WatermarkOptions describes a text watermark drawn on every page.
type WatermarkOptions struct {
	Text     string
	Opacity  float64 // [0, 1]
	Rotation float64 // degrees, center placement only
	FontSize int     // points
	Position string  // PositionCenter or PositionDiagonal
}

// DefaultWatermarkOptions returns the options used for omitted request fields.
func DefaultWatermarkOptions() WatermarkOptions {
	return WatermarkOptions{
		Text:     DefaultWatermarkText,
		Opacity:  DefaultWatermarkOpacity,
		Rotation: DefaultWatermarkRotation,
		FontSize: DefaultWatermarkFontSize,
		Position: PositionCenter,
	}
}

// Validate checks the option ranges.
func (o WatermarkOptions) Validate() error {
	if strings.TrimSpace(o.Text) == "" {
		return Validationf("watermark text must not be empty")
	}
	if o.Opacity < 0 || o.Opacity > 1 {
		return Validationf("opacity must be between 0 and 1, got %g", o.Opacity)
	}
	if o.FontSize <= 0 {
		return Validationf("font size must be positive, got %d", o.FontSize)
	}
	if o.Position != PositionCenter && o.Position != PositionDiagonal {
		return Validationf("invalid position %q (supported: %s, %s)", o.Position, PositionCenter, PositionDiagonal)
	}
	return nil
}

// description renders the options in pdfcpu watermark syntax. pdfcpu measures the text
// with the core font and anchors its center on the page center. Diagonal placement
// aligns the text with the lower-left to upper-right page diagonal instead of using
// Rotation.
func (o WatermarkOptions) description() string {
	parts := []string{
		"fontname:Helvetica",
		fmt.Sprintf("points:%d", o.FontSize),
		"position:c",
		fmt.Sprintf("opacity:%g", o.Opacity),
		"scalefactor:1 abs",
		"fillcolor:" + WatermarkFillColor,
	}
	if o.Position == PositionDiagonal {
		parts = append(parts, "diagonal:1")
	} else {
		parts = append(parts, fmt.Sprintf("rotation:%g", o.Rotation))
	}
	return strings.Join(parts, ", ")
}

// AddWatermark stamps the watermark text over every page.
func AddWatermark(doc *Document, opts WatermarkOptions) (out *Document, err error) {
	defer recoverTransform("watermark", &err)

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	wm, err := api.TextWatermark(opts.Text, opts.description(), true, false, types.POINTS)
	if err != nil {
		return nil, transformErr("watermark", err)
	}

	var buf bytes.Buffer
	if err := api.AddWatermarks(doc.reader(), &buf, nil, wm, newConfiguration()); err != nil {
		return nil, transformErr("watermark", err)
	}
	return Decode(doc.BaseName()+"_watermarked.pdf", buf.Bytes())
}
