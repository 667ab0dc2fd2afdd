package pdf

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// RotateOptions selects the rotation angle and target pages.
type RotateOptions struct {
	Angle int    // 90, 180 or 270
	Pages string // "all" (default) or a page list
}

// Rotate adds Angle to the rotation of every targeted page, modulo 360.
func Rotate(doc *Document, opts RotateOptions) (out *Document, err error) {
	defer recoverTransform("rotate", &err)

	if opts.Angle == 0 {
		opts.Angle = DefaultRotationAngle
	}
	if opts.Angle != 90 && opts.Angle != 180 && opts.Angle != 270 {
		return nil, Validationf("angle must be 90, 180, or 270 degrees")
	}

	sel, err := ParsePageSelection(opts.Pages, doc.PageCount(), SelectionSet)
	if err != nil {
		return nil, err
	}
	if len(sel) == 0 {
		return nil, Validationf("no valid pages to rotate")
	}

	var buf bytes.Buffer
	if err := api.Rotate(doc.reader(), &buf, opts.Angle, sel.PageNumbers(), newConfiguration()); err != nil {
		return nil, transformErr("rotate", err)
	}
	return Decode(doc.BaseName()+"_rotated.pdf", buf.Bytes())
}
