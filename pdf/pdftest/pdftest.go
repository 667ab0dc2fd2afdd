// Package pdftest builds small, well-formed PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
)

// PageSpec describes one generated page.
type PageSpec struct {
	Width, Height float64
	Rotate        int
	Text          string
}

// Options controls Build.
type Options struct {
	Title string
	Pages []PageSpec
}

// Pages returns n pages with distinct sizes and a "Page i" label, so every page of a
// generated document is distinguishable by size and content.
func Pages(n int) []PageSpec {
	out := make([]PageSpec, n)
	for i := range out {
		out[i] = PageSpec{
			Width:  float64(300 + 10*i),
			Height: float64(400 + 10*i),
			Text:   fmt.Sprintf("Page %d", i+1),
		}
	}
	return out
}

// New returns a document with n distinct pages.
func New(n int) []byte {
	return Build(Options{Pages: Pages(n)})
}

// Build serializes a PDF 1.4 document with one Helvetica text line per page.
func Build(opts Options) []byte {
	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	catalog := add("") // patched once the page tree is known
	pagesObj := add("")
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var kids bytes.Buffer
	for _, p := range opts.Pages {
		content := fmt.Sprintf("BT /F1 24 Tf 72 72 Td (%s) Tj ET", escape(p.Text))
		contentObj := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))

		rotate := ""
		if p.Rotate != 0 {
			rotate = fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		pageObj := add(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %g %g]%s /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pagesObj, p.Width, p.Height, rotate, font, contentObj))
		fmt.Fprintf(&kids, "%d 0 R ", pageObj)
	}

	objects[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj)
	objects[pagesObj-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", bytes.TrimSpace(kids.Bytes()), len(opts.Pages))

	info := 0
	if opts.Title != "" {
		info = add(fmt.Sprintf("<< /Title (%s) /Producer (pdftest) >>", escape(opts.Title)))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R", len(objects)+1, catalog)
	if info != 0 {
		fmt.Fprintf(&buf, " /Info %d 0 R", info)
	}
	fmt.Fprintf(&buf, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func escape(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
