package pdf

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	pdfreader "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/zeebo/blake3"
)

// Document is a decoded, validated PDF held in memory. Transforms never modify a
// Document; they produce new ones from its bytes.
type Document struct {
	Name      string
	data      []byte
	pageCount int
}

// Page describes one page of a Document.
type Page struct {
	Number      int // 1-based
	Width       float64
	Height      float64
	Rotation    int // degrees in [0, 360)
	Fingerprint string
}

// Decode validates data as a PDF and returns the Document. name is only used to
// derive output file names.
func Decode(name string, data []byte) (doc *Document, err error) {
	defer recoverTransform("decode", &err)

	pageCount, err := api.PageCount(bytes.NewReader(data), newConfiguration())
	if err != nil {
		return nil, transformErr("decode", err)
	}
	return &Document{Name: name, data: data, pageCount: pageCount}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.pageCount }

// Bytes returns the serialized document. Callers must not modify the slice.
func (d *Document) Bytes() []byte { return d.data }

// Size returns the serialized size in bytes.
func (d *Document) Size() int { return len(d.data) }

// BaseName returns the document name without directory and extension.
func (d *Document) BaseName() string {
	base := filepath.Base(d.Name)
	if base == "." || base == "/" || base == "" {
		return "document"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (d *Document) reader() io.ReadSeeker {
	return bytes.NewReader(d.data)
}

// Pages inspects every page: size from the inherited MediaBox, normalized rotation and
// a content fingerprint. The fingerprint covers the page box and the decoded content
// streams, so it survives copying a page into another document and rotating it.
func (d *Document) Pages() (pages []Page, err error) {
	defer recoverTransform("inspect", &err)

	r, err := d.inspect()
	if err != nil {
		return nil, err
	}

	n := r.NumPage()
	pages = make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			return nil, &TransformError{Op: "inspect", Detail: fmt.Sprintf("page %d not found", i)}
		}

		box := inherited(p.V, "MediaBox")
		width := box.Index(2).Float64() - box.Index(0).Float64()
		height := box.Index(3).Float64() - box.Index(1).Float64()

		fp, err := fingerprint(p, width, height)
		if err != nil {
			return nil, transformErr("inspect", err)
		}

		pages = append(pages, Page{
			Number:      i,
			Width:       width,
			Height:      height,
			Rotation:    normalizeRotation(int(inherited(p.V, "Rotate").Int64())),
			Fingerprint: fp,
		})
	}
	return pages, nil
}

func (d *Document) inspect() (*pdfreader.Reader, error) {
	r, err := pdfreader.NewReader(bytes.NewReader(d.data), int64(len(d.data)))
	if err != nil {
		return nil, transformErr("inspect", err)
	}
	return r, nil
}

// inherited looks key up on the page dictionary and then on its Pages ancestors.
func inherited(v pdfreader.Value, key string) pdfreader.Value {
	for ; !v.IsNull(); v = v.Key("Parent") {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
	}
	return pdfreader.Value{}
}

func fingerprint(p pdfreader.Page, width, height float64) (string, error) {
	h := blake3.New()
	fmt.Fprintf(h, "%.2fx%.2f\n", width, height)

	contents := p.V.Key("Contents")
	switch contents.Kind() {
	case pdfreader.Stream:
		if err := copyStream(h, contents); err != nil {
			return "", err
		}
	case pdfreader.Array:
		for i := 0; i < contents.Len(); i++ {
			if err := copyStream(h, contents.Index(i)); err != nil {
				return "", err
			}
		}
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16]), nil
}

func copyStream(w io.Writer, v pdfreader.Value) error {
	rc := v.Reader()
	defer rc.Close()
	_, err := io.Copy(w, rc)
	return err
}

func normalizeRotation(deg int) int {
	return ((deg % 360) + 360) % 360
}

// recoverTransform converts a panic raised inside a PDF library into a TransformError.
func recoverTransform(op string, err *error) {
	if r := recover(); r != nil {
		*err = &TransformError{Op: op, Detail: fmt.Sprint(r)}
	}
}
