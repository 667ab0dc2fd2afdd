package pdf

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ReorderPages returns a copy of doc whose pages follow order, a complete 1-based
// permutation such as "3,1,2,4".
func ReorderPages(doc *Document, order string) (out *Document, err error) {
	defer recoverTransform("reorder pages", &err)

	sel, err := ParsePageSelection(order, doc.PageCount(), SelectionSequence)
	if err != nil {
		return nil, err
	}
	if err := sel.RequirePermutation(doc.PageCount()); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := api.Collect(doc.reader(), &buf, sel.PageNumbers(), newConfiguration()); err != nil {
		return nil, transformErr("reorder pages", err)
	}
	return Decode(doc.BaseName()+"_reordered.pdf", buf.Bytes())
}
