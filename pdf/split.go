package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// SplitOptions selects how a document is split.
type SplitOptions struct {
	Mode   string // SplitAll or SplitRange
	Ranges string // required for SplitRange, e.g. "1-2,4"
}

// Split produces one document per page (SplitAll) or one document per comma-separated
// group of Ranges (SplitRange).
func Split(doc *Document, opts SplitOptions) ([]*Document, error) {
	var groups []PageSelection

	switch opts.Mode {
	case SplitAll:
		for i := 0; i < doc.PageCount(); i++ {
			groups = append(groups, PageSelection{i})
		}
	case SplitRange:
		if strings.TrimSpace(opts.Ranges) == "" {
			return nil, Validationf("ranges are required when mode is %q", SplitRange)
		}
		var err error
		groups, err = ParsePageGroups(opts.Ranges, doc.PageCount())
		if err != nil {
			return nil, err
		}
	default:
		return nil, Validationf("invalid split mode %q (supported: %s, %s)", opts.Mode, SplitAll, SplitRange)
	}

	if len(groups) == 0 {
		return nil, Validationf("document has no pages to split")
	}

	outs := make([]*Document, 0, len(groups))
	for _, group := range groups {
		out, err := extractPages(doc, group, "split", splitName(doc, group))
		if err != nil {
			return nil, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

// extractPages copies the selected pages, in ascending order, into a new document.
func extractPages(doc *Document, sel PageSelection, op, name string) (out *Document, err error) {
	defer recoverTransform(op, &err)

	var buf bytes.Buffer
	if err := api.Trim(doc.reader(), &buf, sel.PageNumbers(), newConfiguration()); err != nil {
		return nil, transformErr(op, err)
	}
	return Decode(name, buf.Bytes())
}

func splitName(doc *Document, group PageSelection) string {
	first, last := group[0]+1, group[len(group)-1]+1
	if first == last {
		return fmt.Sprintf("%s_page_%d.pdf", doc.BaseName(), first)
	}
	return fmt.Sprintf("%s_pages_%d-%d.pdf", doc.BaseName(), first, last)
}
