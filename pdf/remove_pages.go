package pdf

import "strings"

// DeletePages returns a copy of doc without the listed 1-based pages. Page numbers
// beyond the document are ignored; removing every page is rejected.
func DeletePages(doc *Document, pages string) (*Document, error) {
	if strings.TrimSpace(pages) == "" {
		return nil, Validationf("pages to delete are required")
	}

	toDelete, err := ParsePageSelection(pages, doc.PageCount(), SelectionSet)
	if err != nil {
		return nil, err
	}
	if len(toDelete) == 0 {
		return nil, Validationf("no valid page numbers provided")
	}
	if err := toDelete.RequireStrictSubset(doc.PageCount()); err != nil {
		return nil, err
	}

	return extractPages(doc, toDelete.Complement(doc.PageCount()), "delete pages", doc.BaseName()+"_pages_removed.pdf")
}
