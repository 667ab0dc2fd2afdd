package pdf

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SelectionMode controls how ParsePageSelection treats order, duplicates and bounds.
type SelectionMode int

const (
	// SelectionSet clamps out-of-range pages, deduplicates and sorts ascending.
	// An empty spec selects every page.
	SelectionSet SelectionMode = iota

	// SelectionSequence keeps the caller's order and rejects duplicates,
	// out-of-range pages and an empty spec.
	SelectionSequence
)

// PageSelection is an ordered list of 0-based page indices into a document.
type PageSelection []int

var whitespace = regexp.MustCompile(`\s`)

// ParsePageSelection parses a page specification such as "1-3,5,7-9" or "3,1,2,4".
// Page numbers in spec are 1-based; the returned selection is 0-based.
func ParsePageSelection(spec string, totalPages int, mode SelectionMode) (PageSelection, error) {
	spec = whitespace.ReplaceAllString(spec, "")

	if spec == "" || strings.EqualFold(spec, "all") {
		if mode == SelectionSequence {
			return nil, Validationf("page order is required")
		}
		return allPages(totalPages), nil
	}

	tokens, err := parseTokens(spec)
	if err != nil {
		return nil, err
	}

	if mode == SelectionSequence {
		return sequenceSelection(tokens, totalPages)
	}
	return setSelection(tokens, totalPages), nil
}

// ParsePageGroups parses a split specification: every comma-separated token becomes one
// group and a dash range is a single group. Pages outside the document are dropped and
// groups left empty are discarded.
func ParsePageGroups(spec string, totalPages int) ([]PageSelection, error) {
	spec = whitespace.ReplaceAllString(spec, "")
	if spec == "" {
		return nil, Validationf("page ranges are required for range mode")
	}

	tokens, err := parseTokens(spec)
	if err != nil {
		return nil, err
	}

	var groups []PageSelection
	for _, tok := range tokens {
		group := setSelection([]pageToken{tok}, totalPages)
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}
	if len(groups) == 0 {
		return nil, Validationf("no valid page ranges for a document with %d pages", totalPages)
	}
	return groups, nil
}

// RequirePermutation checks that the selection lists every page of the document exactly once.
func (s PageSelection) RequirePermutation(totalPages int) error {
	if len(s) != totalPages {
		return Validationf("order must contain exactly %d page numbers, got %d", totalPages, len(s))
	}
	return nil
}

// RequireStrictSubset rejects selections that cover every page of the document.
func (s PageSelection) RequireStrictSubset(totalPages int) error {
	if len(s) >= totalPages {
		return Validationf("cannot delete all pages from PDF")
	}
	return nil
}

// Complement returns the pages of the document not in s, ascending. Indices outside
// the document are ignored.
func (s PageSelection) Complement(totalPages int) PageSelection {
	excluded := make(map[int]bool, len(s))
	for _, idx := range s {
		excluded[idx] = true
	}
	out := make(PageSelection, 0, max(totalPages, 0))
	for i := 0; i < totalPages; i++ {
		if !excluded[i] {
			out = append(out, i)
		}
	}
	return out
}

// PageNumbers converts the selection to 1-based page numbers in pdfcpu selection syntax.
func (s PageSelection) PageNumbers() []string {
	out := make([]string, len(s))
	for i, idx := range s {
		out[i] = strconv.Itoa(idx + 1)
	}
	return out
}

// pageToken is one comma-separated item: a single page (start == end) or a range.
type pageToken struct {
	raw        string
	start, end int
}

func parseTokens(spec string) ([]pageToken, error) {
	parts := strings.Split(spec, ",")
	tokens := make([]pageToken, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			return nil, Validationf("invalid page specification: empty item in %q", spec)
		}

		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return nil, Validationf("invalid range: %s", part)
			}

			start, err := strconv.Atoi(rangeParts[0])
			if err != nil {
				return nil, Validationf("invalid start page: %s", rangeParts[0])
			}

			end, err := strconv.Atoi(rangeParts[1])
			if err != nil {
				return nil, Validationf("invalid end page: %s", rangeParts[1])
			}

			if start > end {
				return nil, Validationf("invalid range: start > end (%d > %d)", start, end)
			}
			tokens = append(tokens, pageToken{raw: part, start: start, end: end})
			continue
		}

		page, err := strconv.Atoi(part)
		if err != nil {
			return nil, Validationf("invalid page number: %s", part)
		}
		tokens = append(tokens, pageToken{raw: part, start: page, end: page})
	}

	return tokens, nil
}

func setSelection(tokens []pageToken, totalPages int) PageSelection {
	seen := make(map[int]bool)
	var out PageSelection
	for _, tok := range tokens {
		for page := max(tok.start, 1); page <= tok.end && page <= totalPages; page++ {
			if !seen[page-1] {
				seen[page-1] = true
				out = append(out, page-1)
			}
		}
	}
	sort.Ints(out)
	return out
}

func sequenceSelection(tokens []pageToken, totalPages int) (PageSelection, error) {
	seen := make(map[int]bool)
	var out PageSelection
	for _, tok := range tokens {
		for page := tok.start; page <= tok.end; page++ {
			if page < 1 || page > totalPages {
				return nil, Validationf("invalid page number: %d. Must be between 1 and %d", page, totalPages)
			}
			if seen[page] {
				return nil, Validationf("order contains duplicate page number %d", page)
			}
			seen[page] = true
			out = append(out, page-1)
		}
	}
	return out, nil
}

func allPages(totalPages int) PageSelection {
	out := make(PageSelection, totalPages)
	for i := range out {
		out[i] = i
	}
	return out
}
