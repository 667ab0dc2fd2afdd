package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageSelectionSet(t *testing.T) {
	tests := []struct {
		name  string
		spec  string
		total int
		want  PageSelection
	}{
		{name: "single", spec: "2", total: 5, want: PageSelection{1}},
		{name: "range and singles", spec: "1-3,5", total: 5, want: PageSelection{0, 1, 2, 4}},
		{name: "whitespace", spec: " 1 - 2 , 4 ", total: 5, want: PageSelection{0, 1, 3}},
		{name: "duplicates and order", spec: "4,2,2,1-2", total: 5, want: PageSelection{0, 1, 3}},
		{name: "clamped range", spec: "3-9", total: 4, want: PageSelection{2, 3}},
		{name: "out of range dropped", spec: "0,7,2", total: 3, want: PageSelection{1}},
		{name: "empty selects all", spec: "", total: 3, want: PageSelection{0, 1, 2}},
		{name: "all keyword", spec: "ALL", total: 2, want: PageSelection{0, 1}},
		{name: "nothing in range", spec: "8-9", total: 3, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePageSelection(tt.spec, tt.total, SelectionSet)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePageSelectionSequence(t *testing.T) {
	got, err := ParsePageSelection("3,1,2", 3, SelectionSequence)
	require.NoError(t, err)
	assert.Equal(t, PageSelection{2, 0, 1}, got)

	got, err = ParsePageSelection("4-5,1-3", 5, SelectionSequence)
	require.NoError(t, err)
	assert.Equal(t, PageSelection{3, 4, 0, 1, 2}, got)
}

func TestParsePageSelectionErrors(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		mode    SelectionMode
		wantErr string
	}{
		{name: "letters", spec: "a", mode: SelectionSet, wantErr: "invalid page number: a"},
		{name: "bad start", spec: "x-3", mode: SelectionSet, wantErr: "invalid start page: x"},
		{name: "bad end", spec: "1-y", mode: SelectionSet, wantErr: "invalid end page: y"},
		{name: "reversed", spec: "3-1", mode: SelectionSet, wantErr: "start > end"},
		{name: "double dash", spec: "1-2-3", mode: SelectionSet, wantErr: "invalid range"},
		{name: "empty item", spec: "1,,2", mode: SelectionSet, wantErr: "empty item"},
		{name: "sequence out of range", spec: "1,6", mode: SelectionSequence, wantErr: "Must be between 1 and 5"},
		{name: "sequence zero", spec: "0,1", mode: SelectionSequence, wantErr: "invalid page number: 0"},
		{name: "sequence duplicate", spec: "1,2,1", mode: SelectionSequence, wantErr: "duplicate page number 1"},
		{name: "sequence empty", spec: "", mode: SelectionSequence, wantErr: "page order is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePageSelection(tt.spec, 5, tt.mode)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParsePageGroups(t *testing.T) {
	groups, err := ParsePageGroups("1-2,4", 5)
	require.NoError(t, err)
	assert.Equal(t, []PageSelection{{0, 1}, {3}}, groups)

	groups, err = ParsePageGroups("2-9,7", 3)
	require.NoError(t, err)
	assert.Equal(t, []PageSelection{{1, 2}}, groups, "groups outside the document are dropped")

	_, err = ParsePageGroups("7-9", 3)
	assert.Error(t, err)

	_, err = ParsePageGroups("", 3)
	assert.Error(t, err)
}

func TestSelectionHelpers(t *testing.T) {
	sel := PageSelection{1, 3}
	assert.Equal(t, PageSelection{0, 2, 4}, sel.Complement(5))
	assert.Equal(t, PageSelection{0, 1}, PageSelection{5, 6, 7}.Complement(2))
	assert.Equal(t, PageSelection{1}, PageSelection{0, 9}.Complement(2))
	assert.Equal(t, []string{"2", "4"}, sel.PageNumbers())

	assert.NoError(t, sel.RequireStrictSubset(5))
	assert.Error(t, PageSelection{0, 1}.RequireStrictSubset(2))

	assert.NoError(t, PageSelection{1, 0}.RequirePermutation(2))
	err := PageSelection{0}.RequirePermutation(3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 3 page numbers, got 1")
}
