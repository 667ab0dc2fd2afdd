package pdf

import (
	"bytes"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Merge concatenates the pages of docs, in order, into a new document.
func Merge(docs []*Document) (*Document, error) {
	if len(docs) < 2 {
		return nil, Validationf("at least 2 PDF files are required for merging")
	}

	readers := make([]io.ReadSeeker, len(docs))
	for i, doc := range docs {
		readers[i] = doc.reader()
	}
	return mergeReaders(readers, docs[0].BaseName()+"_merged.pdf")
}

func mergeReaders(readers []io.ReadSeeker, name string) (out *Document, err error) {
	defer recoverTransform("merge", &err)

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, newConfiguration()); err != nil {
		return nil, transformErr("merge", err)
	}
	return Decode(name, buf.Bytes())
}
