package pdf

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// CompressionStats reports the effect of Compress. A negative Ratio means the
// document grew, which is not an error.
type CompressionStats struct {
	OriginalSize   int
	CompressedSize int
	Ratio          float64 // percent reduction
}

// Compress re-serializes doc with pdfcpu's optimizer, writing object streams and a
// cross-reference stream. Embedded images are not recompressed.
func Compress(doc *Document) (out *Document, stats CompressionStats, err error) {
	defer recoverTransform("compress", &err)

	conf := newConfiguration()
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true

	var buf bytes.Buffer
	if err := api.Optimize(doc.reader(), &buf, conf); err != nil {
		return nil, stats, transformErr("compress", err)
	}

	out, err = Decode(doc.BaseName()+"_compressed.pdf", buf.Bytes())
	if err != nil {
		return nil, stats, err
	}

	stats = CompressionStats{OriginalSize: doc.Size(), CompressedSize: out.Size()}
	if doc.Size() > 0 {
		stats.Ratio = (1 - float64(out.Size())/float64(doc.Size())) * 100
	}
	return out, stats, nil
}
