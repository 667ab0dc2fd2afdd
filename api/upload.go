package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"pdfpro/artifact"
	"pdfpro/pdf"
)

// acquireUploads stores the files of a multipart field as artifacts after checking the
// count, size and sniffed content type of each. Files under any other field are
// rejected. A missing field yields no artifacts;
// the dispatcher reports which inputs the operation needs. On error every artifact
// acquired so far is released.
func (h *Handler) acquireUploads(c *gin.Context, field string, kind artifact.Kind) ([]*artifact.Artifact, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, bindError(err)
	}

	total := 0
	for name, files := range form.File {
		if name != field && len(files) > 0 {
			return nil, pdf.Validationf("Unexpected file field %q. Upload files under %q.", name, field)
		}
		total += len(files)
	}
	if total > h.config.MaxFiles {
		return nil, pdf.Validationf("Too many files. Maximum is %d files.", h.config.MaxFiles)
	}

	headers := form.File[field]

	inputs := make([]*artifact.Artifact, 0, len(headers))
	for _, header := range headers {
		a, err := h.acquire(header, kind)
		if err != nil {
			h.artifacts.ReleaseAll(inputs...)
			return nil, err
		}
		inputs = append(inputs, a)
	}
	return inputs, nil
}

func (h *Handler) acquire(header *multipart.FileHeader, kind artifact.Kind) (*artifact.Artifact, error) {
	if header.Size > h.config.MaxFileSize {
		return nil, pdf.Validationf("File %s too large. Maximum size is %s.",
			artifact.SanitizeFilename(header.Filename), humanize.IBytes(uint64(h.config.MaxFileSize)))
	}

	file, err := header.Open()
	if err != nil {
		return nil, pdf.Validationf("failed to read upload %s", artifact.SanitizeFilename(header.Filename))
	}
	defer file.Close()

	if err := checkContentType(file, header.Filename, kind); err != nil {
		return nil, err
	}

	a, err := h.artifacts.Acquire(file, header.Filename, kind)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	return a, nil
}

// checkContentType sniffs the upload and rewinds it. The type must be on the allow-list
// and match the kind the route accepts.
func checkContentType(file multipart.File, name string, kind artifact.Kind) error {
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return pdf.Validationf("failed to read file header: %v", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return pdf.Validationf("failed to reset file position: %v", err)
	}

	if !mimetype.EqualsAny(mtype.String(), allowedUploadTypes...) {
		return pdf.Validationf("Invalid file type: %s. Only PDF and image files are allowed.", mtype.String())
	}

	isPDF := mtype.Is("application/pdf")
	if kind == artifact.KindDocument && !isPDF {
		return pdf.Validationf("%s is not a PDF file (%s)", artifact.SanitizeFilename(name), mtype.String())
	}
	if kind == artifact.KindImage && isPDF {
		return pdf.Validationf("%s is not an image file", artifact.SanitizeFilename(name))
	}
	return nil
}
