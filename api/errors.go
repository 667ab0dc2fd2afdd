package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"pdfpro/pdf"
)

// respondError writes the status and body matching err's type.
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		validation    *pdf.ValidationError
		transform     *pdf.TransformError
		configuration *pdf.ConfigurationError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})

	case errors.As(err, &configuration):
		c.JSON(http.StatusNotImplemented, gin.H{
			"error":   configuration.Capability + " is not available",
			"message": configuration.Message,
		})

	case errors.As(err, &transform):
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("PDF operation error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "PDF operation failed",
			"details": truncate(transform.Error(), pdf.MaxClientErrorLength),
		})

	default:
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// bindError converts a form binding failure into a ValidationError.
func bindError(err error) *pdf.ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return pdf.Validationf("%s", strings.Join(msgs, "; "))
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pdf.Validationf("request body exceeds %d bytes", tooLarge.Limit)
	}
	return pdf.Validationf("invalid form data: %s", truncate(err.Error(), pdf.MaxClientErrorLength))
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", name, fe.Tag())
	}
}

// truncate shortens long error messages but keeps the key information. The cut never
// splits a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
