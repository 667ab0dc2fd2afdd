package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pdfpro/pdf"
	"pdfpro/transform"
)

type splitForm struct {
	Mode   string `form:"mode" binding:"omitempty,oneof=all range"`
	Ranges string `form:"ranges"`
}

type rotateForm struct {
	Angle int    `form:"angle" binding:"omitempty,oneof=90 180 270"`
	Pages string `form:"pages"`
}

type watermarkForm struct {
	Text     string   `form:"text"`
	Opacity  *float64 `form:"opacity" binding:"omitempty,gte=0,lte=1"`
	Rotation *float64 `form:"rotation"`
	FontSize *int     `form:"fontSize" binding:"omitempty,gt=0"`
	Position string   `form:"position" binding:"omitempty,oneof=center diagonal"`
}

type imageToPDFForm struct {
	PageSize string `form:"pageSize"`
}

type pdfToImageForm struct {
	Format string `form:"format"`
	DPI    int    `form:"dpi" binding:"omitempty,min=36,max=600"`
}

type deletePagesForm struct {
	Pages string `form:"pages" binding:"required"`
}

type reorderPagesForm struct {
	Order string `form:"order" binding:"required"`
}

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   ServiceName,
		"uptime":    time.Since(h.started).Seconds(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) HandleMerge(c *gin.Context) {
	h.handleOperation(c, transform.OpMerge, fieldFiles, transform.Params{})
}

func (h *Handler) HandleSplit(c *gin.Context) {
	var form splitForm
	if !h.bind(c, &form) {
		return
	}
	h.handleOperation(c, transform.OpSplit, fieldFile, transform.Params{SplitMode: form.Mode, Ranges: form.Ranges})
}

func (h *Handler) HandleCompress(c *gin.Context) {
	h.handleOperation(c, transform.OpCompress, fieldFile, transform.Params{})
}

func (h *Handler) HandleRotate(c *gin.Context) {
	var form rotateForm
	if !h.bind(c, &form) {
		return
	}
	h.handleOperation(c, transform.OpRotate, fieldFile, transform.Params{Angle: form.Angle, Pages: form.Pages})
}

func (h *Handler) HandleWatermark(c *gin.Context) {
	var form watermarkForm
	if !h.bind(c, &form) {
		return
	}

	opts := pdf.DefaultWatermarkOptions()
	if form.Text != "" {
		opts.Text = form.Text
	}
	if form.Opacity != nil {
		opts.Opacity = *form.Opacity
	}
	if form.Rotation != nil {
		opts.Rotation = *form.Rotation
	}
	if form.FontSize != nil {
		opts.FontSize = *form.FontSize
	}
	if form.Position != "" {
		opts.Position = form.Position
	}
	h.handleOperation(c, transform.OpWatermark, fieldFile, transform.Params{Watermark: opts})
}

func (h *Handler) HandleImageToPDF(c *gin.Context) {
	var form imageToPDFForm
	if !h.bind(c, &form) {
		return
	}
	h.handleOperation(c, transform.OpImageToPDF, fieldFiles, transform.Params{PageSize: form.PageSize})
}

func (h *Handler) HandlePDFToImage(c *gin.Context) {
	var form pdfToImageForm
	if !h.bind(c, &form) {
		return
	}
	h.handleOperation(c, transform.OpPDFToImage, fieldFile, transform.Params{
		Raster: pdf.RasterOptions{Format: form.Format, DPI: form.DPI},
	})
}

func (h *Handler) HandleExtractText(c *gin.Context) {
	h.handleOperation(c, transform.OpExtractText, fieldFile, transform.Params{})
}

func (h *Handler) HandleDeletePages(c *gin.Context) {
	var form deletePagesForm
	if !h.bind(c, &form) {
		return
	}
	h.handleOperation(c, transform.OpDeletePages, fieldFile, transform.Params{Pages: form.Pages})
}

func (h *Handler) HandleReorderPages(c *gin.Context) {
	var form reorderPagesForm
	if !h.bind(c, &form) {
		return
	}
	h.handleOperation(c, transform.OpReorderPages, fieldFile, transform.Params{Order: form.Order})
}

// bind parses the operation parameters, answering 400 on failure.
func (h *Handler) bind(c *gin.Context, form any) bool {
	if err := c.ShouldBind(form); err != nil {
		h.respondError(c, bindError(err))
		return false
	}
	return true
}

// handleOperation stores the uploads of field, runs op and streams the result. Every
// artifact the request created is released before it returns, on success and on error.
func (h *Handler) handleOperation(c *gin.Context, op transform.Operation, field string, params transform.Params) {
	inputs, err := h.acquireUploads(c, field, op.InputKind())
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.dispatcher.Dispatch(c.Request.Context(), op, inputs, params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if res.Artifact == nil {
		c.JSON(http.StatusOK, res.Payload)
		return
	}
	defer h.artifacts.ReleaseAll(res.Artifact)

	for k, v := range res.Headers {
		c.Header(k, v)
	}
	c.Header("Content-Type", res.ContentType)
	c.FileAttachment(res.Artifact.Path, res.Filename)
}
