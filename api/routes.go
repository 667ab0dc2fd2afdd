package api

import (
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"pdfpro/artifact"
	"pdfpro/transform"
)

// Config holds the request limits and CORS policy of the HTTP surface
type Config struct {
	MaxFileSize    int64
	MaxFiles       int
	MaxRequestSize int64
	CORSOrigins    []string
}

// Handler serves the transform routes.
type Handler struct {
	config     *Config
	artifacts  *artifact.Manager
	dispatcher *transform.Dispatcher
	logger     *logrus.Logger
	started    time.Time
}

// NewHandler returns a Handler.
func NewHandler(config *Config, artifacts *artifact.Manager, dispatcher *transform.Dispatcher, logger *logrus.Logger) *Handler {
	return &Handler{
		config:     config,
		artifacts:  artifacts,
		dispatcher: dispatcher,
		logger:     logger,
		started:    time.Now(),
	}
}

func SetupRoutes(r *gin.Engine, h *Handler) {
	registerFormNames()
	r.Use(corsMiddleware(h.config.CORSOrigins))

	r.GET("/health", h.HandleHealth)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", h.HandleHealth)

		ops := apiGroup.Group("", limitBody(h.config.MaxRequestSize))
		handlers := h.operationHandlers()
		for _, op := range transform.Operations() {
			handler, ok := handlers[op]
			if !ok {
				panic("api: no handler for operation " + string(op))
			}
			ops.POST("/"+string(op), handler)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found", "path": c.Request.URL.Path})
	})
}

// operationHandlers maps every operation to the handler that parses its form.
func (h *Handler) operationHandlers() map[transform.Operation]gin.HandlerFunc {
	return map[transform.Operation]gin.HandlerFunc{
		transform.OpMerge:        h.HandleMerge,
		transform.OpSplit:        h.HandleSplit,
		transform.OpCompress:     h.HandleCompress,
		transform.OpRotate:       h.HandleRotate,
		transform.OpWatermark:    h.HandleWatermark,
		transform.OpImageToPDF:   h.HandleImageToPDF,
		transform.OpPDFToImage:   h.HandlePDFToImage,
		transform.OpExtractText:  h.HandleExtractText,
		transform.OpDeletePages:  h.HandleDeletePages,
		transform.OpReorderPages: h.HandleReorderPages,
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition", "X-Original-Size", "X-Compressed-Size", "X-Compression-Ratio", "X-Skipped-Images"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

var registerOnce sync.Once

// registerFormNames makes validation errors report form field names.
func registerFormNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
}
