package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/bmi-check/internal/logging"
	"github.com/example/bmi-check/internal/uploads"
	"github.com/example/bmi-check/internal/usecase"
)

// MaxUploadSize is the default limit for one multipart submission.
const MaxUploadSize = 10 << 20

const (
	flashCookie     = "flash"
	imagesOnly      = "Images only!"
	fieldRequired   = "This field is required."
	uploadsRoute    = "/static/uploads"
	processingError = "Error during processing: "
)

// webUserID owns web-form predictions. JWT subjects are never empty, so
// the JSON API cannot read them back.
const webUserID = ""

// PredictionService is the use case surface the HTTP layer depends on.
type PredictionService interface {
	Predict(ctx context.Context, userID string, front, side uploads.File) (*usecase.Prediction, error)
	GetResult(ctx context.Context, userID, requestID string) (*usecase.Prediction, error)
	GetMetricsSummary(ctx context.Context) (*usecase.MetricsSummary, error)
}

// Options configures RegisterRoutes.
type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	AuthMiddleware gin.HandlerFunc
	Logger         *zap.Logger
}

type uploadForm struct {
	FrontView *multipart.FileHeader `form:"front_view" binding:"required"`
	SideView  *multipart.FileHeader `form:"side_view" binding:"required"`
}

type handler struct {
	svc      PredictionService
	maxBytes int64
	logger   *zap.Logger
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, svc PredictionService, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBytes := opts.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = MaxUploadSize
	}
	h := &handler{svc: svc, maxBytes: maxBytes, logger: logger.Named("handlers")}

	router.SetHTMLTemplate(Templates())
	if opts.UploadDir != "" {
		router.Static(uploadsRoute, opts.UploadDir)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/", h.home)
	router.GET("/predict", h.uploadPage)
	router.POST("/predict", h.submit)

	api := router.Group("/api")
	if opts.AuthMiddleware != nil {
		api.Use(opts.AuthMiddleware)
	}
	api.POST("/predict", h.apiPredict)
	api.GET("/predictions/:id", h.apiResult)
	api.GET("/metrics", h.apiMetrics)
}

func (h *handler) home(c *gin.Context) {
	c.HTML(http.StatusOK, "layout", gin.H{"Page": "home"})
}

func (h *handler) uploadPage(c *gin.Context) {
	flash, err := c.Cookie(flashCookie)
	if err == nil && flash != "" {
		c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	}
	h.renderForm(c, http.StatusOK, flash, nil)
}

func (h *handler) renderForm(c *gin.Context, status int, flash string, fieldErrors map[string]string) {
	if fieldErrors == nil {
		fieldErrors = map[string]string{}
	}
	c.HTML(status, "layout", gin.H{
		"Page":   "upload",
		"Flash":  flash,
		"Errors": fieldErrors,
	})
}

func (h *handler) submit(c *gin.Context) {
	if h.tooLarge(c) {
		c.HTML(http.StatusRequestEntityTooLarge, "layout", gin.H{
			"Page":   "upload",
			"Flash":  fmt.Sprintf("Upload exceeds the %d byte limit", h.maxBytes),
			"Errors": map[string]string{},
		})
		return
	}

	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		if isBodyTooLarge(err) {
			c.HTML(http.StatusRequestEntityTooLarge, "layout", gin.H{
				"Page":   "upload",
				"Flash":  fmt.Sprintf("Upload exceeds the %d byte limit", h.maxBytes),
				"Errors": map[string]string{},
			})
			return
		}
		h.renderForm(c, http.StatusBadRequest, "", missingFields(form))
		return
	}

	if fieldErrors := extensionErrors(form.FrontView, form.SideView); len(fieldErrors) > 0 {
		h.renderForm(c, http.StatusBadRequest, "", fieldErrors)
		return
	}

	front, side, err := readPair(form.FrontView, form.SideView)
	if err != nil {
		h.logger.Warn("failed to read upload", zap.Error(err))
		h.flashAndRedirect(c, err)
		return
	}

	prediction, err := h.svc.Predict(c.Request.Context(), webUserID, front, side)
	if err != nil {
		h.logger.Error("prediction failed", zap.Error(err))
		h.flashAndRedirect(c, err)
		return
	}

	stamp := time.Now().UnixNano()
	c.HTML(http.StatusOK, "layout", gin.H{
		"Page":       "result",
		"BMI":        prediction.BMI,
		"Category":   prediction.Category,
		"ColorClass": prediction.ColorClass,
		"FrontImage": fmt.Sprintf("%s/front/%s?t=%d", uploadsRoute, uploads.FixedName, stamp),
		"SideImage":  fmt.Sprintf("%s/side/%s?t=%d", uploadsRoute, uploads.FixedName, stamp),
	})
}

func (h *handler) flashAndRedirect(c *gin.Context, err error) {
	c.SetCookie(flashCookie, processingError+logging.Cause(err).Error(), 60, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/predict")
}

// tooLarge rejects declared oversize bodies and caps the rest.
func (h *handler) tooLarge(c *gin.Context) bool {
	if c.Request.ContentLength > h.maxBytes {
		return true
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	return false
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func missingFields(form uploadForm) map[string]string {
	fieldErrors := map[string]string{}
	if form.FrontView == nil {
		fieldErrors["front_view"] = fieldRequired
	}
	if form.SideView == nil {
		fieldErrors["side_view"] = fieldRequired
	}
	return fieldErrors
}

func extensionErrors(front, side *multipart.FileHeader) map[string]string {
	fieldErrors := map[string]string{}
	if err := uploads.ValidateExtension(front.Filename); err != nil {
		fieldErrors["front_view"] = imagesOnly
	}
	if err := uploads.ValidateExtension(side.Filename); err != nil {
		fieldErrors["side_view"] = imagesOnly
	}
	return fieldErrors
}

func readPair(frontHeader, sideHeader *multipart.FileHeader) (uploads.File, uploads.File, error) {
	front, err := readFile(frontHeader)
	if err != nil {
		return uploads.File{}, uploads.File{}, err
	}
	side, err := readFile(sideHeader)
	if err != nil {
		return uploads.File{}, uploads.File{}, err
	}
	return front, side, nil
}

func readFile(header *multipart.FileHeader) (uploads.File, error) {
	src, err := header.Open()
	if err != nil {
		return uploads.File{}, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return uploads.File{}, fmt.Errorf("read %s: %w", header.Filename, err)
	}
	return uploads.File{Name: header.Filename, Data: data}, nil
}
