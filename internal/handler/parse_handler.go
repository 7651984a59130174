package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fakturscan/internal/domain"
	"fakturscan/internal/extract"
	"fakturscan/internal/service"
)

// ParseHandler handles parse endpoints.
type ParseHandler struct {
	parseService   service.ParseService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewParseHandler creates a new ParseHandler.
func NewParseHandler(parseService service.ParseService, maxUploadBytes int64, logger *zap.Logger) *ParseHandler {
	return &ParseHandler{parseService: parseService, maxUploadBytes: maxUploadBytes, logger: logger}
}

// ParseRequest is the body of POST /parse.
type ParseRequest struct {
	DocumentName    string         `json:"document_name"`
	Tokens          []domain.Token `json:"tokens"`
	Text            string         `json:"text"`
	PageCount       int            `json:"page_count"`
	InvoiceTypeCode string         `json:"invoice_type_code"`
}

// Parse handles POST /api/v1/parse
func (h *ParseHandler) Parse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "request body must be JSON with tokens or text")
		return
	}
	if req.PageCount < 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "page_count must not be negative")
		return
	}

	doc, err := h.parseService.Parse(c.Request.Context(), &service.ParseDocumentInput{
		Name:            req.DocumentName,
		Tokens:          req.Tokens,
		Text:            req.Text,
		PageCount:       req.PageCount,
		InvoiceTypeCode: req.InvoiceTypeCode,
	})
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, doc)
}

// Upload handles POST /api/v1/parse/upload (multipart field "file")
func (h *ParseHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		// multipart overhead on top of the file itself
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleError(c, h.logger, domain.ErrFileTooLarge)
			return
		}
		RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		HandleError(c, h.logger, domain.ErrFileTooLarge)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = extract.ContentTypeFor(header.Filename)
	}

	doc, err := h.parseService.ParseUpload(c.Request.Context(), &service.UploadDocumentInput{
		Name:            header.Filename,
		ContentType:     contentType,
		Data:            data,
		InvoiceTypeCode: c.PostForm("invoice_type_code"),
	})
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, doc)
}
