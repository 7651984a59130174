package handler

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fakturscan/internal/domain"
	"fakturscan/internal/export"
	"fakturscan/internal/port"
	"fakturscan/internal/service"
)

// ResultHandler serves stored parse results.
type ResultHandler struct {
	parseService service.ParseService
	logger       *zap.Logger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(parseService service.ParseService, logger *zap.Logger) *ResultHandler {
	return &ResultHandler{parseService: parseService, logger: logger}
}

// List handles GET /api/v1/results?status=&offset=&limit=
func (h *ResultHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	var filter port.ListFilter
	if s := c.Query("status"); s != "" {
		status := domain.ParseStatus(s)
		if !domain.ValidParseStatuses[status] {
			RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "status must be approved, needs_review or failed")
			return
		}
		filter.Status = status
	}

	records, total, err := h.parseService.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondPaginated(c, records, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/results/:id
func (h *ResultHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	doc, err := h.parseService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, doc)
}

// Export handles GET /api/v1/results/:id/export?format=csv|xlsx|json
func (h *ResultHandler) Export(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.DefaultQuery("format", string(domain.ExportFormatCSV)))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	doc, err := h.parseService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, []export.Document{{Name: doc.Name, Result: doc.Result}}); err != nil {
		HandleError(c, h.logger, err)
		return
	}

	name := doc.Name
	if name == "" {
		name = doc.ID.String()
	}
	filename := export.BuildFilename(name, format, time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, domain.ExportContentTypes[format], buf.Bytes())
}

// ArchiveURL handles GET /api/v1/results/:id/archive
func (h *ResultHandler) ArchiveURL(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	url, err := h.parseService.ArchiveURL(c.Request.Context(), id)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

// Delete handles DELETE /api/v1/results/:id
func (h *ResultHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.parseService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, gin.H{"message": "result deleted"})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "invalid result ID")
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
