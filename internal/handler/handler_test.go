package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fakturscan/internal/domain"
	"fakturscan/internal/handler"
	"fakturscan/internal/port"
	"fakturscan/internal/service"
	"fakturscan/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func approvedDoc(id uuid.UUID) *service.ParsedDocument {
	return &service.ParsedDocument{
		ID:   id,
		Name: "faktur.pdf",
		Result: &domain.ParseResult{
			Items:   []domain.LineItem{{LineNo: 1, Page: 1, Description: "Laptop"}},
			Status:  domain.StatusApproved,
			IsValid: true,
		},
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrEmptyInput, http.StatusBadRequest, "EMPTY_INPUT"},
		{fmt.Errorf("%w: bad code", domain.ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT"},
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{fmt.Errorf("%w: %w", domain.ErrNoExtractor, domain.ErrUnsupportedFormat), http.StatusUnprocessableEntity, "UNSUPPORTED_FORMAT"},
		{domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"},
		{domain.ErrUnsupportedExport, http.StatusBadRequest, "UNSUPPORTED_FORMAT"},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{domain.ErrPersistenceOffline, http.StatusServiceUnavailable, "PERSISTENCE_DISABLED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.err.Error(), func(t *testing.T) {
			status, code, msg := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestParseHandler_Parse_Success(t *testing.T) {
	svc := new(mocks.MockParseService)
	h := handler.NewParseHandler(svc, 1<<20, zap.NewNop())

	svc.On("Parse", mock.Anything, mock.MatchedBy(func(in *service.ParseDocumentInput) bool {
		return in.Name == "faktur.pdf" && in.InvoiceTypeCode == "010" && len(in.Tokens) == 1 && in.Tokens[0].Text == "DPP"
	})).Return(approvedDoc(uuid.Nil), nil)

	body := `{"document_name":"faktur.pdf","invoice_type_code":"010",` +
		`"tokens":[{"text":"DPP","bbox":{"x0":1,"y0":2,"x1":3,"y1":4},"page":1,"source_confidence":0.9}]}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/parse", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Parse(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "faktur.pdf", data["document_name"])
	result := data["result"].(map[string]interface{})
	assert.Equal(t, "approved", result["status"])
	svc.AssertExpectations(t)
}

func TestParseHandler_Parse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		svcErr error
		status int
		code   string
	}{
		{"malformed json", `{"text":`, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"negative page count", `{"text":"x","page_count":-1}`, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty input", `{}`, domain.ErrEmptyInput, http.StatusBadRequest, "EMPTY_INPUT"},
		{"bad type code", `{"text":"x","invoice_type_code":"1"}`, fmt.Errorf("%w: type", domain.ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockParseService)
			if tt.svcErr != nil {
				svc.On("Parse", mock.Anything, mock.Anything).Return(nil, tt.svcErr)
			}
			h := handler.NewParseHandler(svc, 1<<20, zap.NewNop())

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/parse", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			h.Parse(c)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestParseHandler_Upload_Success(t *testing.T) {
	svc := new(mocks.MockParseService)
	h := handler.NewParseHandler(svc, 1<<20, zap.NewNop())
	id := uuid.New()

	svc.On("ParseUpload", mock.Anything, mock.MatchedBy(func(in *service.UploadDocumentInput) bool {
		return in.Name == "faktur.pdf" &&
			in.ContentType == "application/pdf" &&
			string(in.Data) == "%PDF-1.4 body" &&
			in.InvoiceTypeCode == "040"
	})).Return(approvedDoc(id), nil)

	body, ct := multipartBody(t, "faktur.pdf", []byte("%PDF-1.4 body"), map[string]string{"invoice_type_code": "040"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/parse/upload", body)
	c.Request.Header.Set("Content-Type", ct)

	h.Upload(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, id.String(), resp.Data.(map[string]interface{})["id"])
	svc.AssertExpectations(t)
}

func TestParseHandler_Upload_MissingFile(t *testing.T) {
	svc := new(mocks.MockParseService)
	h := handler.NewParseHandler(svc, 1<<20, zap.NewNop())

	body, ct := multipartBody(t, "", nil, map[string]string{"invoice_type_code": "010"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/parse/upload", body)
	c.Request.Header.Set("Content-Type", ct)

	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decode(t, w).Error.Code)
	svc.AssertNotCalled(t, "ParseUpload", mock.Anything, mock.Anything)
}

func TestParseHandler_Upload_TooLarge(t *testing.T) {
	svc := new(mocks.MockParseService)
	h := handler.NewParseHandler(svc, 16, zap.NewNop())

	body, ct := multipartBody(t, "big.txt", bytes.Repeat([]byte("a"), 64), nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/parse/upload", body)
	c.Request.Header.Set("Content-Type", ct)

	h.Upload(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "FILE_TOO_LARGE", decode(t, w).Error.Code)
}

func TestParseHandler_Upload_NoExtractor(t *testing.T) {
	svc := new(mocks.MockParseService)
	h := handler.NewParseHandler(svc, 1<<20, zap.NewNop())
	svc.On("ParseUpload", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("extracting scan.png: %w", domain.ErrNoExtractor))

	body, ct := multipartBody(t, "scan.png", []byte{0x89, 'P', 'N', 'G'}, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/parse/upload", body)
	c.Request.Header.Set("Content-Type", ct)

	h.Upload(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "UNSUPPORTED_FORMAT", decode(t, w).Error.Code)
}

func newResultContext(method, target string, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, target, nil)
	c.Params = params
	return c, w
}

func TestResultHandler_List(t *testing.T) {
	svc := new(mocks.MockParseService)
	h := handler.NewResultHandler(svc, zap.NewNop())

	records := []domain.ParseRecord{{ID: uuid.New(), DocumentName: "a.pdf", Status: domain.StatusNeedsReview}}
	svc.On("List", mock.Anything, port.ListFilter{Status: domain.StatusNeedsReview}, 10, 5).Return(records, 11, nil)

	c, w := newResultContext(http.MethodGet, "/api/v1/results?status=needs_review&offset=10&limit=5", nil)
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, handler.PagMeta{Total: 11, Offset: 10, Limit: 5}, *resp.Meta)
	assert.Len(t, resp.Data.([]interface{}), 1)
	svc.AssertExpectations(t)
}

func TestResultHandler_List_DefaultsAndErrors(t *testing.T) {
	svc := new(mocks.MockParseService)
	h := handler.NewResultHandler(svc, zap.NewNop())
	svc.On("List", mock.Anything, port.ListFilter{}, 0, 20).Return(nil, 0, domain.ErrPersistenceOffline)

	c, w := newResultContext(http.MethodGet, "/api/v1/results?limit=1000&offset=-3", nil)
	h.List(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	c, w = newResultContext(http.MethodGet, "/api/v1/results?status=done", nil)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "List", 1)
}

func TestResultHandler_GetByID(t *testing.T) {
	svc := new(mocks.MockParseService)
	h := handler.NewResultHandler(svc, zap.NewNop())
	id, missing := uuid.New(), uuid.New()
	svc.On("Get", mock.Anything, id).Return(approvedDoc(id), nil)
	svc.On("Get", mock.Anything, missing).Return(nil, domain.ErrNotFound)

	c, w := newResultContext(http.MethodGet, "/", gin.Params{{Key: "id", Value: id.String()}})
	h.GetByID(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newResultContext(http.MethodGet, "/", gin.Params{{Key: "id", Value: missing.String()}})
	h.GetByID(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newResultContext(http.MethodGet, "/", gin.Params{{Key: "id", Value: "not-a-uuid"}})
	h.GetByID(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decode(t, w).Error.Code)
}

func TestResultHandler_Export(t *testing.T) {
	svc := new(mocks.MockParseService)
	h := handler.NewResultHandler(svc, zap.NewNop())
	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(approvedDoc(id), nil)
	params := gin.Params{{Key: "id", Value: id.String()}}

	c, w := newResultContext(http.MethodGet, "/?format=csv", params)
	h.Export(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.ExportContentTypes[domain.ExportFormatCSV], w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="faktur_pdf_`)
	assert.Contains(t, w.Body.String(), "Laptop")

	c, w = newResultContext(http.MethodGet, "/?format=xlsx", params)
	h.Export(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	c, w = newResultContext(http.MethodGet, "/?format=ods", params)
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_FORMAT", decode(t, w).Error.Code)
}

func TestResultHandler_ArchiveURLAndDelete(t *testing.T) {
	svc := new(mocks.MockParseService)
	h := handler.NewResultHandler(svc, zap.NewNop())
	id := uuid.New()
	params := gin.Params{{Key: "id", Value: id.String()}}
	svc.On("ArchiveURL", mock.Anything, id).Return("https://example.test/x.json", nil)
	svc.On("Delete", mock.Anything, id).Return(nil)

	c, w := newResultContext(http.MethodGet, "/", params)
	h.ArchiveURL(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://example.test/x.json", decode(t, w).Data.(map[string]interface{})["url"])

	c, w = newResultContext(http.MethodDelete, "/", params)
	h.Delete(c)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		db     handler.Pinger
		status int
	}{
		{"persistence disabled", nil, http.StatusOK},
		{"db up", pinger{}, http.StatusOK},
		{"db down", pinger{err: errors.New("refused")}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler(tt.db)
			c, w := newResultContext(http.MethodGet, "/readyz", nil)
			h.Readiness(c)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	c, w := newResultContext(http.MethodGet, "/healthz", nil)
	handler.NewHealthHandler(nil).Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
