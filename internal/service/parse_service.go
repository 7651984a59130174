package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fakturscan/internal/domain"
	"fakturscan/internal/parser"
	"fakturscan/internal/port"
)

// ParseDocumentInput is the DTO for parsing already extracted tokens or text.
type ParseDocumentInput struct {
	Name            string
	Tokens          []domain.Token
	Text            string
	PageCount       int
	InvoiceTypeCode string
}

// UploadDocumentInput is the DTO for parsing a raw document through the extraction chain.
type UploadDocumentInput struct {
	Name            string
	ContentType     string
	Data            []byte
	InvoiceTypeCode string
}

// ParsedDocument is a parse result together with its persistence identity.
// ID is uuid.Nil when persistence is disabled.
type ParsedDocument struct {
	ID         uuid.UUID           `json:"id"`
	Name       string              `json:"document_name"`
	Extractor  string              `json:"extractor,omitempty"`
	ArchiveKey string              `json:"archive_key,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	Result     *domain.ParseResult `json:"result"`
}

// ParseService defines the parse and result retrieval contract.
type ParseService interface {
	Parse(ctx context.Context, input *ParseDocumentInput) (*ParsedDocument, error)
	ParseUpload(ctx context.Context, input *UploadDocumentInput) (*ParsedDocument, error)
	Get(ctx context.Context, id uuid.UUID) (*ParsedDocument, error)
	List(ctx context.Context, filter port.ListFilter, offset, limit int) ([]domain.ParseRecord, int, error)
	ArchiveURL(ctx context.Context, id uuid.UUID) (string, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ParseServiceConfig wires the optional collaborators. Repo and Storage may be nil.
type ParseServiceConfig struct {
	Parser        *parser.Parser
	Extractor     port.TokenExtractor
	Repo          port.ParseResultRepository
	Storage       port.ObjectStorage
	PresignExpiry time.Duration
}

type parseService struct {
	parser        *parser.Parser
	extractor     port.TokenExtractor
	repo          port.ParseResultRepository
	storage       port.ObjectStorage
	presignExpiry time.Duration
	logger        *zap.Logger
}

// NewParseService creates a new ParseService.
func NewParseService(cfg ParseServiceConfig, logger *zap.Logger) ParseService {
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &parseService{
		parser:        cfg.Parser,
		extractor:     cfg.Extractor,
		repo:          cfg.Repo,
		storage:       cfg.Storage,
		presignExpiry: expiry,
		logger:        logger,
	}
}

func (s *parseService) Parse(ctx context.Context, input *ParseDocumentInput) (*ParsedDocument, error) {
	if len(input.Tokens) == 0 && strings.TrimSpace(input.Text) == "" {
		return nil, domain.ErrEmptyInput
	}
	if code := input.InvoiceTypeCode; code != "" && !validTypeCode(code) {
		return nil, fmt.Errorf("%w: invoice_type_code must be three digits", domain.ErrInvalidInput)
	}

	res := s.parser.Parse(parser.Input{
		Tokens:          input.Tokens,
		Text:            input.Text,
		PageCount:       input.PageCount,
		InvoiceTypeCode: input.InvoiceTypeCode,
	})
	return s.store(ctx, input.Name, input.InvoiceTypeCode, "", res)
}

func (s *parseService) ParseUpload(ctx context.Context, input *UploadDocumentInput) (*ParsedDocument, error) {
	if len(input.Data) == 0 {
		return nil, domain.ErrEmptyInput
	}
	if code := input.InvoiceTypeCode; code != "" && !validTypeCode(code) {
		return nil, fmt.Errorf("%w: invoice_type_code must be three digits", domain.ErrInvalidInput)
	}

	ext, err := s.extractor.Extract(ctx, port.ExtractInput{
		Data:        input.Data,
		ContentType: input.ContentType,
		Name:        input.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", input.Name, err)
	}

	res := s.parser.Parse(parser.Input{
		Tokens:          ext.Tokens,
		Text:            ext.Text,
		PageCount:       ext.PageCount,
		InvoiceTypeCode: input.InvoiceTypeCode,
		Extractor:       ext.Extractor,
	})
	return s.store(ctx, input.Name, input.InvoiceTypeCode, ext.Extractor, res)
}

// store persists the result and archives its JSON when those backends are
// configured. An archive failure is logged and does not fail the parse.
func (s *parseService) store(ctx context.Context, name, typeCode, extractor string, res *domain.ParseResult) (*ParsedDocument, error) {
	doc := &ParsedDocument{
		Name:      name,
		Extractor: extractor,
		CreatedAt: time.Now().UTC(),
		Result:    res,
	}
	s.logger.Info("service.ParseService: parsed document",
		zap.String("document", name),
		zap.String("status", string(res.Status)),
		zap.Float64("confidence", res.ConfidenceScore),
		zap.Int("items", len(res.Items)),
		zap.String("source", string(res.Debug.Source)),
	)
	if s.repo == nil {
		return doc, nil
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encoding parse result: %w", err)
	}
	rec := &domain.ParseRecord{
		ID:              uuid.New(),
		DocumentName:    name,
		InvoiceTypeCode: typeCode,
		Status:          res.Status,
		ConfidenceScore: res.ConfidenceScore,
		IsValid:         res.IsValid,
		ItemCount:       len(res.Items),
		Source:          res.Debug.Source,
		Extractor:       extractor,
		Result:          payload,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving parse result: %w", err)
	}
	doc.ID = rec.ID
	if !rec.CreatedAt.IsZero() {
		doc.CreatedAt = rec.CreatedAt
	}

	if s.storage != nil {
		key, err := s.archive(ctx, rec.ID, payload)
		if err != nil {
			s.logger.Warn("service.ParseService: archive failed",
				zap.String("id", rec.ID.String()), zap.Error(err))
		} else {
			doc.ArchiveKey = key
		}
	}
	return doc, nil
}

func (s *parseService) archive(ctx context.Context, id uuid.UUID, payload []byte) (string, error) {
	out, err := s.storage.Put(ctx, port.PutInput{
		Key:         id.String() + ".json",
		Body:        bytes.NewReader(payload),
		ContentType: domain.ExportContentTypes[domain.ExportFormatJSON],
	})
	if err != nil {
		return "", err
	}
	if err := s.repo.SetArchiveKey(ctx, id, out.Key); err != nil {
		return "", fmt.Errorf("recording archive key: %w", err)
	}
	return out.Key, nil
}

func (s *parseService) Get(ctx context.Context, id uuid.UUID) (*ParsedDocument, error) {
	if s.repo == nil {
		return nil, domain.ErrPersistenceOffline
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := rec.Decode()
	if err != nil {
		return nil, err
	}
	doc := &ParsedDocument{
		ID:        rec.ID,
		Name:      rec.DocumentName,
		Extractor: rec.Extractor,
		CreatedAt: rec.CreatedAt,
		Result:    res,
	}
	if rec.ArchiveKey != nil {
		doc.ArchiveKey = *rec.ArchiveKey
	}
	return doc, nil
}

func (s *parseService) List(ctx context.Context, filter port.ListFilter, offset, limit int) ([]domain.ParseRecord, int, error) {
	if s.repo == nil {
		return nil, 0, domain.ErrPersistenceOffline
	}
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *parseService) ArchiveURL(ctx context.Context, id uuid.UUID) (string, error) {
	if s.repo == nil || s.storage == nil {
		return "", domain.ErrPersistenceOffline
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if rec.ArchiveKey == nil {
		return "", domain.ErrNotFound
	}
	return s.storage.PresignGet(ctx, *rec.ArchiveKey, s.presignExpiry)
}

func (s *parseService) Delete(ctx context.Context, id uuid.UUID) error {
	if s.repo == nil {
		return domain.ErrPersistenceOffline
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if rec.ArchiveKey != nil && s.storage != nil {
		if err := s.storage.Delete(ctx, *rec.ArchiveKey); err != nil {
			s.logger.Warn("service.ParseService: archive delete failed",
				zap.String("id", id.String()), zap.Error(err))
		}
	}
	return nil
}

func validTypeCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
