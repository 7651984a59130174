package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fakturscan/internal/domain"
	"fakturscan/internal/parser"
	"fakturscan/internal/port"
	"fakturscan/internal/service"
	"fakturscan/mocks"
)

const zeroRatedText = "Kode dan Nomor Seri Faktur Pajak : 020.000-24.00000001\n" +
	"Harga Jual / Penggantian 50.000.000,00\n" +
	"Dasar Pengenaan Pajak 50.000.000,00\n" +
	"Jumlah PPN (Pajak Pertambahan Nilai) 0,00\n"

type fixture struct {
	extractor *mocks.MockTokenExtractor
	repo      *mocks.MockParseResultRepo
	storage   *mocks.MockObjectStorage
}

func newFixture() *fixture {
	return &fixture{
		extractor: &mocks.MockTokenExtractor{StrategyName: "chain"},
		repo:      new(mocks.MockParseResultRepo),
		storage:   new(mocks.MockObjectStorage),
	}
}

func (f *fixture) service(withRepo, withStorage bool) service.ParseService {
	cfg := service.ParseServiceConfig{
		Parser:        parser.New(parser.DefaultOptions()),
		Extractor:     f.extractor,
		PresignExpiry: 15 * time.Minute,
	}
	if withRepo {
		cfg.Repo = f.repo
	}
	if withStorage {
		cfg.Storage = f.storage
	}
	return service.NewParseService(cfg, zap.NewNop())
}

func TestParseService_Parse_NoPersistence(t *testing.T) {
	svc := newFixture().service(false, false)

	doc, err := svc.Parse(context.Background(), &service.ParseDocumentInput{Name: "a.txt", Text: zeroRatedText})

	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, doc.ID)
	assert.Equal(t, "a.txt", doc.Name)
	assert.Equal(t, domain.StatusApproved, doc.Result.Status)
	assert.True(t, doc.Result.Summary.DetectedTaxRate.IsZero())
}

func TestParseService_Parse_InputErrors(t *testing.T) {
	svc := newFixture().service(false, false)

	_, err := svc.Parse(context.Background(), &service.ParseDocumentInput{Text: "  "})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	_, err = svc.Parse(context.Background(), &service.ParseDocumentInput{Text: zeroRatedText, InvoiceTypeCode: "0A0"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.ParseUpload(context.Background(), &service.UploadDocumentInput{Name: "empty.pdf"})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestParseService_ParseUpload_PersistsAndArchives(t *testing.T) {
	f := newFixture()
	svc := f.service(true, true)
	ctx := context.Background()

	input := port.ExtractInput{Data: []byte(zeroRatedText), ContentType: "text/plain", Name: "faktur.txt"}
	f.extractor.On("Extract", mock.Anything, input).
		Return(&port.Extraction{Text: zeroRatedText, PageCount: 1, Extractor: "plain-text"}, nil)

	var saved *domain.ParseRecord
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ParseRecord")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.ParseRecord) }).
		Return(nil)
	f.storage.On("Put", mock.Anything, mock.MatchedBy(func(in port.PutInput) bool {
		return in.ContentType == "application/json"
	})).Return(&port.PutOutput{Key: "results/x.json"}, nil)
	f.repo.On("SetArchiveKey", mock.Anything, mock.AnythingOfType("uuid.UUID"), "results/x.json").Return(nil)

	doc, err := svc.ParseUpload(ctx, &service.UploadDocumentInput{
		Name: "faktur.txt", ContentType: "text/plain", Data: []byte(zeroRatedText),
	})

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, saved.ID, doc.ID)
	assert.NotEqual(t, uuid.Nil, doc.ID)
	assert.Equal(t, "plain-text", doc.Extractor)
	assert.Equal(t, "results/x.json", doc.ArchiveKey)
	assert.Equal(t, "plain-text", doc.Result.Debug.Extractor)

	assert.Equal(t, domain.StatusApproved, saved.Status)
	assert.Equal(t, domain.SourceTextOnly, saved.Source)
	assert.Equal(t, "plain-text", saved.Extractor)
	var stored domain.ParseResult
	require.NoError(t, json.Unmarshal(saved.Result, &stored))
	assert.Equal(t, doc.Result.ConfidenceScore, stored.ConfidenceScore)

	f.repo.AssertExpectations(t)
	f.storage.AssertExpectations(t)
}

func TestParseService_ArchiveFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	svc := f.service(true, true)

	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("Put", mock.Anything, mock.Anything).Return(nil, errors.New("bucket gone"))

	doc, err := svc.Parse(context.Background(), &service.ParseDocumentInput{Text: zeroRatedText})

	require.NoError(t, err)
	assert.Empty(t, doc.ArchiveKey)
	f.repo.AssertNotCalled(t, "SetArchiveKey", mock.Anything, mock.Anything, mock.Anything)
}

func TestParseService_RepoFailure(t *testing.T) {
	f := newFixture()
	f.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := f.service(true, false).Parse(context.Background(), &service.ParseDocumentInput{Text: zeroRatedText})
	assert.ErrorContains(t, err, "saving parse result")
}

func TestParseService_ExtractionFailure(t *testing.T) {
	f := newFixture()
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return(nil, domain.ErrNoExtractor)

	_, err := f.service(false, false).ParseUpload(context.Background(), &service.UploadDocumentInput{
		Name: "scan.png", Data: []byte{0x89, 'P', 'N', 'G'},
	})
	assert.ErrorIs(t, err, domain.ErrNoExtractor)
}

func storedRecord(t *testing.T, id uuid.UUID, key *string) *domain.ParseRecord {
	t.Helper()
	res := parser.New(parser.DefaultOptions()).Parse(parser.Input{Text: zeroRatedText})
	payload, err := json.Marshal(res)
	require.NoError(t, err)
	return &domain.ParseRecord{ID: id, DocumentName: "faktur.txt", Status: res.Status, Result: payload, ArchiveKey: key}
}

func TestParseService_Get(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	key := "results/" + id.String() + ".json"
	f.repo.On("GetByID", mock.Anything, id).Return(storedRecord(t, id, &key), nil)

	doc, err := f.service(true, false).Get(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, key, doc.ArchiveKey)
	assert.Equal(t, domain.StatusApproved, doc.Result.Status)
	assert.True(t, doc.Result.Summary.DPP.Equal(doc.Result.Summary.HargaJual))
}

func TestParseService_PersistenceOffline(t *testing.T) {
	svc := newFixture().service(false, false)
	ctx := context.Background()

	_, err := svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrPersistenceOffline)
	_, _, err = svc.List(ctx, port.ListFilter{}, 0, 20)
	assert.ErrorIs(t, err, domain.ErrPersistenceOffline)
	_, err = svc.ArchiveURL(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrPersistenceOffline)
	assert.ErrorIs(t, svc.Delete(ctx, uuid.New()), domain.ErrPersistenceOffline)
}

func TestParseService_ArchiveURL(t *testing.T) {
	f := newFixture()
	svc := f.service(true, true)
	withKey, withoutKey := uuid.New(), uuid.New()
	key := "results/a.json"

	f.repo.On("GetByID", mock.Anything, withKey).Return(storedRecord(t, withKey, &key), nil)
	f.repo.On("GetByID", mock.Anything, withoutKey).Return(storedRecord(t, withoutKey, nil), nil)
	f.storage.On("PresignGet", mock.Anything, key, 15*time.Minute).Return("https://example.test/a.json", nil)

	url, err := svc.ArchiveURL(context.Background(), withKey)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/a.json", url)

	_, err = svc.ArchiveURL(context.Background(), withoutKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParseService_Delete(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	key := "results/a.json"
	f.repo.On("GetByID", mock.Anything, id).Return(storedRecord(t, id, &key), nil)
	f.repo.On("Delete", mock.Anything, id).Return(nil)
	f.storage.On("Delete", mock.Anything, key).Return(errors.New("already gone"))

	err := f.service(true, true).Delete(context.Background(), id)

	assert.NoError(t, err)
	f.storage.AssertExpectations(t)
}

func TestParseService_DeleteNotFound(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.repo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound)

	err := f.service(true, true).Delete(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
