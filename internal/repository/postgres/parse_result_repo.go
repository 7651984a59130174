package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"fakturscan/internal/domain"
	"fakturscan/internal/port"
)

type parseResultRepo struct {
	db *sqlx.DB
}

// NewParseResultRepo creates a new PostgreSQL-backed ParseResultRepository.
func NewParseResultRepo(db *sqlx.DB) port.ParseResultRepository {
	return &parseResultRepo{db: db}
}

// parseResultRow scans result as raw bytes; the driver may hand JSONB back as text.
type parseResultRow struct {
	ID              uuid.UUID          `db:"id"`
	DocumentName    string             `db:"document_name"`
	InvoiceTypeCode string             `db:"invoice_type_code"`
	Status          domain.ParseStatus `db:"status"`
	ConfidenceScore float64            `db:"confidence_score"`
	IsValid         bool               `db:"is_valid"`
	ItemCount       int                `db:"item_count"`
	Source          string             `db:"source"`
	Extractor       string             `db:"extractor"`
	Result          []byte             `db:"result"`
	ArchiveKey      sql.NullString     `db:"archive_key"`
	CreatedAt       time.Time          `db:"created_at"`
}

func (row *parseResultRow) record() domain.ParseRecord {
	rec := domain.ParseRecord{
		ID:              row.ID,
		DocumentName:    row.DocumentName,
		InvoiceTypeCode: row.InvoiceTypeCode,
		Status:          row.Status,
		ConfidenceScore: row.ConfidenceScore,
		IsValid:         row.IsValid,
		ItemCount:       row.ItemCount,
		Source:          domain.LayoutSource(row.Source),
		Extractor:       row.Extractor,
		Result:          row.Result,
		CreatedAt:       row.CreatedAt,
	}
	if row.ArchiveKey.Valid {
		key := row.ArchiveKey.String
		rec.ArchiveKey = &key
	}
	return rec
}

const parseResultColumns = `id, document_name, invoice_type_code, status, confidence_score,
	is_valid, item_count, source, extractor, result, archive_key, created_at`

func (r *parseResultRepo) Create(ctx context.Context, rec *domain.ParseRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now().UTC()

	query := `INSERT INTO parse_results (` + parseResultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.DocumentName, rec.InvoiceTypeCode, rec.Status, rec.ConfidenceScore,
		rec.IsValid, rec.ItemCount, rec.Source, rec.Extractor, []byte(rec.Result),
		rec.ArchiveKey, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("parseResultRepo.Create: %w", err)
	}
	return nil
}

func (r *parseResultRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error) {
	var row parseResultRow
	err := r.db.GetContext(ctx, &row,
		"SELECT "+parseResultColumns+" FROM parse_results WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("parseResultRepo.GetByID: %w", err)
	}
	rec := row.record()
	return &rec, nil
}

func (r *parseResultRepo) List(ctx context.Context, filter port.ListFilter, offset, limit int) ([]domain.ParseRecord, int, error) {
	where := ""
	args := []any{}
	if filter.Status != "" {
		where = " WHERE status = $1"
		args = append(args, filter.Status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM parse_results"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("parseResultRepo.List count: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM parse_results%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		parseResultColumns, where, len(args)+1, len(args)+2,
	)
	var rows []parseResultRow
	if err := r.db.SelectContext(ctx, &rows, query, append(args, limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("parseResultRepo.List: %w", err)
	}

	out := make([]domain.ParseRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].record())
	}
	return out, total, nil
}

func (r *parseResultRepo) SetArchiveKey(ctx context.Context, id uuid.UUID, key string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE parse_results SET archive_key = $1 WHERE id = $2", key, id)
	if err != nil {
		return fmt.Errorf("parseResultRepo.SetArchiveKey: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *parseResultRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM parse_results WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("parseResultRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *parseResultRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
