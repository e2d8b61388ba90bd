package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"beefline/api/internal/models"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

const documentColumns = `id, cattle_id, document_type, bucket, object_key, document_name,
	issue_date, expiry_date, notes, uploaded_at`

func (r *DocumentRepository) Create(ctx context.Context, doc models.HealthDocument) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO health_documents (
			id, cattle_id, document_type, bucket, object_key, document_name,
			issue_date, expiry_date, notes, uploaded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`,
		doc.ID,
		doc.CattleID,
		doc.DocumentType,
		doc.Bucket,
		doc.ObjectKey,
		doc.DocumentName,
		doc.IssueDate,
		doc.ExpiryDate,
		doc.Notes,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, cattleID, documentID string) (models.HealthDocument, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM health_documents WHERE cattle_id = $1 AND id = $2`,
		cattleID, documentID,
	)
	return scanDocument(row)
}

func (r *DocumentRepository) ListByCattle(ctx context.Context, cattleID string) ([]models.HealthDocument, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM health_documents WHERE cattle_id = $1 ORDER BY uploaded_at DESC`,
		cattleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.HealthDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// HasType reports whether the listing carries at least one document of
// the given type, e.g. a health certificate.
func (r *DocumentRepository) HasType(ctx context.Context, cattleID string, docType models.DocumentType) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM health_documents WHERE cattle_id = $1 AND document_type = $2)`,
		cattleID, docType,
	).Scan(&exists)
	return exists, err
}

// ListExpiredBefore returns documents whose expiry date passed before
// the given day. Used by the maintenance sweep.
func (r *DocumentRepository) ListExpiredBefore(ctx context.Context, day time.Time) ([]models.HealthDocument, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM health_documents WHERE expiry_date IS NOT NULL AND expiry_date < $1`,
		day,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.HealthDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) Delete(ctx context.Context, cattleID, documentID string) error {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM health_documents WHERE cattle_id = $1 AND id = $2`,
		cattleID, documentID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (models.HealthDocument, error) {
	var doc models.HealthDocument
	if err := row.Scan(
		&doc.ID,
		&doc.CattleID,
		&doc.DocumentType,
		&doc.Bucket,
		&doc.ObjectKey,
		&doc.DocumentName,
		&doc.IssueDate,
		&doc.ExpiryDate,
		&doc.Notes,
		&doc.UploadedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.HealthDocument{}, ErrDocumentNotFound
		}
		return models.HealthDocument{}, err
	}
	return doc, nil
}
