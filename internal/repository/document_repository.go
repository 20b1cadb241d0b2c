package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nilesh-agrahari/SecureFileShare/internal/models"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

func (r *DocumentRepository) Create(ctx context.Context, doc models.Document) error {
	const query = `
		INSERT INTO documents (
			id, bucket, object_key, file_name, extension, size_bytes, uploader_id, uploaded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		doc.ID,
		doc.Bucket,
		doc.ObjectKey,
		doc.FileName,
		doc.Extension,
		doc.SizeBytes,
		doc.UploaderID,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (models.Document, error) {
	const query = `
		SELECT id, bucket, object_key, file_name, extension, size_bytes, uploader_id, uploaded_at
		FROM documents WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var doc models.Document
	if err := row.Scan(
		&doc.ID,
		&doc.Bucket,
		&doc.ObjectKey,
		&doc.FileName,
		&doc.Extension,
		&doc.SizeBytes,
		&doc.UploaderID,
		&doc.UploadedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Document{}, ErrDocumentNotFound
		}
		return models.Document{}, err
	}
	return doc, nil
}

// List returns every document, newest upload first.
func (r *DocumentRepository) List(ctx context.Context) ([]models.Document, error) {
	const query = `
		SELECT id, bucket, object_key, file_name, extension, size_bytes, uploader_id, uploaded_at
		FROM documents
		ORDER BY uploaded_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.ID,
			&doc.Bucket,
			&doc.ObjectKey,
			&doc.FileName,
			&doc.Extension,
			&doc.SizeBytes,
			&doc.UploaderID,
			&doc.UploadedAt,
		); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM documents WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// ExistsByObjectKey is used by the orphan-blob sweep to tell whether an
// object in the bucket still has a metadata row.
func (r *DocumentRepository) ExistsByObjectKey(ctx context.Context, objectKey string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM documents WHERE object_key = $1)`
	row := r.pool.QueryRow(ctx, query, objectKey)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
