package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/citedocs-api/internal/models"
)

// DocumentRepository reads the document type catalogue.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// List returns document types ordered by name.
func (r *DocumentRepository) List(ctx context.Context, activeOnly bool) ([]models.DocumentType, error) {
	query := `SELECT document_id, name, description, fee, active FROM documents`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name`

	var docs []models.DocumentType
	if err := r.db.SelectContext(ctx, &docs, query); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// GetByID returns one document type or sql.ErrNoRows.
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*models.DocumentType, error) {
	const query = `SELECT document_id, name, description, fee, active FROM documents WHERE document_id = $1`
	var doc models.DocumentType
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}
