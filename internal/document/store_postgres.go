// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Create persists the metadata row for a freshly ingested document.

Parameters:
  - context: context.Context
  - document: *Document

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Create(context context.Context, document *Document) error {
	const query = `
		INSERT INTO documents (doc_id, title, uploaded_by, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, uploaded_at`

	err := repository.pool.QueryRow(context, query,
		document.DocID,
		document.Title,
		document.UploadedBy,
		document.Description,
	).Scan(&document.ID, &document.UploadedAt)

	if err != nil {
		return fmt.Errorf("postgres_document_repo_create_failed: %w", err)
	}

	return nil
}

/*
Delete removes the metadata row for a document ID.

Parameters:
  - context: context.Context
  - docID: string

Returns:
  - bool: true if a row existed and was removed
  - error: Persistence failures
*/
func (repository *PostgresRepository) Delete(context context.Context, docID string) (bool, error) {
	const query = `DELETE FROM documents WHERE doc_id = $1`

	tag, err := repository.pool.Exec(context, query, docID)
	if err != nil {
		return false, fmt.Errorf("postgres_document_repo_delete_failed: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

/*
List returns the catalogue of all documents, newest first.

Parameters:
  - context: context.Context

Returns:
  - []Document: Possibly empty slice
  - error: Retrieval failures
*/
func (repository *PostgresRepository) List(context context.Context) ([]Document, error) {
	const query = `
		SELECT doc_id, title, COALESCE(description, ''), uploaded_at
		FROM documents
		ORDER BY uploaded_at DESC`

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_document_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var documents []Document
	for rows.Next() {
		var document Document
		if err := rows.Scan(&document.DocID, &document.Title, &document.Description, &document.UploadedAt); err != nil {
			return nil, fmt.Errorf("postgres_document_repo_scan_failed: %w", err)
		}
		documents = append(documents, document)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_document_repo_rows_failed: %w", err)
	}

	return documents, nil
}
