package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"docflow/internal/model"
	"docflow/internal/store"
)

// Store is a PostgreSQL implementation of store.DocumentStore.
// It uses database/sql with parameterized queries and contains no business logic.
// The analysis and latest-distribution fields are persisted as JSONB.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL document store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ store.DocumentStore = (*Store)(nil)

const docColumns = `id, name, storage_path, size_bytes, content_type, uploaded_at, status, analysis, failure_reason, distribution`

func (s *Store) Insert(ctx context.Context, doc *model.Document) error {
	analysis, distribution, err := marshalOptional(doc)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO documents (id, name, storage_path, size_bytes, content_type, uploaded_at, status, analysis, failure_reason, distribution)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, q,
		doc.ID,
		doc.Name,
		doc.StoragePath,
		doc.SizeBytes,
		doc.ContentType,
		doc.UploadedAt,
		string(doc.Status),
		analysis,
		doc.FailureReason,
		distribution,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + docColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *Store) Update(ctx context.Context, id string, mutate func(*model.Document) error) (*model.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(doc); err != nil {
		return nil, err
	}
	analysis, distribution, err := marshalOptional(doc)
	if err != nil {
		return nil, err
	}
	const q = `
		UPDATE documents
		SET status = $2, analysis = $3, failure_reason = $4, distribution = $5
		WHERE id = $1
	`
	if _, err := s.db.ExecContext(ctx, q, id, string(doc.Status), analysis, doc.FailureReason, distribution); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) List(ctx context.Context) ([]model.Document, error) {
	const q = `SELECT ` + docColumns + ` FROM documents ORDER BY uploaded_at DESC, id ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]model.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Store) AddDistribution(ctx context.Context, docID string, d model.Distribution) error {
	const q = `
		INSERT INTO distributions (id, document_id, recipient, sent_at, delivered, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, q, uuid.New().String(), docID, d.Recipient, d.SentAt, d.Delivered, d.Detail)
	return err
}

func (s *Store) ListDistributions(ctx context.Context, docID string) ([]model.Distribution, error) {
	if _, err := s.Get(ctx, docID); err != nil {
		return nil, err
	}
	const q = `
		SELECT recipient, sent_at, delivered, detail
		FROM distributions
		WHERE document_id = $1
		ORDER BY sent_at ASC
	`
	rows, err := s.db.QueryContext(ctx, q, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hist := make([]model.Distribution, 0)
	for rows.Next() {
		var d model.Distribution
		if err := rows.Scan(&d.Recipient, &d.SentAt, &d.Delivered, &d.Detail); err != nil {
			return nil, err
		}
		hist = append(hist, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hist, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		doc          model.Document
		status       string
		analysis     []byte
		distribution []byte
	)
	if err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.StoragePath,
		&doc.SizeBytes,
		&doc.ContentType,
		&doc.UploadedAt,
		&status,
		&analysis,
		&doc.FailureReason,
		&distribution,
	); err != nil {
		return nil, err
	}
	doc.Status = model.Status(status)
	if len(analysis) > 0 {
		var a model.DocumentAnalysis
		if err := json.Unmarshal(analysis, &a); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
		doc.Analysis = &a
	}
	if len(distribution) > 0 {
		var d model.Distribution
		if err := json.Unmarshal(distribution, &d); err != nil {
			return nil, fmt.Errorf("decode distribution: %w", err)
		}
		doc.Distribution = &d
	}
	return &doc, nil
}

// marshalOptional encodes the nullable JSONB columns. A nil field maps to SQL NULL.
func marshalOptional(doc *model.Document) (analysis, distribution any, err error) {
	if doc.Analysis != nil {
		b, err := json.Marshal(doc.Analysis)
		if err != nil {
			return nil, nil, fmt.Errorf("encode analysis: %w", err)
		}
		analysis = b
	}
	if doc.Distribution != nil {
		b, err := json.Marshal(doc.Distribution)
		if err != nil {
			return nil, nil, fmt.Errorf("encode distribution: %w", err)
		}
		distribution = b
	}
	return analysis, distribution, nil
}
