// Package sqlite provides a SQLite-backed document metadata store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO. The schema is managed through versioned
// migrations embedded in the migrations/ directory.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docqa/internal/adapters/driven/docstore/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store is a SQLite-backed document metadata store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store under the given data directory,
// creating the directory and running pending migrations.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "documents.db")

	// WAL mode for concurrent reader/writer access
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending up migrations in version order.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// Create inserts a new document row.
func (s *Store) Create(ctx context.Context, doc domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, workspace_id, name, media_type, status, error_message, blob_bucket, blob_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.WorkspaceID, doc.Name, doc.MediaType, string(doc.Status),
		doc.ErrorMessage, doc.BlobBucket, doc.BlobKey, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// Get retrieves a document by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, name, media_type, status, error_message, blob_bucket, blob_key, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	var status string
	if err := row.Scan(&doc.ID, &doc.WorkspaceID, &doc.Name, &doc.MediaType, &status,
		&doc.ErrorMessage, &doc.BlobBucket, &doc.BlobKey, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

// UpdateStatus transitions a document's lifecycle state. The error
// message is stored with FAILED transitions and cleared otherwise.
func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errorMessage string) error {
	if status != domain.StatusFailed {
		errorMessage = ""
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, error_message = ?, updated_at = ? WHERE id = ?
	`, string(status), errorMessage, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating document status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	return nil
}

// Delete removes a document row.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	return nil
}

// ListByWorkspace returns all documents in a workspace, newest first.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, name, media_type, status, error_message, blob_bucket, blob_key, created_at, updated_at
		FROM documents WHERE workspace_id = ? ORDER BY created_at DESC
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		var status string
		if err := rows.Scan(&doc.ID, &doc.WorkspaceID, &doc.Name, &doc.MediaType, &status,
			&doc.ErrorMessage, &doc.BlobBucket, &doc.BlobKey, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.Status = domain.DocumentStatus(status)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}
