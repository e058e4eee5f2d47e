package module

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the persistence operations for module records.
// This abstraction allows for different implementations (SQLite, mock)
// and enables unit testing without database dependencies.
type Repository interface {
	// List retrieves all module records.
	List(ctx context.Context) ([]Record, error)

	// GetByID retrieves a record by module id.
	// Returns ErrNotFound if the record does not exist.
	GetByID(ctx context.Context, id string) (*Record, error)

	// Create inserts a new record, setting its timestamps.
	// Returns ErrExists if the id is already taken.
	Create(ctx context.Context, rec *Record) error

	// Save persists the mutable fields of an existing record (name,
	// token, validated, metadata) and bumps UpdatedAt.
	// Returns ErrNotFound if the record does not exist.
	Save(ctx context.Context, rec *Record) error

	// Delete removes a record by id.
	// Returns ErrNotFound if the record does not exist.
	Delete(ctx context.Context, id string) error

	// Count returns the number of persisted records.
	Count(ctx context.Context) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const recordColumns = "id, type, name, token, validated, metadata, created_at, updated_at"

// List retrieves all module records ordered by creation time.
func (r *SQLiteRepository) List(ctx context.Context) ([]Record, error) {
	query := "SELECT " + recordColumns + " FROM modules ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying modules: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning module: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating modules: %w", err)
	}
	return records, nil
}

// GetByID retrieves a record by module id.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	query := "SELECT " + recordColumns + " FROM modules WHERE id = ?"

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying module by id: %w", err)
	}
	return rec, nil
}

// Create inserts a new record.
func (r *SQLiteRepository) Create(ctx context.Context, rec *Record) error {
	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	query := `
		INSERT INTO modules (id, type, name, token, validated, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		int(rec.Type),
		rec.Name,
		rec.Token,
		boolToInt(rec.Validated),
		string(metadataJSON),
		rec.CreatedAt.Format(time.RFC3339),
		rec.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrExists
		}
		return fmt.Errorf("inserting module: %w", err)
	}
	return nil
}

// Save persists the mutable fields of an existing record.
func (r *SQLiteRepository) Save(ctx context.Context, rec *Record) error {
	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	rec.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE modules
		SET name = ?, token = ?, validated = ?, metadata = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		rec.Name,
		rec.Token,
		boolToInt(rec.Validated),
		string(metadataJSON),
		rec.UpdatedAt.Format(time.RFC3339),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("updating module: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a record by id.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM modules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting module: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of persisted records.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM modules").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting modules: %w", err)
	}
	return count, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord scans a row into a Record.
func scanRecord(scanner rowScanner) (*Record, error) {
	var rec Record
	var moduleType, validated int
	var metadataJSON, createdAt, updatedAt string

	err := scanner.Scan(
		&rec.ID,
		&moduleType,
		&rec.Name,
		&rec.Token,
		&validated,
		&metadataJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Type = Type(moduleType)
	rec.Validated = validated != 0

	if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}

	rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	rec.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &rec, nil
}

// boolToInt converts a boolean to 0/1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
