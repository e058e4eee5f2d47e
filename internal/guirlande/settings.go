package guirlande

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AccessMode controls who may drive the light without logging in.
type AccessMode string

// Access modes.
const (
	// AccessPrivate restricts the light to authenticated users.
	AccessPrivate AccessMode = "PRIVATE"

	// AccessPublic lets anyone holding the current access code in.
	AccessPublic AccessMode = "PUBLIC"
)

// Valid reports whether m is a known access mode.
func (m AccessMode) Valid() bool {
	return m == AccessPrivate || m == AccessPublic
}

// Settings is the persisted Guirlande state: the access gate, the last
// displayed colour and the rotation engine state. A single row backs
// it; the row always exists.
type Settings struct {
	AccessMode      AccessMode `json:"access_mode"`
	AccessCode      string     `json:"-"`
	Red             int        `json:"red"`
	Green           int        `json:"green"`
	Blue            int        `json:"blue"`
	ActivePreset    string     `json:"active_preset"`
	RotationEnabled bool       `json:"rotation_enabled"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// SettingsRepository defines persistence for the Guirlande settings row.
type SettingsRepository interface {
	// Get retrieves the settings row.
	Get(ctx context.Context) (*Settings, error)

	// Save persists the settings row and bumps UpdatedAt.
	Save(ctx context.Context, s *Settings) error
}

// SQLiteSettingsRepository implements SettingsRepository using SQLite.
type SQLiteSettingsRepository struct {
	db *sql.DB
}

// NewSQLiteSettingsRepository creates a new SQLite-backed settings
// repository. The schema migration seeds the single settings row.
func NewSQLiteSettingsRepository(db *sql.DB) *SQLiteSettingsRepository {
	return &SQLiteSettingsRepository{db: db}
}

// Get retrieves the settings row.
func (r *SQLiteSettingsRepository) Get(ctx context.Context) (*Settings, error) {
	query := `SELECT access_mode, access_code, red, green, blue,
		active_preset, rotation_enabled, updated_at
		FROM guirlande_settings WHERE id = 1`

	var (
		s         Settings
		rotation  int
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.AccessMode, &s.AccessCode, &s.Red, &s.Green, &s.Blue,
		&s.ActivePreset, &rotation, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("querying guirlande settings: %w", err)
	}

	s.RotationEnabled = rotation != 0
	s.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &s, nil
}

// Save persists the settings row and bumps UpdatedAt.
func (r *SQLiteSettingsRepository) Save(ctx context.Context, s *Settings) error {
	s.UpdatedAt = time.Now().UTC()

	query := `UPDATE guirlande_settings SET access_mode = ?, access_code = ?,
		red = ?, green = ?, blue = ?, active_preset = ?,
		rotation_enabled = ?, updated_at = ?
		WHERE id = 1`

	rotation := 0
	if s.RotationEnabled {
		rotation = 1
	}
	_, err := r.db.ExecContext(ctx, query,
		string(s.AccessMode), s.AccessCode, s.Red, s.Green, s.Blue,
		s.ActivePreset, rotation, s.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving guirlande settings: %w", err)
	}
	return nil
}
