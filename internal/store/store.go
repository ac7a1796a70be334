// Package store persists schema versions in a local SQLite file. Versions
// are opaque records of {id, schema, timestamp, tag, description}; the
// compiler only ever sees the decoded schema value.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/koba/schemaforge/internal/schema"
)

const createVersionsTable = `
	CREATE TABLE IF NOT EXISTS versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tag TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		schema_json TEXT NOT NULL
	);
`

// Version is one saved schema snapshot.
type Version struct {
	ID          int64
	Tag         string
	Description string
	CreatedAt   time.Time
	Schema      *schema.Schema
}

// Store is a SQLite-backed version store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the version store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open version store: %w", err)
	}
	if _, err := db.Exec(createVersionsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize version store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a schema snapshot and returns its version id.
func (s *Store) Save(sc *schema.Schema, tag, description string) (int64, error) {
	data, err := json.Marshal(sc)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal schema: %w", err)
	}

	res, err := s.db.Exec(
		"INSERT INTO versions (tag, description, created_at, schema_json) VALUES (?, ?, ?, ?)",
		tag, description, time.Now().UTC().Format(time.RFC3339), string(data),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert version: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read version id: %w", err)
	}
	return id, nil
}

// List returns all saved versions, newest first, without their schema
// payloads.
func (s *Store) List() ([]Version, error) {
	rows, err := s.db.Query("SELECT id, tag, description, created_at FROM versions ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		var v Version
		var createdAt string
		if err := rows.Scan(&v.ID, &v.Tag, &v.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			v.CreatedAt = t
		}
		versions = append(versions, v)
	}

	return versions, rows.Err()
}

// Load retrieves one version with its full schema.
func (s *Store) Load(id int64) (*Version, error) {
	row := s.db.QueryRow("SELECT id, tag, description, created_at, schema_json FROM versions WHERE id = ?", id)
	return scanVersion(row)
}

// LoadTag retrieves the most recent version carrying the tag.
func (s *Store) LoadTag(tag string) (*Version, error) {
	row := s.db.QueryRow("SELECT id, tag, description, created_at, schema_json FROM versions WHERE tag = ? ORDER BY id DESC LIMIT 1", tag)
	return scanVersion(row)
}

func scanVersion(row *sql.Row) (*Version, error) {
	var v Version
	var createdAt, schemaJSON string
	if err := row.Scan(&v.ID, &v.Tag, &v.Description, &createdAt, &schemaJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("version not found")
		}
		return nil, fmt.Errorf("failed to scan version: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		v.CreatedAt = t
	}
	var sc schema.Schema
	if err := json.Unmarshal([]byte(schemaJSON), &sc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	v.Schema = &sc

	return &v, nil
}
