// Package history persists accepted recommendations in a local SQLite database.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultListLimit is the number of entries returned when no limit is given.
const DefaultListLimit = 20

// Entry is one recorded recommendation.
type Entry struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Query     string    `json:"query"`
	Title     string    `json:"title"`
	Verbal    string    `json:"verbal,omitempty"`
	Reasons   []string  `json:"reasons,omitempty"`
}

// DB wraps the history database connection.
type DB struct {
	db *sql.DB
}

// Open opens or creates the history database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS recommendations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at INTEGER NOT NULL,
			query TEXT NOT NULL,
			title TEXT NOT NULL,
			verbal TEXT,
			reasons_json TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_recommendations_created
			ON recommendations(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Record inserts an accepted recommendation and returns its row ID.
func (d *DB) Record(e Entry) (int64, error) {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	reasons, err := json.Marshal(e.Reasons)
	if err != nil {
		return 0, fmt.Errorf("encoding reasons: %w", err)
	}

	res, err := d.db.Exec(
		`INSERT INTO recommendations (created_at, query, title, verbal, reasons_json)
		 VALUES (?, ?, ?, ?, ?)`,
		created.Unix(), e.Query, e.Title, e.Verbal, string(reasons),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting recommendation: %w", err)
	}

	return res.LastInsertId()
}

// List returns recorded recommendations, newest first.
func (d *DB) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := d.db.Query(
		`SELECT id, created_at, query, title, verbal, reasons_json
		 FROM recommendations
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recommendations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			createdUnix int64
			reasonsJSON string
		)
		if err := rows.Scan(&e.ID, &createdUnix, &e.Query, &e.Title, &e.Verbal, &reasonsJSON); err != nil {
			return nil, fmt.Errorf("scanning recommendation: %w", err)
		}
		e.CreatedAt = time.Unix(createdUnix, 0)
		if reasonsJSON != "" {
			if err := json.Unmarshal([]byte(reasonsJSON), &e.Reasons); err != nil {
				return nil, fmt.Errorf("decoding reasons for entry %d: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading recommendations: %w", err)
	}

	return entries, nil
}
