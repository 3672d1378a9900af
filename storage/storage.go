package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Generation is one recorded page generation. It is an audit record of
// what was rendered and where; it is never used to serve or skip API
// requests.
type Generation struct {
	ID            int64
	StoryID       int
	Title         string
	CharacterName string // empty when the story was requested by ID
	OutputPath    string
	GeneratedAt   int64 // Unix timestamp
}

// Store provides SQLite-backed persistence for the generation history.
type Store struct {
	db *sql.DB
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS generations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	story_id INTEGER NOT NULL,
	title TEXT,
	character_name TEXT,
	output_path TEXT,
	generated_at INTEGER NOT NULL
);
`

// New opens the SQLite database at dbPath, creates tables if they don't exist, and returns a Store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add records a completed page generation. GeneratedAt defaults to the
// current time when zero.
func (s *Store) Add(g *Generation) error {
	at := g.GeneratedAt
	if at == 0 {
		at = time.Now().Unix()
	}
	res, err := s.db.Exec(
		`INSERT INTO generations (story_id, title, character_name, output_path, generated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		g.StoryID, g.Title, g.CharacterName, g.OutputPath, at,
	)
	if err != nil {
		return fmt.Errorf("storage: record generation of story %d: %w", g.StoryID, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		g.ID = id
	}
	g.GeneratedAt = at
	return nil
}

// Recent returns up to limit generations, newest first.
func (s *Store) Recent(limit int) ([]Generation, error) {
	rows, err := s.db.Query(
		`SELECT id, story_id, title, character_name, output_path, generated_at
		 FROM generations ORDER BY generated_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list recent generations: %w", err)
	}
	defer rows.Close()

	var out []Generation
	for rows.Next() {
		var g Generation
		if err := rows.Scan(&g.ID, &g.StoryID, &g.Title, &g.CharacterName, &g.OutputPath, &g.GeneratedAt); err != nil {
			return nil, fmt.Errorf("storage: scan generation: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate generations: %w", err)
	}
	return out, nil
}
