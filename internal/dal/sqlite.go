package dal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

// SQLiteStore keeps the catalog in a SQLite database
type SQLiteStore struct {
	sqlCatalog
}

// NewSQLiteStore opens (and creates if needed) a SQLite catalog database
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// :memory: databases exist per connection
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{sqlCatalog{db: db}}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fighters (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		set_name TEXT NOT NULL,
		range_class TEXT NOT NULL,
		image_url TEXT
	);

	CREATE TABLE IF NOT EXISTS fighter_playstyles (
		fighter_id TEXT NOT NULL REFERENCES fighters(id) ON DELETE CASCADE,
		playstyle TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (fighter_id, playstyle)
	);

	CREATE TABLE IF NOT EXISTS playstyle_definitions (
		tag TEXT PRIMARY KEY,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS win_rates (
		fighter_id TEXT NOT NULL,
		opponent_id TEXT NOT NULL,
		win_pct REAL NOT NULL,
		PRIMARY KEY (fighter_id, opponent_id)
	);

	CREATE INDEX IF NOT EXISTS idx_fighters_set ON fighters(set_name);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

// Load reads the whole catalog
func (s *SQLiteStore) Load(ctx context.Context) (catalog.Data, error) {
	return s.load(ctx)
}

// LoadMatrix reads only the win rates
func (s *SQLiteStore) LoadMatrix(ctx context.Context) (models.WinMatrix, error) {
	return s.loadMatrix(ctx)
}

// Import replaces the stored catalog
func (s *SQLiteStore) Import(ctx context.Context, data catalog.Data) error {
	return s.importData(ctx, data)
}

// SeedIfEmpty imports data when the fighters table has no rows
func (s *SQLiteStore) SeedIfEmpty(ctx context.Context, data catalog.Data) error {
	n, err := s.count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	logger.Info("Seeding empty SQLite catalog", "fighters", len(data.Fighters))
	return s.importData(ctx, data)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
