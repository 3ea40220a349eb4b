package dal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

// PostgresStore keeps the catalog in PostgreSQL
type PostgresStore struct {
	sqlCatalog
}

// NewPostgresStore connects to PostgreSQL, retrying while cluster DNS settles
func NewPostgresStore(connString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	// CloudNativePG pool sizing; the catalog is read at startup only
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if err := pingWithRetry(db, 5, 5*time.Second); err != nil {
		db.Close()
		return nil, err
	}

	s := &PostgresStore{sqlCatalog{db: db, numbered: true}}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func pingWithRetry(db *sql.DB, attempts int, delay time.Duration) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		err := db.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("Postgres ping failed", "attempt", i+1, "error", err)
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return fmt.Errorf("failed to ping postgres after %d retries: %w", attempts, lastErr)
}

func (p *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fighters (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		set_name TEXT NOT NULL,
		range_class TEXT NOT NULL,
		image_url TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
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
		win_pct DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (fighter_id, opponent_id)
	);

	CREATE INDEX IF NOT EXISTS idx_fighters_set ON fighters(set_name);
	CREATE INDEX IF NOT EXISTS idx_win_rates_opponent ON win_rates(opponent_id);
	`
	if _, err := p.db.Exec(schema); err != nil {
		return fmt.Errorf("create postgres schema: %w", err)
	}
	return nil
}

func (p *PostgresStore) Name() string { return "postgres" }

// Load reads the whole catalog
func (p *PostgresStore) Load(ctx context.Context) (catalog.Data, error) {
	return p.load(ctx)
}

// LoadMatrix reads only the win rates
func (p *PostgresStore) LoadMatrix(ctx context.Context) (models.WinMatrix, error) {
	return p.loadMatrix(ctx)
}

// Import replaces the stored catalog
func (p *PostgresStore) Import(ctx context.Context, data catalog.Data) error {
	return p.importData(ctx, data)
}

// SeedIfEmpty imports data when the fighters table has no rows
func (p *PostgresStore) SeedIfEmpty(ctx context.Context, data catalog.Data) error {
	n, err := p.count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	logger.Info("Seeding empty Postgres catalog", "fighters", len(data.Fighters))
	return p.importData(ctx, data)
}

// Close closes the connection pool
func (p *PostgresStore) Close() error {
	return p.db.Close()
}
