// Package clickhouse derives the win matrix from recorded match results.
package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Billy-Davies-2/fighter-matchup/internal/config"
	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

// Defaults for the aggregation window
const (
	DefaultWindowDays = 365
	DefaultMinGames   = 5
)

// Client reads match results from ClickHouse
type Client struct {
	conn       driver.Conn
	windowDays int
	minGames   uint64
}

// PairStat is the aggregate record for one ordered pairing
type PairStat struct {
	FighterID  string
	OpponentID string
	Wins       uint64
	Games      uint64
}

// NewClient creates a new ClickHouse client
func NewClient(cfg config.ClickHouseConfig) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Client{conn: conn, windowDays: DefaultWindowDays, minGames: DefaultMinGames}, nil
}

func (c *Client) Name() string { return "clickhouse" }

// PairStats aggregates match results into per-pair win counts, counting
// each match once from each side
func (c *Client) PairStats(ctx context.Context) ([]PairStat, error) {
	query := `
		SELECT fighter_id, opponent_id, sum(won) AS wins, count() AS games
		FROM (
			SELECT winner_id AS fighter_id, loser_id AS opponent_id, toUInt64(1) AS won
			FROM match_results
			WHERE played_at >= now() - toIntervalDay(?)
			UNION ALL
			SELECT loser_id AS fighter_id, winner_id AS opponent_id, toUInt64(0) AS won
			FROM match_results
			WHERE played_at >= now() - toIntervalDay(?)
		)
		GROUP BY fighter_id, opponent_id
	`

	rows, err := c.conn.Query(ctx, query, c.windowDays, c.windowDays)
	if err != nil {
		return nil, fmt.Errorf("query match results: %w", err)
	}
	defer rows.Close()

	var stats []PairStat
	for rows.Next() {
		var s PairStat
		if err := rows.Scan(&s.FighterID, &s.OpponentID, &s.Wins, &s.Games); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// LoadMatrix builds the win matrix from match results
func (c *Client) LoadMatrix(ctx context.Context) (models.WinMatrix, error) {
	stats, err := c.PairStats(ctx)
	if err != nil {
		return nil, err
	}
	m := BuildMatrix(stats, c.minGames)
	logger.Info("Loaded win matrix from ClickHouse", "pairs", len(stats), "rows", len(m))
	return m, nil
}

// BuildMatrix converts pair statistics to percentages. Pairs with fewer than
// minGames games are left out and resolve as unknown.
func BuildMatrix(stats []PairStat, minGames uint64) models.WinMatrix {
	m := models.WinMatrix{}
	for _, s := range stats {
		if s.Games == 0 || s.Games < minGames || s.FighterID == s.OpponentID {
			continue
		}
		if m[s.FighterID] == nil {
			m[s.FighterID] = map[string]float64{}
		}
		m[s.FighterID][s.OpponentID] = 100 * float64(s.Wins) / float64(s.Games)
	}
	return m
}

// Ping checks the connection, for health checks
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
