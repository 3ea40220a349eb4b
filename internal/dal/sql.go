package dal

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

// sqlCatalog holds the queries shared by the SQLite and Postgres stores.
// Queries are written with ? placeholders and rebound per driver.
type sqlCatalog struct {
	db       *sql.DB
	numbered bool // $1 placeholders
}

func (s *sqlCatalog) q(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlCatalog) load(ctx context.Context) (catalog.Data, error) {
	data := catalog.Data{Definitions: map[string]string{}}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, set_name, range_class, image_url FROM fighters ORDER BY name`)
	if err != nil {
		return data, fmt.Errorf("query fighters: %w", err)
	}
	index := map[string]int{}
	for rows.Next() {
		var f models.Fighter
		var image sql.NullString
		var r string
		if err := rows.Scan(&f.ID, &f.Name, &f.Set, &r, &image); err != nil {
			rows.Close()
			return data, fmt.Errorf("scan fighter: %w", err)
		}
		f.Range = models.Range(r)
		f.ImageURL = image.String
		index[f.ID] = len(data.Fighters)
		data.Fighters = append(data.Fighters, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return data, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT fighter_id, playstyle FROM fighter_playstyles ORDER BY fighter_id, position`)
	if err != nil {
		return data, fmt.Errorf("query playstyles: %w", err)
	}
	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			rows.Close()
			return data, fmt.Errorf("scan playstyle: %w", err)
		}
		if i, ok := index[id]; ok {
			data.Fighters[i].Playstyles = append(data.Fighters[i].Playstyles, tag)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return data, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT tag, description FROM playstyle_definitions`)
	if err != nil {
		return data, fmt.Errorf("query playstyle definitions: %w", err)
	}
	for rows.Next() {
		var tag, desc string
		if err := rows.Scan(&tag, &desc); err != nil {
			rows.Close()
			return data, fmt.Errorf("scan playstyle definition: %w", err)
		}
		data.Definitions[tag] = desc
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return data, err
	}

	data.Matrix, err = s.loadMatrix(ctx)
	return data, err
}

func (s *sqlCatalog) loadMatrix(ctx context.Context) (models.WinMatrix, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fighter_id, opponent_id, win_pct FROM win_rates`)
	if err != nil {
		return nil, fmt.Errorf("query win rates: %w", err)
	}
	defer rows.Close()

	m := models.WinMatrix{}
	for rows.Next() {
		var a, b string
		var pct float64
		if err := rows.Scan(&a, &b, &pct); err != nil {
			return nil, fmt.Errorf("scan win rate: %w", err)
		}
		if m[a] == nil {
			m[a] = map[string]float64{}
		}
		m[a][b] = pct
	}
	return m, rows.Err()
}

// importData replaces every table's contents in one transaction
func (s *sqlCatalog) importData(ctx context.Context, data catalog.Data) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"win_rates", "fighter_playstyles", "playstyle_definitions", "fighters"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, f := range data.Fighters {
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO fighters (id, name, set_name, range_class, image_url) VALUES (?, ?, ?, ?, ?)`),
			f.ID, f.Name, f.Set, string(f.Range), f.ImageURL); err != nil {
			return fmt.Errorf("insert fighter %s: %w", f.ID, err)
		}
		seen := map[string]bool{}
		for pos, tag := range f.Playstyles {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO fighter_playstyles (fighter_id, playstyle, position) VALUES (?, ?, ?)`),
				f.ID, tag, pos); err != nil {
				return fmt.Errorf("insert playstyle %s/%s: %w", f.ID, tag, err)
			}
		}
	}

	for tag, desc := range data.Definitions {
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO playstyle_definitions (tag, description) VALUES (?, ?)`), tag, desc); err != nil {
			return fmt.Errorf("insert playstyle definition %s: %w", tag, err)
		}
	}

	for a, row := range data.Matrix {
		for b, pct := range row {
			if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO win_rates (fighter_id, opponent_id, win_pct) VALUES (?, ?, ?)`), a, b, pct); err != nil {
				return fmt.Errorf("insert win rate %s/%s: %w", a, b, err)
			}
		}
	}

	return tx.Commit()
}

func (s *sqlCatalog) count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fighters`).Scan(&n)
	return n, err
}
