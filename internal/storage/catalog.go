package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SweepRecord is one completed sampler pipeline of a dilution sweep.
type SweepRecord struct {
	RunID       string
	Name        string
	Response    string
	Dilution    float64
	NX          int
	Samples     int
	LimitPoints int
	LimitCycles int
	Created     time.Time
}

// Catalog indexes sweep results in a SQLite database.
type Catalog struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

func (c *Catalog) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path == "" {
		return errors.New("storage: catalog path is required")
	}
	if c.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", c.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	c.db = db
	return nil
}

func (c *Catalog) Record(ctx context.Context, rec SweepRecord) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO sweep_runs (run_id, name, response, dilution, nx, samples, limit_points, limit_cycles, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			samples = excluded.samples,
			limit_points = excluded.limit_points,
			limit_cycles = excluded.limit_cycles
	`, rec.RunID, rec.Name, rec.Response, rec.Dilution, rec.NX, rec.Samples,
		rec.LimitPoints, rec.LimitCycles, rec.Created.UTC().Format(time.RFC3339Nano))
	return err
}

// List returns every record ordered by dilution, then creation time.
func (c *Catalog) List(ctx context.Context) ([]SweepRecord, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, name, response, dilution, nx, samples, limit_points, limit_cycles, created
		FROM sweep_runs ORDER BY dilution, created
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SweepRecord
	for rows.Next() {
		var rec SweepRecord
		var created string
		if err := rows.Scan(&rec.RunID, &rec.Name, &rec.Response, &rec.Dilution, &rec.NX,
			&rec.Samples, &rec.LimitPoints, &rec.LimitCycles, &created); err != nil {
			return nil, err
		}
		if rec.Created, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *Catalog) getDB() (*sql.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.db == nil {
		return nil, errors.New("storage: catalog is not initialized")
	}
	return c.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sweep_runs (
			run_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			response TEXT NOT NULL,
			dilution REAL NOT NULL,
			nx INTEGER NOT NULL,
			samples INTEGER NOT NULL,
			limit_points INTEGER NOT NULL,
			limit_cycles INTEGER NOT NULL,
			created TEXT NOT NULL
		);
	`)
	return err
}
