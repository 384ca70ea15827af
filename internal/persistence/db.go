// Package persistence saves and restores a live simulation in SQLite so a
// restarted server resumes where it stopped.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/oscillator"
	"github.com/san-kum/tetrasim/internal/sim"
)

// DB wraps a SQLite connection for simulation state.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS oscillators (
		position INTEGER NOT NULL,
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		sim_time REAL NOT NULL,
		w1 REAL NOT NULL,
		w2 REAL NOT NULL,
		w3 REAL NOT NULL,
		w4 REAL NOT NULL,
		params_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_oscillators_position ON oscillators(position);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type oscillatorRow struct {
	Position   int     `db:"position"`
	ID         string  `db:"id"`
	CreatedAt  int64   `db:"created_at"`
	SimTime    float64 `db:"sim_time"`
	W1         float64 `db:"w1"`
	W2         float64 `db:"w2"`
	W3         float64 `db:"w3"`
	W4         float64 `db:"w4"`
	ParamsJSON string  `db:"params_json"`
}

// Meta keys.
const (
	metaSimulationTime     = "simulation_time"
	metaGlobalCoupling     = "global_coupling"
	metaEnvironmentalNoise = "environmental_noise"
	metaUpdateRate         = "update_rate"
	metaSavedAt            = "saved_at"
)

// SaveSimulation writes every oscillator and the global settings (full replace).
// The run flag is not persisted; a restored simulation starts stopped.
func (db *DB) SaveSimulation(c *sim.Controller) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM oscillators"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO oscillators
		(position, id, created_at, sim_time, w1, w2, w3, w4, params_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ids := c.IDs()
	for i, id := range ids {
		o, _ := c.Lookup(id)
		paramsJSON, err := json.Marshal(o.Params)
		if err != nil {
			return fmt.Errorf("encode params %s: %w", id, err)
		}
		s := o.State()
		if _, err := stmt.Exec(i, id, o.CreatedAt.UnixMilli(), o.Time(), s.W1, s.W2, s.W3, s.W4, string(paramsJSON)); err != nil {
			return err
		}
	}

	settings := c.Settings()
	meta := map[string]string{
		metaSimulationTime:     strconv.FormatFloat(c.Time(), 'g', -1, 64),
		metaGlobalCoupling:     strconv.FormatFloat(settings.GlobalCoupling, 'g', -1, 64),
		metaEnvironmentalNoise: strconv.FormatFloat(settings.EnvironmentalNoise, 'g', -1, 64),
		metaUpdateRate:         strconv.Itoa(settings.UpdateRate),
		metaSavedAt:            time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.Exec("INSERT OR REPLACE INTO sim_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("simulation saved", "oscillators", len(ids), "time", c.Time())
	return nil
}

// GetMeta retrieves a metadata value. Missing keys return dynamo.ErrNotFound.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM sim_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta %s: %w", key, dynamo.ErrNotFound)
	}
	return value, err
}

// LoadSimulation restores the saved state into c, which should be empty.
// It returns the number of oscillators restored; zero with a nil error means
// nothing was saved.
func (db *DB) LoadSimulation(c *sim.Controller) (int, error) {
	var rows []oscillatorRow
	if err := db.conn.Select(&rows, "SELECT * FROM oscillators ORDER BY position"); err != nil {
		return 0, fmt.Errorf("load oscillators: %w", err)
	}

	if err := db.loadSettings(c); err != nil {
		return 0, err
	}

	for _, r := range rows {
		var params dynamo.Params
		if err := json.Unmarshal([]byte(r.ParamsJSON), &params); err != nil {
			return 0, fmt.Errorf("decode params %s: %w", r.ID, err)
		}
		state := dynamo.StateVector{W1: r.W1, W2: r.W2, W3: r.W3, W4: r.W4}
		o := oscillator.Restore(r.ID, params, time.UnixMilli(r.CreatedAt), r.SimTime, state)
		if err := c.Add(o); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func (db *DB) loadSettings(c *sim.Controller) error {
	var u sim.ConfigUpdate
	readFloat := func(key string) (*float64, error) {
		v, err := db.GetMeta(key)
		if errors.Is(err, dynamo.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("meta %s: %w", key, err)
		}
		return &f, nil
	}

	var err error
	if u.GlobalCoupling, err = readFloat(metaGlobalCoupling); err != nil {
		return err
	}
	if u.EnvironmentalNoise, err = readFloat(metaEnvironmentalNoise); err != nil {
		return err
	}
	rate, err := readFloat(metaUpdateRate)
	if err != nil {
		return err
	}
	if rate != nil {
		r := int(*rate)
		u.UpdateRate = &r
	}
	c.Configure(u)

	t, err := readFloat(metaSimulationTime)
	if err != nil {
		return err
	}
	if t != nil {
		c.SetTime(*t)
	}
	return nil
}
