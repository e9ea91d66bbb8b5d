package experiment

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/YuminosukeSato/invopt/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT    NOT NULL,
	run_index   INTEGER NOT NULL,
	seed        INTEGER NOT NULL,
	method      TEXT    NOT NULL,
	train_y     REAL    NOT NULL,
	test_y      REAL    NOT NULL,
	train_z     REAL    NOT NULL,
	test_z      REAL    NOT NULL,
	iterations  INTEGER NOT NULL,
	started_at  TEXT    NOT NULL,
	duration_ms INTEGER NOT NULL,
	PRIMARY KEY (run_id, method)
);

CREATE TABLE IF NOT EXISTS thetas (
	run_id TEXT    NOT NULL,
	method TEXT    NOT NULL,
	dim    INTEGER NOT NULL,
	theta  BLOB    NOT NULL,
	PRIMARY KEY (run_id, method),
	FOREIGN KEY (run_id, method) REFERENCES runs(run_id, method)
);
`

// Store persists experiment results in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path and migrates the schema.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", schema} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "migrate")
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun writes every method of res, and the θ of the learned ones, in a
// single transaction.
func (s *Store) SaveRun(ctx context.Context, res RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	id := res.ID.String()
	for _, m := range res.Methods {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO runs (run_id, run_index, seed, method, train_y, test_y, train_z, test_z, iterations, started_at, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, res.Run, int64(res.Seed), m.Method, m.TrainY, m.TestY, m.TrainZ, m.TestZ,
			m.Iterations, res.Started.Format(time.RFC3339Nano), res.Duration.Milliseconds(),
		)
		if err != nil {
			return errors.Wrapf(err, "insert run %s/%s", id, m.Method)
		}
		if m.Theta == nil {
			continue
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO thetas (run_id, method, dim, theta) VALUES (?, ?, ?, ?)`,
			id, m.Method, len(m.Theta), encodeTheta(m.Theta),
		)
		if err != nil {
			return errors.Wrapf(err, "insert theta %s/%s", id, m.Method)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// LoadTheta returns the θ stored for (runID, method). A missing row wraps
// sql.ErrNoRows.
func (s *Store) LoadTheta(ctx context.Context, runID uuid.UUID, method string) ([]float64, error) {
	var (
		dim  int
		blob []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT dim, theta FROM thetas WHERE run_id = ? AND method = ?`, runID.String(), method,
	).Scan(&dim, &blob)
	if err != nil {
		return nil, errors.Wrapf(err, "load theta %s/%s", runID, method)
	}
	if len(blob) != 8*dim {
		return nil, errors.NewDimensionError("experiment.LoadTheta", 8*dim, len(blob), 0)
	}
	return decodeTheta(blob), nil
}

// ListRuns returns the stored runs ordered by run index, without θ.
func (s *Store) ListRuns(ctx context.Context) ([]RunResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, run_index, seed, method, train_y, test_y, train_z, test_z, iterations, started_at, duration_ms
		 FROM runs ORDER BY run_index, started_at, run_id, rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	var out []RunResult
	for rows.Next() {
		var (
			id, started string
			seed        int64
			durationMs  int64
			run         int
			m           MethodResult
		)
		if err := rows.Scan(&id, &run, &seed, &m.Method, &m.TrainY, &m.TestY, &m.TrainZ, &m.TestZ,
			&m.Iterations, &started, &durationMs); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}

		if n := len(out); n == 0 || out[n-1].ID.String() != id {
			uid, err := uuid.Parse(id)
			if err != nil {
				return nil, errors.Wrapf(err, "parse run id %q", id)
			}
			ts, err := time.Parse(time.RFC3339Nano, started)
			if err != nil {
				return nil, errors.Wrapf(err, "parse start time %q", started)
			}
			out = append(out, RunResult{
				ID:       uid,
				Run:      run,
				Seed:     uint64(seed),
				Started:  ts,
				Duration: time.Duration(durationMs) * time.Millisecond,
			})
		}
		last := &out[len(out)-1]
		last.Methods = append(last.Methods, m)
	}
	return out, errors.Wrap(rows.Err(), "list runs")
}

func encodeTheta(theta []float64) []byte {
	buf := make([]byte, 8*len(theta))
	for i, v := range theta {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeTheta(b []byte) []float64 {
	theta := make([]float64, len(b)/8)
	for i := range theta {
		theta[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return theta
}
