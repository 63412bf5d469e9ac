package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/chokepoint/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	source       TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	summary      TEXT,
	error        TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS link_loads (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	link_id      INTEGER NOT NULL,
	from_node_id INTEGER NOT NULL,
	to_node_id   INTEGER NOT NULL,
	d_zone_id    INTEGER,
	capacity     REAL NOT NULL,
	volume       REAL NOT NULL,
	utilization  REAL NOT NULL,
	overloaded   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS critical_nodes (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	node_id          INTEGER NOT NULL,
	overloaded_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS node_proximity (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	node_id   INTEGER NOT NULL,
	degree    INTEGER NOT NULL,
	located   INTEGER NOT NULL,
	x_coord   REAL,
	y_coord   REAL,
	buffer    BLOB,
	zone_area REAL NOT NULL,
	poi_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_link_loads_run_id ON link_loads(run_id);
CREATE INDEX IF NOT EXISTS idx_critical_nodes_run_id ON critical_nodes(run_id);
CREATE INDEX IF NOT EXISTS idx_node_proximity_run_id ON node_proximity(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, kind model.RunKind, source string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, source, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(kind), source, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Kind:      kind,
		Source:    source,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, summary = ?, completed_at = ? WHERE id = ?`,
		string(model.RunStatusComplete), string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, runErr error) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), errorText(runErr), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, source, status, summary, error, created_at, completed_at FROM runs WHERE id = ?`,
		runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrRunNotFound, "sqlite: get run %s", runID)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, kind, source, status, summary, error, created_at, completed_at FROM runs WHERE 1=1`
	var args []any

	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveLinkLoads(ctx context.Context, runID string, loads []model.LinkLoad) (int64, error) {
	rows := make([][]any, len(loads))
	for i, l := range loads {
		rows[i] = linkLoadRow(runID, l)
	}
	return s.insertRows(ctx, "link_loads", linkLoadColumns, rows)
}

func (s *SQLiteStore) SaveCriticalNodes(ctx context.Context, runID string, nodes []model.CriticalNode) (int64, error) {
	rows := make([][]any, len(nodes))
	for i, n := range nodes {
		rows[i] = criticalNodeRow(runID, n)
	}
	return s.insertRows(ctx, "critical_nodes", criticalNodeColumns, rows)
}

func (s *SQLiteStore) SaveProximity(ctx context.Context, runID string, nodes []model.NodeProximity, crs string) (int64, error) {
	rows := make([][]any, len(nodes))
	for i, n := range nodes {
		row, err := proximityRow(runID, n, crs)
		if err != nil {
			return 0, err
		}
		rows[i] = row
	}
	return s.insertRows(ctx, "node_proximity", proximityColumns, rows)
}

// insertRows writes rows with one prepared statement in a single transaction.
func (s *SQLiteStore) insertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, insertSQL(table, columns))
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: prepare insert %s", table)
	}
	defer stmt.Close() //nolint:errcheck

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert %s", table)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tx")
	}
	return int64(len(rows)), nil
}

// helpers

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrRunNotFound, "sqlite: run %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var summaryJSON, errText sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&r.ID, &r.Kind, &r.Source, &r.Status, &summaryJSON, &errText, &r.CreatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := decodeSummary(&r, summaryJSON.String); err != nil {
		return nil, err
	}
	r.Error = errText.String
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

func decodeSummary(r *model.Run, data string) error {
	if data == "" || data == "null" {
		return nil
	}
	r.Summary = &model.RunSummary{}
	return eris.Wrap(json.Unmarshal([]byte(data), r.Summary), "store: unmarshal summary")
}
