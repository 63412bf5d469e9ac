package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/chokepoint/internal/db"
	"github.com/sells-group/chokepoint/internal/model"
)

// PostgresStore implements Store using pgxpool. Result rows are loaded with
// COPY.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	source       TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	summary      JSONB,
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS link_loads (
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	link_id      BIGINT NOT NULL,
	from_node_id BIGINT NOT NULL,
	to_node_id   BIGINT NOT NULL,
	d_zone_id    BIGINT,
	capacity     DOUBLE PRECISION NOT NULL,
	volume       DOUBLE PRECISION NOT NULL,
	utilization  DOUBLE PRECISION NOT NULL,
	overloaded   BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS critical_nodes (
	run_id           TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	node_id          BIGINT NOT NULL,
	overloaded_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS node_proximity (
	run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	node_id   BIGINT NOT NULL,
	degree    INTEGER NOT NULL,
	located   BOOLEAN NOT NULL,
	x_coord   DOUBLE PRECISION,
	y_coord   DOUBLE PRECISION,
	buffer    BYTEA,
	zone_area DOUBLE PRECISION NOT NULL,
	poi_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_link_loads_run_id ON link_loads(run_id);
CREATE INDEX IF NOT EXISTS idx_critical_nodes_run_id ON critical_nodes(run_id);
CREATE INDEX IF NOT EXISTS idx_node_proximity_run_id ON node_proximity(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, kind model.RunKind, source string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, kind, source, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, string(kind), source, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Kind:      kind,
		Source:    source,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, summary = $2, completed_at = $3 WHERE id = $4`,
		string(model.RunStatusComplete), summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrRunNotFound, "postgres: run %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, runErr error) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, completed_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), errorText(runErr), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrRunNotFound, "postgres: run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, kind, source, status, summary, error, created_at, completed_at FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrRunNotFound, "postgres: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, source, status, summary, error, created_at, completed_at FROM runs
		 WHERE ($1 = '' OR kind = $1) AND ($2 = '' OR status = $2)
		 ORDER BY created_at DESC LIMIT $3`,
		string(filter.Kind), string(filter.Status), listLimit(filter),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) SaveLinkLoads(ctx context.Context, runID string, loads []model.LinkLoad) (int64, error) {
	rows := make([][]any, len(loads))
	for i, l := range loads {
		rows[i] = linkLoadRow(runID, l)
	}
	return db.CopyInTx(ctx, s.pool, "link_loads", linkLoadColumns, rows)
}

func (s *PostgresStore) SaveCriticalNodes(ctx context.Context, runID string, nodes []model.CriticalNode) (int64, error) {
	rows := make([][]any, len(nodes))
	for i, n := range nodes {
		rows[i] = criticalNodeRow(runID, n)
	}
	return db.CopyFrom(ctx, s.pool, "critical_nodes", criticalNodeColumns, rows)
}

func (s *PostgresStore) SaveProximity(ctx context.Context, runID string, nodes []model.NodeProximity, crs string) (int64, error) {
	rows := make([][]any, len(nodes))
	for i, n := range nodes {
		row, err := proximityRow(runID, n, crs)
		if err != nil {
			return 0, err
		}
		rows[i] = row
	}
	return db.CopyFrom(ctx, s.pool, "node_proximity", proximityColumns, rows)
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var kind, status string
	var summaryJSON []byte
	var errText *string

	if err := row.Scan(&r.ID, &kind, &r.Source, &status, &summaryJSON, &errText, &r.CreatedAt, &r.CompletedAt); err != nil {
		return nil, err
	}
	r.Kind = model.RunKind(kind)
	r.Status = model.RunStatus(status)
	if errText != nil {
		r.Error = *errText
	}
	if err := decodeSummary(&r, string(summaryJSON)); err != nil {
		return nil, err
	}
	return &r, nil
}
