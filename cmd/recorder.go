package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/chokepoint/internal/config"
	"github.com/sells-group/chokepoint/internal/model"
	"github.com/sells-group/chokepoint/internal/store"
)

func initStore(ctx context.Context, c config.StoreConfig) (store.Store, error) {
	st, err := store.Open(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// recorder tracks one stored run. A nil recorder records nothing.
type recorder struct {
	st  store.Store
	run *model.Run
}

func startRun(ctx context.Context, c config.StoreConfig, enabled bool, kind model.RunKind, source string) (*recorder, error) {
	if !enabled {
		return nil, nil
	}
	st, err := initStore(ctx, c)
	if err != nil {
		return nil, err
	}
	run, err := st.CreateRun(ctx, kind, source)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	zap.L().Info("recording run", zap.String("run_id", run.ID), zap.String("kind", string(kind)))
	return &recorder{st: st, run: run}, nil
}

// finish marks the run failed when err is set and complete otherwise, then
// closes the store. It returns err, or the store error when err is nil.
func (r *recorder) finish(ctx context.Context, err error, summary *model.RunSummary) error {
	if r == nil {
		return err
	}
	defer r.st.Close() //nolint:errcheck

	if err != nil {
		if ferr := r.st.FailRun(ctx, r.run.ID, err); ferr != nil {
			zap.L().Warn("could not mark run failed", zap.String("run_id", r.run.ID), zap.Error(ferr))
		}
		return err
	}
	return r.st.CompleteRun(ctx, r.run.ID, summary)
}

func (r *recorder) id() string {
	if r == nil {
		return ""
	}
	return r.run.ID
}
