package cmd

import (
	"context"

	"timemachine/config"
	"timemachine/destination"
	"timemachine/internal/timeutil"
	"timemachine/reconcile"
	"timemachine/source"
	"timemachine/storage"
)

// commandPlan keeps the destination backend next to the plan built with it.
type commandPlan struct {
	*reconcile.Plan
	Destination destination.Backend
}

func buildPlan(ctx context.Context, cfg *config.Config, window timeutil.Window, opts source.Options) (*commandPlan, error) {
	fetcher, err := newSourceFetcher(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	backend, err := newDestinationBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	plan, err := reconcile.BuildPlan(ctx, reconcile.PlanInput{
		Source:      fetcher,
		Destination: backend,
		Router:      reconcile.NewRouter(cfg.IssueMap, cfg.Destination.Issue),
		Window:      window,
		Parallelism: cfg.Sync.Parallelism,
	})
	if err != nil {
		return nil, err
	}
	return &commandPlan{Plan: plan, Destination: backend}, nil
}

// startJournalRun opens the journal when a path is configured. Without a path
// it returns a nil store and a zero run.
func startJournalRun(ctx context.Context, path string, run storage.Run) (*storage.SQLiteStore, storage.Run, error) {
	if path == "" {
		return nil, storage.Run{}, nil
	}
	store, err := storage.OpenSQLite(path)
	if err != nil {
		return nil, storage.Run{}, err
	}
	started, err := store.StartRun(ctx, run)
	if err != nil {
		_ = store.Close()
		return nil, storage.Run{}, err
	}
	return store, started, nil
}
