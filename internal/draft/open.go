package draft

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/drillrun/runwiz/internal/config"
	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/nats"
)

// Open builds the store selected by cfg.DraftBackend. The returned close
// func releases whatever the backend holds open and is never nil.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.DraftBackend {
	case config.BackendMemory:
		return NewMemoryStore(), noop, nil

	case config.BackendFile, "":
		return NewFileStore(filepath.Join(cfg.DataDir, "drafts")), noop, nil

	case config.BackendSQLite:
		s, err := OpenSQLite(filepath.Join(cfg.DataDir, "drafts.db"))
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil

	case config.BackendNATS:
		e, err := nats.Start(filepath.Join(cfg.DataDir, "nats"))
		if err != nil {
			return nil, noop, fmt.Errorf("starting embedded nats: %w", err)
		}
		kv, err := e.DraftBucket(ctx)
		if err != nil {
			_ = e.Close()
			return nil, noop, err
		}
		return NewKVStore(kv), e.Close, nil
	}

	logger.Error("unknown draft backend %q", cfg.DraftBackend)
	return nil, noop, fmt.Errorf("unknown draft backend %q", cfg.DraftBackend)
}
