package hooks

import (
	"context"

	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/runrecord"
	"github.com/drillrun/runwiz/internal/wizard"
)

// Submitter runs the post_submit hooks after Next accepts a run. Hook
// problems are logged; the submission itself has already succeeded.
type Submitter struct {
	Next    wizard.Submitter
	Hooks   []*HookConfig
	WorkDir string
}

// Wrap returns next unchanged when cfg has no post_submit hooks.
func Wrap(next wizard.Submitter, cfg *Config, workDir string) wizard.Submitter {
	if cfg == nil || len(cfg.Hooks.PostSubmit) == 0 {
		return next
	}
	return &Submitter{Next: next, Hooks: cfg.Hooks.PostSubmit, WorkDir: workDir}
}

func (s *Submitter) Submit(ctx context.Context, p runrecord.Payload) error {
	if err := s.Next.Submit(ctx, p); err != nil {
		return err
	}
	out, err := ExecuteAll(ctx, s.Hooks, s.WorkDir, p)
	if err != nil {
		logger.Warn("post_submit hooks for run %s interrupted: %v", p.ID, err)
		return nil
	}
	if out != "" {
		logger.Info("post_submit hooks for run %s:\n%s", p.ID, out)
	}
	return nil
}
