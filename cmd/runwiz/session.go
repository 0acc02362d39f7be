package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/drillrun/runwiz/internal/draft"
	"github.com/drillrun/runwiz/internal/hooks"
	"github.com/drillrun/runwiz/internal/masterdata"
	"github.com/drillrun/runwiz/internal/runrecord"
	"github.com/drillrun/runwiz/internal/wizard"
)

// session bundles what a wizard needs from the outside world.
type session struct {
	ctrl   *wizard.Controller
	client *masterdata.Client
	close  func() error
}

// openSession opens the draft store and builds a controller bound to the
// configured API.
func openSession(ctx context.Context) (*session, error) {
	store, closeStore, err := draft.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := masterdata.NewClient(cfg.APIURL, cfg.APITimeout)
	ctrl := wizard.New(wizard.Options{
		Catalog:       wizard.DefaultCatalog(cfg.ClassificationCutoff),
		Persister:     draft.NewPersister(store, cfg.DraftKey),
		Fetcher:       client,
		Checker:       client,
		PersistDelay:  cfg.PersistDelay,
		ValidateDelay: cfg.ValidateDelay,
		Context:       ctx,
	})
	return &session{ctrl: ctrl, client: client, close: closeStore}, nil
}

// submitter picks where finished runs go and attaches the post_submit
// hooks from the working directory.
func (s *session) submitter(offline bool) (wizard.Submitter, error) {
	var sub wizard.Submitter = s.client
	if offline {
		sub = outbox()
	}
	hookCfg, err := hooks.LoadConfig(".")
	if err != nil {
		return nil, err
	}
	return hooks.Wrap(sub, hookCfg, "."), nil
}

func (s *session) outboxPath(p runrecord.Payload) string {
	return outbox().Path(p)
}

func outbox() masterdata.OutboxSubmitter {
	return masterdata.OutboxSubmitter{Dir: filepath.Join(cfg.DataDir, "outbox")}
}

// parseSeed turns repeated step.field=value flags into an initial state.
func parseSeed(sets []string) (runrecord.State, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	steps := runrecord.DefaultSteps()
	seed := runrecord.NewState(steps)
	for _, s := range sets {
		ref, value, err := parseAssignment(s)
		if err != nil {
			return nil, err
		}
		if !steps.HasSlot(ref.Step) {
			return nil, fmt.Errorf("--set %s: %w", s, wizard.ErrUnknownStep)
		}
		seed[ref.Step].Fields[ref.Field] = value
	}
	return seed, nil
}

func parseAssignment(s string) (runrecord.FieldRef, string, error) {
	lhs, value, ok := strings.Cut(s, "=")
	if !ok {
		return runrecord.FieldRef{}, "", fmt.Errorf("invalid assignment %q (want step.field=value)", s)
	}
	ref, err := runrecord.ParseFieldRef(strings.TrimSpace(lhs))
	if err != nil {
		return runrecord.FieldRef{}, "", err
	}
	return ref, strings.TrimSpace(value), nil
}
