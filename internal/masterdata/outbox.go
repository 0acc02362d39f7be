package masterdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"

	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/runrecord"
)

// OutboxSubmitter writes submissions to a directory instead of the API,
// for entry without connectivity. Files are named after the run number
// and the payload id, so resubmitting the same draft overwrites its file.
type OutboxSubmitter struct {
	Dir string
}

// Path returns the file p is written to.
func (o OutboxSubmitter) Path(p runrecord.Payload) string {
	name := p.ID
	if v, ok := p.Get(runrecord.Ref(runrecord.StepRun, runrecord.FieldRunNumber)); ok {
		name = runrecord.FormatValue(v) + "-" + p.ID
	}
	return filepath.Join(o.Dir, slug.Make(name)+".json")
}

func (o OutboxSubmitter) Submit(_ context.Context, p runrecord.Payload) error {
	if err := os.MkdirAll(o.Dir, 0755); err != nil {
		return fmt.Errorf("creating outbox: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run: %w", err)
	}
	path := o.Path(p)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing outbox file: %w", err)
	}
	logger.Info("Run %s written to %s", p.ID, path)
	return nil
}
