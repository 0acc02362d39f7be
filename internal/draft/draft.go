// Package draft persists an in-progress wizard session so it survives a
// restart. A Store is a plain key/value surface; Draft is the versioned
// snapshot written through it.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/drillrun/runwiz/internal/runrecord"
)

// Version is the snapshot format written by this build.
const Version = 1

var (
	// ErrNotFound is returned by Store.Load when no draft exists.
	ErrNotFound = errors.New("draft not found")
	// ErrIncompatible marks a draft that cannot be restored: bad JSON, a
	// different version or a different step layout.
	ErrIncompatible = errors.New("draft incompatible")
	// ErrStale is returned when a save loses the race against a clear.
	ErrStale = errors.New("draft save superseded")
)

// Store is the persistence surface. Implementations must be safe for
// concurrent use.
type Store interface {
	Save(ctx context.Context, key string, blob []byte) error
	// Load returns ErrNotFound when key holds nothing.
	Load(ctx context.Context, key string) ([]byte, error)
	// Clear removes key. Clearing a missing key is not an error.
	Clear(ctx context.Context, key string) error
}

// Draft is the serialized wizard state.
type Draft struct {
	Version int                  `json:"version"`
	ID      string               `json:"id"`
	Steps   runrecord.Descriptor `json:"steps"`
	Cursor  int                  `json:"cursor"`
	Slots   runrecord.State      `json:"slots"`
	SavedAt time.Time            `json:"saved_at"`
}

// NewID returns a fresh draft id. It doubles as the submission
// idempotency key.
func NewID() string {
	return xid.New().String()
}

// Encode stamps d with the current version and time and marshals it.
func Encode(d Draft) ([]byte, error) {
	d.Version = Version
	if d.SavedAt.IsZero() {
		d.SavedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling draft: %w", err)
	}
	return data, nil
}

// Decode parses blob and checks it against the expected step layout.
// Every failure wraps ErrIncompatible.
func Decode(blob []byte, steps runrecord.Descriptor) (Draft, error) {
	var d Draft
	if err := json.Unmarshal(blob, &d); err != nil {
		return Draft{}, fmt.Errorf("%w: %v", ErrIncompatible, err)
	}
	if d.Version != Version {
		return Draft{}, fmt.Errorf("%w: version %d, want %d", ErrIncompatible, d.Version, Version)
	}
	if !d.Steps.Equal(steps) {
		return Draft{}, fmt.Errorf("%w: steps %v do not match %v", ErrIncompatible, d.Steps, steps)
	}
	if d.Cursor < 0 || d.Cursor >= steps.Count() {
		return Draft{}, fmt.Errorf("%w: cursor %d out of range", ErrIncompatible, d.Cursor)
	}
	for id := range d.Slots {
		if !steps.HasSlot(id) {
			return Draft{}, fmt.Errorf("%w: unknown slot %q", ErrIncompatible, id)
		}
	}
	if d.ID == "" {
		return Draft{}, fmt.Errorf("%w: missing id", ErrIncompatible)
	}

	// Missing slots are allowed; an older save may predate a first edit.
	full := runrecord.NewState(steps)
	for id, slot := range d.Slots {
		if slot.Fields == nil {
			slot.Fields = runrecord.Fields{}
		}
		for k, v := range slot.Fields {
			slot.Fields[k] = runrecord.Normalize(v)
		}
		full[id] = slot
	}
	d.Slots = full
	return d, nil
}
