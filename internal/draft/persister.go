package draft

import (
	"context"
	"errors"
	"sync"

	"github.com/drillrun/runwiz/internal/logger"
)

// Persister guards one draft key. Every Save carries the epoch observed
// when the snapshot was taken and a revision that grows with each
// snapshot. Clear bumps the epoch, so a save still in flight when the
// draft is cleared cannot bring it back, and a revision older than the
// last one written is dropped.
type Persister struct {
	store Store
	key   string

	mu      sync.Mutex
	epoch   uint64
	written uint64
}

// NewPersister binds store to key.
func NewPersister(store Store, key string) *Persister {
	return &Persister{store: store, key: key}
}

// Key returns the draft key.
func (p *Persister) Key() string { return p.key }

// Epoch returns the current clear generation.
func (p *Persister) Epoch() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.epoch
}

// Save writes blob unless the draft was cleared after epoch was read or
// a later revision already reached the store.
func (p *Persister) Save(ctx context.Context, epoch, rev uint64, blob []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if epoch != p.epoch {
		logger.Debug("draft %s: dropping save from epoch %d (now %d)", p.key, epoch, p.epoch)
		return ErrStale
	}
	if rev <= p.written {
		logger.Debug("draft %s: dropping revision %d (have %d)", p.key, rev, p.written)
		return ErrStale
	}
	if err := p.store.Save(ctx, p.key, blob); err != nil {
		return err
	}
	p.written = rev
	return nil
}

// Load returns the stored blob, or ok=false when there is none.
func (p *Persister) Load(ctx context.Context) ([]byte, bool, error) {
	blob, err := p.store.Load(ctx, p.key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}

// Clear removes the draft and invalidates every save issued before it.
func (p *Persister) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.epoch++
	return p.store.Clear(ctx, p.key)
}
