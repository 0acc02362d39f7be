package wizard

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drillrun/runwiz/internal/draft"
	rr "github.com/drillrun/runwiz/internal/runrecord"
	"github.com/drillrun/runwiz/internal/validation"
)

func startHost(t *testing.T, c *Controller) *Host {
	t.Helper()
	h := NewHost(c)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = h.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func TestHost_DrivesControllerAsynchronously(t *testing.T) {
	store := draft.NewMemoryStore()
	c := newTestController(store, &fakeBackend{})
	h := startHost(t, c)
	ctx := context.Background()

	require.NoError(t, h.Do(ctx, func(c *Controller) (tea.Cmd, error) {
		return c.Initialize(nil), nil
	}))
	require.NoError(t, h.Do(ctx, func(c *Controller) (tea.Cmd, error) {
		return c.UpdateStep(rr.StepRun, map[string]any{rr.FieldRunNumber: "R-42"})
	}))

	assert.Eventually(t, func() bool {
		var status validation.Status
		_ = h.View(ctx, func(c *Controller) { status = c.Validation(runNumber) })
		return status == validation.StatusUnique
	}, 2*time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, ok := storedDraft(t, store)
		return ok
	}, 2*time.Second, 5*time.Millisecond)
}

func TestHost_ForwardsOutcomeEvents(t *testing.T) {
	store := draft.NewMemoryStore()
	c := newTestController(store, &fakeBackend{})
	settle(c, c.Initialize(nil))
	fillRequired(t, c)

	h := startHost(t, c)
	ctx := context.Background()

	require.NoError(t, h.Do(ctx, func(c *Controller) (tea.Cmd, error) {
		return c.Submit(SubmitFunc(func(context.Context, rr.Payload) error { return nil }))
	}))

	select {
	case ev := <-h.Events():
		sub, ok := ev.(SubmittedMsg)
		require.True(t, ok, "got %T", ev)
		assert.NotEmpty(t, sub.Payload.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no submission event")
	}
	assert.Equal(t, 1, store.Clears())
}

func TestHost_DoAfterStop(t *testing.T) {
	h := NewHost(newTestController(draft.NewMemoryStore(), &fakeBackend{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = h.Run(ctx)

	err := h.Do(context.Background(), func(*Controller) (tea.Cmd, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrHostStopped)
}
