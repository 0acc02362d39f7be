package wizard

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/drillrun/runwiz/internal/logger"
)

// ErrHostStopped is returned by Do once the host loop has exited.
var ErrHostStopped = errors.New("wizard host stopped")

// Host drives a Controller without a terminal. It is the headless
// counterpart of a tea.Program: one goroutine applies messages and
// callers' functions in order, and every command runs on its own
// goroutine with its result fed back in.
type Host struct {
	ctrl   *Controller
	msgs   chan tea.Msg
	calls  chan func()
	events chan tea.Msg
	done   chan struct{}
}

// NewHost wraps ctrl. Run must be started before Do or Send.
func NewHost(ctrl *Controller) *Host {
	return &Host{
		ctrl:   ctrl,
		msgs:   make(chan tea.Msg, 64),
		calls:  make(chan func()),
		events: make(chan tea.Msg, 16),
		done:   make(chan struct{}),
	}
}

// Events delivers SubmittedMsg, SubmitFailedMsg and CancelledMsg. Events
// are dropped when nobody reads them.
func (h *Host) Events() <-chan tea.Msg { return h.events }

// Run processes messages until ctx is done.
func (h *Host) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-h.calls:
			fn()
		case msg := <-h.msgs:
			h.handle(msg)
		}
	}
}

func (h *Host) handle(msg tea.Msg) {
	switch msg := msg.(type) {
	case nil:
	case tea.BatchMsg:
		for _, cmd := range msg {
			h.exec(cmd)
		}
	case SubmittedMsg, SubmitFailedMsg, CancelledMsg:
		select {
		case h.events <- msg:
		default:
			logger.Debug("wizard host: dropping %T, no listener", msg)
		}
	default:
		h.exec(h.ctrl.Update(msg))
	}
}

// exec runs cmd off the loop and queues its result.
func (h *Host) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		msg := cmd()
		if msg == nil {
			return
		}
		h.Send(msg)
	}()
}

// Send queues msg for the loop.
func (h *Host) Send(msg tea.Msg) {
	select {
	case h.msgs <- msg:
	case <-h.done:
	}
}

// Do runs fn on the loop with exclusive access to the controller and
// executes the command it returns. It blocks until fn has run.
func (h *Host) Do(ctx context.Context, fn func(c *Controller) (tea.Cmd, error)) error {
	errc := make(chan error, 1)
	call := func() {
		cmd, err := fn(h.ctrl)
		h.exec(cmd)
		errc <- err
	}
	select {
	case h.calls <- call:
	case <-h.done:
		return ErrHostStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-errc
}

// View runs fn on the loop for read-only access.
func (h *Host) View(ctx context.Context, fn func(c *Controller)) error {
	return h.Do(ctx, func(c *Controller) (tea.Cmd, error) {
		fn(c)
		return nil, nil
	})
}
