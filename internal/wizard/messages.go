package wizard

import (
	"context"

	"github.com/drillrun/runwiz/internal/runrecord"
)

// Submitter hands a finished record to the backend.
type Submitter interface {
	Submit(ctx context.Context, p runrecord.Payload) error
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, p runrecord.Payload) error

func (f SubmitFunc) Submit(ctx context.Context, p runrecord.Payload) error { return f(ctx, p) }

// Confirmer asks the user a yes/no question. Only Cancel uses it.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

// CancelPrompt is the question asked before a draft is thrown away.
const CancelPrompt = "Discard this run and its saved draft?"

// SubmittedMsg reports a successful submission. The wizard has already
// been reset.
type SubmittedMsg struct {
	Payload runrecord.Payload
}

// SubmitFailedMsg reports a failed submission. State, cursor and draft
// are untouched.
type SubmitFailedMsg struct {
	Err error
}

// CancelledMsg reports a confirmed cancellation. The wizard has already
// been reset.
type CancelledMsg struct{}

// persistTickMsg fires when the persist debounce runs out.
type persistTickMsg struct {
	seq uint64
}

// persistedMsg reports the outcome of a draft save.
type persistedMsg struct {
	rev uint64
	err error
}

// submitResultMsg carries the submission outcome for session gen.
type submitResultMsg struct {
	gen     uint64
	payload runrecord.Payload
	err     error
}

// cancelDecisionMsg carries the confirmation answer for session gen.
type cancelDecisionMsg struct {
	gen uint64
	ok  bool
	err error
}
