// Package validation runs debounced remote uniqueness checks for watched
// fields. Each edit replaces the pending timer; each result is tagged with
// the value it was issued for and dropped once that value is no longer
// live.
package validation

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/runrecord"
)

// DefaultDelay is the quiet period before a check is issued.
const DefaultDelay = 500 * time.Millisecond

// Status is the uniqueness state of one watched field.
type Status int

const (
	// StatusIdle means nothing to check (empty value).
	StatusIdle Status = iota
	// StatusValidating means a timer or a remote check is pending.
	StatusValidating
	// StatusUnique means the live value is not taken.
	StatusUnique
	// StatusExists means the live value is taken; it blocks submission.
	StatusExists
	// StatusUnknown means the check failed. It is flagged but not blocking.
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusValidating:
		return "validating"
	case StatusUnique:
		return "unique"
	case StatusExists:
		return "exists"
	case StatusUnknown:
		return "unknown"
	default:
		return "idle"
	}
}

// Checker asks the remote source whether value is already used for field.
type Checker interface {
	CheckUnique(ctx context.Context, field, value string) (bool, error)
}

// ElapsedMsg fires when a debounce timer runs out. Seq identifies the
// edit that armed it.
type ElapsedMsg struct {
	Field runrecord.FieldRef
	Seq   uint64
}

// CheckedMsg carries a remote check result tagged with the checked value.
type CheckedMsg struct {
	Field  runrecord.FieldRef
	Value  string
	Exists bool
	Err    error
}

type watch struct {
	seq    uint64
	value  string
	status Status
	err    error
}

// Debouncer tracks every watched field. It is not safe for concurrent use;
// the owning event loop serializes access.
type Debouncer struct {
	delay   time.Duration
	order   []runrecord.FieldRef
	watches map[runrecord.FieldRef]*watch
}

// New returns a debouncer watching refs.
func New(delay time.Duration, refs ...runrecord.FieldRef) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	d := &Debouncer{
		delay:   delay,
		order:   refs,
		watches: make(map[runrecord.FieldRef]*watch, len(refs)),
	}
	for _, ref := range refs {
		d.watches[ref] = &watch{}
	}
	return d
}

// Fields returns the watched fields in registration order.
func (d *Debouncer) Fields() []runrecord.FieldRef {
	return d.order
}

// Watches reports whether ref is a watched field.
func (d *Debouncer) Watches(ref runrecord.FieldRef) bool {
	_, ok := d.watches[ref]
	return ok
}

// Edit records a new live value for ref and arms a fresh timer. Any
// earlier timer for ref becomes a no-op when it fires.
func (d *Debouncer) Edit(ref runrecord.FieldRef, value string) tea.Cmd {
	w, ok := d.watches[ref]
	if !ok {
		return nil
	}
	w.seq++
	w.value = value
	w.err = nil
	if value == "" {
		w.status = StatusIdle
		return nil
	}
	w.status = StatusValidating

	seq := w.seq
	return tea.Tick(d.delay, func(time.Time) tea.Msg {
		return ElapsedMsg{Field: ref, Seq: seq}
	})
}

// Elapsed turns a timer expiry into a remote check, unless a later edit
// superseded the timer or the live value moved on.
func (d *Debouncer) Elapsed(ctx context.Context, msg ElapsedMsg, live string, checker Checker) tea.Cmd {
	w, ok := d.watches[msg.Field]
	if !ok || msg.Seq != w.seq || live == "" || live != w.value {
		return nil
	}

	logger.Debug("validation: checking %s=%q", msg.Field, live)
	ref := msg.Field
	return func() tea.Msg {
		exists, err := checker.CheckUnique(ctx, ref.Field, live)
		return CheckedMsg{Field: ref, Value: live, Exists: exists, Err: err}
	}
}

// Checked applies a check result. Results for a value that is no longer
// live are dropped and Checked returns false.
func (d *Debouncer) Checked(msg CheckedMsg, live string) bool {
	w, ok := d.watches[msg.Field]
	if !ok || msg.Value != live || msg.Value != w.value {
		logger.Debug("validation: dropping result for %s=%q", msg.Field, msg.Value)
		return false
	}

	switch {
	case msg.Err != nil:
		logger.Warn("validation: uniqueness check for %s failed: %v", msg.Field, msg.Err)
		w.status = StatusUnknown
		w.err = msg.Err
	case msg.Exists:
		w.status = StatusExists
	default:
		w.status = StatusUnique
	}
	return true
}

// Status returns the current status of ref.
func (d *Debouncer) Status(ref runrecord.FieldRef) Status {
	if w, ok := d.watches[ref]; ok {
		return w.status
	}
	return StatusIdle
}

// Err returns the failure behind StatusUnknown.
func (d *Debouncer) Err(ref runrecord.FieldRef) error {
	if w, ok := d.watches[ref]; ok {
		return w.err
	}
	return nil
}

// Blocking lists the fields whose live value is known to be taken.
func (d *Debouncer) Blocking() []runrecord.FieldRef {
	return d.with(StatusExists)
}

// Pending lists the fields with an outstanding timer or check.
func (d *Debouncer) Pending() []runrecord.FieldRef {
	return d.with(StatusValidating)
}

func (d *Debouncer) with(s Status) []runrecord.FieldRef {
	var out []runrecord.FieldRef
	for _, ref := range d.order {
		if d.watches[ref].status == s {
			out = append(out, ref)
		}
	}
	return out
}

// Reset forgets every value. Timers and checks still in flight are
// ignored when they come back.
func (d *Debouncer) Reset() {
	for _, w := range d.watches {
		w.seq++
		*w = watch{seq: w.seq}
	}
}
