// Package wizard orchestrates a multi-step run entry session. The
// Controller owns the cursor, the per-step slots and the draft lifecycle,
// and composes the deriver, the dependency chains and the uniqueness
// debouncer. It follows the bubbletea model contract: every mutation
// happens on one goroutine, and asynchronous work is returned as tea.Cmd
// whose result comes back through Update.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/drillrun/runwiz/internal/dependency"
	"github.com/drillrun/runwiz/internal/derive"
	"github.com/drillrun/runwiz/internal/draft"
	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/runrecord"
	"github.com/drillrun/runwiz/internal/validation"
)

// DefaultPersistDelay coalesces bursts of edits into one draft save.
const DefaultPersistDelay = 500 * time.Millisecond

// Options configures a Controller.
type Options struct {
	Catalog       Catalog
	Persister     *draft.Persister
	Fetcher       dependency.Fetcher
	Checker       validation.Checker
	PersistDelay  time.Duration
	ValidateDelay time.Duration
	// Context bounds every asynchronous call. Defaults to Background.
	Context context.Context
}

// Controller is the wizard state machine. It is not safe for concurrent
// use; drive it from one event loop (a tea.Program or a Host).
type Controller struct {
	ctx       context.Context
	cat       Catalog
	persister *draft.Persister
	fetcher   dependency.Fetcher
	checker   validation.Checker
	delay     time.Duration

	state    runrecord.State
	cursor   int
	draftID  string
	dirty    bool
	restored bool

	chains []*dependency.Chain
	deb    *validation.Debouncer

	persistSeq uint64
	rev        uint64
	persistErr error

	// gen changes whenever the session is reset, so answers to questions
	// asked about an earlier session are ignored.
	gen        uint64
	submitting bool
	// finished is set once a submission or cancellation has cleared the
	// draft, until the next edit.
	finished bool
}

// New builds a controller with an empty state. Call Initialize before
// use.
func New(opts Options) *Controller {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.PersistDelay <= 0 {
		opts.PersistDelay = DefaultPersistDelay
	}
	if opts.Catalog.Steps == nil {
		opts.Catalog = DefaultCatalog(5)
	}

	c := &Controller{
		ctx:       opts.Context,
		cat:       opts.Catalog,
		persister: opts.Persister,
		fetcher:   opts.Fetcher,
		checker:   opts.Checker,
		delay:     opts.PersistDelay,
		deb:       validation.New(opts.ValidateDelay, opts.Catalog.Unique...),
	}
	for _, spec := range opts.Catalog.Chains {
		c.chains = append(c.chains, dependency.NewChain(spec))
	}
	c.blank()
	return c
}

// blank resets the session to an empty record at step one.
func (c *Controller) blank() {
	c.state = runrecord.NewState(c.cat.Steps)
	c.cursor = 0
	c.draftID = draft.NewID()
	c.dirty = false
	c.restored = false
	c.submitting = false
	c.finished = false
	c.persistSeq++
	c.gen++
	c.deb.Reset()
	for _, ch := range c.chains {
		ch.Reset()
	}
}

// Initialize loads a compatible draft if one exists, else seeds the state
// from seed (which may be nil). A draft that cannot be read or restored
// is logged and ignored. The returned command loads root options and
// re-validates restored unique values.
func (c *Controller) Initialize(seed runrecord.State) tea.Cmd {
	c.blank()

	if d, ok := c.loadDraft(); ok {
		c.state = d.Slots
		c.cursor = d.Cursor
		c.draftID = d.ID
		c.restored = true
		c.dirty = true
		logger.Info("Restored draft %s at step %s", d.ID, c.Current())
	} else {
		for step, slot := range seed {
			if !c.cat.Steps.HasSlot(step) {
				logger.Warn("Ignoring seed for unknown step %q", step)
				continue
			}
			fields := runrecord.Fields{}
			for k, v := range slot.Fields {
				if n := runrecord.Normalize(v); n != nil && c.cat.Known(step, k) && c.writable(step, k) {
					fields[k] = n
				}
			}
			c.state[step] = runrecord.Slot{Fields: fields, Classes: maps.Clone(slot.Classes)}
		}
	}

	for _, step := range c.cat.Steps.Slots() {
		c.state[step] = c.cat.Rules.Apply(step, c.state[step])
	}

	var cmds []tea.Cmd
	for _, ch := range c.chains {
		step := ch.Spec().Step
		slot := c.state[step]
		cleared, reqs := ch.Prime(slot.Fields)
		for _, f := range cleared {
			delete(slot.Fields, f)
		}
		c.state[step] = slot
		cmds = append(cmds, c.fetchCmds(reqs)...)
	}
	for _, ref := range c.deb.Fields() {
		if live := c.live(ref); live != "" {
			cmds = append(cmds, c.deb.Edit(ref, live))
		}
	}
	return tea.Batch(cmds...)
}

func (c *Controller) loadDraft() (draft.Draft, bool) {
	if c.persister == nil {
		return draft.Draft{}, false
	}
	blob, ok, err := c.persister.Load(c.ctx)
	if err != nil {
		logger.Warn("Failed to read draft, starting fresh: %v", err)
		return draft.Draft{}, false
	}
	if !ok {
		return draft.Draft{}, false
	}
	d, err := draft.Decode(blob, c.cat.Steps)
	if err != nil {
		logger.Warn("Discarding unusable draft: %v", err)
		return draft.Draft{}, false
	}
	return d, true
}

// writable reports whether the user may write field right now.
func (c *Controller) writable(step runrecord.StepID, field string) bool {
	return c.cat.Rules.Editable(step, c.state[step], field)
}

// UpdateStep merges partial into the slot of step. Empty values clear a
// field. The update is rejected as a whole if any field is unknown or
// read-only, or selects a dependent option whose upstream is empty. Dependent selections are cleared before UpdateStep returns.
func (c *Controller) UpdateStep(step runrecord.StepID, partial map[string]any) (tea.Cmd, error) {
	if !c.cat.Steps.HasSlot(step) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	for _, f := range slices.Sorted(maps.Keys(partial)) {
		if !c.cat.Known(step, f) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, runrecord.Ref(step, f))
		}
		if !c.writable(step, f) {
			return nil, fmt.Errorf("%s: %w", runrecord.Ref(step, f), ErrReadOnly)
		}
	}

	before := c.state[step]
	slot := before.Clone()
	explicit := make(map[string]bool, len(partial))
	for f, v := range partial {
		explicit[f] = true
		n := runrecord.Normalize(v)
		if c.cat.Rules.Classified(step, f) {
			var err error
			if slot, err = c.cat.Rules.Override(step, slot, f, runrecord.FormatValue(n)); err != nil {
				return nil, err
			}
			continue
		}
		if n == nil {
			delete(slot.Fields, f)
		} else {
			slot.Fields[f] = n
		}
	}

	for _, ch := range c.chains {
		if ch.Spec().Step != step {
			continue
		}
		for _, f := range slices.Sorted(maps.Keys(partial)) {
			if !slot.Fields.Present(f) {
				continue
			}
			if up, missing := ch.MissingUpstream(slot.Fields, f); missing {
				return nil, fmt.Errorf("%s needs %s: %w", runrecord.Ref(step, f), runrecord.Ref(step, up), ErrUpstreamMissing)
			}
		}
	}

	var cmds []tea.Cmd
	for _, ch := range c.chains {
		if ch.Spec().Step != step {
			continue
		}
		cleared, reqs := ch.Change(before.Fields, slot.Fields, explicit)
		for _, f := range cleared {
			delete(slot.Fields, f)
		}
		cmds = append(cmds, c.fetchCmds(reqs)...)
	}

	slot = c.cat.Rules.Apply(step, slot)
	c.state[step] = slot
	c.dirty = true
	c.finished = false

	for _, ref := range c.deb.Fields() {
		if ref.Step != step {
			continue
		}
		if before.Fields.String(ref.Field) != slot.Fields.String(ref.Field) {
			cmds = append(cmds, c.deb.Edit(ref, slot.Fields.String(ref.Field)))
		}
	}

	logger.Debug("Updated step %s: %v", step, slices.Sorted(maps.Keys(partial)))
	cmds = append(cmds, c.schedulePersist())
	return tea.Batch(cmds...), nil
}

// Advance moves to the next step. Moves are clamped at the last step.
func (c *Controller) Advance() tea.Cmd {
	return c.moveTo(c.cursor + 1)
}

// Retreat moves to the previous step. Moves are clamped at the first step.
func (c *Controller) Retreat() tea.Cmd {
	return c.moveTo(c.cursor - 1)
}

// Jump moves directly to step. Steps are never gated.
func (c *Controller) Jump(step runrecord.StepID) (tea.Cmd, error) {
	i := c.cat.Steps.Index(step)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	return c.moveTo(i), nil
}

func (c *Controller) moveTo(i int) tea.Cmd {
	i = min(max(i, 0), c.cat.Steps.Count()-1)
	if i == c.cursor {
		return nil
	}
	c.cursor = i
	c.dirty = true
	c.finished = false
	return c.schedulePersist()
}

// Reload retries a failed option list.
func (c *Controller) Reload(ref runrecord.FieldRef) tea.Cmd {
	for _, ch := range c.chains {
		if ch.Spec().Step != ref.Step {
			continue
		}
		if req, ok := ch.Reload(ref.Field, c.state[ref.Step].Fields); ok {
			return dependency.FetchCmd(c.ctx, c.fetcher, req)
		}
	}
	return nil
}

// Validate collects every reason the record cannot be submitted. It
// returns nil when the record is ready.
func (c *Controller) Validate() error {
	e := &IncompleteError{}
	for _, step := range c.cat.Steps.Slots() {
		slot := c.state[step]
		for _, f := range c.cat.Required[step] {
			if _, ok := slot.Value(f); !ok {
				e.Missing = append(e.Missing, runrecord.Ref(step, f))
			}
		}
		e.Invalid = append(e.Invalid, c.cat.Rules.Issues(step, slot)...)
	}
	e.Taken = c.deb.Blocking()
	e.Pending = c.deb.Pending()
	if e.empty() {
		return nil
	}
	return e
}

// Submit checks the record and hands it to sub. The outcome arrives as
// SubmittedMsg or SubmitFailedMsg once the returned command's result has
// been passed back through Update.
func (c *Controller) Submit(sub Submitter) (tea.Cmd, error) {
	if c.submitting {
		return nil, ErrSubmitInFlight
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	c.submitting = true
	payload := c.Payload()
	gen := c.gen
	ctx := c.ctx
	logger.Info("Submitting run %s", payload.ID)
	return func() tea.Msg {
		err := sub.Submit(ctx, payload)
		return submitResultMsg{gen: gen, payload: payload, err: err}
	}, nil
}

// Cancel asks confirm whether to discard the session. Nothing changes
// unless the answer is yes. Right after a submission or cancellation
// there is nothing to discard and Cancel returns nil without asking.
func (c *Controller) Cancel(confirm Confirmer) tea.Cmd {
	if c.finished {
		return nil
	}
	gen := c.gen
	ctx := c.ctx
	return func() tea.Msg {
		ok, err := confirm.Confirm(ctx, CancelPrompt)
		return cancelDecisionMsg{gen: gen, ok: ok, err: err}
	}
}

// Update applies the result of an asynchronous command.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case persistTickMsg:
		if msg.seq != c.persistSeq {
			return nil
		}
		return c.persist()

	case persistedMsg:
		switch {
		case msg.err == nil:
			c.persistErr = nil
		case errors.Is(msg.err, draft.ErrStale):
		default:
			// Kept until the next change schedules another save.
			logger.Warn("Failed to save draft revision %d: %v", msg.rev, msg.err)
			c.persistErr = msg.err
		}
		return nil

	case submitResultMsg:
		if msg.gen != c.gen {
			logger.Warn("Ignoring submission result for a discarded session")
			return nil
		}
		c.submitting = false
		if msg.err != nil {
			logger.Warn("Submission of %s failed: %v", msg.payload.ID, msg.err)
			return emit(SubmitFailedMsg{Err: msg.err})
		}
		logger.Info("Run %s submitted", msg.payload.ID)
		return tea.Batch(c.finish(), emit(SubmittedMsg{Payload: msg.payload}))

	case cancelDecisionMsg:
		if msg.gen != c.gen || c.finished {
			return nil
		}
		if msg.err != nil {
			logger.Warn("Cancel confirmation failed: %v", msg.err)
			return nil
		}
		if !msg.ok {
			return nil
		}
		logger.Info("Run entry cancelled")
		return tea.Batch(c.finish(), emit(CancelledMsg{}))

	case dependency.LoadedMsg:
		for _, ch := range c.chains {
			if ch.Spec().Name == msg.Chain {
				ch.Resolve(msg, c.state[ch.Spec().Step].Fields)
			}
		}
		return nil

	case validation.ElapsedMsg:
		return c.deb.Elapsed(c.ctx, msg, c.live(msg.Field), c.checker)

	case validation.CheckedMsg:
		c.deb.Checked(msg, c.live(msg.Field))
		return nil
	}
	return nil
}

// finish clears the draft once and resets to an empty session.
func (c *Controller) finish() tea.Cmd {
	if c.persister != nil {
		if err := c.persister.Clear(c.ctx); err != nil {
			logger.Warn("Failed to clear draft: %v", err)
		}
	}
	c.blank()
	c.finished = true

	var cmds []tea.Cmd
	for _, ch := range c.chains {
		_, reqs := ch.Prime(c.state[ch.Spec().Step].Fields)
		cmds = append(cmds, c.fetchCmds(reqs)...)
	}
	return tea.Batch(cmds...)
}

func (c *Controller) schedulePersist() tea.Cmd {
	if c.persister == nil {
		return nil
	}
	c.persistSeq++
	seq := c.persistSeq
	return tea.Tick(c.delay, func(time.Time) tea.Msg {
		return persistTickMsg{seq: seq}
	})
}

// persist snapshots the state now and writes it off the loop.
func (c *Controller) persist() tea.Cmd {
	blob, err := draft.Encode(c.Draft())
	if err != nil {
		logger.Error("Failed to encode draft: %v", err)
		return nil
	}
	c.rev++
	rev := c.rev
	epoch := c.persister.Epoch()
	p := c.persister
	ctx := c.ctx
	return func() tea.Msg {
		return persistedMsg{rev: rev, err: p.Save(ctx, epoch, rev, blob)}
	}
}

func (c *Controller) fetchCmds(reqs []dependency.Request) []tea.Cmd {
	if c.fetcher == nil {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(reqs))
	for _, req := range reqs {
		cmds = append(cmds, dependency.FetchCmd(c.ctx, c.fetcher, req))
	}
	return cmds
}

// live returns the current text value of ref.
func (c *Controller) live(ref runrecord.FieldRef) string {
	return c.state[ref.Step].Fields.String(ref.Field)
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// Draft snapshots the session in its persisted form.
func (c *Controller) Draft() draft.Draft {
	return draft.Draft{
		ID:     c.draftID,
		Steps:  slices.Clone(c.cat.Steps),
		Cursor: c.cursor,
		Slots:  c.state.Clone(),
	}
}

// Payload builds the submission payload from the current state.
func (c *Controller) Payload() runrecord.Payload {
	return runrecord.BuildPayload(c.draftID, c.cat.Steps, c.state)
}

// Catalog returns the static session description.
func (c *Controller) Catalog() Catalog { return c.cat }

// Steps returns the step descriptor.
func (c *Controller) Steps() runrecord.Descriptor { return c.cat.Steps }

// Cursor returns the index of the current step.
func (c *Controller) Cursor() int { return c.cursor }

// Current returns the id of the current step.
func (c *Controller) Current() runrecord.StepID { return c.cat.Steps.At(c.cursor) }

// State returns a copy of every slot.
func (c *Controller) State() runrecord.State { return c.state.Clone() }

// Slot returns a copy of one slot.
func (c *Controller) Slot(step runrecord.StepID) runrecord.Slot { return c.state[step].Clone() }

// DraftID returns the session id, also used as the idempotency key.
func (c *Controller) DraftID() string { return c.draftID }

// Dirty reports whether the session holds anything worth keeping.
func (c *Controller) Dirty() bool { return c.dirty }

// Restored reports whether Initialize picked up a saved draft.
func (c *Controller) Restored() bool { return c.restored }

// Finished reports whether the draft was just cleared by a submission or
// cancellation and nothing has been entered since.
func (c *Controller) Finished() bool { return c.finished }

// Submitting reports whether a submission is outstanding.
func (c *Controller) Submitting() bool { return c.submitting }

// PersistErr returns the last draft save failure, if the latest save
// failed.
func (c *Controller) PersistErr() error { return c.persistErr }

// Editable reports whether ref accepts user input right now.
func (c *Controller) Editable(ref runrecord.FieldRef) bool {
	return c.cat.Known(ref.Step, ref.Field) && c.writable(ref.Step, ref.Field)
}

// Options returns the option list feeding ref, if ref is a chain tier.
func (c *Controller) Options(ref runrecord.FieldRef) (dependency.Node, bool) {
	for _, ch := range c.chains {
		if ch.Spec().Step == ref.Step {
			if n, ok := ch.NodeFor(ref.Field); ok {
				return n, true
			}
		}
	}
	return dependency.Node{}, false
}

// Validation returns the uniqueness status of ref.
func (c *Controller) Validation(ref runrecord.FieldRef) validation.Status {
	return c.deb.Status(ref)
}

// Issues returns derivation findings across every step.
func (c *Controller) Issues() []derive.Issue {
	var out []derive.Issue
	for _, step := range c.cat.Steps.Slots() {
		out = append(out, c.cat.Rules.Issues(step, c.state[step])...)
	}
	return out
}
