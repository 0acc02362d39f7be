// Package dependency resolves cascading selection chains whose option
// lists come from a remote master-data source. Changing an upstream tier
// clears every tier below it and refetches options for the tiers whose
// upstream values are complete.
package dependency

import (
	"context"
	"slices"

	tea "charm.land/bubbletea/v2"

	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/runrecord"
)

// Phase is the load state of one tier's option list.
type Phase int

const (
	PhaseUnset Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "error"
	default:
		return "unset"
	}
}

// Option is one selectable master-data entry.
type Option struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Fetcher loads the options of a tier given the selected upstream value.
// Root tiers are fetched with an empty parent.
type Fetcher interface {
	Fetch(ctx context.Context, tier, parent string) ([]Option, error)
}

// Tier binds a record field to the remote option source that feeds it.
type Tier struct {
	Field  string
	Source string
}

// Spec describes one chain: an ordered list of tiers living in one step.
type Spec struct {
	Name  string
	Step  runrecord.StepID
	Tiers []Tier
}

// Fields returns the tier field names in chain order.
func (s Spec) Fields() []string {
	out := make([]string, len(s.Tiers))
	for i, t := range s.Tiers {
		out[i] = t.Field
	}
	return out
}

// Node is the observable state of one tier.
type Node struct {
	Phase   Phase
	Options []Option
	Err     error

	// tag holds the upstream values the current load was issued for.
	tag []string
}

// Request asks for the options of one tier. Tag is the upstream prefix at
// issue time and travels back in the LoadedMsg.
type Request struct {
	Chain  string
	Index  int
	Source string
	Parent string
	Tag    []string
}

// LoadedMsg carries the outcome of a Request.
type LoadedMsg struct {
	Request
	Options []Option
	Err     error
}

// Chain holds the node states of one Spec.
type Chain struct {
	spec  Spec
	nodes []Node
}

// NewChain returns a chain with every node Unset.
func NewChain(spec Spec) *Chain {
	return &Chain{spec: spec, nodes: make([]Node, len(spec.Tiers))}
}

// Spec returns the chain definition.
func (c *Chain) Spec() Spec { return c.spec }

// Len returns the number of tiers.
func (c *Chain) Len() int { return len(c.nodes) }

// Node returns a copy of the node at i.
func (c *Chain) Node(i int) Node {
	n := c.nodes[i]
	n.Options = slices.Clone(n.Options)
	return n
}

// Index returns the tier position of field, or -1.
func (c *Chain) Index(field string) int {
	for i, t := range c.spec.Tiers {
		if t.Field == field {
			return i
		}
	}
	return -1
}

// NodeFor returns the node that feeds field.
func (c *Chain) NodeFor(field string) (Node, bool) {
	i := c.Index(field)
	if i < 0 {
		return Node{}, false
	}
	return c.Node(i), true
}

// prefix returns the upstream values of tier i, and whether all of them
// are present.
func (c *Chain) prefix(values runrecord.Fields, i int) ([]string, bool) {
	tag := make([]string, 0, i)
	for _, t := range c.spec.Tiers[:i] {
		if !values.Present(t.Field) {
			return nil, false
		}
		tag = append(tag, values.String(t.Field))
	}
	return tag, true
}

// load moves node i to Loading and builds its request.
func (c *Chain) load(i int, tag []string) Request {
	c.nodes[i] = Node{Phase: PhaseLoading, tag: tag}
	req := Request{
		Chain:  c.spec.Name,
		Index:  i,
		Source: c.spec.Tiers[i].Source,
		Tag:    slices.Clone(tag),
	}
	if i > 0 {
		req.Parent = tag[i-1]
	}
	return req
}

// Prime brings the chain in line with restored values. It returns the
// fields that violate the upstream-complete rule (they must be cleared)
// and a load request for every tier whose upstream is complete.
func (c *Chain) Prime(values runrecord.Fields) (cleared []string, reqs []Request) {
	for i, t := range c.spec.Tiers {
		tag, ok := c.prefix(values, i)
		if !ok {
			if values.Present(t.Field) {
				cleared = append(cleared, t.Field)
			}
			c.nodes[i] = Node{}
			continue
		}
		reqs = append(reqs, c.load(i, tag))
	}
	return cleared, reqs
}

// Change re-evaluates the chain after an edit. before and after are the
// step values around the edit; explicit lists fields the same edit set,
// which survive the downstream reset. Returned fields must be cleared by
// the caller before the next message is processed.
func (c *Chain) Change(before, after runrecord.Fields, explicit map[string]bool) (cleared []string, reqs []Request) {
	changed := -1
	for i, t := range c.spec.Tiers {
		if before.String(t.Field) != after.String(t.Field) {
			changed = i
			break
		}
	}
	if changed < 0 {
		return nil, nil
	}

	values := after.Clone()
	if _, ok := c.prefix(values, changed); !ok {
		// A tier without its upstream cannot hold a selection, and neither
		// can anything below it.
		for j := changed; j < len(c.spec.Tiers); j++ {
			if f := c.spec.Tiers[j].Field; values.Present(f) {
				cleared = append(cleared, f)
			}
			c.nodes[j] = Node{}
		}
		logger.Debug("dependency %s: tier %s set without upstream, clearing %v", c.spec.Name, c.spec.Tiers[changed].Field, cleared)
		return cleared, nil
	}

	for j := changed + 1; j < len(c.spec.Tiers); j++ {
		f := c.spec.Tiers[j].Field
		if explicit[f] {
			continue
		}
		if values.Present(f) {
			cleared = append(cleared, f)
		}
		delete(values, f)
	}

	for j := changed + 1; j < len(c.spec.Tiers); j++ {
		f := c.spec.Tiers[j].Field
		tag, ok := c.prefix(values, j)
		if !ok {
			if values.Present(f) {
				cleared = append(cleared, f)
				delete(values, f)
			}
			c.nodes[j] = Node{}
			continue
		}
		reqs = append(reqs, c.load(j, tag))
	}

	logger.Debug("dependency %s: tier %s changed, clearing %v, loading %d", c.spec.Name, c.spec.Tiers[changed].Field, cleared, len(reqs))
	return cleared, reqs
}

// MissingUpstream returns the first upstream tier of field that has no
// value, if any.
func (c *Chain) MissingUpstream(values runrecord.Fields, field string) (string, bool) {
	i := c.Index(field)
	if i < 0 {
		return "", false
	}
	for _, t := range c.spec.Tiers[:i] {
		if !values.Present(t.Field) {
			return t.Field, true
		}
	}
	return "", false
}

// Reload re-requests the options of a Failed tier. Failures are never
// retried on their own; this is the explicit user retry.
func (c *Chain) Reload(field string, values runrecord.Fields) (Request, bool) {
	i := c.Index(field)
	if i < 0 || c.nodes[i].Phase != PhaseFailed {
		return Request{}, false
	}
	tag, ok := c.prefix(values, i)
	if !ok {
		return Request{}, false
	}
	return c.load(i, tag), true
}

// Resolve applies a load result if it still matches the chain: the node
// must be Loading for the same tag, and the live upstream values must
// equal the tag. Superseded results are dropped and Resolve returns false.
func (c *Chain) Resolve(msg LoadedMsg, values runrecord.Fields) bool {
	if msg.Chain != c.spec.Name || msg.Index < 0 || msg.Index >= len(c.nodes) {
		return false
	}
	n := c.nodes[msg.Index]
	if n.Phase != PhaseLoading || !slices.Equal(n.tag, msg.Tag) {
		logger.Debug("dependency %s: dropping stale options for tier %d", c.spec.Name, msg.Index)
		return false
	}
	if live, ok := c.prefix(values, msg.Index); !ok || !slices.Equal(live, msg.Tag) {
		logger.Debug("dependency %s: dropping options for outdated upstream %v", c.spec.Name, msg.Tag)
		return false
	}

	if msg.Err != nil {
		logger.Warn("dependency %s: loading %s failed: %v", c.spec.Name, msg.Source, msg.Err)
		c.nodes[msg.Index] = Node{Phase: PhaseFailed, Err: msg.Err, tag: n.tag}
		return true
	}
	c.nodes[msg.Index] = Node{Phase: PhaseReady, Options: msg.Options, tag: n.tag}
	return true
}

// Reset returns every node to Unset.
func (c *Chain) Reset() {
	for i := range c.nodes {
		c.nodes[i] = Node{}
	}
}

// FetchCmd performs req against f off the event loop.
func FetchCmd(ctx context.Context, f Fetcher, req Request) tea.Cmd {
	return func() tea.Msg {
		opts, err := f.Fetch(ctx, req.Source, req.Parent)
		return LoadedMsg{Request: req, Options: opts, Err: err}
	}
}
