// Package runrecord defines the drilling run record the wizard accumulates:
// step identifiers, per-step field slots and the submission payload.
package runrecord

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// StepID names one wizard step.
type StepID string

// Wizard steps in display order. StepReview is terminal and owns no slot.
const (
	StepRun      StepID = "run"
	StepLocation StepID = "location"
	StepDepth    StepID = "depth"
	StepSurvey   StepID = "survey"
	StepTieOn    StepID = "tieon"
	StepReview   StepID = "review"
)

// Descriptor is the static ordered list of steps for a session.
type Descriptor []StepID

// DefaultSteps returns the run entry flow: five data steps then review.
func DefaultSteps() Descriptor {
	return Descriptor{StepRun, StepLocation, StepDepth, StepSurvey, StepTieOn, StepReview}
}

// Count returns the number of steps, including review.
func (d Descriptor) Count() int {
	return len(d)
}

// Index returns the position of id, or -1.
func (d Descriptor) Index(id StepID) int {
	return slices.Index(d, id)
}

// At returns the step at position i. Out of range positions are clamped.
func (d Descriptor) At(i int) StepID {
	if len(d) == 0 {
		return ""
	}
	return d[min(max(i, 0), len(d)-1)]
}

// Slots returns the steps that hold data, i.e. every step but review.
func (d Descriptor) Slots() []StepID {
	out := make([]StepID, 0, len(d))
	for _, id := range d {
		if id != StepReview {
			out = append(out, id)
		}
	}
	return out
}

// HasSlot reports whether id is a data step of d.
func (d Descriptor) HasSlot(id StepID) bool {
	return id != StepReview && slices.Contains(d, id)
}

// Equal reports whether two descriptors list the same steps in order.
func (d Descriptor) Equal(o Descriptor) bool {
	return slices.Equal(d, o)
}

// FieldRef addresses one field inside one step slot.
type FieldRef struct {
	Step  StepID `json:"step" yaml:"step"`
	Field string `json:"field" yaml:"field"`
}

// Ref builds a FieldRef.
func Ref(step StepID, field string) FieldRef {
	return FieldRef{Step: step, Field: field}
}

// String renders the ref as "step.field".
func (r FieldRef) String() string {
	return string(r.Step) + "." + r.Field
}

// ParseFieldRef parses "step.field".
func ParseFieldRef(s string) (FieldRef, error) {
	step, field, ok := strings.Cut(s, ".")
	if !ok || step == "" || field == "" {
		return FieldRef{}, fmt.Errorf("invalid field reference %q (want step.field)", s)
	}
	return FieldRef{Step: StepID(step), Field: field}, nil
}

// Fields is a partial record of typed values. Values are strings, float64
// or bool; Normalize converts other numeric kinds so a record survives a
// JSON round trip unchanged.
type Fields map[string]any

// Clone returns a shallow copy. Values are immutable scalars.
func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}
	return maps.Clone(f)
}

// Present reports whether name holds a non-empty value.
func (f Fields) Present(name string) bool {
	v, ok := f[name]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// String returns the value of name formatted as text, or "".
func (f Fields) String(name string) string {
	if !f.Present(name) {
		return ""
	}
	return FormatValue(f[name])
}

// Float returns the numeric value of name. Numeric strings are parsed.
func (f Fields) Float(name string) (float64, bool) {
	if !f.Present(name) {
		return 0, false
	}
	switch v := f[name].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	}
	return 0, false
}

// Normalize converts a raw input value into the canonical stored form.
// Empty strings and nil become nil, meaning "absent".
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(x) == "" {
			return nil
		}
		return x
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case json.Number:
		if n, err := x.Float64(); err == nil {
			return n
		}
		return x.String()
	}
	return v
}

// FormatValue renders a stored value for display and comparison.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

// ClassSource tags who produced a classification value.
type ClassSource string

const (
	// ClassDerived marks a value computed from its driver; it is read-only.
	ClassDerived ClassSource = "derived"
	// ClassUser marks a value the user owns because the driver is absent.
	ClassUser ClassSource = "user"
)

// Classification is the tagged Derived(value) | UserOverridden(value)
// state of a categorical field.
type Classification struct {
	Source ClassSource `json:"source"`
	Value  string      `json:"value"`
}

// Slot is one step's partial record: raw user input, values derived from
// it, and classification fields.
type Slot struct {
	Fields  Fields                    `json:"fields"`
	Derived Fields                    `json:"derived,omitempty"`
	Classes map[string]Classification `json:"classes,omitempty"`
}

// Clone returns a copy that shares no maps with s.
func (s Slot) Clone() Slot {
	out := Slot{Fields: s.Fields.Clone()}
	if len(s.Derived) > 0 {
		out.Derived = s.Derived.Clone()
	}
	if len(s.Classes) > 0 {
		out.Classes = maps.Clone(s.Classes)
	}
	return out
}

// Value looks name up across user fields, derived values and classes.
func (s Slot) Value(name string) (any, bool) {
	if s.Fields.Present(name) {
		return s.Fields[name], true
	}
	if s.Derived.Present(name) {
		return s.Derived[name], true
	}
	if c, ok := s.Classes[name]; ok && c.Value != "" {
		return c.Value, true
	}
	return nil, false
}

// Flatten merges the slot into a single map, the shape submitted upstream.
func (s Slot) Flatten() map[string]any {
	out := make(map[string]any, len(s.Fields)+len(s.Derived)+len(s.Classes))
	for k, v := range s.Fields {
		if s.Fields.Present(k) {
			out[k] = v
		}
	}
	for k, v := range s.Derived {
		out[k] = v
	}
	for k, c := range s.Classes {
		if c.Value != "" {
			out[k] = c.Value
		}
	}
	return out
}

// Empty reports whether the slot carries no data at all.
func (s Slot) Empty() bool {
	return len(s.Fields) == 0 && len(s.Derived) == 0 && len(s.Classes) == 0
}

// State is the wizard aggregate: one slot per data step.
type State map[StepID]Slot

// NewState returns a state with an empty slot for every data step of d.
func NewState(d Descriptor) State {
	st := make(State, len(d))
	for _, id := range d.Slots() {
		st[id] = Slot{Fields: Fields{}}
	}
	return st
}

// Clone deep-copies the state.
func (st State) Clone() State {
	out := make(State, len(st))
	for id, slot := range st {
		out[id] = slot.Clone()
	}
	return out
}

// Empty reports whether no slot holds data.
func (st State) Empty() bool {
	for _, slot := range st {
		if !slot.Empty() {
			return false
		}
	}
	return true
}

// Payload is the submission handed to the submission collaborator: the
// union of all step slots keyed by step, plus the draft id that doubles as
// an idempotency key.
type Payload struct {
	ID    string                    `json:"id"`
	Steps map[StepID]map[string]any `json:"steps"`
}

// BuildPayload flattens st in descriptor order.
func BuildPayload(id string, d Descriptor, st State) Payload {
	p := Payload{ID: id, Steps: make(map[StepID]map[string]any)}
	for _, step := range d.Slots() {
		p.Steps[step] = st[step].Flatten()
	}
	return p
}

// Get returns the flattened value at ref.
func (p Payload) Get(ref FieldRef) (any, bool) {
	v, ok := p.Steps[ref.Step][ref.Field]
	return v, ok
}
