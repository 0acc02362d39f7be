package derive

import (
	"errors"
	"fmt"

	"github.com/drillrun/runwiz/internal/runrecord"
)

// ErrReadOnly is returned when input targets a field that is currently
// derived.
var ErrReadOnly = errors.New("field is derived and read-only")

// Coordinate derives a decimal coordinate from DMS inputs. The value is
// unavailable unless Degrees is present; Minutes and Seconds default to 0.
type Coordinate struct {
	Step       runrecord.StepID
	Degrees    string
	Minutes    string
	Seconds    string
	Hemisphere string // optional; S or W negates
	Target     string
}

// Interval derives To - From. Unavailable unless both bounds are present;
// a length that is not strictly positive is reported as an Issue.
type Interval struct {
	Step   runrecord.StepID
	From   string
	To     string
	Target string
}

// Classifier assigns Below when Driver <= Cutoff and Above otherwise.
// While Driver is present Target is derived and read-only; when Driver is
// absent Target becomes user-editable and keeps its last value.
type Classifier struct {
	Step   runrecord.StepID
	Driver string
	Target string
	Cutoff float64
	Below  string
	Above  string
}

// Issue is a per-field validation finding produced by derivation.
type Issue struct {
	Ref     runrecord.FieldRef
	Message string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s: %s", i.Ref, i.Message)
}

// Rules is the full set of derivations for a wizard.
type Rules struct {
	Coordinates []Coordinate
	Intervals   []Interval
	Classifiers []Classifier
}

// Derived reports whether field is always computed (never user input) in
// step.
func (r Rules) Derived(step runrecord.StepID, field string) bool {
	for _, c := range r.Coordinates {
		if c.Step == step && c.Target == field {
			return true
		}
	}
	for _, iv := range r.Intervals {
		if iv.Step == step && iv.Target == field {
			return true
		}
	}
	return false
}

// classifier returns the classifier that owns field in step.
func (r Rules) classifier(step runrecord.StepID, field string) (Classifier, bool) {
	for _, c := range r.Classifiers {
		if c.Step == step && c.Target == field {
			return c, true
		}
	}
	return Classifier{}, false
}

// Classified reports whether field is a classification target in step.
func (r Rules) Classified(step runrecord.StepID, field string) bool {
	_, ok := r.classifier(step, field)
	return ok
}

// Editable reports whether the user may write field in slot right now.
func (r Rules) Editable(step runrecord.StepID, slot runrecord.Slot, field string) bool {
	if r.Derived(step, field) {
		return false
	}
	if c, ok := r.classifier(step, field); ok {
		return !slot.Fields.Present(c.Driver)
	}
	return true
}

// Override records a user value for a classification target. It fails
// with ErrReadOnly while the driver is present. An empty value clears the
// classification.
func (r Rules) Override(step runrecord.StepID, slot runrecord.Slot, field, value string) (runrecord.Slot, error) {
	c, ok := r.classifier(step, field)
	if !ok {
		return slot, fmt.Errorf("%s is not a classification field", runrecord.Ref(step, field))
	}
	if slot.Fields.Present(c.Driver) {
		return slot, fmt.Errorf("%s: %w", runrecord.Ref(step, field), ErrReadOnly)
	}

	out := slot.Clone()
	if value == "" {
		delete(out.Classes, field)
		return out, nil
	}
	if out.Classes == nil {
		out.Classes = make(map[string]runrecord.Classification)
	}
	out.Classes[field] = runrecord.Classification{Source: runrecord.ClassUser, Value: value}
	return out, nil
}

// Apply recomputes every derived value of step from slot's inputs and
// returns the updated slot. Missing inputs make the derived value absent
// rather than zero.
func (r Rules) Apply(step runrecord.StepID, slot runrecord.Slot) runrecord.Slot {
	out := slot.Clone()
	if out.Fields == nil {
		out.Fields = runrecord.Fields{}
	}
	derived := runrecord.Fields{}

	for _, c := range r.Coordinates {
		if c.Step != step {
			continue
		}
		if v, ok := c.compute(out.Fields); ok {
			derived[c.Target] = v
		}
	}

	for _, iv := range r.Intervals {
		if iv.Step != step {
			continue
		}
		if v, ok := iv.compute(out.Fields); ok {
			derived[iv.Target] = v
		}
	}

	for _, c := range r.Classifiers {
		if c.Step != step {
			continue
		}
		out.Classes = c.apply(out.Fields, out.Classes)
	}

	out.Derived = nil
	if len(derived) > 0 {
		out.Derived = derived
	}
	if len(out.Classes) == 0 {
		out.Classes = nil
	}
	return out
}

// Issues lists derivation findings for step: inputs that are not numbers
// and non-positive intervals.
func (r Rules) Issues(step runrecord.StepID, slot runrecord.Slot) []Issue {
	var issues []Issue
	notNumber := func(fields ...string) {
		for _, f := range fields {
			if f == "" || !slot.Fields.Present(f) {
				continue
			}
			if _, ok := slot.Fields.Float(f); !ok {
				issues = append(issues, Issue{Ref: runrecord.Ref(step, f), Message: "must be a number"})
			}
		}
	}
	for _, c := range r.Coordinates {
		if c.Step == step {
			notNumber(c.Degrees, c.Minutes, c.Seconds)
		}
	}
	for _, iv := range r.Intervals {
		if iv.Step != step {
			continue
		}
		notNumber(iv.From, iv.To)
		if length, ok := iv.compute(slot.Fields); ok && length <= 0 {
			issues = append(issues, Issue{
				Ref:     runrecord.Ref(step, iv.To),
				Message: fmt.Sprintf("must be greater than %s", iv.From),
			})
		}
	}
	return issues
}

func (c Coordinate) compute(f runrecord.Fields) (float64, bool) {
	deg, ok := f.Float(c.Degrees)
	if !ok {
		return 0, false
	}
	// Minutes and seconds default to 0; a present but unparsable value
	// still makes the coordinate unavailable.
	var mins, secs float64
	if f.Present(c.Minutes) {
		if mins, ok = f.Float(c.Minutes); !ok {
			return 0, false
		}
	}
	if f.Present(c.Seconds) {
		if secs, ok = f.Float(c.Seconds); !ok {
			return 0, false
		}
	}

	v := DecimalDegrees(deg, mins, secs)
	if c.Hemisphere != "" && southOrWest(f.String(c.Hemisphere)) && v > 0 {
		v = -v
	}
	return v, true
}

func (iv Interval) compute(f runrecord.Fields) (float64, bool) {
	from, ok := f.Float(iv.From)
	if !ok {
		return 0, false
	}
	to, ok := f.Float(iv.To)
	if !ok {
		return 0, false
	}
	return IntervalLength(from, to), true
}

func (c Classifier) apply(f runrecord.Fields, classes map[string]runrecord.Classification) map[string]runrecord.Classification {
	driver, ok := f.Float(c.Driver)
	if ok {
		if classes == nil {
			classes = make(map[string]runrecord.Classification)
		}
		classes[c.Target] = runrecord.Classification{
			Source: runrecord.ClassDerived,
			Value:  Classify(driver, c.Cutoff, c.Below, c.Above),
		}
		return classes
	}

	// Driver gone: hand the last value to the user.
	if cur, exists := classes[c.Target]; exists && cur.Source == runrecord.ClassDerived {
		classes[c.Target] = runrecord.Classification{Source: runrecord.ClassUser, Value: cur.Value}
	}
	return classes
}
