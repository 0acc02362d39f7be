package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/drillrun/runwiz/internal/derive"
	"github.com/drillrun/runwiz/internal/runrecord"
)

var (
	// ErrReadOnly is returned when an edit targets a derived field.
	ErrReadOnly = derive.ErrReadOnly
	// ErrUnknownStep is returned for a step that is not a data step.
	ErrUnknownStep = errors.New("unknown step")
	// ErrUnknownField is returned for a field the step does not accept.
	ErrUnknownField = errors.New("unknown field")
	// ErrIncomplete is matched by every IncompleteError.
	ErrIncomplete = errors.New("run record incomplete")
	// ErrUpstreamMissing is returned when a dependent option is chosen
	// before the selections it depends on.
	ErrUpstreamMissing = errors.New("upstream selection missing")
	// ErrSubmitInFlight is returned while a submission is outstanding.
	ErrSubmitInFlight = errors.New("submission already in flight")
)

// IncompleteError lists everything that keeps the record from being
// submitted.
type IncompleteError struct {
	Missing []runrecord.FieldRef
	Invalid []derive.Issue
	Taken   []runrecord.FieldRef
	Pending []runrecord.FieldRef
}

func (e *IncompleteError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+joinRefs(e.Missing))
	}
	for _, is := range e.Invalid {
		parts = append(parts, is.Error())
	}
	if len(e.Taken) > 0 {
		parts = append(parts, "already used "+joinRefs(e.Taken))
	}
	if len(e.Pending) > 0 {
		parts = append(parts, "still validating "+joinRefs(e.Pending))
	}
	return fmt.Sprintf("%s: %s", ErrIncomplete, strings.Join(parts, "; "))
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

func (e *IncompleteError) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0 && len(e.Taken) == 0 && len(e.Pending) == 0
}

func joinRefs(refs []runrecord.FieldRef) string {
	s := make([]string, len(refs))
	for i, r := range refs {
		s[i] = r.String()
	}
	return strings.Join(s, ", ")
}
