package wizard

import (
	"github.com/drillrun/runwiz/internal/dependency"
	"github.com/drillrun/runwiz/internal/runrecord"
)

// FieldView is the observable state of one field.
type FieldView struct {
	Name     string              `json:"name"`
	Value    any                 `json:"value,omitempty"`
	Editable bool                `json:"editable"`
	Derived  bool                `json:"derived,omitempty"`
	Source   string              `json:"source,omitempty"`
	Options  string              `json:"options,omitempty"`
	Choices  []dependency.Option `json:"choices,omitempty"`
	Error    string              `json:"error,omitempty"`
	Unique   string              `json:"unique,omitempty"`
	Required bool                `json:"required,omitempty"`
}

// StepView groups the fields of one step.
type StepView struct {
	ID     runrecord.StepID `json:"id"`
	Fields []FieldView      `json:"fields,omitempty"`
}

// Snapshot is a read-only picture of the whole session, used by the MCP
// tools and the draft command.
type Snapshot struct {
	DraftID    string           `json:"draft_id"`
	Cursor     int              `json:"cursor"`
	Current    runrecord.StepID `json:"current"`
	Submitting bool             `json:"submitting,omitempty"`
	Steps      []StepView       `json:"steps"`
	Problems   []string         `json:"problems,omitempty"`
}

// Snapshot describes the current session.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		DraftID:    c.draftID,
		Cursor:     c.cursor,
		Current:    c.Current(),
		Submitting: c.submitting,
	}
	for _, step := range c.cat.Steps {
		sv := StepView{ID: step}
		for _, name := range c.cat.Fields[step] {
			sv.Fields = append(sv.Fields, c.fieldView(step, name))
		}
		s.Steps = append(s.Steps, sv)
	}
	if err, ok := c.Validate().(*IncompleteError); ok {
		for _, r := range err.Missing {
			s.Problems = append(s.Problems, "missing "+r.String())
		}
		for _, is := range err.Invalid {
			s.Problems = append(s.Problems, is.Error())
		}
		for _, r := range err.Taken {
			s.Problems = append(s.Problems, "already used "+r.String())
		}
		for _, r := range err.Pending {
			s.Problems = append(s.Problems, "validating "+r.String())
		}
	}
	return s
}

// Field describes one field of the current session.
func (c *Controller) Field(ref runrecord.FieldRef) FieldView {
	return c.fieldView(ref.Step, ref.Field)
}

func (c *Controller) fieldView(step runrecord.StepID, name string) FieldView {
	slot := c.state[step]
	ref := runrecord.Ref(step, name)
	fv := FieldView{
		Name:     name,
		Editable: c.Editable(ref),
		Derived:  c.cat.Rules.Derived(step, name),
	}
	if v, ok := slot.Value(name); ok {
		fv.Value = v
	}
	if cl, ok := slot.Classes[name]; ok {
		fv.Source = string(cl.Source)
	}
	if n, ok := c.Options(ref); ok {
		fv.Options = n.Phase.String()
		fv.Choices = n.Options
		if n.Err != nil {
			fv.Error = n.Err.Error()
		}
	}
	if c.deb.Watches(ref) {
		fv.Unique = c.deb.Status(ref).String()
		if err := c.deb.Err(ref); err != nil {
			fv.Error = err.Error()
		}
	}
	for _, f := range c.cat.Required[step] {
		if f == name {
			fv.Required = true
		}
	}
	return fv
}
