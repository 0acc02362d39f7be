package runrecord

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptor(t *testing.T) {
	d := DefaultSteps()

	assert.Equal(t, 6, d.Count())
	assert.Equal(t, 2, d.Index(StepDepth))
	assert.Equal(t, -1, d.Index("bogus"))
	assert.Equal(t, StepRun, d.At(-3))
	assert.Equal(t, StepReview, d.At(42))
	assert.Equal(t, []StepID{StepRun, StepLocation, StepDepth, StepSurvey, StepTieOn}, d.Slots())
	assert.True(t, d.HasSlot(StepTieOn))
	assert.False(t, d.HasSlot(StepReview), "review owns no slot")
	assert.True(t, d.Equal(DefaultSteps()))
	assert.False(t, d.Equal(d[:5]))
}

func TestParseFieldRef(t *testing.T) {
	ref, err := ParseFieldRef("run.run_number")
	require.NoError(t, err)
	assert.Equal(t, Ref(StepRun, FieldRunNumber), ref)
	assert.Equal(t, "run.run_number", ref.String())

	for _, bad := range []string{"", "run", ".x", "run."} {
		_, err := ParseFieldRef(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestFields_PresentAndFloat(t *testing.T) {
	f := Fields{
		"num":   12.5,
		"text":  " 7.25 ",
		"blank": "   ",
		"nil":   nil,
		"word":  "abc",
		"int":   3,
	}

	assert.True(t, f.Present("num"))
	assert.False(t, f.Present("blank"))
	assert.False(t, f.Present("nil"))
	assert.False(t, f.Present("missing"))

	n, ok := f.Float("text")
	assert.True(t, ok)
	assert.Equal(t, 7.25, n)

	n, ok = f.Float("int")
	assert.True(t, ok)
	assert.Equal(t, 3.0, n)

	_, ok = f.Float("word")
	assert.False(t, ok)
	_, ok = f.Float("blank")
	assert.False(t, ok)

	assert.Equal(t, "12.5", f.String("num"))
	assert.Equal(t, "", f.String("blank"))
}

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(""))
	assert.Nil(t, Normalize("  "))
	assert.Equal(t, 4.0, Normalize(4))
	assert.Equal(t, 2.5, Normalize(json.Number("2.5")))
	assert.Equal(t, "x", Normalize("x"))
	assert.Equal(t, true, Normalize(true))
}

func TestSlot_FlattenAndClone(t *testing.T) {
	s := Slot{
		Fields:  Fields{FieldExpectedInclination: 3.0, "blank": ""},
		Derived: Fields{"calc": 1.5},
		Classes: map[string]Classification{
			FieldWellProfile: {Source: ClassDerived, Value: ProfileVertical},
		},
	}

	flat := s.Flatten()
	assert.Equal(t, map[string]any{
		FieldExpectedInclination: 3.0,
		"calc":                   1.5,
		FieldWellProfile:         ProfileVertical,
	}, flat)

	c := s.Clone()
	c.Fields["new"] = "x"
	c.Classes[FieldWellProfile] = Classification{Source: ClassUser, Value: ProfileDeviated}
	assert.NotContains(t, s.Fields, "new")
	assert.Equal(t, ProfileVertical, s.Classes[FieldWellProfile].Value)

	v, ok := s.Value(FieldWellProfile)
	assert.True(t, ok)
	assert.Equal(t, ProfileVertical, v)
}

func TestState_JSONRoundTrip(t *testing.T) {
	st := NewState(DefaultSteps())
	st[StepRun] = Slot{Fields: Fields{FieldRunNumber: "R-100", FieldHoleSection: "hs-12"}}
	st[StepDepth] = Slot{
		Fields:  Fields{FieldIntervalFrom: 1000.0, FieldIntervalTo: 5000.0},
		Derived: Fields{FieldIntervalLength: 4000.0},
	}

	data, err := json.Marshal(st)
	require.NoError(t, err)

	var back State
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, st, back)
}

func TestBuildPayload(t *testing.T) {
	d := DefaultSteps()
	st := NewState(d)
	st[StepRun] = Slot{Fields: Fields{FieldRunNumber: "R-1"}}

	p := BuildPayload("draft-1", d, st)
	assert.Equal(t, "draft-1", p.ID)
	assert.Len(t, p.Steps, 5)
	assert.NotContains(t, p.Steps, StepReview)

	v, ok := p.Get(Ref(StepRun, FieldRunNumber))
	assert.True(t, ok)
	assert.Equal(t, "R-1", v)
}
